package agent

import "context"

type depthKey struct{}

// maxDepth bounds agent-in-agent nesting: a top-level agent may invoke a
// nested agent through a tool, but that nested agent may not recurse again.
const maxDepth = 2

// EnterDepth increments the invocation depth carried on the context,
// failing with ErrDepthExceeded once the nesting cap is reached.
func EnterDepth(ctx context.Context) (context.Context, error) {
	depth, _ := ctx.Value(depthKey{}).(int)
	if depth >= maxDepth {
		return nil, ErrDepthExceeded
	}
	return context.WithValue(ctx, depthKey{}, depth+1), nil
}

// Depth reports the current invocation depth, zero outside any agent.
func Depth(ctx context.Context) int {
	depth, _ := ctx.Value(depthKey{}).(int)
	return depth
}
