package agent

import (
	"errors"
	"fmt"
)

// ErrDepthExceeded guards against unbounded agent-in-agent nesting.
var ErrDepthExceeded = errors.New("agent invocation depth exceeded")

// ErrIterationLimit is raised when the tool-calling loop exhausts its
// iteration budget without a final answer. Fatal to the invocation.
type ErrIterationLimit struct {
	Agent      Kind
	Iterations int
}

func (e *ErrIterationLimit) Error() string {
	return fmt.Sprintf("agent %s exceeded %d iterations without a final answer", e.Agent, e.Iterations)
}

// ErrToolNotFound indicates the model requested a tool outside the
// invocation's tool set.
type ErrToolNotFound struct {
	Tool string
}

func (e *ErrToolNotFound) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Tool)
}

// ErrToolArgument indicates the model supplied arguments violating the
// tool's declared schema. Returned to the model as an error observation;
// the loop continues.
type ErrToolArgument struct {
	Tool string
	Err  error
}

func (e *ErrToolArgument) Error() string {
	return fmt.Sprintf("invalid arguments for tool %q: %v", e.Tool, e.Err)
}

func (e *ErrToolArgument) Unwrap() error { return e.Err }
