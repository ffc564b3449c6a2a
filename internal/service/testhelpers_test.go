package service

import (
	"context"
	"encoding/json"

	"eduforge_backend/internal/agent"
)

// fakeRunner serves canned agent outputs in order and records every spec it
// was invoked with.
type fakeRunner struct {
	outputs []json.RawMessage
	errs    []error
	specs   []agent.Spec
}

func (f *fakeRunner) Run(_ context.Context, spec agent.Spec) (json.RawMessage, error) {
	f.specs = append(f.specs, spec)
	i := len(f.specs) - 1
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.outputs) {
		return f.outputs[i], nil
	}
	return nil, nil
}

func (f *fakeRunner) lastSpec() agent.Spec {
	return f.specs[len(f.specs)-1]
}
