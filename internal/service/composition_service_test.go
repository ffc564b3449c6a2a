package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"

	"eduforge_backend/internal/agent"
	"eduforge_backend/internal/draft"
	"eduforge_backend/internal/llm"
	"eduforge_backend/internal/util"
)

func compositionTestConfig() CompositionConfig {
	return CompositionConfig{
		MaxIterations:    5,
		MaxTopics:        8,
		RetryMaxAttempts: 3,
		RetryBase:        time.Millisecond,
		RetryMaxWait:     2 * time.Millisecond,
	}
}

func draftJSON() json.RawMessage {
	return json.RawMessage(`{
		"title": "Go Fundamentals",
		"description": "From zero to goroutines",
		"level": "Beginner",
		"duration": 20,
		"topics": [
			{"name": "Concurrency", "description": "goroutines", "order": 5, "prerequisites": ["Basics"]},
			{"name": "Basics", "description": "syntax", "order": 2, "skills": ["variables"]}
		]
	}`)
}

func TestComposeMintsSessionAndSavesDraft(t *testing.T) {
	runner := &fakeRunner{outputs: []json.RawMessage{draftJSON()}}
	store := draft.NewMemoryStore()
	svc := NewCompositionService(runner, store, compositionTestConfig(), zap.NewNop())

	d, err := svc.Compose(context.Background(), CompositionRequest{
		CourseID: 3,
		Title:    "Go Fundamentals",
		Level:    "Beginner",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, d.SessionID, "a session id is minted when none is supplied")
	assert.Equal(t, uint(3), d.CourseID)

	// Topics come back sorted by declared order and renumbered 1..N.
	require.Len(t, d.Topics, 2)
	assert.Equal(t, "Basics", d.Topics[0].Name)
	assert.Equal(t, 1, d.Topics[0].Order)
	assert.Equal(t, "Concurrency", d.Topics[1].Name)
	assert.Equal(t, 2, d.Topics[1].Order)

	stored, err := store.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, d.SessionID, stored.SessionID)

	spec := runner.lastSpec()
	assert.Equal(t, agent.KindComposition, spec.Kind)
	assert.Equal(t, []string{"retrieve"}, spec.Tools)
	assert.Equal(t, d.SessionID, spec.SessionID)
	assert.Equal(t, llm.ProfileDeterministic, spec.Profile)
}

func TestComposeReusesSessionForFeedback(t *testing.T) {
	runner := &fakeRunner{outputs: []json.RawMessage{draftJSON()}}
	svc := NewCompositionService(runner, draft.NewMemoryStore(), compositionTestConfig(), zap.NewNop())

	d, err := svc.Compose(context.Background(), CompositionRequest{
		CourseID:  3,
		Title:     "Go Fundamentals",
		Feedback:  "split concurrency into two topics",
		SessionID: "sess-keep",
	})
	require.NoError(t, err)
	assert.Equal(t, "sess-keep", d.SessionID)
	assert.Equal(t, "sess-keep", runner.lastSpec().SessionID)
	assert.Contains(t, runner.lastSpec().UserPrompt, "split concurrency")
}

func TestComposeRejectsTooManyTopics(t *testing.T) {
	runner := &fakeRunner{outputs: []json.RawMessage{draftJSON()}}
	store := draft.NewMemoryStore()
	svc := NewCompositionService(runner, store, compositionTestConfig(), zap.NewNop())

	_, err := svc.Compose(context.Background(), CompositionRequest{
		CourseID:  3,
		Title:     "Go Fundamentals",
		MaxTopics: 1,
	})
	require.ErrorIs(t, err, util.ErrComposition)

	_, err = store.Get(context.Background(), 3)
	assert.ErrorIs(t, err, draft.ErrDraftNotFound, "nothing is written on failure")
}

func TestComposeRetriesTransientFailures(t *testing.T) {
	runner := &fakeRunner{
		outputs: []json.RawMessage{nil, draftJSON()},
		errs:    []error{&llm.ErrModelUnavailable{Attempts: 3, Err: errors.New("down")}, nil},
	}
	svc := NewCompositionService(runner, draft.NewMemoryStore(), compositionTestConfig(), zap.NewNop())

	d, err := svc.Compose(context.Background(), CompositionRequest{CourseID: 3, Title: "Go"})
	require.NoError(t, err)
	assert.Len(t, d.Topics, 2)
	assert.Len(t, runner.specs, 2)
}

func TestComposeDoesNotRetryNonTransientFailures(t *testing.T) {
	runner := &fakeRunner{errs: []error{errors.New("schema busted")}}
	svc := NewCompositionService(runner, draft.NewMemoryStore(), compositionTestConfig(), zap.NewNop())

	_, err := svc.Compose(context.Background(), CompositionRequest{CourseID: 3, Title: "Go"})
	require.ErrorIs(t, err, util.ErrComposition)
	assert.Len(t, runner.specs, 1)
}
