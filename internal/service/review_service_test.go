package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"

	"eduforge_backend/internal/agent"
	"eduforge_backend/internal/model"
)

type fakeExerciseGenerator struct {
	failFor    map[string]bool
	topics     []string
	depths     []int
	sessionIDs []string
	skillTags  []string
}

func (f *fakeExerciseGenerator) Generate(ctx context.Context, req ExerciseRequest) (*ExerciseDetail, error) {
	f.topics = append(f.topics, req.Topic)
	f.depths = append(f.depths, agent.Depth(ctx))
	f.sessionIDs = append(f.sessionIDs, req.SessionID)
	if f.failFor[req.Topic] {
		return nil, errors.New("generation failed")
	}
	return &ExerciseDetail{Title: "Exercise on " + req.Topic}, nil
}

func (f *fakeExerciseGenerator) Persist(_ context.Context, detail *ExerciseDetail, _, _ *uint, skillTag string) (*model.Exercise, error) {
	f.skillTags = append(f.skillTags, skillTag)
	return &model.Exercise{Title: detail.Title, SkillTag: skillTag}, nil
}

func gapJSON() json.RawMessage {
	return json.RawMessage(`{"gaps": [
		{"skill": "interfaces", "priority": 3},
		{"skill": "pointers", "priority": 1},
		{"skill": "channels", "priority": 2},
		{"skill": "generics", "priority": 4}
	]}`)
}

func TestReviewPlanSortsGapsAndBoundsExercises(t *testing.T) {
	runner := &fakeRunner{outputs: []json.RawMessage{gapJSON()}}
	gen := &fakeExerciseGenerator{}
	svc := NewReviewService(runner, gen, zap.NewNop())

	plan, err := svc.Plan(context.Background(), ReviewRequest{
		UserID:     5,
		Weaknesses: "struggles with indirection",
		Difficulty: "beginner",
	})
	require.NoError(t, err)

	// Gaps come back sorted by priority, all of them.
	require.Len(t, plan.Gaps, 4)
	assert.Equal(t, "pointers", plan.Gaps[0].Skill)
	assert.Equal(t, "generics", plan.Gaps[3].Skill)

	// Only the top three get exercises, each persisted under its skill tag.
	assert.Equal(t, []string{"pointers", "channels", "interfaces"}, gen.topics)
	assert.Equal(t, []string{"pointers", "channels", "interfaces"}, gen.skillTags)
	require.Len(t, plan.Exercises, 3)
	assert.Equal(t, "Exercise on pointers", plan.Exercises[0].Title)

	spec := runner.lastSpec()
	assert.Equal(t, agent.KindReviewPlan, spec.Kind)
	assert.Equal(t, []string{"analyze_skill_gaps"}, spec.Tools)
}

func TestReviewPlanNestedGenerationsLeaveHistoryAlone(t *testing.T) {
	runner := &fakeRunner{outputs: []json.RawMessage{gapJSON()}}
	gen := &fakeExerciseGenerator{}
	svc := NewReviewService(runner, gen, zap.NewNop())

	_, err := svc.Plan(context.Background(), ReviewRequest{
		UserID:     5,
		Weaknesses: "w",
		SessionID:  "plan-session",
	})
	require.NoError(t, err)

	assert.Equal(t, "plan-session", runner.lastSpec().SessionID)
	for _, id := range gen.sessionIDs {
		assert.Empty(t, id, "nested generations must not write into the planner's history")
	}
}

func TestReviewPlanSkipsFailedGenerations(t *testing.T) {
	runner := &fakeRunner{outputs: []json.RawMessage{gapJSON()}}
	gen := &fakeExerciseGenerator{failFor: map[string]bool{"channels": true}}
	svc := NewReviewService(runner, gen, zap.NewNop())

	plan, err := svc.Plan(context.Background(), ReviewRequest{UserID: 5, Weaknesses: "w"})
	require.NoError(t, err)
	require.Len(t, plan.Exercises, 2)
	assert.Equal(t, "Exercise on pointers", plan.Exercises[0].Title)
	assert.Equal(t, "Exercise on interfaces", plan.Exercises[1].Title)
}

func TestReviewPlanGeneratesExercisesAtNestedDepth(t *testing.T) {
	runner := &fakeRunner{outputs: []json.RawMessage{gapJSON()}}
	gen := &fakeExerciseGenerator{}
	svc := NewReviewService(runner, gen, zap.NewNop())

	_, err := svc.Plan(context.Background(), ReviewRequest{UserID: 5, Weaknesses: "w"})
	require.NoError(t, err)
	for _, depth := range gen.depths {
		assert.Equal(t, 1, depth, "exercise generation runs one level down")
	}
}

func TestReviewPlanAgentFailure(t *testing.T) {
	runner := &fakeRunner{errs: []error{errors.New("no plan")}}
	svc := NewReviewService(runner, &fakeExerciseGenerator{}, zap.NewNop())

	_, err := svc.Plan(context.Background(), ReviewRequest{UserID: 5, Weaknesses: "w"})
	assert.Error(t, err)
}
