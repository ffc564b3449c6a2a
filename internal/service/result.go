package service

import (
	"fmt"
	"sync"

	"eduforge_backend/internal/agent"
	"eduforge_backend/internal/draft"
	"eduforge_backend/internal/model"
)

// AgentResult is the tagged union over agent outcomes. Exactly one payload
// field is set, selected by Kind.
type AgentResult struct {
	Kind agent.Kind `json:"kind"`

	Draft      *draft.CourseDraft    `json:"draft,omitempty"`
	Lessons    []draft.LessonDraft   `json:"lessons,omitempty"`
	Exercise   *ExerciseDetail       `json:"exercise,omitempty"`
	Test       *model.Test           `json:"test,omitempty"`
	Assessment *model.UserAssessment `json:"assessment,omitempty"`
	ReviewPlan *ReviewPlan           `json:"reviewPlan,omitempty"`
}

// resultRegistry maps agent kinds to payload validators so dispatch never
// relies on probing which field happens to be set.
var resultRegistry = struct {
	mu    sync.RWMutex
	kinds map[agent.Kind]func(*AgentResult) bool
}{kinds: make(map[agent.Kind]func(*AgentResult) bool)}

func registerResultKind(kind agent.Kind, present func(*AgentResult) bool) {
	resultRegistry.mu.Lock()
	defer resultRegistry.mu.Unlock()
	resultRegistry.kinds[kind] = present
}

func init() {
	registerResultKind(agent.KindComposition, func(r *AgentResult) bool { return r.Draft != nil })
	registerResultKind(agent.KindLesson, func(r *AgentResult) bool { return r.Lessons != nil })
	registerResultKind(agent.KindExercise, func(r *AgentResult) bool { return r.Exercise != nil })
	registerResultKind(agent.KindEntryTest, func(r *AgentResult) bool { return r.Test != nil })
	registerResultKind(agent.KindAssessment, func(r *AgentResult) bool { return r.Assessment != nil })
	registerResultKind(agent.KindReviewPlan, func(r *AgentResult) bool { return r.ReviewPlan != nil })
}

// Validate checks that the result's payload matches its declared kind.
func (r *AgentResult) Validate() error {
	resultRegistry.mu.RLock()
	present, ok := resultRegistry.kinds[r.Kind]
	resultRegistry.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown agent kind %q", r.Kind)
	}
	if !present(r) {
		return fmt.Errorf("result for %q carries no payload", r.Kind)
	}
	return nil
}
