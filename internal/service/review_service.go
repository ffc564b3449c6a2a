package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"eduforge_backend/internal/agent"
	"eduforge_backend/internal/llm"
	"eduforge_backend/internal/model"
)

// maxReviewExercises bounds how many top-priority skills get an exercise in
// one plan.
const maxReviewExercises = 3

type ReviewRequest struct {
	UserID     uint     `json:"userId"`
	Weaknesses string   `json:"weaknesses"`
	Skills     []string `json:"skills,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`
	Goals      string   `json:"goals,omitempty"`
	SessionID  string   `json:"sessionId,omitempty"`
}

type SkillGap struct {
	Skill         string   `json:"skill"`
	Priority      int      `json:"priority"`
	ExerciseTypes []string `json:"exerciseTypes,omitempty"`
}

type ReviewPlan struct {
	Gaps      []SkillGap        `json:"gaps"`
	Exercises []*ExerciseDetail `json:"exercises"`
}

// ExerciseGenerator is the slice of the exercise service the planner needs.
type ExerciseGenerator interface {
	Generate(ctx context.Context, req ExerciseRequest) (*ExerciseDetail, error)
	Persist(ctx context.Context, detail *ExerciseDetail, topicID, lessonID *uint, skillTag string) (*model.Exercise, error)
}

// ReviewService plans targeted review exercises from a learner's weaknesses.
type ReviewService struct {
	runner    Runner
	exercises ExerciseGenerator
	log       *zap.Logger
}

func NewReviewService(runner Runner, exercises ExerciseGenerator, log *zap.Logger) *ReviewService {
	return &ReviewService{runner: runner, exercises: exercises, log: log}
}

// Plan maps the learner's weaknesses to prioritized skill gaps, then
// generates one exercise per top-priority skill, persisted under the gap's
// skill tag. Individual generation failures are logged and skipped; the
// plan returns whatever succeeded.
func (s *ReviewService) Plan(ctx context.Context, req ReviewRequest) (*ReviewPlan, error) {
	out, err := s.runner.Run(ctx, agent.Spec{
		Kind:         agent.KindReviewPlan,
		SystemPrompt: reviewPlanSystemPrompt,
		UserPrompt:   reviewPlanUserPrompt(req),
		Tools:        []string{"analyze_skill_gaps"},
		OutputSchema: GapAnalysisSchema,
		Profile:      llm.ProfileDeterministic,
		SessionID:    req.SessionID,
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Gaps []SkillGap `json:"gaps"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return nil, fmt.Errorf("decode gap map: %w", err)
	}
	sort.SliceStable(payload.Gaps, func(i, j int) bool {
		return payload.Gaps[i].Priority < payload.Gaps[j].Priority
	})

	// Exercise generation runs inside the planner's depth scope so a
	// generated exercise cannot spawn further agents.
	exerciseCtx, err := agent.EnterDepth(ctx)
	if err != nil {
		return nil, err
	}

	plan := &ReviewPlan{Gaps: payload.Gaps}
	for i, gap := range payload.Gaps {
		if i >= maxReviewExercises {
			break
		}
		// Nested generations run without a session id: their turns must
		// not land in the planner's own conversation history.
		detail, err := s.exercises.Generate(exerciseCtx, ExerciseRequest{
			Topic:      gap.Skill,
			Difficulty: req.Difficulty,
		})
		if err != nil {
			s.log.Warn("review exercise generation failed, skipping skill",
				zap.String("skill", gap.Skill),
				zap.Error(err))
			continue
		}
		if _, err := s.exercises.Persist(exerciseCtx, detail, nil, nil, gap.Skill); err != nil {
			s.log.Warn("review exercise persistence failed",
				zap.String("skill", gap.Skill),
				zap.Error(err))
		}
		plan.Exercises = append(plan.Exercises, detail)
	}

	res := AgentResult{Kind: agent.KindReviewPlan, ReviewPlan: plan}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res.ReviewPlan, nil
}
