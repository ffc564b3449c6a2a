package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"eduforge_backend/internal/agent"
	"eduforge_backend/internal/llm"
	"eduforge_backend/internal/model"
	"eduforge_backend/internal/util"
)

// AssessmentWriter upserts the per-session analysis row.
type AssessmentWriter interface {
	UpsertUserAssessment(a *model.UserAssessment) error
}

// AssessmentService drives the assessment agent after an entry-test
// submission.
type AssessmentService struct {
	runner   Runner
	sessions SessionReader
	writer   AssessmentWriter
	log      *zap.Logger
}

func NewAssessmentService(runner Runner, sessions SessionReader, writer AssessmentWriter, log *zap.Logger) *AssessmentService {
	return &AssessmentService{runner: runner, sessions: sessions, writer: writer, log: log}
}

// Assess analyzes a submitted session and upserts one UserAssessment per
// (user, session). An unsubmitted or unscored session fails with
// ErrAssessmentInput and writes nothing; a pipeline failure after a valid
// input persists a fallback record so the learner always has one.
func (s *AssessmentService) Assess(ctx context.Context, sessionID string, userID uint) (*model.UserAssessment, error) {
	session, err := s.sessions.GetTestSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: load session %s: %w", util.ErrAssessmentInput, sessionID, err)
	}
	if !session.IsSubmitted || session.Score == nil {
		return nil, fmt.Errorf("%w: session %s is not submitted with a score", util.ErrAssessmentInput, sessionID)
	}

	assessment, err := s.analyze(ctx, sessionID, userID)
	if err != nil {
		s.log.Warn("assessment pipeline failed, writing fallback",
			zap.String("sessionId", sessionID),
			zap.Uint("userId", userID),
			zap.Error(err))
		assessment = fallbackAssessment(sessionID, userID)
	}

	if err := s.writer.UpsertUserAssessment(assessment); err != nil {
		return nil, fmt.Errorf("persist assessment: %w", err)
	}
	s.log.Info("assessment persisted",
		zap.String("sessionId", sessionID),
		zap.Uint("userId", userID),
		zap.String("skill", assessment.SkillName),
		zap.String("severity", string(assessment.WeaknessSeverity)))
	return assessment, nil
}

func (s *AssessmentService) analyze(ctx context.Context, sessionID string, userID uint) (*model.UserAssessment, error) {
	out, err := s.runner.Run(ctx, agent.Spec{
		Kind:         agent.KindAssessment,
		SystemPrompt: assessmentSystemPrompt,
		UserPrompt:   assessmentUserPrompt(sessionID, userID),
		Tools:        []string{"fetch_test_session"},
		OutputSchema: AssessmentSchema,
		Profile:      llm.ProfileDeterministic,
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		SkillName              string   `json:"skillName"`
		Weaknesses             []string `json:"weaknesses"`
		WeaknessAnalysis       string   `json:"weaknessAnalysis"`
		ImprovementSuggestions []string `json:"improvementSuggestions"`
		CurrentLevel           string   `json:"currentLevel"`
		WeaknessSeverity       string   `json:"weaknessSeverity"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return nil, fmt.Errorf("decode assessment: %w", err)
	}

	weaknesses, _ := json.Marshal(payload.Weaknesses)
	suggestions, _ := json.Marshal(payload.ImprovementSuggestions)
	res := AgentResult{Kind: agent.KindAssessment, Assessment: &model.UserAssessment{
		UserID:                 userID,
		TestSessionID:          sessionID,
		SkillName:              payload.SkillName,
		Weaknesses:             weaknesses,
		WeaknessAnalysis:       payload.WeaknessAnalysis,
		ImprovementSuggestions: suggestions,
		CurrentLevel:           payload.CurrentLevel,
		WeaknessSeverity:       model.WeaknessSeverity(payload.WeaknessSeverity),
		RawAnalysis:            json.RawMessage(out),
	}}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res.Assessment, nil
}

func fallbackAssessment(sessionID string, userID uint) *model.UserAssessment {
	weaknesses, _ := json.Marshal([]string{})
	suggestions, _ := json.Marshal([]string{"Retake the entry test once more data is available."})
	return &model.UserAssessment{
		UserID:                 userID,
		TestSessionID:          sessionID,
		SkillName:              "general",
		Weaknesses:             weaknesses,
		WeaknessAnalysis:       "Insufficient data to analyze this attempt.",
		ImprovementSuggestions: suggestions,
		CurrentLevel:           "Unknown",
		WeaknessSeverity:       model.SeverityLow,
	}
}
