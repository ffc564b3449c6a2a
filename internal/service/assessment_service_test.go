package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"

	"eduforge_backend/internal/model"
	"eduforge_backend/internal/util"
)

type fakeSessionReader struct {
	sessions map[string]*model.TestSession
}

func (f *fakeSessionReader) GetTestSession(id string) (*model.TestSession, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return session, nil
}

type fakeAssessmentWriter struct {
	saved *model.UserAssessment
}

func (f *fakeAssessmentWriter) UpsertUserAssessment(a *model.UserAssessment) error {
	f.saved = a
	return nil
}

func submittedSession(id string) *model.TestSession {
	score := 72.0
	return &model.TestSession{
		UserID:      5,
		TestID:      1,
		Status:      model.SessionCompleted,
		IsSubmitted: true,
		Score:       &score,
	}
}

func assessmentJSON() json.RawMessage {
	return json.RawMessage(`{
		"skillName": "Go basics",
		"weaknesses": ["pointers", "interfaces"],
		"weaknessAnalysis": "Struggles with indirection.",
		"improvementSuggestions": ["revisit pointers"],
		"currentLevel": "Beginner",
		"weaknessSeverity": "Medium"
	}`)
}

func TestAssessHappyPath(t *testing.T) {
	sessions := &fakeSessionReader{sessions: map[string]*model.TestSession{
		"sess-1": submittedSession("sess-1"),
	}}
	writer := &fakeAssessmentWriter{}
	runner := &fakeRunner{outputs: []json.RawMessage{assessmentJSON()}}
	svc := NewAssessmentService(runner, sessions, writer, zap.NewNop())

	assessment, err := svc.Assess(context.Background(), "sess-1", 5)
	require.NoError(t, err)
	require.NotNil(t, writer.saved)

	assert.Equal(t, uint(5), assessment.UserID)
	assert.Equal(t, "sess-1", assessment.TestSessionID)
	assert.Equal(t, "Go basics", assessment.SkillName)
	assert.Equal(t, model.WeaknessSeverity("Medium"), assessment.WeaknessSeverity)
	assert.NotEmpty(t, assessment.RawAnalysis, "the full agent output is kept verbatim")

	var weaknesses []string
	require.NoError(t, json.Unmarshal(assessment.Weaknesses, &weaknesses))
	assert.Equal(t, []string{"pointers", "interfaces"}, weaknesses)
}

func TestAssessRejectsUnsubmittedSession(t *testing.T) {
	session := submittedSession("sess-1")
	session.IsSubmitted = false
	sessions := &fakeSessionReader{sessions: map[string]*model.TestSession{"sess-1": session}}
	writer := &fakeAssessmentWriter{}
	svc := NewAssessmentService(&fakeRunner{}, sessions, writer, zap.NewNop())

	_, err := svc.Assess(context.Background(), "sess-1", 5)
	require.ErrorIs(t, err, util.ErrAssessmentInput)
	assert.Nil(t, writer.saved, "nothing is written for invalid input")
}

func TestAssessRejectsUnscoredSession(t *testing.T) {
	session := submittedSession("sess-1")
	session.Score = nil
	sessions := &fakeSessionReader{sessions: map[string]*model.TestSession{"sess-1": session}}
	writer := &fakeAssessmentWriter{}
	svc := NewAssessmentService(&fakeRunner{}, sessions, writer, zap.NewNop())

	_, err := svc.Assess(context.Background(), "sess-1", 5)
	require.ErrorIs(t, err, util.ErrAssessmentInput)
	assert.Nil(t, writer.saved)
}

func TestAssessMissingSession(t *testing.T) {
	svc := NewAssessmentService(&fakeRunner{}, &fakeSessionReader{}, &fakeAssessmentWriter{}, zap.NewNop())
	_, err := svc.Assess(context.Background(), "nope", 5)
	assert.ErrorIs(t, err, util.ErrAssessmentInput)
}

func TestAssessFallbackOnPipelineFailure(t *testing.T) {
	sessions := &fakeSessionReader{sessions: map[string]*model.TestSession{
		"sess-1": submittedSession("sess-1"),
	}}
	writer := &fakeAssessmentWriter{}
	runner := &fakeRunner{errs: []error{errors.New("agent exploded")}}
	svc := NewAssessmentService(runner, sessions, writer, zap.NewNop())

	assessment, err := svc.Assess(context.Background(), "sess-1", 5)
	require.NoError(t, err, "a pipeline failure after valid input still yields a record")
	require.NotNil(t, writer.saved)
	assert.Equal(t, "general", assessment.SkillName)
	assert.Equal(t, "Unknown", assessment.CurrentLevel)
	assert.Equal(t, model.SeverityLow, assessment.WeaknessSeverity)
}
