package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"eduforge_backend/internal/model"
	"eduforge_backend/internal/util"
)

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*model.TestSession
	nextID   int
	expired  int64
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*model.TestSession)}
}

func (f *fakeSessionStore) CreateSession(s *model.TestSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	s.ID = fmt.Sprintf("sess-%d", f.nextID)
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeSessionStore) GetTestSession(id string) (*model.TestSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSessionStore) FindActiveSession(userID uint) (*model.TestSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.UserID == userID && s.Status == model.SessionInProgress && !s.IsSubmitted {
			copied := *s
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSessionStore) UpdateSession(s *model.TestSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeSessionStore) ExpireStaleSessions(time.Time) (int64, error) {
	return f.expired, nil
}

type fakeTestReader struct {
	tests map[uint]*model.Test
}

func (f *fakeTestReader) FindByID(id uint) (*model.Test, error) {
	test, ok := f.tests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return test, nil
}

type fakeAssessor struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeAssessor) Assess(_ context.Context, sessionID string, _ uint) (*model.UserAssessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sessionID)
	return &model.UserAssessment{}, nil
}

func (f *fakeAssessor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func choiceQuestion(id uint, answer string) model.TestQuestion {
	q := model.TestQuestion{Type: model.QuestionSingleChoice, Answer: answer}
	q.ID = id
	return q
}

func sessionServiceForTest() (*TestSessionService, *fakeSessionStore, *fakeAssessor, *TaskRunner) {
	store := newFakeSessionStore()
	essay := model.TestQuestion{Type: model.QuestionEssay, Answer: "free form"}
	essay.ID = 4
	test := &model.Test{
		DurationMinutes: 30,
		Questions: []model.TestQuestion{
			choiceQuestion(1, "A"),
			choiceQuestion(2, "B"),
			choiceQuestion(3, "C"),
			essay,
		},
	}
	test.ID = 1
	reader := &fakeTestReader{tests: map[uint]*model.Test{1: test}}
	assessor := &fakeAssessor{}
	tasks := NewTaskRunner(zap.NewNop())
	svc := NewTestSessionService(store, reader, assessor, tasks, zap.NewNop())
	return svc, store, assessor, tasks
}

func TestSessionStart(t *testing.T) {
	svc, _, _, _ := sessionServiceForTest()

	session, err := svc.Start(5, 1)
	require.NoError(t, err)
	assert.Equal(t, model.SessionInProgress, session.Status)
	assert.Equal(t, 30*60, session.TimeRemainingSeconds)
	assert.False(t, session.IsSubmitted)
}

func TestSessionStartResumesActive(t *testing.T) {
	svc, _, _, _ := sessionServiceForTest()

	first, err := svc.Start(5, 1)
	require.NoError(t, err)
	second, err := svc.Start(5, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "at most one active session per user")
}

func TestSessionStartUnknownTest(t *testing.T) {
	svc, _, _, _ := sessionServiceForTest()
	_, err := svc.Start(5, 404)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSessionGetMissing(t *testing.T) {
	svc, _, _, _ := sessionServiceForTest()
	_, err := svc.Get("nope")
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestSaveProgress(t *testing.T) {
	svc, store, _, _ := sessionServiceForTest()
	session, err := svc.Start(5, 1)
	require.NoError(t, err)

	updated, err := svc.SaveProgress(session.ID, map[string]string{"1": "A"}, 1, 1500)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.CurrentQuestionIndex)
	assert.Equal(t, 1500, updated.TimeRemainingSeconds)
	assert.JSONEq(t, `{"1":"A"}`, string(store.sessions[session.ID].Answers))
}

func TestSaveProgressRejectsClosedSession(t *testing.T) {
	svc, store, _, tasks := sessionServiceForTest()
	session, err := svc.Start(5, 1)
	require.NoError(t, err)

	_, err = svc.Submit(session.ID, map[string]string{"1": "A"})
	require.NoError(t, err)
	tasks.Wait()

	_, err = svc.SaveProgress(session.ID, map[string]string{"1": "B"}, 2, 100)
	assert.Error(t, err)
	assert.JSONEq(t, `{"1":"A"}`, string(store.sessions[session.ID].Answers), "answers are frozen")
}

func TestSubmitScoresAndSchedulesAssessment(t *testing.T) {
	svc, _, assessor, tasks := sessionServiceForTest()
	session, err := svc.Start(5, 1)
	require.NoError(t, err)

	// Two of three gradable questions correct; the essay never counts.
	submitted, err := svc.Submit(session.ID, map[string]string{
		"1": "A",
		"2": "B",
		"3": "wrong",
		"4": "an essay answer",
	})
	require.NoError(t, err)
	tasks.Wait()

	assert.True(t, submitted.IsSubmitted)
	assert.Equal(t, model.SessionCompleted, submitted.Status)
	assert.Equal(t, 2, submitted.CorrectCount)
	require.NotNil(t, submitted.Score)
	assert.InDelta(t, 200.0/3.0, *submitted.Score, 0.01)
	assert.Equal(t, 1, assessor.callCount())
}

func TestSubmitTwiceFails(t *testing.T) {
	svc, _, assessor, tasks := sessionServiceForTest()
	session, err := svc.Start(5, 1)
	require.NoError(t, err)

	_, err = svc.Submit(session.ID, nil)
	require.NoError(t, err)
	tasks.Wait()

	_, err = svc.Submit(session.ID, map[string]string{"1": "A"})
	assert.Error(t, err)
	assert.Equal(t, 1, assessor.callCount(), "no second assessment is scheduled")
}

func TestExpireStale(t *testing.T) {
	svc, store, _, _ := sessionServiceForTest()
	store.expired = 3
	count, err := svc.ExpireStale()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestScoreAnswersNoGradableQuestions(t *testing.T) {
	essay := model.TestQuestion{Type: model.QuestionEssay}
	essay.ID = 1
	test := &model.Test{Questions: []model.TestQuestion{essay}}
	score, correct := scoreAnswers(test, map[string]string{"1": "text"})
	assert.Equal(t, 0.0, score)
	assert.Equal(t, 0, correct)
}
