package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"eduforge_backend/internal/model"
	"eduforge_backend/internal/util"
)

// SessionStore is the persistence slice the session service needs.
type SessionStore interface {
	CreateSession(s *model.TestSession) error
	GetTestSession(id string) (*model.TestSession, error)
	FindActiveSession(userID uint) (*model.TestSession, error)
	UpdateSession(s *model.TestSession) error
	ExpireStaleSessions(cutoff time.Time) (int64, error)
}

// TestReader loads tests with their questions for scoring.
type TestReader interface {
	FindByID(id uint) (*model.Test, error)
}

// Assessor runs the post-submission analysis.
type Assessor interface {
	Assess(ctx context.Context, sessionID string, userID uint) (*model.UserAssessment, error)
}

// sessionIdleLimit is how long an in-progress session may sit without
// activity before the sweeper expires it.
const sessionIdleLimit = 2 * time.Hour

// TestSessionService owns the test-session lifecycle: at most one active
// session per user, in_progress → completed | expired, answers frozen after
// submission.
type TestSessionService struct {
	sessions SessionStore
	tests    TestReader
	assessor Assessor
	tasks    *TaskRunner
	log      *zap.Logger
}

func NewTestSessionService(sessions SessionStore, tests TestReader, assessor Assessor, tasks *TaskRunner, log *zap.Logger) *TestSessionService {
	return &TestSessionService{
		sessions: sessions,
		tests:    tests,
		assessor: assessor,
		tasks:    tasks,
		log:      log,
	}
}

// Start opens a session for the user on the test. An existing active
// session is resumed instead of opening a second one.
func (s *TestSessionService) Start(userID, testID uint) (*model.TestSession, error) {
	if active, err := s.sessions.FindActiveSession(userID); err == nil {
		return active, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	test, err := s.tests.FindByID(testID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("test %d: %w", testID, gorm.ErrRecordNotFound)
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &model.TestSession{
		UserID:               userID,
		TestID:               test.ID,
		StartTime:            now,
		LastActivity:         now,
		TimeRemainingSeconds: test.DurationMinutes * 60,
		Status:               model.SessionInProgress,
	}
	if err := s.sessions.CreateSession(session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

func (s *TestSessionService) Get(id string) (*model.TestSession, error) {
	session, err := s.sessions.GetTestSession(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSessionNotFound
	}
	return session, err
}

// SaveProgress records in-flight answers and activity. Rejected once the
// session is terminal.
func (s *TestSessionService) SaveProgress(id string, answers map[string]string, questionIndex, remainingSeconds int) (*model.TestSession, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if session.Terminal() || session.IsSubmitted {
		return nil, fmt.Errorf("session %s is closed", id)
	}

	raw, err := json.Marshal(answers)
	if err != nil {
		return nil, err
	}
	session.Answers = raw
	session.CurrentQuestionIndex = questionIndex
	session.TimeRemainingSeconds = remainingSeconds
	session.LastActivity = time.Now()
	if err := s.sessions.UpdateSession(session); err != nil {
		return nil, err
	}
	return session, nil
}

// Submit freezes the answers, scores the attempt and schedules the
// assessment agent in the background.
func (s *TestSessionService) Submit(id string, answers map[string]string) (*model.TestSession, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if session.IsSubmitted {
		return nil, fmt.Errorf("session %s is already submitted", id)
	}
	if session.Terminal() {
		return nil, fmt.Errorf("session %s is %s", id, session.Status)
	}

	test, err := s.tests.FindByID(session.TestID)
	if err != nil {
		return nil, fmt.Errorf("load test %d: %w", session.TestID, err)
	}

	raw, err := json.Marshal(answers)
	if err != nil {
		return nil, err
	}
	score, correct := scoreAnswers(test, answers)
	session.Answers = raw
	session.Score = &score
	session.CorrectCount = correct
	session.Status = model.SessionCompleted
	session.IsSubmitted = true
	session.LastActivity = time.Now()
	if err := s.sessions.UpdateSession(session); err != nil {
		return nil, fmt.Errorf("submit session: %w", err)
	}

	userID := session.UserID
	s.tasks.Go(fmt.Sprintf("assess-session-%s", id), func(ctx context.Context) error {
		_, err := s.assessor.Assess(ctx, id, userID)
		return err
	})
	return session, nil
}

// ExpireStale sweeps idle in-progress sessions into the expired state.
func (s *TestSessionService) ExpireStale() (int64, error) {
	expired, err := s.sessions.ExpireStaleSessions(time.Now().Add(-sessionIdleLimit))
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		s.log.Info("expired stale test sessions", zap.Int64("count", expired))
	}
	return expired, nil
}

// scoreAnswers grades choice questions against the stored answers; essay
// questions do not contribute to the automatic score.
func scoreAnswers(test *model.Test, answers map[string]string) (float64, int) {
	gradable := 0
	correct := 0
	for _, q := range test.Questions {
		if q.Type == model.QuestionEssay {
			continue
		}
		gradable++
		given, ok := answers[strconv.FormatUint(uint64(q.ID), 10)]
		if ok && given == q.Answer {
			correct++
		}
	}
	if gradable == 0 {
		return 0, 0
	}
	return float64(correct) / float64(gradable) * 100, correct
}
