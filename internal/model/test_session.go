package model

import (
	"encoding/json"
	"time"
)

// SessionStatus is the test-session lifecycle state. Transitions only go
// in_progress → completed | expired.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionExpired    SessionStatus = "expired"
)

// TestSession is a learner's single attempt at a test. At most one session
// per user may be in progress and unsubmitted at any moment; once submitted
// the answers are frozen.
type TestSession struct {
	UUIDBase
	UserID               uint            `gorm:"index;not null" json:"userId"`
	TestID               uint            `gorm:"index;not null" json:"testId"`
	StartTime            time.Time       `json:"startTime"`
	LastActivity         time.Time       `json:"lastActivity"`
	TimeRemainingSeconds int             `gorm:"default:0" json:"timeRemainingSeconds"`
	Status               SessionStatus   `gorm:"size:20;default:'in_progress'" json:"status"`
	IsSubmitted          bool            `gorm:"default:false" json:"isSubmitted"`
	CurrentQuestionIndex int             `gorm:"default:0" json:"currentQuestionIndex"`
	Answers              json.RawMessage `gorm:"type:json" json:"answers,omitempty"` // question id -> chosen value
	Score                *float64        `json:"score,omitempty"`
	CorrectCount         int             `gorm:"default:0" json:"correctCount"`
}

func (TestSession) TableName() string {
	return "test_sessions"
}

// Terminal reports whether the session reached a final state.
func (s *TestSession) Terminal() bool {
	return s.Status == SessionCompleted || s.Status == SessionExpired
}
