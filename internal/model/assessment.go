package model

import "encoding/json"

// WeaknessSeverity classifies how severe a detected skill gap is.
type WeaknessSeverity string

const (
	SeverityLow    WeaknessSeverity = "Low"
	SeverityMedium WeaknessSeverity = "Medium"
	SeverityHigh   WeaknessSeverity = "High"
)

// UserAssessment is the per-skill weakness analysis produced after a learner
// submits an entry test. At most one row exists per (user, test session).
type UserAssessment struct {
	BaseModel
	UserID        uint   `gorm:"uniqueIndex:idx_user_session;not null" json:"userId"`
	TestSessionID string `gorm:"uniqueIndex:idx_user_session;type:varchar(36);not null" json:"testSessionId"`

	SkillName              string           `gorm:"size:255" json:"skillName"`
	Weaknesses             json.RawMessage  `gorm:"type:json" json:"weaknesses,omitempty"` // []string findings
	WeaknessAnalysis       string           `gorm:"type:text" json:"weaknessAnalysis"`
	ImprovementSuggestions json.RawMessage  `gorm:"type:json" json:"improvementSuggestions,omitempty"` // []string
	CurrentLevel           string           `gorm:"size:50" json:"currentLevel"`
	WeaknessSeverity       WeaknessSeverity `gorm:"size:10" json:"weaknessSeverity"`
	RawAnalysis            json.RawMessage  `gorm:"type:json" json:"rawAnalysis,omitempty"`
}

func (UserAssessment) TableName() string {
	return "user_assessments"
}
