package model

import (
	"encoding/json"
	"time"
)

// CourseDraftRecord is the storage row behind the draft store: one document
// per course, fully replaced on every agent run, retained after approval
// for audit.
type CourseDraftRecord struct {
	CourseID  uint            `gorm:"primaryKey" json:"courseId"`
	SessionID string          `gorm:"type:varchar(36);index;not null" json:"sessionId"`
	Document  json.RawMessage `gorm:"type:json;not null" json:"document"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (CourseDraftRecord) TableName() string {
	return "course_draft_records"
}
