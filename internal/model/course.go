package model

import "encoding/json"

// TestGenerationStatus tracks the entry-test background task for a course.
// Only the entry-test generator writes it, PENDING → SUCCESS | FAILED.
type TestGenerationStatus string

const (
	TestGenNotStarted TestGenerationStatus = "NOT_STARTED"
	TestGenPending    TestGenerationStatus = "PENDING"
	TestGenSuccess    TestGenerationStatus = "SUCCESS"
	TestGenFailed     TestGenerationStatus = "FAILED"
)

type Course struct {
	BaseModel
	Title                string               `gorm:"size:255;not null" json:"title"`
	Description          string               `gorm:"type:text" json:"description"`
	Level                string               `gorm:"size:50" json:"level"`
	Duration             int                  `gorm:"default:0" json:"duration"` // hours
	IsPublished          bool                 `gorm:"default:false" json:"isPublished"`
	TestGenerationStatus TestGenerationStatus `gorm:"size:20;default:'NOT_STARTED'" json:"testGenerationStatus"`

	Topics []Topic `gorm:"constraint:OnDelete:CASCADE" json:"topics,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

type Topic struct {
	BaseModel
	// CourseID is nullable while a topic only exists inside a draft.
	CourseID      *uint           `gorm:"index" json:"courseId,omitempty"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Prerequisites json.RawMessage `gorm:"type:json" json:"prerequisites,omitempty"` // []string
	Order         int             `gorm:"column:topic_order;default:0" json:"order"`

	Lessons []Lesson `gorm:"constraint:OnDelete:CASCADE" json:"lessons,omitempty"`
	Skills  []Skill  `gorm:"constraint:OnDelete:CASCADE" json:"skills,omitempty"`
}

func (Topic) TableName() string {
	return "topics"
}

type Skill struct {
	BaseModel
	TopicID uint   `gorm:"index" json:"topicId"`
	Name    string `gorm:"size:255;not null" json:"name"`
}

func (Skill) TableName() string {
	return "skills"
}
