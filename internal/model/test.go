package model

import "encoding/json"

// QuestionType enumerates the test question kinds.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionSingleChoice   QuestionType = "single_choice"
	QuestionEssay          QuestionType = "essay"
)

// Test belongs either to a topic or to a course, never both. Course-linked
// tests are the entry placement tests.
type Test struct {
	BaseModel
	TopicID         *uint `gorm:"index" json:"topicId,omitempty"`
	CourseID        *uint `gorm:"index" json:"courseId,omitempty"`
	DurationMinutes int   `gorm:"default:0" json:"durationMinutes"`

	Questions []TestQuestion `gorm:"constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

func (Test) TableName() string {
	return "tests"
}

type TestQuestion struct {
	BaseModel
	TestID     uint            `gorm:"index" json:"testId"`
	Content    string          `gorm:"type:text;not null" json:"content"`
	Type       QuestionType    `gorm:"size:30;not null" json:"type"`
	Difficulty string          `gorm:"size:20" json:"difficulty"`
	Options    json.RawMessage `gorm:"type:json" json:"options,omitempty"`
	Answer     string          `gorm:"type:text" json:"answer"`
	Order      int             `gorm:"column:question_order;default:0" json:"order"`
}

func (TestQuestion) TableName() string {
	return "test_questions"
}
