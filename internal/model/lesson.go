package model

import "encoding/json"

// SectionKind distinguishes the atomic units a lesson is built from.
type SectionKind string

const (
	SectionTeaching SectionKind = "teaching"
	SectionText     SectionKind = "text"
	SectionCode     SectionKind = "code"
	SectionImage    SectionKind = "image"
	SectionQuiz     SectionKind = "quiz"
)

// ValidSectionKind reports whether k is one of the known kinds.
func ValidSectionKind(k SectionKind) bool {
	switch k {
	case SectionTeaching, SectionText, SectionCode, SectionImage, SectionQuiz:
		return true
	}
	return false
}

type Lesson struct {
	BaseModel
	TopicID     uint   `gorm:"index" json:"topicId"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Order       int    `gorm:"column:lesson_order;default:0" json:"order"`

	Sections []LessonSection `gorm:"constraint:OnDelete:CASCADE" json:"sections,omitempty"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// LessonSection is owned by its lesson. Options, Answer and Explanation are
// set for quiz sections only and must be null for every other kind.
type LessonSection struct {
	BaseModel
	LessonID uint        `gorm:"index" json:"lessonId"`
	Kind     SectionKind `gorm:"size:20;not null" json:"kind"`
	Content  string      `gorm:"type:text" json:"content"`
	Order    int         `gorm:"column:section_order;default:0" json:"order"`

	Options     json.RawMessage `gorm:"type:json" json:"options,omitempty"` // {"A": ..., "B": ..., "C": ..., "D": ...}
	Answer      *string         `gorm:"size:1" json:"answer,omitempty"`
	Explanation *string         `gorm:"type:text" json:"explanation,omitempty"`
}

func (LessonSection) TableName() string {
	return "lesson_sections"
}
