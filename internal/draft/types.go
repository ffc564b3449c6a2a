package draft

import "time"

// CourseDraft is the composition agent's working document for one course.
// Drafts live separately from the published course tables and are promoted
// on approval.
type CourseDraft struct {
	CourseID    uint         `json:"courseId"`
	SessionID   string       `json:"sessionId"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Level       string       `json:"level"`
	Duration    int          `json:"duration"` // hours
	Topics      []TopicDraft `json:"topics"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

type TopicDraft struct {
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Prerequisites []string      `json:"prerequisites,omitempty"`
	Skills        []string      `json:"skills,omitempty"`
	Order         int           `json:"order"`
	Lessons       []LessonDraft `json:"lessons,omitempty"`
	Test          *TestDraft    `json:"test,omitempty"`
}

type LessonDraft struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Order       int            `json:"order"`
	Sections    []SectionDraft `json:"sections,omitempty"`
}

// SectionDraft mirrors LessonSection before promotion. Options maps choice
// letters A..D to text and is present on quiz sections only.
type SectionDraft struct {
	Kind        string            `json:"kind"`
	Content     string            `json:"content"`
	Order       int               `json:"order"`
	Options     map[string]string `json:"options,omitempty"`
	Answer      string            `json:"answer,omitempty"`
	Explanation string            `json:"explanation,omitempty"`
}

type TestDraft struct {
	DurationMinutes int             `json:"durationMinutes"`
	Questions       []QuestionDraft `json:"questions,omitempty"`
}

type QuestionDraft struct {
	Content    string            `json:"content"`
	Type       string            `json:"type"`
	Difficulty string            `json:"difficulty"`
	Options    map[string]string `json:"options,omitempty"`
	Answer     string            `json:"answer,omitempty"`
	Order      int               `json:"order"`
}
