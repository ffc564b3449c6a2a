package model

// Difficulty is the normalized exercise difficulty scale.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

type Exercise struct {
	BaseModel
	TopicID      *uint      `gorm:"index" json:"topicId,omitempty"`
	LessonID     *uint      `gorm:"index" json:"lessonId,omitempty"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description"`
	Category     string     `gorm:"size:100" json:"category"`
	Difficulty   Difficulty `gorm:"size:20" json:"difficulty"`
	Content      string     `gorm:"type:text" json:"content"` // markdown
	CodeTemplate string     `gorm:"type:text" json:"codeTemplate"`
	// SkillTag links review-plan exercises back to the weakness they target.
	SkillTag string `gorm:"size:255;index" json:"skillTag,omitempty"`

	TestCases []ExerciseTestCase `gorm:"constraint:OnDelete:CASCADE" json:"testCases,omitempty"`
}

func (Exercise) TableName() string {
	return "exercises"
}

type ExerciseTestCase struct {
	BaseModel
	ExerciseID  uint   `gorm:"index" json:"exerciseId"`
	Input       string `gorm:"type:text" json:"input"`
	Expected    string `gorm:"type:text" json:"expectedOutput"`
	Explanation string `gorm:"type:text" json:"explanation"`
}

func (ExerciseTestCase) TableName() string {
	return "exercise_test_cases"
}
