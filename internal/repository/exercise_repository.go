package repository

import (
	"eduforge_backend/internal/model"

	"gorm.io/gorm"
)

type ExerciseRepository struct {
	DB *gorm.DB
}

func NewExerciseRepository(db *gorm.DB) *ExerciseRepository {
	return &ExerciseRepository{DB: db}
}

// Create writes the exercise with its test cases. Generated exercises reach
// the store through this single entry point, whether persisted on demand,
// from a background task, or by the review planner (skill-tagged).
func (r *ExerciseRepository) Create(exercise *model.Exercise) error {
	return r.DB.Create(exercise).Error
}

// ListBySkillTag returns the targeted exercises generated for a skill gap,
// newest first.
func (r *ExerciseRepository) ListBySkillTag(skillTag string) ([]model.Exercise, error) {
	var es []model.Exercise
	err := r.DB.Where("skill_tag = ?", skillTag).Order("created_at desc").
		Preload("TestCases").Find(&es).Error
	return es, err
}
