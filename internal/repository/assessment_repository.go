package repository

import (
	"eduforge_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AssessmentRepository struct {
	DB *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{DB: db}
}

// UpsertUserAssessment writes the analysis for (user, session), replacing a
// previous row so a re-run never produces duplicates.
func (r *AssessmentRepository) UpsertUserAssessment(a *model.UserAssessment) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "test_session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"skill_name", "weaknesses", "weakness_analysis",
			"improvement_suggestions", "current_level", "weakness_severity",
			"raw_analysis", "updated_at",
		}),
	}).Create(a).Error
}

func (r *AssessmentRepository) FindByUserAndSession(userID uint, sessionID string) (*model.UserAssessment, error) {
	var a model.UserAssessment
	err := r.DB.Where("user_id = ? AND test_session_id = ?", userID, sessionID).First(&a).Error
	return &a, err
}

func (r *AssessmentRepository) ListByUser(userID uint) ([]model.UserAssessment, error) {
	var as []model.UserAssessment
	err := r.DB.Where("user_id = ?", userID).Order("created_at desc").Find(&as).Error
	return as, err
}

// LatestByUser returns the newest assessment for the user, the one the
// review planner works from.
func (r *AssessmentRepository) LatestByUser(userID uint) (*model.UserAssessment, error) {
	var a model.UserAssessment
	err := r.DB.Where("user_id = ?", userID).Order("created_at desc").First(&a).Error
	return &a, err
}
