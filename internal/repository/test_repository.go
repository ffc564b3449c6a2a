package repository

import (
	"time"

	"eduforge_backend/internal/model"

	"gorm.io/gorm"
)

type TestRepository struct {
	DB *gorm.DB
}

func NewTestRepository(db *gorm.DB) *TestRepository {
	return &TestRepository{DB: db}
}

func (r *TestRepository) Create(test *model.Test) error {
	return r.DB.Create(test).Error
}

func (r *TestRepository) FindByID(id uint) (*model.Test, error) {
	var t model.Test
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("question_order asc")
	}).First(&t, id).Error
	return &t, err
}

func (r *TestRepository) FindByCourseID(courseID uint) (*model.Test, error) {
	var t model.Test
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("question_order asc")
	}).Where("course_id = ?", courseID).First(&t).Error
	return &t, err
}

// DeleteByCourseID removes a course's previous entry test before a
// regeneration writes the new one.
func (r *TestRepository) DeleteByCourseID(courseID uint) error {
	return r.DB.Where("course_id = ?", courseID).Delete(&model.Test{}).Error
}

// ReplaceForCourse swaps the course's entry test in one transaction so a
// failed write never leaves a partial test behind.
func (r *TestRepository) ReplaceForCourse(courseID uint, test *model.Test) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", courseID).Delete(&model.Test{}).Error; err != nil {
			return err
		}
		return tx.Create(test).Error
	})
}

func (r *TestRepository) CreateSession(s *model.TestSession) error {
	return r.DB.Create(s).Error
}

func (r *TestRepository) GetTestSession(id string) (*model.TestSession, error) {
	var s model.TestSession
	err := r.DB.First(&s, "id = ?", id).Error
	return &s, err
}

func (r *TestRepository) FindActiveSession(userID uint) (*model.TestSession, error) {
	var s model.TestSession
	err := r.DB.Where("user_id = ? AND status = ? AND is_submitted = ?",
		userID, model.SessionInProgress, false).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *TestRepository) UpdateSession(s *model.TestSession) error {
	return r.DB.Save(s).Error
}

// TouchSession refreshes activity bookkeeping without rewriting answers.
func (r *TestRepository) TouchSession(id string, remaining int, questionIndex int) error {
	return r.DB.Model(&model.TestSession{}).Where("id = ?", id).Updates(map[string]interface{}{
		"last_activity":          time.Now(),
		"time_remaining_seconds": remaining,
		"current_question_index": questionIndex,
	}).Error
}

// ExpireStaleSessions marks in-progress sessions idle since before cutoff as
// expired. Returns the number of sessions flipped.
func (r *TestRepository) ExpireStaleSessions(cutoff time.Time) (int64, error) {
	result := r.DB.Model(&model.TestSession{}).
		Where("status = ? AND is_submitted = ? AND last_activity < ?",
			model.SessionInProgress, false, cutoff).
		Update("status", model.SessionExpired)
	return result.RowsAffected, result.Error
}
