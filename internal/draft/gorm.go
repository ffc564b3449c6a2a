package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"eduforge_backend/internal/model"
)

// GormStore persists drafts as one JSON document per course.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, courseID uint) (*CourseDraft, error) {
	var record model.CourseDraftRecord
	err := s.db.WithContext(ctx).First(&record, "course_id = ?", courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load draft %d: %w", courseID, err)
	}

	var d CourseDraft
	if err := json.Unmarshal(record.Document, &d); err != nil {
		return nil, fmt.Errorf("decode draft %d: %w", courseID, err)
	}
	d.CourseID = record.CourseID
	d.SessionID = record.SessionID
	d.UpdatedAt = record.UpdatedAt
	return &d, nil
}

func (s *GormStore) Save(ctx context.Context, d *CourseDraft) error {
	// The timestamp lives in the row, not the document, so saving the same
	// draft twice stores byte-identical documents.
	snapshot := *d
	snapshot.UpdatedAt = time.Time{}
	doc, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode draft %d: %w", d.CourseID, err)
	}
	d.UpdatedAt = time.Now()

	record := model.CourseDraftRecord{
		CourseID:  d.CourseID,
		SessionID: d.SessionID,
		Document:  doc,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "course_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"session_id", "document", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("save draft %d: %w", d.CourseID, err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, courseID uint) error {
	err := s.db.WithContext(ctx).Delete(&model.CourseDraftRecord{}, "course_id = ?", courseID).Error
	if err != nil {
		return fmt.Errorf("delete draft %d: %w", courseID, err)
	}
	return nil
}

func (s *GormStore) ReorderTopics(ctx context.Context, courseID uint, order []int) error {
	d, err := s.Get(ctx, courseID)
	if err != nil {
		return err
	}
	if err := applyTopicOrder(d, order); err != nil {
		return fmt.Errorf("reorder draft %d: %w", courseID, err)
	}
	return s.Save(ctx, d)
}
