package repository

import (
	"eduforge_backend/internal/model"

	"gorm.io/gorm"
)

type DocumentRepository struct {
	DB *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{DB: db}
}

func (r *DocumentRepository) Create(doc *model.ReferenceDocument) error {
	return r.DB.Create(doc).Error
}

func (r *DocumentRepository) FindByID(id string) (*model.ReferenceDocument, error) {
	var d model.ReferenceDocument
	err := r.DB.First(&d, "id = ?", id).Error
	return &d, err
}

func (r *DocumentRepository) Update(doc *model.ReferenceDocument) error {
	return r.DB.Save(doc).Error
}

func (r *DocumentRepository) UpdateStatus(id string, status model.DocumentStatus, errMsg string) error {
	return r.DB.Model(&model.ReferenceDocument{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "error": errMsg}).Error
}

func (r *DocumentRepository) ListByCourse(courseID uint) ([]model.ReferenceDocument, error) {
	var ds []model.ReferenceDocument
	err := r.DB.Where("course_id = ?", courseID).Order("uploaded_at desc").Find(&ds).Error
	return ds, err
}
