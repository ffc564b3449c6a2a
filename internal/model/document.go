package model

import "time"

// DocumentStatus mirrors the external document processor's job states.
type DocumentStatus string

const (
	DocumentInQueue    DocumentStatus = "IN_QUEUE"
	DocumentInProgress DocumentStatus = "IN_PROGRESS"
	DocumentCompleted  DocumentStatus = "COMPLETED"
	DocumentFailed     DocumentStatus = "FAILED"
)

// ReferenceDocument tracks an uploaded reference document through external
// processing and into the knowledge store. Its ID is the processor's job id.
type ReferenceDocument struct {
	UUIDBase
	Filename   string         `gorm:"size:512;not null" json:"filename"`
	CourseID   *uint          `gorm:"index" json:"courseId,omitempty"`
	Status     DocumentStatus `gorm:"size:20;default:'IN_QUEUE'" json:"status"`
	Error      string         `gorm:"type:text" json:"error,omitempty"`
	ChunkCount int            `gorm:"default:0" json:"chunkCount"`
	UploadedAt time.Time      `json:"uploadedAt"`
}

func (ReferenceDocument) TableName() string {
	return "reference_documents"
}
