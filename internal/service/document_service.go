package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"eduforge_backend/internal/knowledge"
	"eduforge_backend/internal/model"
)

// ErrDocumentNotFound is returned when a webhook references an unknown job.
var ErrDocumentNotFound = errors.New("reference document not found")

// DocumentStore is the persistence slice the document service needs.
type DocumentStore interface {
	Create(doc *model.ReferenceDocument) error
	FindByID(id string) (*model.ReferenceDocument, error)
	Update(doc *model.ReferenceDocument) error
	ListByCourse(courseID uint) ([]model.ReferenceDocument, error)
}

// Ingestor is the knowledge-store slice the webhook path needs.
type Ingestor interface {
	Ingest(ctx context.Context, doc knowledge.Document) (int, error)
}

// WebhookPayload is what the external document processor POSTs back.
type WebhookPayload struct {
	ID     string `json:"id" binding:"required"`
	Status string `json:"status" binding:"required"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// DocumentService tracks reference documents through external processing and
// ingests completed ones into the knowledge store.
type DocumentService struct {
	docs      DocumentStore
	knowledge Ingestor
	log       *zap.Logger
}

func NewDocumentService(docs DocumentStore, ingestor Ingestor, log *zap.Logger) *DocumentService {
	return &DocumentService{docs: docs, knowledge: ingestor, log: log}
}

// Register records a freshly submitted document under the processor's job id.
func (s *DocumentService) Register(jobID, filename string, courseID *uint) (*model.ReferenceDocument, error) {
	doc := &model.ReferenceDocument{
		Filename:   filename,
		CourseID:   courseID,
		Status:     model.DocumentInQueue,
		UploadedAt: time.Now(),
	}
	doc.ID = jobID
	if err := s.docs.Create(doc); err != nil {
		return nil, fmt.Errorf("register document: %w", err)
	}
	return doc, nil
}

// HandleWebhook matches the job row by id, persists the reported status, and
// on COMPLETED ingests the processed text into the knowledge store.
func (s *DocumentService) HandleWebhook(ctx context.Context, payload WebhookPayload) error {
	doc, err := s.docs.FindByID(payload.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: job %s", ErrDocumentNotFound, payload.ID)
	}
	if err != nil {
		return fmt.Errorf("load document %s: %w", payload.ID, err)
	}

	status := model.DocumentStatus(payload.Status)
	switch status {
	case model.DocumentInQueue, model.DocumentInProgress:
		doc.Status = status
		return s.docs.Update(doc)

	case model.DocumentFailed:
		doc.Status = model.DocumentFailed
		doc.Error = payload.Error
		s.log.Warn("document processing failed",
			zap.String("documentId", doc.ID),
			zap.String("error", payload.Error))
		return s.docs.Update(doc)

	case model.DocumentCompleted:
		chunks, err := s.knowledge.Ingest(ctx, knowledge.Document{
			ID:         doc.ID,
			Filename:   doc.Filename,
			CourseID:   doc.CourseID,
			Text:       payload.Output,
			UploadedAt: doc.UploadedAt,
		})
		if err != nil {
			doc.Status = model.DocumentFailed
			doc.Error = err.Error()
			if updateErr := s.docs.Update(doc); updateErr != nil {
				return updateErr
			}
			return fmt.Errorf("ingest document %s: %w", doc.ID, err)
		}
		doc.Status = model.DocumentCompleted
		doc.Error = ""
		doc.ChunkCount = chunks
		return s.docs.Update(doc)

	default:
		return fmt.Errorf("unknown document status %q for job %s", payload.Status, payload.ID)
	}
}

func (s *DocumentService) ListByCourse(courseID uint) ([]model.ReferenceDocument, error) {
	return s.docs.ListByCourse(courseID)
}
