package controller

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"eduforge_backend/internal/service"
	"eduforge_backend/internal/util"
)

// WebhookController receives callbacks from the external document processor.
type WebhookController struct {
	Documents *service.DocumentService
}

func NewWebhookController(docs *service.DocumentService) *WebhookController {
	return &WebhookController{Documents: docs}
}

// DocumentStatus handles the processor's status POSTs.
func (c *WebhookController) DocumentStatus(ctx *gin.Context) {
	var payload service.WebhookPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	err := c.Documents.HandleWebhook(ctx.Request.Context(), payload)
	if errors.Is(err, service.ErrDocumentNotFound) {
		util.NotFound(ctx)
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

type registerDocumentRequest struct {
	JobID    string `json:"jobId" binding:"required"`
	Filename string `json:"filename" binding:"required"`
	CourseID *uint  `json:"courseId"`
}

// RegisterDocument records a submitted document under its processor job id.
func (c *WebhookController) RegisterDocument(ctx *gin.Context) {
	var req registerDocumentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	doc, err := c.Documents.Register(req.JobID, req.Filename, req.CourseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, doc)
}

// ListDocuments returns a course's reference documents.
func (c *WebhookController) ListDocuments(ctx *gin.Context) {
	courseID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || courseID <= 0 {
		util.BadRequest(ctx, "invalid course id")
		return
	}
	docs, err := c.Documents.ListByCourse(uint(courseID))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, docs)
}
