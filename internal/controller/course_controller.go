package controller

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"eduforge_backend/internal/draft"
	"eduforge_backend/internal/service"
	"eduforge_backend/internal/util"
)

type CourseController struct {
	Service *service.CourseService
}

func NewCourseController(svc *service.CourseService) *CourseController {
	return &CourseController{Service: svc}
}

// Create persists the course shell and starts composition in the background.
func (c *CourseController) Create(ctx *gin.Context) {
	var req service.CreateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.Service.Create(req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

func (c *CourseController) List(ctx *gin.Context) {
	page, limit := pagination(ctx)
	courses, total, err := c.Service.List(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: courses, Total: total, Page: page, Limit: limit})
}

func (c *CourseController) Get(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	course, err := c.Service.Get(id)
	if errors.Is(err, util.ErrCourseNotFound) {
		util.NotFound(ctx)
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

func (c *CourseController) Delete(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := c.Service.Delete(ctx.Request.Context(), id); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

func (c *CourseController) GetDraft(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	d, err := c.Service.GetDraft(ctx.Request.Context(), id)
	if errors.Is(err, draft.ErrDraftNotFound) {
		util.NotFound(ctx)
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, d)
}

type reorderRequest struct {
	Order []int `json:"order" binding:"required"`
}

func (c *CourseController) ReorderDraftTopics(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var req reorderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	err := c.Service.ReorderDraftTopics(ctx.Request.Context(), id, req.Order)
	if errors.Is(err, draft.ErrDraftNotFound) {
		util.NotFound(ctx)
		return
	}
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, nil)
}

// Approve promotes the current draft and kicks entry-test generation.
func (c *CourseController) Approve(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	err := c.Service.Approve(ctx.Request.Context(), id)
	switch {
	case errors.Is(err, util.ErrCourseNotFound), errors.Is(err, draft.ErrDraftNotFound):
		util.NotFound(ctx)
	case err != nil:
		util.LogInternalError(ctx, err)
	default:
		util.Success(ctx, nil)
	}
}

type rejectRequest struct {
	Feedback string `json:"feedback" binding:"required"`
}

// Reject re-runs composition with admin feedback on the same session.
func (c *CourseController) Reject(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var req rejectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	err := c.Service.Reject(ctx.Request.Context(), id, req.Feedback)
	switch {
	case errors.Is(err, util.ErrCourseNotFound), errors.Is(err, draft.ErrDraftNotFound):
		util.NotFound(ctx)
	case err != nil:
		util.LogInternalError(ctx, err)
	default:
		util.Accepted(ctx, nil)
	}
}

func (c *CourseController) RegenerateEntryTest(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	err := c.Service.RegenerateEntryTest(id)
	switch {
	case errors.Is(err, util.ErrCourseNotFound):
		util.NotFound(ctx)
	case err != nil:
		util.BadRequest(ctx, err.Error())
	default:
		util.Accepted(ctx, nil)
	}
}

func pathID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		util.BadRequest(ctx, "invalid id")
		return 0, false
	}
	return uint(id), true
}

func pagination(ctx *gin.Context) (int, int) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return page, limit
}
