package controller

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"eduforge_backend/internal/repository"
	"eduforge_backend/internal/util"
)

// AssessmentController serves persisted weakness analyses.
type AssessmentController struct {
	Repo *repository.AssessmentRepository
}

func NewAssessmentController(repo *repository.AssessmentRepository) *AssessmentController {
	return &AssessmentController{Repo: repo}
}

func (c *AssessmentController) ListByUser(ctx *gin.Context) {
	userID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || userID <= 0 {
		util.BadRequest(ctx, "invalid user id")
		return
	}
	assessments, err := c.Repo.ListByUser(uint(userID))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, assessments)
}

func (c *AssessmentController) Latest(ctx *gin.Context) {
	userID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || userID <= 0 {
		util.BadRequest(ctx, "invalid user id")
		return
	}
	assessment, err := c.Repo.LatestByUser(uint(userID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.NotFound(ctx)
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, assessment)
}
