package controller

import (
	"errors"

	"github.com/gin-gonic/gin"

	"eduforge_backend/internal/service"
	"eduforge_backend/internal/util"
)

// SessionController exposes the test-session lifecycle and review planning.
type SessionController struct {
	Sessions *service.TestSessionService
	Review   *service.ReviewService
}

func NewSessionController(sessions *service.TestSessionService, review *service.ReviewService) *SessionController {
	return &SessionController{Sessions: sessions, Review: review}
}

type startSessionRequest struct {
	UserID uint `json:"userId" binding:"required"`
	TestID uint `json:"testId" binding:"required"`
}

func (c *SessionController) Start(ctx *gin.Context) {
	var req startSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	session, err := c.Sessions.Start(req.UserID, req.TestID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, session)
}

func (c *SessionController) Get(ctx *gin.Context) {
	session, err := c.Sessions.Get(ctx.Param("id"))
	if errors.Is(err, util.ErrSessionNotFound) {
		util.NotFound(ctx)
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

type progressRequest struct {
	Answers              map[string]string `json:"answers"`
	CurrentQuestionIndex int               `json:"currentQuestionIndex"`
	TimeRemainingSeconds int               `json:"timeRemainingSeconds"`
}

func (c *SessionController) SaveProgress(ctx *gin.Context) {
	var req progressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	session, err := c.Sessions.SaveProgress(ctx.Param("id"), req.Answers, req.CurrentQuestionIndex, req.TimeRemainingSeconds)
	if errors.Is(err, util.ErrSessionNotFound) {
		util.NotFound(ctx)
		return
	}
	if err != nil {
		util.Conflict(ctx, err.Error())
		return
	}
	util.Success(ctx, session)
}

type submitRequest struct {
	Answers map[string]string `json:"answers" binding:"required"`
}

// Submit freezes the attempt and schedules the assessment agent.
func (c *SessionController) Submit(ctx *gin.Context) {
	var req submitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	session, err := c.Sessions.Submit(ctx.Param("id"), req.Answers)
	if errors.Is(err, util.ErrSessionNotFound) {
		util.NotFound(ctx)
		return
	}
	if err != nil {
		util.Conflict(ctx, err.Error())
		return
	}
	util.Success(ctx, session)
}

type reviewPlanRequest struct {
	UserID     uint     `json:"userId" binding:"required"`
	Weaknesses string   `json:"weaknesses" binding:"required"`
	Skills     []string `json:"skills"`
	Difficulty string   `json:"difficulty"`
	Goals      string   `json:"goals"`
	SessionID  string   `json:"sessionId"`
}

// PlanReview maps weaknesses to skill gaps and generates review exercises.
func (c *SessionController) PlanReview(ctx *gin.Context) {
	var req reviewPlanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	plan, err := c.Review.Plan(ctx.Request.Context(), service.ReviewRequest{
		UserID:     req.UserID,
		Weaknesses: req.Weaknesses,
		Skills:     req.Skills,
		Difficulty: req.Difficulty,
		Goals:      req.Goals,
		SessionID:  req.SessionID,
	})
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, plan)
}
