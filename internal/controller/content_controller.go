package controller

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"eduforge_backend/internal/repository"
	"eduforge_backend/internal/service"
	"eduforge_backend/internal/util"
)

// ContentController exposes on-demand lesson and exercise generation plus
// the skill-tagged exercise lookup the review flow feeds.
type ContentController struct {
	Lessons   *service.LessonService
	Exercises *service.ExerciseService
	Repo      *repository.ExerciseRepository
}

func NewContentController(lessons *service.LessonService, exercises *service.ExerciseService, repo *repository.ExerciseRepository) *ContentController {
	return &ContentController{Lessons: lessons, Exercises: exercises, Repo: repo}
}

type generateLessonsRequest struct {
	TopicName   string `json:"topicName" binding:"required"`
	LessonTitle string `json:"lessonTitle"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"`
	LessonType  string `json:"lessonType"`
	MaxSections int    `json:"maxSections"`
	SessionID   string `json:"sessionId"`
	Persist     bool   `json:"persist"`
}

// GenerateLessons runs the lesson agent for a topic. With persist=true the
// work is scheduled fire-and-forget and written under the topic in the path;
// without it, the agent runs detached from the request's cancellation and
// the drafts come back in the response.
func (c *ContentController) GenerateLessons(ctx *gin.Context) {
	topicID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || topicID <= 0 {
		util.BadRequest(ctx, "invalid topic id")
		return
	}
	var req generateLessonsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lessonReq := service.LessonRequest{
		TopicName:   req.TopicName,
		LessonTitle: req.LessonTitle,
		Description: req.Description,
		Difficulty:  req.Difficulty,
		LessonType:  req.LessonType,
		MaxSections: req.MaxSections,
		SessionID:   req.SessionID,
	}

	if req.Persist {
		c.Lessons.ScheduleGenerate(lessonReq, uint(topicID), 0)
		util.Accepted(ctx, nil)
		return
	}

	drafts, err := c.Lessons.Generate(context.WithoutCancel(ctx.Request.Context()), lessonReq)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, drafts)
}

type generateExerciseRequest struct {
	Topic      string `json:"topic" binding:"required"`
	Lesson     string `json:"lesson"`
	Difficulty string `json:"difficulty"`
	SessionID  string `json:"sessionId"`
	TopicID    *uint  `json:"topicId"`
	LessonID   *uint  `json:"lessonId"`
	SkillTag   string `json:"skillTag"`
	Persist    bool   `json:"persist"`
}

// GenerateExercise runs the exercise agent with duplicate avoidance. With
// persist=true the work is scheduled fire-and-forget; without it, the agent
// runs detached from the request's cancellation and the exercise comes back
// in the response.
func (c *ContentController) GenerateExercise(ctx *gin.Context) {
	var req generateExerciseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	exerciseReq := service.ExerciseRequest{
		Topic:      req.Topic,
		Lesson:     req.Lesson,
		Difficulty: req.Difficulty,
		SessionID:  req.SessionID,
	}

	if req.Persist {
		c.Exercises.ScheduleGenerate(exerciseReq, req.TopicID, req.LessonID, req.SkillTag)
		util.Accepted(ctx, nil)
		return
	}

	detail, err := c.Exercises.Generate(context.WithoutCancel(ctx.Request.Context()), exerciseReq)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// ListExercisesBySkill returns the targeted exercises persisted for a skill
// gap by the review planner.
func (c *ContentController) ListExercisesBySkill(ctx *gin.Context) {
	tag := strings.TrimSpace(ctx.Param("tag"))
	if tag == "" {
		util.BadRequest(ctx, "invalid skill tag")
		return
	}
	exercises, err := c.Repo.ListBySkillTag(tag)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, exercises)
}
