package app

import (
	"github.com/gin-gonic/gin"

	"eduforge_backend/pkg/monitoring"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	router.GET("/health", c.health.HealthCheck)
	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	{
		// Course lifecycle: composition, draft review, approval.
		courses := api.Group("/courses")
		{
			courses.POST("", c.course.Create)
			courses.GET("", c.course.List)
			courses.GET("/:id", c.course.Get)
			courses.DELETE("/:id", c.course.Delete)
			courses.GET("/:id/draft", c.course.GetDraft)
			courses.PUT("/:id/draft/topic-order", c.course.ReorderDraftTopics)
			courses.POST("/:id/approve", c.course.Approve)
			courses.POST("/:id/reject", c.course.Reject)
			courses.POST("/:id/entry-test", c.course.RegenerateEntryTest)
			courses.GET("/:id/documents", c.webhook.ListDocuments)
		}

		// On-demand content generation.
		api.POST("/topics/:id/lessons", c.content.GenerateLessons)
		api.POST("/exercises/generate", c.content.GenerateExercise)
		api.GET("/skills/:tag/exercises", c.content.ListExercisesBySkill)

		// Test sessions and assessment.
		sessions := api.Group("/test-sessions")
		{
			sessions.POST("", c.session.Start)
			sessions.GET("/:id", c.session.Get)
			sessions.PUT("/:id/progress", c.session.SaveProgress)
			sessions.POST("/:id/submit", c.session.Submit)
		}
		api.GET("/users/:id/assessments", c.assessment.ListByUser)
		api.GET("/users/:id/assessments/latest", c.assessment.Latest)
		api.POST("/review/plan", c.session.PlanReview)

		// Document intake.
		api.POST("/documents", c.webhook.RegisterDocument)
	}

	// External document processor callback.
	router.POST("/webhooks/documents", c.webhook.DocumentStatus)
}
