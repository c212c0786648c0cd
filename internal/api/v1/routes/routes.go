package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/MyButtermilk/Scriber-sub000/internal/api/v1/handlers"
)

// RegisterRoutes wires all v1 endpoints onto the given group.
func RegisterRoutes(router *gin.RouterGroup, jobs *handlers.JobHandler, providers *handlers.ProviderHandler) {
	jobGroup := router.Group("/jobs")
	{
		jobGroup.POST("", jobs.Create)
		jobGroup.GET("", jobs.List)
		jobGroup.GET("/:id", jobs.Get)
		jobGroup.DELETE("/:id", jobs.Cancel)
	}

	router.GET("/transcripts/:transcript_id/job", jobs.GetByTranscript)

	providerGroup := router.Group("/providers")
	{
		providerGroup.GET("", providers.List)
		providerGroup.GET("/health", providers.Health)
	}
}
