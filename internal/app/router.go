package app

import (
	"examforge_backend/docs"
	"examforge_backend/internal/config"
	"examforge_backend/internal/middleware"
	"examforge_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	public := router.Group("/api")
	{
		public.GET("/health", c.health.Check)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/me", c.auth.Me)

		authGroup.POST("/syllabi", c.syllabus.Create)
		authGroup.GET("/syllabi", c.syllabus.List)
		authGroup.GET("/syllabi/:id", c.syllabus.Get)
		authGroup.DELETE("/syllabi/:id", c.syllabus.Delete)
		authGroup.GET("/syllabi/:id/outcomes", c.syllabus.Outcomes)
		authGroup.POST("/syllabi/:id/upload", c.syllabus.Upload)

		authGroup.POST("/generate-questions", c.generation.Generate)
		authGroup.POST("/regenerate-question", c.generation.Regenerate)

		authGroup.GET("/questions", c.question.List)
		authGroup.PATCH("/questions/:id/status", c.question.ChangeStatus)
		authGroup.DELETE("/questions/:id", c.question.Delete)

		authGroup.GET("/dashboard/stats", c.dashboard.Stats)
		authGroup.GET("/dashboard/coverage", c.dashboard.Coverage)
	}
}
