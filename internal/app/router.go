package app

import (
	"adaptive_learning_backend/docs"
	"adaptive_learning_backend/internal/config"
	"adaptive_learning_backend/internal/middleware"
	"adaptive_learning_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	// 2. 需要授权的路由（jwt.enabled=false 时放行）
	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(&cfg.JWT))
	{
		registerLearnerRoutes(api, c)
		registerPositionRoutes(api, c)
	}
}

func registerLearnerRoutes(api *gin.RouterGroup, c *controllers) {
	learners := api.Group("/learners/:userId")
	learners.Use(middleware.SelfOnly("userId"))
	{
		// 学习画像
		learners.GET("/profile", c.learner.GetProfile)
		learners.PUT("/preferences", c.learner.UpdatePreferences)
		learners.POST("/observations", c.learner.RecordObservation)

		// 评估与学习路径
		learners.GET("/skills/:skill/evaluation", c.learner.Evaluate)
		learners.GET("/skills/:skill/difficulty", c.learner.RecommendDifficulty)
		learners.GET("/path", c.learner.SuggestPath)

		// 内容推荐
		learners.POST("/recommendations", c.recommendation.RecommendMixed)
		learners.POST("/recommendations/:kind", c.recommendation.RecommendKind)

		// 继续学习
		learners.GET("/continue", c.position.GetRecommendations)
		learners.GET("/in-progress", c.position.GetInProgressCourses)
	}
}

func registerPositionRoutes(api *gin.RouterGroup, c *controllers) {
	positions := api.Group("/positions")
	{
		positions.POST("", c.position.SavePosition)
		positions.GET("/last", c.position.GetLastPosition)
	}
}
