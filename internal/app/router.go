package app

import (
	"forex_edu_backend/docs"
	"forex_edu_backend/internal/config"
	"forex_edu_backend/internal/middleware"
	"forex_edu_backend/internal/model"
	"forex_edu_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/login", c.auth.Login)
	}

	// 2. 需要登录的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg, s.blacklist))
	{
		a.registerLearnerRoutes(authGroup, c)

		// 3. 管理员接口
		admin := authGroup.Group("")
		admin.Use(middleware.RoleMiddleware(model.Admin))
		a.registerAdminRoutes(admin, c)
	}
}

func (a *App) registerLearnerRoutes(r *gin.RouterGroup, c *controllers) {
	auth := r.Group("/auth")
	{
		auth.POST("/logout", c.auth.Logout)
		auth.GET("/me", c.auth.Me)
	}

	ai := r.Group("/ai")
	{
		ai.POST("/chat", c.ai.Chat)
		ai.GET("/chat/history", c.ai.ChatHistory)
		ai.GET("/quiz", c.ai.GetQuiz)
		ai.POST("/quiz/evaluate", c.ai.EvaluateQuiz)
		ai.GET("/progress", c.ai.Progress)
		ai.PUT("/level", c.ai.UpdateLevel)
	}

	skills := r.Group("/skills")
	{
		skills.GET("", c.skill.GetSkills)
		skills.GET("/overview", c.skill.Overview)
		skills.GET("/missions", c.skill.Missions)
		skills.POST("/missions/:missionId/claim", c.skill.ClaimReward)
	}
}

func (a *App) registerAdminRoutes(r *gin.RouterGroup, c *controllers) {
	r.GET("/ai/user-stats/:userId", c.ai.UserStats)

	users := r.Group("/users")
	{
		users.GET("", c.user.GetUsers)
		users.POST("", c.user.CreateUser)
		users.PUT("/:id", c.user.UpdateUser)
		users.DELETE("/:id", c.user.DeleteUser)
	}

	activity := r.Group("/activity")
	{
		activity.GET("/logs", c.activity.Logs)
		activity.GET("/stats", c.activity.Stats)
		activity.GET("/action-types", c.activity.ActionTypes)
	}
}
