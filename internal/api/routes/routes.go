package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"dispatch-backend/internal/api/handlers"
	"dispatch-backend/internal/api/middleware"
	"dispatch-backend/internal/repository"
	"dispatch-backend/internal/services"
	"dispatch-backend/internal/websocket"
	"dispatch-backend/internal/whatsapp"
	"dispatch-backend/pkg/cache"
	"dispatch-backend/pkg/email"
	"dispatch-backend/pkg/jwt"
	"dispatch-backend/pkg/ratelimit"
	"dispatch-backend/pkg/redis"
)

// Dependencies carries the externally-owned pieces the route tree needs.
// Repositories, services and handlers are wired up here.
type Dependencies struct {
	DB          *mongo.Database
	RedisClient *redis.Client
	JWTUtil     *jwt.JWTUtil
	Gateway     *whatsapp.Client
	Email       *email.EmailService
	WSManager   *websocket.Manager
	RateLimiter ratelimit.RateLimiter
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	// Repositories
	userRepo := repository.NewUserRepository(deps.DB)
	sectionRepo := repository.NewSectionRepository(deps.DB)
	settingsRepo := repository.NewSettingsRepository(deps.DB)
	messageRepo := repository.NewMessageRepository(deps.DB)

	// Gateway credentials are read on every dispatch; keep them in a
	// short-lived Redis cache in front of Mongo
	settingsCache := cache.New(deps.RedisClient.GetClient(), "settings:")
	settingsStore := services.NewCachedSettingsStore(settingsRepo, settingsCache, 30*time.Second)

	// Services
	blacklist := services.NewTokenBlacklist(deps.RedisClient.GetClient())
	authService := services.NewAuthService(userRepo, deps.JWTUtil, deps.Email, blacklist)
	userService := services.NewUserService(userRepo, sectionRepo)
	sectionService := services.NewSectionService(sectionRepo, userRepo)
	settingsService := services.NewSettingsService(settingsStore, deps.Gateway)
	dispatchService := services.NewDispatchService(deps.Gateway, settingsStore, messageRepo, deps.WSManager, services.DefaultDispatchConfig())

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, userService)
	userHandler := handlers.NewUserHandler(userService)
	sectionHandler := handlers.NewSectionHandler(sectionService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	dispatchHandler := handlers.NewDispatchHandler(dispatchService)
	logsHandler := handlers.NewLogsHandler(messageRepo)
	captchaHandler := handlers.NewCaptchaHandler()
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.RedisClient, dispatchService, deps.WSManager)
	logFeedHandler := handlers.NewLogFeedHandler(deps.WSManager, deps.JWTUtil)

	revoked := func(c *gin.Context, token string) bool {
		return authService.IsTokenRevoked(c.Request.Context(), token)
	}
	authRequired := middleware.AuthMiddleware(deps.JWTUtil, revoked)

	api := router.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(deps.RateLimiter))

	api.GET("/health", healthHandler.Check)
	api.GET("/captcha", captchaHandler.GetChallenge)
	api.POST("/captcha/verify", captchaHandler.Verify)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshTokenPublic)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)

		auth.POST("/logout", authRequired, authHandler.Logout)
		auth.GET("/profile", authRequired, authHandler.GetProfile)
		auth.POST("/change-password", authRequired, authHandler.ChangePassword)
	}

	// Log feed does its own token validation; browsers cannot set
	// Authorization headers on WebSocket upgrades
	api.GET("/logs/stream", logFeedHandler.Stream)

	protected := api.Group("/")
	protected.Use(authRequired)
	{
		dispatch := protected.Group("/dispatch")
		{
			dispatch.POST("/send", dispatchHandler.Send)
			dispatch.POST("/send-bulk", dispatchHandler.SendBulk)
			dispatch.GET("/quota", dispatchHandler.Quota)
		}

		logs := protected.Group("/logs")
		{
			logs.GET("", logsHandler.GetLogs)
			logs.GET("/stats", logsHandler.GetLogStats)
			logs.GET("/feed-stats", logFeedHandler.Stats)
		}

		sections := protected.Group("/sections")
		{
			sections.GET("", sectionHandler.GetSections)
			sections.GET("/:id", sectionHandler.GetSection)
			sections.POST("", middleware.RequireRole("admin"), sectionHandler.CreateSection)
			sections.PATCH("/:id", middleware.RequireRole("admin"), sectionHandler.UpdateSection)
			sections.DELETE("/:id", middleware.RequireRole("admin"), sectionHandler.DeleteSection)
		}

		users := protected.Group("/users")
		users.Use(middleware.RequireRole("admin"))
		{
			users.GET("", userHandler.GetUsers)
			users.POST("", userHandler.CreateUser)
			users.GET("/:id", userHandler.GetUser)
			users.PATCH("/:id", userHandler.UpdateUser)
			users.DELETE("/:id", userHandler.DeleteUser)
			users.PATCH("/:id/status", userHandler.ChangeUserStatus)
		}

		settings := protected.Group("/settings")
		settings.Use(middleware.RequireRole("admin"))
		{
			settings.GET("/whatsapp", settingsHandler.GetSettings)
			settings.PUT("/whatsapp", settingsHandler.UpdateSettings)
			settings.POST("/whatsapp/test", settingsHandler.TestConnection)
		}
	}
}
