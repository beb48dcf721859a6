package main

import (
	"log"
	"time"

	"dispatch-backend/internal/api/routes"
	"dispatch-backend/internal/config"
	"dispatch-backend/internal/repository"
	"dispatch-backend/internal/websocket"
	"dispatch-backend/internal/whatsapp"
	"dispatch-backend/pkg/cleanup"
	"dispatch-backend/pkg/database"
	"dispatch-backend/pkg/email"
	"dispatch-backend/pkg/jwt"
	"dispatch-backend/pkg/ratelimit"
	"dispatch-backend/pkg/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Connect to MongoDB
	db, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Disconnect(db.Client())

	// Initialize Redis client
	redisClient := redis.NewClient(cfg.Redis)
	defer redisClient.Close()

	healthStatus := redisClient.HealthCheck()
	if healthStatus.IsConnected {
		log.Printf("Redis connected successfully at %s", healthStatus.ConnectionInfo)
	} else {
		log.Printf("Redis connection failed: %s (will retry automatically)", healthStatus.Error)
	}

	// HTTP rate limiter: Redis-backed when available, in-memory otherwise
	var limiter ratelimit.RateLimiter
	if healthStatus.IsConnected {
		redisLimiter := ratelimit.NewRedisRateLimiter(redisClient.GetClient(), nil)
		if err := redisLimiter.LoadCustomLimits(); err != nil {
			log.Printf("Failed to load custom rate limits: %v", err)
		}
		limiter = redisLimiter
	} else {
		log.Println("Falling back to in-memory rate limiter")
		limiter = ratelimit.NewMemoryRateLimiter(nil)
	}

	jwtUtil := jwt.NewJWTUtil(cfg.JWTSecret, cfg.JWTExpiry)
	gateway := whatsapp.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.Timeout)
	emailService := email.NewEmailService(
		cfg.SMTP.Host, cfg.SMTP.Port,
		cfg.SMTP.Username, cfg.SMTP.Password,
		cfg.SMTP.FromEmail, cfg.SMTP.FromName,
		cfg.AppURL,
	)

	// Live log feed
	wsManager := websocket.NewManager()
	if err := wsManager.Start(); err != nil {
		log.Fatal("Failed to start WebSocket manager:", err)
	}
	defer wsManager.Stop()

	// Background cleanup of expired reset tokens and old logs
	cleanupService := cleanup.NewCleanupService(
		repository.NewUserRepository(db),
		repository.NewMessageRepository(db),
		time.Hour,
		cfg.LogRetention,
	)
	go cleanupService.Start()
	defer cleanupService.Stop()

	// Setup Gin router
	router := gin.Default()

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Upgrade", "Connection", "Sec-WebSocket-Key", "Sec-WebSocket-Version", "Sec-WebSocket-Protocol"},
		ExposeHeaders: []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Window", "Retry-After"},
	}

	// Handle wildcard origin for development
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false // Cannot use credentials with AllowAllOrigins
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	}

	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, routes.Dependencies{
		DB:          db,
		RedisClient: redisClient,
		JWTUtil:     jwtUtil,
		Gateway:     gateway,
		Email:       emailService,
		WSManager:   wsManager,
		RateLimiter: limiter,
	})

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	log.Fatal(router.Run(":" + cfg.Port))
}
