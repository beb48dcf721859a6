package handlers

import (
	"net/http"
	"time"

	"dispatch-backend/internal/services"
	"dispatch-backend/internal/websocket"
	"dispatch-backend/pkg/database"
	"dispatch-backend/pkg/redis"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

type HealthHandler struct {
	db              *mongo.Database
	redisClient     *redis.Client
	dispatchService *services.DispatchService
	wsManager       *websocket.Manager
}

func NewHealthHandler(db *mongo.Database, redisClient *redis.Client, dispatchService *services.DispatchService, wsManager *websocket.Manager) *HealthHandler {
	return &HealthHandler{
		db:              db,
		redisClient:     redisClient,
		dispatchService: dispatchService,
		wsManager:       wsManager,
	}
}

type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Services  map[string]interface{} `json:"services"`
}

// Check reports the health of the backing services. Redis being down
// degrades the response but does not fail it; rate limiting falls back
// to the in-memory limiter.
func (h *HealthHandler) Check(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Services:  make(map[string]interface{}),
	}

	if err := database.Health(h.db); err != nil {
		response.Status = "unhealthy"
		response.Services["mongodb"] = map[string]string{
			"status": "down",
			"error":  err.Error(),
		}
	} else {
		response.Services["mongodb"] = map[string]string{"status": "up"}
	}

	redisStatus := h.redisClient.HealthCheck()
	if redisStatus.IsConnected {
		response.Services["redis"] = map[string]interface{}{
			"status":       "up",
			"responseTime": redisStatus.ResponseTime.String(),
		}
	} else {
		if response.Status == "healthy" {
			response.Status = "degraded"
		}
		response.Services["redis"] = map[string]interface{}{
			"status": "down",
			"error":  redisStatus.Error,
		}
	}

	response.Services["gateway"] = map[string]string{
		"breakerState": h.dispatchService.BreakerState().String(),
	}

	response.Services["logFeed"] = map[string]int{
		"connectedClients": h.wsManager.GetConnectedClients(),
	}

	status := http.StatusOK
	if response.Status == "unhealthy" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, response)
}
