package handlers

import (
	"log"
	"net/http"
	"strings"

	"dispatch-backend/internal/websocket"
	"dispatch-backend/pkg/jwt"
	"dispatch-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LogFeedHandler upgrades console connections to WebSocket and streams
// new dispatch log entries through the manager.
type LogFeedHandler struct {
	manager *websocket.Manager
	jwtUtil *jwt.JWTUtil
}

func NewLogFeedHandler(manager *websocket.Manager, jwtUtil *jwt.JWTUtil) *LogFeedHandler {
	return &LogFeedHandler{
		manager: manager,
		jwtUtil: jwtUtil,
	}
}

// Stream handles a live log feed connection. Browsers cannot set
// headers on WebSocket upgrades, so the token is accepted from the
// query string as well.
func (h *LogFeedHandler) Stream(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}
	}

	if token == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication token required", nil)
		return
	}

	claims, err := h.jwtUtil.ValidateToken(token)
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid authentication token", err)
		return
	}

	filters := websocket.LogFilters{
		SectionCodes: c.QueryArray("sectionCodes"),
		Statuses:     c.QueryArray("statuses"),
		Kinds:        c.QueryArray("kinds"),
	}

	// Section clerks only see their own section's traffic
	if claims.Role == "section_clerk" && claims.SectionCode != "" {
		filters.SectionCodes = []string{claims.SectionCode}
	}

	conn, err := h.manager.GetUpgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed for user %s: %v", claims.UserID, err)
		return
	}

	clientID := uuid.New().String()
	if err := h.manager.RegisterClient(clientID, conn, filters); err != nil {
		log.Printf("Failed to register log feed client %s: %v", clientID, err)
		conn.Close()
		return
	}

	log.Printf("Log feed client %s connected for user %s", clientID, claims.UserID)
}

// Stats returns connection statistics for the log feed.
func (h *LogFeedHandler) Stats(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Log feed statistics", h.manager.GetClientStats())
}
