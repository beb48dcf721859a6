package websocket

import (
	"time"

	"github.com/gorilla/websocket"

	"dispatch-backend/internal/models"
)

// LogFilters defines filtering criteria for the live log feed.
type LogFilters struct {
	SectionCodes []string `json:"sectionCodes,omitempty"`
	Statuses     []string `json:"statuses,omitempty"`
	Kinds        []string `json:"kinds,omitempty"`
}

// LogEvent is one message-log entry pushed to connected consoles.
type LogEvent struct {
	Entry     *models.MessageLog `json:"entry"`
	Timestamp time.Time          `json:"timestamp"`
}

// Client represents one connected console.
type Client struct {
	ID       string
	Conn     *websocket.Conn
	Filters  LogFilters
	Send     chan LogEvent
	LastPing time.Time
	IsActive bool
}

// ClientStats provides statistics about connected clients
type ClientStats struct {
	TotalClients    int `json:"totalClients"`
	ActiveClients   int `json:"activeClients"`
	InactiveClients int `json:"inactiveClients"`
}

// Message types for WebSocket communication
const (
	MessageTypeLogEvent = "log_event"
	MessageTypePing     = "ping"
	MessageTypePong     = "pong"
	MessageTypeError    = "error"
)
