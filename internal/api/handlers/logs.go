package handlers

import (
	"net/http"
	"strconv"
	"time"

	"dispatch-backend/internal/repository"
	"dispatch-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type LogsHandler struct {
	messageRepo *repository.MessageRepository
}

func NewLogsHandler(messageRepo *repository.MessageRepository) *LogsHandler {
	return &LogsHandler{
		messageRepo: messageRepo,
	}
}

// GetLogs returns a page of dispatch logs, newest first. Section clerks
// only see their own section's traffic.
func (h *LogsHandler) GetLogs(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}

	filter := repository.LogFilter{
		UserID:      c.Query("userId"),
		SectionCode: c.Query("sectionCode"),
		Status:      c.Query("status"),
		Kind:        c.Query("kind"),
	}

	// Non-admin section clerks are pinned to their own section
	if c.GetString("role") == "section_clerk" {
		filter.SectionCode = c.GetString("section_code")
	}

	if since := c.Query("since"); since != "" {
		if t, err := time.Parse(time.RFC3339, since); err == nil {
			filter.Since = t
		}
	}

	logs, total, err := h.messageRepo.FindPage(filter, page, limit)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve logs", err)
		return
	}

	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}

	utils.PaginatedResponse(c, http.StatusOK, "Logs retrieved successfully", logs, utils.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	})
}

// GetLogStats returns aggregate counts per delivery status.
func (h *LogsHandler) GetLogStats(c *gin.Context) {
	stats := make(map[string]int64)
	for _, status := range []string{"sent", "failed", "rejected"} {
		count, err := h.messageRepo.CountByStatus(status)
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve log statistics", err)
			return
		}
		stats[status] = count
	}

	utils.SuccessResponse(c, http.StatusOK, "Log statistics retrieved successfully", stats)
}
