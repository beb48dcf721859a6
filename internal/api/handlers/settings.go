package handlers

import (
	"net/http"

	"dispatch-backend/internal/services"
	"dispatch-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type SettingsHandler struct {
	settingsService *services.SettingsService
	validator       *validator.Validate
}

func NewSettingsHandler(settingsService *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		validator:       validator.New(),
	}
}

// GetSettings returns the stored WhatsApp gateway settings. The API
// token is masked by the model's JSON tags.
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingsService.GetSettings()
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "WhatsApp settings not configured", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Settings retrieved successfully", settings)
}

// UpdateSettings stores new gateway credentials and verifies them. The
// save succeeds even when verification fails; the connected flag in the
// response records the outcome.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req services.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	settings, err := h.settingsService.UpdateSettings(c.Request.Context(), &req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to update settings", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Settings updated successfully", settings)
}

// TestConnection verifies the stored credentials against the gateway.
func (h *SettingsHandler) TestConnection(c *gin.Context) {
	if err := h.settingsService.TestConnection(c.Request.Context()); err != nil {
		utils.ErrorResponse(c, http.StatusBadGateway, "Gateway connection failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Gateway connection verified", nil)
}
