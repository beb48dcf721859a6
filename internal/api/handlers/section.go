package handlers

import (
	"net/http"

	"dispatch-backend/internal/services"
	"dispatch-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type SectionHandler struct {
	sectionService *services.SectionService
	validator      *validator.Validate
}

func NewSectionHandler(sectionService *services.SectionService) *SectionHandler {
	return &SectionHandler{
		sectionService: sectionService,
		validator:      validator.New(),
	}
}

// GetSections returns all sections
func (h *SectionHandler) GetSections(c *gin.Context) {
	sections, err := h.sectionService.GetAllSections()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve sections", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Sections retrieved successfully", sections)
}

// GetSection returns a specific section by ID
func (h *SectionHandler) GetSection(c *gin.Context) {
	id := c.Param("id")

	section, err := h.sectionService.GetSectionByID(id)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Section not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Section retrieved successfully", section)
}

// CreateSection creates a new section
func (h *SectionHandler) CreateSection(c *gin.Context) {
	var req services.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	section, err := h.sectionService.CreateSection(&req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to create section", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Section created successfully", section)
}

// UpdateSection updates an existing section
func (h *SectionHandler) UpdateSection(c *gin.Context) {
	id := c.Param("id")

	var req services.UpdateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	section, err := h.sectionService.UpdateSection(id, &req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to update section", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Section updated successfully", section)
}

// DeleteSection deletes a section with no assigned users
func (h *SectionHandler) DeleteSection(c *gin.Context) {
	id := c.Param("id")

	if err := h.sectionService.DeleteSection(id); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to delete section", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Section deleted successfully", nil)
}
