package handlers

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"dispatch-backend/internal/services"
	"dispatch-backend/internal/whatsapp"
	"dispatch-backend/pkg/apierrors"
	"dispatch-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// maxDocumentSize caps each uploaded document at 16 MB, matching the
// gateway's attachment limit.
const maxDocumentSize = 16 << 20

type DispatchHandler struct {
	dispatchService *services.DispatchService
	validator       *validator.Validate
}

func NewDispatchHandler(dispatchService *services.DispatchService) *DispatchHandler {
	return &DispatchHandler{
		dispatchService: dispatchService,
		validator:       validator.New(),
	}
}

// Send dispatches uploaded documents to a single recipient.
func (h *DispatchHandler) Send(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}

	documents, err := readDocuments(form.File["documents"])
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to read uploaded documents", err)
		return
	}

	req := services.SendRequest{
		Recipient:    c.PostForm("recipient"),
		SectionCode:  c.PostForm("sectionCode"),
		ScheduleDate: c.PostForm("scheduleDate"),
		ScheduleTime: c.PostForm("scheduleTime"),
		Documents:    documents,
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	entry, err := h.dispatchService.Send(c.Request.Context(), c.GetString("user_id"), &req)
	if err != nil {
		respondDispatchError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Message sent successfully", entry)
}

// SendBulk dispatches uploaded documents to every recipient listed in
// the attached CSV file.
func (h *DispatchHandler) SendBulk(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}

	csvFiles := form.File["recipients"]
	if len(csvFiles) == 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "Recipient CSV file is required", nil)
		return
	}

	csvData, err := readFile(csvFiles[0])
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to read recipient CSV file", err)
		return
	}

	documents, err := readDocuments(form.File["documents"])
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to read uploaded documents", err)
		return
	}

	req := services.BulkRequest{
		SectionCode:  c.PostForm("sectionCode"),
		ScheduleDate: c.PostForm("scheduleDate"),
		ScheduleTime: c.PostForm("scheduleTime"),
		Recipients:   bytes.NewReader(csvData),
		Documents:    documents,
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	report, err := h.dispatchService.SendBulk(c.Request.Context(), c.GetString("user_id"), &req)
	if err != nil {
		respondDispatchError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Bulk dispatch completed", report)
}

// Quota reports how many single sends the caller has left in the
// current window.
func (h *DispatchHandler) Quota(c *gin.Context) {
	remaining := h.dispatchService.RemainingSends(c.GetString("user_id"))
	utils.SuccessResponse(c, http.StatusOK, "Quota retrieved successfully", map[string]int{
		"remainingSends": remaining,
	})
}

// respondDispatchError maps classified dispatch errors onto HTTP
// statuses. The user-facing message comes from the error itself.
func respondDispatchError(c *gin.Context, err error) {
	var apiErr *apierrors.Error
	if !errors.As(err, &apiErr) {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Dispatch failed", err)
		return
	}

	status := http.StatusInternalServerError
	switch apiErr.Kind {
	case apierrors.KindValidation:
		status = http.StatusBadRequest
	case apierrors.KindRateLimit:
		status = http.StatusTooManyRequests
	case apierrors.KindAuthentication, apierrors.KindAuthorization:
		// Gateway credential failures, not the caller's session
		status = http.StatusBadGateway
	case apierrors.KindNetwork:
		status = http.StatusBadGateway
	case apierrors.KindServer:
		status = http.StatusServiceUnavailable
	case apierrors.KindDelivery:
		status = http.StatusBadGateway
	}

	utils.ErrorResponse(c, status, apiErr.UserMessage(), apiErr.Err)
}

func readDocuments(files []*multipart.FileHeader) ([]whatsapp.Document, error) {
	if len(files) == 0 {
		return nil, errors.New("at least one document is required")
	}

	documents := make([]whatsapp.Document, 0, len(files))
	for _, header := range files {
		if header.Size > maxDocumentSize {
			return nil, errors.New("document " + header.Filename + " exceeds the 16MB limit")
		}

		content, err := readFile(header)
		if err != nil {
			return nil, err
		}

		documents = append(documents, whatsapp.Document{
			Name:    header.Filename,
			Content: content,
		})
	}

	return documents, nil
}

func readFile(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(io.LimitReader(file, maxDocumentSize+1))
}
