package handlers

import (
	"net/http"

	"dispatch-backend/pkg/captcha"
	"dispatch-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type CaptchaHandler struct{}

func NewCaptchaHandler() *CaptchaHandler {
	return &CaptchaHandler{}
}

// GetChallenge returns a fresh captcha challenge for the dispatch form.
// Validation happens client-side; this is a human-presence nudge, not a
// security boundary.
func (h *CaptchaHandler) GetChallenge(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Challenge generated", captcha.NewChallenge())
}

// Verify checks an answer against its challenge code. Offered for
// consoles that want server-side confirmation of the same check.
func (h *CaptchaHandler) Verify(c *gin.Context) {
	var req struct {
		Code  string `json:"code" binding:"required"`
		Input string `json:"input" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Verification complete", map[string]bool{
		"valid": captcha.Verify(req.Code, req.Input),
	})
}
