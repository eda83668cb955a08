package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/activitypass-api/internal/dto"
	appErrors "github.com/noah-isme/activitypass-api/pkg/errors"
	"github.com/noah-isme/activitypass-api/pkg/response"
)

type anchorValidator interface {
	ValidateAnchor(ctx context.Context, term string, req dto.AnchorValidationRequest) (*dto.AnchorValidationResponse, error)
}

// TermHandler exposes academic term checks.
type TermHandler struct {
	service anchorValidator
}

// NewTermHandler constructs the handler.
func NewTermHandler(service anchorValidator) *TermHandler {
	return &TermHandler{service: service}
}

// ValidateAnchor godoc
// @Summary Check a week-1 Monday against the configured term anchor
// @Tags Terms
// @Accept json
// @Produce json
// @Param term path string true "Term code"
// @Param payload body dto.AnchorValidationRequest true "Anchor"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /terms/{term}/anchor/validate [post]
func (h *TermHandler) ValidateAnchor(c *gin.Context) {
	term, ok := requiredParam(c, "term")
	if !ok {
		return
	}
	var req dto.AnchorValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid anchor payload"))
		return
	}
	resp, err := h.service.ValidateAnchor(c.Request.Context(), term, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, resp)
}
