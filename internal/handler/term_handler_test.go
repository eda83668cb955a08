package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/activitypass-api/internal/dto"
	appErrors "github.com/noah-isme/activitypass-api/pkg/errors"
)

type anchorValidatorMock struct {
	resp *dto.AnchorValidationResponse
	err  error
	term string
	req  dto.AnchorValidationRequest
}

func (m *anchorValidatorMock) ValidateAnchor(ctx context.Context, term string, req dto.AnchorValidationRequest) (*dto.AnchorValidationResponse, error) {
	m.term, m.req = term, req
	return m.resp, m.err
}

func TestTermHandlerValidateAnchor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &anchorValidatorMock{resp: &dto.AnchorValidationResponse{Term: "2025-2026-1", FirstWeekMonday: "2025-09-01", Valid: true}}
	handler := NewTermHandler(svc)

	payload, _ := json.Marshal(dto.AnchorValidationRequest{FirstWeekMonday: "2025-09-01"})
	c, w := newGinContext(http.MethodPost, "/terms/2025-2026-1/anchor/validate", payload)
	c.Params = gin.Params{{Key: "term", Value: "2025-2026-1"}}
	handler.ValidateAnchor(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2025-2026-1", svc.term)
	assert.Equal(t, "2025-09-01", svc.req.FirstWeekMonday)
}

func TestTermHandlerValidateAnchorMismatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTermHandler(&anchorValidatorMock{err: appErrors.ErrAnchorMismatch})

	payload, _ := json.Marshal(dto.AnchorValidationRequest{FirstWeekMonday: "2025-09-08"})
	c, w := newGinContext(http.MethodPost, "/terms/2025-2026-1/anchor/validate", payload)
	c.Params = gin.Params{{Key: "term", Value: "2025-2026-1"}}
	handler.ValidateAnchor(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "TERM_ANCHOR_MISMATCH", decode(t, w).Error.Code)
}
