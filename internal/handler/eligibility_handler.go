package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/activitypass-api/internal/dto"
	"github.com/noah-isme/activitypass-api/internal/models"
	appErrors "github.com/noah-isme/activitypass-api/pkg/errors"
	"github.com/noah-isme/activitypass-api/pkg/response"
)

type eligibilityService interface {
	Check(ctx context.Context, studentID, activityID string) (*dto.EligibilityResponse, error)
	ListEligible(ctx context.Context, studentID string, limit int) ([]dto.EligibleActivity, error)
	Apply(ctx context.Context, studentID, activityID string) (*models.Participation, error)
}

// EligibilityHandler exposes activity eligibility endpoints.
type EligibilityHandler struct {
	service   eligibilityService
	validator *validator.Validate
}

// NewEligibilityHandler constructs the handler.
func NewEligibilityHandler(service eligibilityService, validate *validator.Validate) *EligibilityHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &EligibilityHandler{service: service, validator: validate}
}

// ListEligible godoc
// @Summary List upcoming activities the student can join
// @Tags Eligibility
// @Produce json
// @Param studentId path string true "Student ID"
// @Param limit query int false "Maximum results"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/activities/eligible [get]
func (h *EligibilityHandler) ListEligible(c *gin.Context) {
	studentID, ok := requiredParam(c, "studentId")
	if !ok {
		return
	}
	var query dto.EligibleListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a number"))
		return
	}
	if err := h.validator.Struct(query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be between 0 and 200"))
		return
	}
	items, err := h.service.ListEligible(c.Request.Context(), studentID, query.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, items)
}

// Check godoc
// @Summary Evaluate a student's eligibility for one activity
// @Tags Eligibility
// @Produce json
// @Param studentId path string true "Student ID"
// @Param activityId path string true "Activity ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/activities/{activityId}/eligibility [get]
func (h *EligibilityHandler) Check(c *gin.Context) {
	studentID, ok := requiredParam(c, "studentId")
	if !ok {
		return
	}
	activityID, ok := requiredParam(c, "activityId")
	if !ok {
		return
	}
	verdict, err := h.service.Check(c.Request.Context(), studentID, activityID)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, verdict)
}

// Apply godoc
// @Summary Apply to an activity
// @Tags Eligibility
// @Produce json
// @Param studentId path string true "Student ID"
// @Param activityId path string true "Activity ID"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/{studentId}/activities/{activityId}/apply [post]
func (h *EligibilityHandler) Apply(c *gin.Context) {
	studentID, ok := requiredParam(c, "studentId")
	if !ok {
		return
	}
	activityID, ok := requiredParam(c, "activityId")
	if !ok {
		return
	}
	participation, err := h.service.Apply(c.Request.Context(), studentID, activityID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, participation)
}
