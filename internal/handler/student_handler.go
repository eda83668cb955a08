package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/activitypass-api/internal/dto"
	"github.com/noah-isme/activitypass-api/internal/middleware"
	"github.com/noah-isme/activitypass-api/pkg/response"
)

type courseEventService interface {
	ListCourses(ctx context.Context, studentID string) ([]dto.StudentCoursePayload, error)
	ListEvents(ctx context.Context, studentID string) ([]dto.CourseEventPayload, bool, error)
	RenderICS(ctx context.Context, studentID string) ([]byte, error)
}

// StudentHandler exposes a student's timetable.
type StudentHandler struct {
	service courseEventService
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(service courseEventService) *StudentHandler {
	return &StudentHandler{service: service}
}

// Courses godoc
// @Summary List a student's enrolled courses with raw schedule fields
// @Tags Students
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{studentId}/courses [get]
func (h *StudentHandler) Courses(c *gin.Context) {
	studentID, ok := requiredParam(c, "studentId")
	if !ok {
		return
	}
	courses, err := h.service.ListCourses(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, courses)
}

// CourseEvents godoc
// @Summary List a student's dated course occurrences
// @Tags Students
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /students/{studentId}/course-events [get]
func (h *StudentHandler) CourseEvents(c *gin.Context) {
	studentID, ok := requiredParam(c, "studentId")
	if !ok {
		return
	}
	events, hit, err := h.service.ListEvents(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	respond(c, http.StatusOK, events)
}

// CourseEventsICS godoc
// @Summary Download a student's course occurrences as iCalendar
// @Tags Students
// @Produce text/calendar
// @Param studentId path string true "Student ID"
// @Success 200 {file} binary
// @Router /students/{studentId}/course-events.ics [get]
func (h *StudentHandler) CourseEventsICS(c *gin.Context) {
	studentID, ok := requiredParam(c, "studentId")
	if !ok {
		return
	}
	body, err := h.service.RenderICS(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, "courses-"+studentID+".ics", "text/calendar; charset=utf-8", body)
}
