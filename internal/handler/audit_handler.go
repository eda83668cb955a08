package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/activitypass-api/internal/dto"
	"github.com/noah-isme/activitypass-api/internal/models"
	"github.com/noah-isme/activitypass-api/internal/service"
	appErrors "github.com/noah-isme/activitypass-api/pkg/errors"
	"github.com/noah-isme/activitypass-api/pkg/response"
)

type conflictReportService interface {
	Report(ctx context.Context) (*models.ConflictReport, error)
}

type auditExportService interface {
	CreateJob(ctx context.Context, req dto.AuditExportRequest) (*dto.AuditExportJobResponse, error)
	GetStatus(ctx context.Context, id string) (*dto.AuditExportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.AuditDownload, error)
}

// AuditHandler exposes course conflict audits and their exports.
type AuditHandler struct {
	reports conflictReportService
	exports auditExportService
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(reports conflictReportService, exports auditExportService) *AuditHandler {
	return &AuditHandler{reports: reports, exports: exports}
}

// CourseConflicts godoc
// @Summary Build the course conflict report
// @Tags Audits
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /audits/course-conflicts [get]
func (h *AuditHandler) CourseConflicts(c *gin.Context) {
	report, err := h.reports.Report(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, report)
}

// CreateExport godoc
// @Summary Queue a conflict report export
// @Tags Audits
// @Accept json
// @Produce json
// @Param payload body dto.AuditExportRequest true "Export request"
// @Success 202 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /audits/course-conflicts/exports [post]
func (h *AuditHandler) CreateExport(c *gin.Context) {
	var req dto.AuditExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid export payload"))
		return
	}
	if strings.TrimSpace(req.RequestedBy) == "" {
		req.RequestedBy = c.GetHeader("X-Requested-By")
	}
	job, err := h.exports.CreateJob(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// ExportStatus godoc
// @Summary Conflict report export status
// @Tags Audits
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /audits/course-conflicts/exports/{id} [get]
func (h *AuditHandler) ExportStatus(c *gin.Context) {
	id, ok := requiredParam(c, "id")
	if !ok {
		return
	}
	status, err := h.exports.GetStatus(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, status)
}

// Download godoc
// @Summary Download a finished export via signed token
// @Tags Audits
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /audits/downloads/{token} [get]
func (h *AuditHandler) Download(c *gin.Context) {
	token, ok := requiredParam(c, "token")
	if !ok {
		return
	}
	download, err := h.exports.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.Reader.Close() //nolint:errcheck
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", download.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, -1, download.ContentType, download.Reader, nil)
}
