package dto

import "github.com/noah-isme/activitypass-api/internal/models"

// AuditExportRequest captures POST /audits/course-conflicts/exports.
type AuditExportRequest struct {
	Format      string `json:"format" validate:"required,oneof=csv pdf xlsx CSV PDF XLSX"`
	RequestedBy string `json:"requested_by" validate:"max=128"`
}

// AuditExportJobResponse is returned after enqueueing an export.
type AuditExportJobResponse struct {
	ID       string                   `json:"id"`
	Status   models.AuditExportStatus `json:"status"`
	Progress int                      `json:"progress"`
}

// AuditExportStatusResponse exposes export progress.
type AuditExportStatusResponse struct {
	ID        string                   `json:"id"`
	Format    string                   `json:"format"`
	Status    models.AuditExportStatus `json:"status"`
	Progress  int                      `json:"progress"`
	ResultURL *string                  `json:"result_url,omitempty"`
	Error     *string                  `json:"error,omitempty"`
}
