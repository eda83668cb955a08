package models

import "time"

// Issue types reported by the course conflict audit.
const (
	IssueDuplicateCourseCode = "duplicate_course_code"
	IssueScheduleConflict    = "schedule_conflict"
)

// AuditCourse is the course summary attached to each audited student.
type AuditCourse struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Title   string `json:"title"`
	Weekday int    `json:"weekday"`
	Periods []int  `json:"periods"`
	Weeks   []int  `json:"weeks"`
}

// AuditIssue is either a duplicate code group or a conflicting course pair.
type AuditIssue struct {
	Type           string   `json:"type"`
	Code           string   `json:"code,omitempty"`
	Codes          []string `json:"codes,omitempty"`
	CourseIDs      []string `json:"course_ids"`
	Titles         []string `json:"titles"`
	Weekday        int      `json:"weekday,omitempty"`
	OverlapPeriods []int    `json:"overlap_periods,omitempty"`
	OverlapWeeks   []int    `json:"overlap_weeks,omitempty"`
}

// StudentAudit lists one student's issues and the courses inspected.
type StudentAudit struct {
	StudentID string        `json:"student_id"`
	StudentPK string        `json:"student_pk"`
	Issues    []AuditIssue  `json:"issues"`
	Courses   []AuditCourse `json:"courses"`
}

// AuditAggregates summarises a conflict report.
type AuditAggregates struct {
	StudentCount   int `json:"student_count"`
	DuplicatePairs int `json:"duplicate_pairs"`
	ConflictPairs  int `json:"conflict_pairs"`
}

// ConflictReport is keyed by student number and covers every enrolled student.
type ConflictReport struct {
	Students    map[string]StudentAudit `json:"students"`
	Aggregates  AuditAggregates         `json:"aggregates"`
	GeneratedAt time.Time               `json:"generated_at"`
}

// AuditExportStatus captures background export lifecycle states.
type AuditExportStatus string

const (
	AuditExportQueued     AuditExportStatus = "QUEUED"
	AuditExportProcessing AuditExportStatus = "PROCESSING"
	AuditExportFinished   AuditExportStatus = "FINISHED"
	AuditExportFailed     AuditExportStatus = "FAILED"
)

// AuditExportJob is a persisted export request.
type AuditExportJob struct {
	ID           string            `db:"id" json:"id"`
	Format       string            `db:"format" json:"format"`
	Status       AuditExportStatus `db:"status" json:"status"`
	Progress     int               `db:"progress" json:"progress"`
	ResultURL    *string           `db:"result_url" json:"result_url,omitempty"`
	ErrorMessage *string           `db:"error_message" json:"error_message,omitempty"`
	RequestedBy  string            `db:"requested_by" json:"requested_by"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time        `db:"finished_at" json:"finished_at,omitempty"`
}

// AuditExportUpdate carries the mutable job fields; nil pointers are left unchanged.
type AuditExportUpdate struct {
	ID           string
	Status       *AuditExportStatus
	Progress     *int
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}
