package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/activitypass-api/internal/models"
	"github.com/noah-isme/activitypass-api/internal/scheduling"
	"github.com/noah-isme/activitypass-api/pkg/export"
)

type enrollmentAuditReader interface {
	ListAllWithCourse(ctx context.Context) ([]models.EnrollmentWithCourse, error)
}

// AuditColumns are the export columns of a conflict report, one row per issue.
var AuditColumns = []string{"Student", "Student PK", "Issue", "Codes", "Course IDs", "Titles", "Weekday", "Periods", "Weeks"}

// ConflictAuditService inspects stored enrollments for duplicate course codes and
// overlapping schedules.
type ConflictAuditService struct {
	enrollments enrollmentAuditReader
	logger      *zap.Logger
	now         func() time.Time
}

// NewConflictAuditService constructs the service.
func NewConflictAuditService(enrollments enrollmentAuditReader, logger *zap.Logger) *ConflictAuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictAuditService{enrollments: enrollments, logger: logger, now: time.Now}
}

// Report builds the conflict report over every enrolled student.
func (s *ConflictAuditService) Report(ctx context.Context) (*models.ConflictReport, error) {
	rows, err := s.enrollments.ListAllWithCourse(ctx)
	if err != nil {
		return nil, wrapInternal(err, "load enrollments")
	}

	students := make(map[string]*models.StudentAudit)
	order := make([]string, 0)
	for _, row := range rows {
		key := row.StudentNumber
		if key == "" {
			key = row.StudentID
		}
		bucket, ok := students[key]
		if !ok {
			bucket = &models.StudentAudit{StudentID: row.StudentNumber, StudentPK: row.StudentID, Issues: []models.AuditIssue{}}
			students[key] = bucket
			order = append(order, key)
		}
		slot := scheduling.NewTimeSlot(row.Weekday, models.Ints(row.Periods), models.Ints(row.Weeks), time.Time{})
		bucket.Courses = append(bucket.Courses, models.AuditCourse{
			ID:      row.ID,
			Code:    row.Code,
			Title:   row.Title,
			Weekday: slot.Weekday,
			Periods: nonNil(slot.Periods),
			Weeks:   nonNil(slot.Weeks),
		})
	}

	report := &models.ConflictReport{
		Students:    make(map[string]models.StudentAudit, len(students)),
		GeneratedAt: s.now().UTC(),
	}
	for _, key := range order {
		bucket := students[key]
		bucket.Issues = scanCourses(bucket.Courses)
		for _, issue := range bucket.Issues {
			switch issue.Type {
			case models.IssueDuplicateCourseCode:
				report.Aggregates.DuplicatePairs++
			case models.IssueScheduleConflict:
				report.Aggregates.ConflictPairs++
			}
		}
		report.Students[key] = *bucket
	}
	report.Aggregates.StudentCount = len(report.Students)

	s.logger.Info("course conflict audit built",
		zap.Int("students", report.Aggregates.StudentCount),
		zap.Int("duplicates", report.Aggregates.DuplicatePairs),
		zap.Int("conflicts", report.Aggregates.ConflictPairs))
	return report, nil
}

// scanCourses reports duplicate code groups first, then conflicting scheduled pairs.
func scanCourses(courses []models.AuditCourse) []models.AuditIssue {
	issues := []models.AuditIssue{}

	byCode := make(map[string][]models.AuditCourse)
	codes := make([]string, 0)
	scheduled := make([]models.AuditCourse, 0, len(courses))
	for _, c := range courses {
		if c.Code != "" {
			if _, ok := byCode[c.Code]; !ok {
				codes = append(codes, c.Code)
			}
			byCode[c.Code] = append(byCode[c.Code], c)
		}
		if c.Weekday != scheduling.Unscheduled && len(c.Periods) > 0 && len(c.Weeks) > 0 {
			scheduled = append(scheduled, c)
		}
	}

	for _, code := range codes {
		items := byCode[code]
		if len(items) < 2 {
			continue
		}
		issue := models.AuditIssue{Type: models.IssueDuplicateCourseCode, Code: code}
		titles := make(map[string]bool)
		for _, item := range items {
			issue.CourseIDs = append(issue.CourseIDs, item.ID)
			if !titles[item.Title] {
				titles[item.Title] = true
				issue.Titles = append(issue.Titles, item.Title)
			}
		}
		sort.Strings(issue.Titles)
		issues = append(issues, issue)
	}

	slots := make([]scheduling.TimeSlot, len(scheduled))
	for i, c := range scheduled {
		slots[i] = scheduling.NewTimeSlot(c.Weekday, c.Periods, c.Weeks, time.Time{})
	}
	for _, pair := range scheduling.DetectAll(slots) {
		left, right := scheduled[pair.Left], scheduled[pair.Right]
		issues = append(issues, models.AuditIssue{
			Type:           models.IssueScheduleConflict,
			CourseIDs:      []string{left.ID, right.ID},
			Codes:          []string{left.Code, right.Code},
			Titles:         []string{left.Title, right.Title},
			Weekday:        pair.Weekday,
			OverlapPeriods: pair.OverlapPeriods,
			OverlapWeeks:   pair.OverlapWeeks,
		})
	}
	return issues
}

// Dataset flattens the report into one export row per issue, ordered by student.
func (s *ConflictAuditService) Dataset(report *models.ConflictReport) export.Dataset {
	ds := export.Dataset{
		Title:   "Course Conflict Audit " + report.GeneratedAt.Format(time.DateOnly),
		Columns: AuditColumns,
		Rows:    []map[string]string{},
	}
	keys := make([]string, 0, len(report.Students))
	for key := range report.Students {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		student := report.Students[key]
		for _, issue := range student.Issues {
			codes := issue.Codes
			if issue.Code != "" {
				codes = []string{issue.Code}
			}
			weekday := ""
			if issue.Weekday > 0 {
				weekday = strconv.Itoa(issue.Weekday)
			}
			ds.Rows = append(ds.Rows, map[string]string{
				"Student":    student.StudentID,
				"Student PK": student.StudentPK,
				"Issue":      issue.Type,
				"Codes":      strings.Join(codes, ", "),
				"Course IDs": strings.Join(issue.CourseIDs, ", "),
				"Titles":     strings.Join(issue.Titles, ", "),
				"Weekday":    weekday,
				"Periods":    joinInts(issue.OverlapPeriods),
				"Weeks":      joinInts(issue.OverlapWeeks),
			})
		}
	}
	return ds
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
