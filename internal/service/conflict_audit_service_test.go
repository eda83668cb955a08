package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/activitypass-api/internal/models"
)

type auditReaderStub struct {
	rows []models.EnrollmentWithCourse
}

func (a auditReaderStub) ListAllWithCourse(ctx context.Context) ([]models.EnrollmentWithCourse, error) {
	return a.rows, nil
}

func auditRow(studentID, number string, c models.Course) models.EnrollmentWithCourse {
	return models.EnrollmentWithCourse{StudentID: studentID, StudentNumber: number, Course: c}
}

func newConflictAuditFixture() *ConflictAuditService {
	dupA := testCourse("c-1", "MATH101", 1, []int{1, 2}, []int{1, 2, 3})
	dupB := testCourse("c-2", "MATH101", 3, []int{5}, []int{1})
	dupB.Title = "Calculus B"
	clash := testCourse("c-3", "PHYS101", 1, []int{2, 3}, []int{3, 4})
	unscheduled := testCourse("c-4", "ONLINE1", -1, nil, nil)
	clean := testCourse("c-5", "CHEM101", 2, []int{1}, []int{1})

	svc := NewConflictAuditService(auditReaderStub{rows: []models.EnrollmentWithCourse{
		auditRow("stu-1", "2025001", dupA),
		auditRow("stu-1", "2025001", dupB),
		auditRow("stu-1", "2025001", clash),
		auditRow("stu-1", "2025001", unscheduled),
		auditRow("stu-2", "2025002", clean),
	}}, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestConflictAuditServiceReport(t *testing.T) {
	svc := newConflictAuditFixture()

	report, err := svc.Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Aggregates.StudentCount)
	assert.Equal(t, 1, report.Aggregates.DuplicatePairs)
	assert.Equal(t, 1, report.Aggregates.ConflictPairs)

	first := report.Students["2025001"]
	assert.Equal(t, "stu-1", first.StudentPK)
	require.Len(t, first.Courses, 4)
	require.Len(t, first.Issues, 2)

	dup := first.Issues[0]
	assert.Equal(t, models.IssueDuplicateCourseCode, dup.Type)
	assert.Equal(t, "MATH101", dup.Code)
	assert.Equal(t, []string{"c-1", "c-2"}, dup.CourseIDs)
	assert.Equal(t, []string{"Calculus B", "Course MATH101"}, dup.Titles)

	conflict := first.Issues[1]
	assert.Equal(t, models.IssueScheduleConflict, conflict.Type)
	assert.Equal(t, []string{"c-1", "c-3"}, conflict.CourseIDs)
	assert.Equal(t, []string{"MATH101", "PHYS101"}, conflict.Codes)
	assert.Equal(t, 1, conflict.Weekday)
	assert.Equal(t, []int{2}, conflict.OverlapPeriods)
	assert.Equal(t, []int{3}, conflict.OverlapWeeks)

	second := report.Students["2025002"]
	assert.Empty(t, second.Issues)
}

func TestConflictAuditServiceDataset(t *testing.T) {
	svc := newConflictAuditFixture()
	report, err := svc.Report(context.Background())
	require.NoError(t, err)

	ds := svc.Dataset(report)
	assert.Equal(t, "Course Conflict Audit 2025-10-01", ds.Title)
	assert.Equal(t, AuditColumns, ds.Columns)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, "MATH101", ds.Rows[0]["Codes"])
	assert.Equal(t, "MATH101, PHYS101", ds.Rows[1]["Codes"])
	assert.Equal(t, "1", ds.Rows[1]["Weekday"])
	assert.Equal(t, "2", ds.Rows[1]["Periods"])
	assert.Equal(t, "", ds.Rows[0]["Weekday"])
}
