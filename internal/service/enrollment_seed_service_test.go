package service

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/activitypass-api/internal/dto"
	"github.com/noah-isme/activitypass-api/internal/models"
	"github.com/noah-isme/activitypass-api/internal/scheduling"
	appErrors "github.com/noah-isme/activitypass-api/pkg/errors"
)

type termStoreStub struct {
	stored   []models.AcademicTerm
	upserted []models.AcademicTerm
}

func (t *termStoreStub) ListAnchored(ctx context.Context) ([]models.AcademicTerm, error) {
	return append(append([]models.AcademicTerm{}, t.stored...), t.upserted...), nil
}

func (t *termStoreStub) Upsert(ctx context.Context, exec sqlx.ExtContext, term *models.AcademicTerm) error {
	t.upserted = append(t.upserted, *term)
	return nil
}

type courseStoreStub struct {
	stored   []models.Course
	upserted []models.Course
}

func (c *courseStoreStub) ListAll(ctx context.Context) ([]models.Course, error) {
	return append(append([]models.Course{}, c.stored...), c.upserted...), nil
}

func (c *courseStoreStub) Upsert(ctx context.Context, exec sqlx.ExtContext, courses []models.Course) error {
	c.upserted = append(c.upserted, courses...)
	return nil
}

type enrollmentStoreStub struct {
	existing []models.EnrollmentWithCourse
	counts   map[string]int
	written  []models.CourseEnrollment
}

func (e *enrollmentStoreStub) ListAllWithCourse(ctx context.Context) ([]models.EnrollmentWithCourse, error) {
	return e.existing, nil
}

func (e *enrollmentStoreStub) CountByCourse(ctx context.Context) (map[string]int, error) {
	return e.counts, nil
}

func (e *enrollmentStoreStub) Upsert(ctx context.Context, exec sqlx.ExtContext, rows []models.CourseEnrollment) (int, error) {
	e.written = append(e.written, rows...)
	return len(rows), nil
}

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (*txProviderMock, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlx.NewDb(db, "sqlmock")}, mock
}

func (p *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return p.db.BeginTxx(ctx, opts)
}

type seedFixture struct {
	svc         *EnrollmentSeedService
	mock        sqlmock.Sqlmock
	terms       *termStoreStub
	courses     *courseStoreStub
	enrollments *enrollmentStoreStub
	cache       *cacheRepoStub
}

func newSeedFixture(t *testing.T, enrollments *enrollmentStoreStub, terms *termStoreStub, courses *courseStoreStub) *seedFixture {
	t.Helper()
	tx, mock := newTxProviderMock(t)
	students := newStudentStub(
		models.StudentProfile{ID: "stu-1", StudentNumber: "2025001"},
		models.StudentProfile{ID: "stu-2", StudentNumber: "2025002"},
		models.StudentProfile{ID: "stu-3", StudentNumber: "2025003"},
	)
	cacheRepo := newCacheRepoStub()
	cache := NewCacheService(cacheRepo, nil, 0, zap.NewNop(), true)
	svc := NewEnrollmentSeedService(tx, terms, courses, students, enrollments, cache, NewMetricsService(), nil, nil, zap.NewNop())
	return &seedFixture{svc: svc, mock: mock, terms: terms, courses: courses, enrollments: enrollments, cache: cacheRepo}
}

func seedRecords() []dto.CourseRecord {
	weeks := []int{1, 2, 3, 4}
	return []dto.CourseRecord{
		{StudentID: "2025001", Code: "PHYS101", Title: "Physics", Term: testTerm, TermStartDate: "2025-09-01", Weekday: 1, Periods: []int{2, 3}, Weeks: []int{1}, Capacity: 30},
		{StudentID: "2025001", Code: "MATH101", Title: "Calculus", Term: testTerm, TermStartDate: "2025-09-01", Weekday: 1, Periods: []int{1, 2}, Weeks: weeks, Capacity: 30},
		{Code: "CHEM101", Title: "Chemistry", Term: testTerm, TermStartDate: "2025-09-01", Weekday: 2, Periods: []int{1}, Weeks: []int{1}, Capacity: 1},
	}
}

func TestEnrollmentSeedServiceSeedPersists(t *testing.T) {
	f := newSeedFixture(t, &enrollmentStoreStub{counts: map[string]int{}}, &termStoreStub{}, &courseStoreStub{})
	for i := 0; i < 4; i++ {
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()
	}

	summary, err := f.svc.Seed(context.Background(), dto.SeedRequest{
		Records:   seedRecords(),
		Manual:    []dto.ManualAssignment{{StudentID: "2025002", Courses: []string{"CHEM101", "NOPE"}}},
		RandomMin: 1,
		RandomMax: 1,
		Seed:      42,
	})
	require.NoError(t, err)
	assert.NoError(t, f.mock.ExpectationsWereMet())

	assert.Equal(t, 1, summary.TermsUpserted)
	assert.Equal(t, 3, summary.CoursesUpserted)
	assert.Equal(t, 3, summary.Students)
	assert.Equal(t, 3, summary.Accepted)
	assert.Equal(t, 3, summary.Inserted)
	assert.Equal(t, 2, summary.Rejected)
	assert.Equal(t, map[string]int{"EXPLICIT": 1, "MANUAL": 1, "RANDOM": 1}, summary.BySource)

	reasons := map[string]scheduling.RejectReason{}
	for _, r := range summary.Rejections {
		reasons[r.CourseCode] = r.Reason
	}
	assert.Equal(t, scheduling.RejectConflict, reasons["PHYS101"])
	assert.Equal(t, scheduling.RejectNotFound, reasons["NOPE"])

	require.Len(t, f.terms.upserted, 1)
	assert.Equal(t, "2025-2026", f.terms.upserted[0].AcademicYear)
	assert.Equal(t, 1, f.terms.upserted[0].Semester)
	assert.Len(t, f.courses.upserted, 3)

	require.Len(t, f.enrollments.written, 3)
	first := f.enrollments.written[0]
	assert.Equal(t, "stu-1", first.StudentID)
	assert.Equal(t, "EXPLICIT", first.Source)
	require.NotNil(t, first.ExternalStudentID)
	assert.Equal(t, "2025001", *first.ExternalStudentID)
	assert.Equal(t, "RANDOM", f.enrollments.written[2].Source)
	assert.NotEqual(t, courseID(seedRecords()[2]), f.enrollments.written[2].CourseID)

	assert.Equal(t, []string{CourseEventCachePattern}, f.cache.deleted)
}

func TestEnrollmentSeedServiceDryRunWritesNothing(t *testing.T) {
	f := newSeedFixture(t, &enrollmentStoreStub{counts: map[string]int{}}, &termStoreStub{}, &courseStoreStub{})

	summary, err := f.svc.Seed(context.Background(), dto.SeedRequest{
		Records:   seedRecords(),
		RandomMin: 1,
		RandomMax: 1,
		Seed:      7,
		DryRun:    true,
	})
	require.NoError(t, err)
	assert.NoError(t, f.mock.ExpectationsWereMet())

	assert.True(t, summary.DryRun)
	assert.Equal(t, 3, summary.Accepted)
	assert.Zero(t, summary.Inserted)
	assert.Empty(t, f.terms.upserted)
	assert.Empty(t, f.courses.upserted)
	assert.Empty(t, f.enrollments.written)
	assert.Empty(t, f.cache.deleted)
}

func TestEnrollmentSeedServiceSkipsStudentsWithEnrollments(t *testing.T) {
	anchor := testAnchor
	stored := testCourse("course-x", "HIST101", 4, []int{5}, []int{1})
	enrollments := &enrollmentStoreStub{
		counts:   map[string]int{"course-x": 1},
		existing: []models.EnrollmentWithCourse{{StudentID: "stu-3", StudentNumber: "2025003", Course: stored}},
	}
	terms := &termStoreStub{stored: []models.AcademicTerm{{Code: testTerm, FirstWeekMonday: &anchor, IsActive: true}}}
	f := newSeedFixture(t, enrollments, terms, &courseStoreStub{stored: []models.Course{stored}})
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	summary, err := f.svc.Seed(context.Background(), dto.SeedRequest{RandomMin: 1, RandomMax: 1, SkipExisting: true, Seed: 3})
	require.NoError(t, err)
	assert.NoError(t, f.mock.ExpectationsWereMet())
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 2, summary.Accepted)
	for _, row := range f.enrollments.written {
		assert.NotEqual(t, "stu-3", row.StudentID)
	}
}

func TestEnrollmentSeedServiceSecondRunAcceptsNothing(t *testing.T) {
	f := newSeedFixture(t, &enrollmentStoreStub{counts: map[string]int{}}, &termStoreStub{}, &courseStoreStub{})
	for i := 0; i < 4; i++ {
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()
	}
	req := dto.SeedRequest{
		Records: seedRecords(),
		Manual:  []dto.ManualAssignment{{StudentID: "2025002", Courses: []string{"CHEM101"}}},
		Seed:    11,
	}

	first, err := f.svc.Seed(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Accepted)
	assert.Equal(t, 2, first.Inserted)

	byID := map[string]models.Course{}
	for _, c := range f.courses.upserted {
		byID[c.ID] = c
	}
	f.enrollments.existing = nil
	for _, row := range f.enrollments.written {
		f.enrollments.existing = append(f.enrollments.existing, models.EnrollmentWithCourse{
			StudentID:          row.StudentID,
			ExternalCourseCode: row.ExternalCourseCode,
			ExternalStudentID:  row.ExternalStudentID,
			Course:             byID[row.CourseID],
		})
		f.enrollments.counts[row.CourseID]++
	}
	f.cache.deleted = nil

	second, err := f.svc.Seed(context.Background(), req)
	require.NoError(t, err)
	assert.NoError(t, f.mock.ExpectationsWereMet())
	assert.Zero(t, second.Accepted)
	assert.Zero(t, second.Inserted)
	assert.Empty(t, second.BySource)
	assert.Len(t, f.enrollments.written, 2)
	assert.Empty(t, f.cache.deleted)
}

func TestEnrollmentSeedServiceRejectsStoredExternalPair(t *testing.T) {
	anchor := testAnchor
	stored := testCourse("course-x", "HIST101", 4, []int{5}, []int{1})
	extCode, extStudent := "PHYS101", "2025001"
	enrollments := &enrollmentStoreStub{
		counts: map[string]int{"course-x": 1},
		existing: []models.EnrollmentWithCourse{{
			StudentID:          "stu-1",
			StudentNumber:      "2025001",
			ExternalCourseCode: &extCode,
			ExternalStudentID:  &extStudent,
			Course:             stored,
		}},
	}
	terms := &termStoreStub{stored: []models.AcademicTerm{{Code: testTerm, FirstWeekMonday: &anchor, IsActive: true}}}
	f := newSeedFixture(t, enrollments, terms, &courseStoreStub{stored: []models.Course{stored}})
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	records := []dto.CourseRecord{
		{StudentID: "2025001", Code: "PHYS101", Title: "Physics", Term: testTerm, TermStartDate: "2025-09-01", Weekday: 1, Periods: []int{2, 3}, Weeks: []int{1}, Capacity: 30},
	}
	summary, err := f.svc.Seed(context.Background(), dto.SeedRequest{Records: records, Seed: 5})
	require.NoError(t, err)
	assert.NoError(t, f.mock.ExpectationsWereMet())

	assert.Zero(t, summary.Accepted)
	require.Len(t, summary.Rejections, 1)
	assert.Equal(t, scheduling.RejectAlreadyEnrolled, summary.Rejections[0].Reason)
	assert.Empty(t, f.enrollments.written)
}

func TestEnrollmentSeedServiceInactiveAnchoredTermLoadsLedger(t *testing.T) {
	anchor := testAnchor
	stored := testCourse("course-x", "HIST101", 4, []int{5}, []int{1})
	enrollments := &enrollmentStoreStub{
		counts:   map[string]int{"course-x": 1},
		existing: []models.EnrollmentWithCourse{{StudentID: "stu-3", StudentNumber: "2025003", Course: stored}},
	}
	terms := &termStoreStub{stored: []models.AcademicTerm{{Code: testTerm, FirstWeekMonday: &anchor, IsActive: false}}}
	f := newSeedFixture(t, enrollments, terms, &courseStoreStub{stored: []models.Course{stored}})

	summary, err := f.svc.Seed(context.Background(), dto.SeedRequest{
		Manual: []dto.ManualAssignment{{StudentID: "2025003", Courses: []string{"HIST101"}}},
		DryRun: true,
	})
	require.NoError(t, err)
	require.Len(t, summary.Rejections, 1)
	assert.Equal(t, scheduling.RejectDuplicateCode, summary.Rejections[0].Reason)
}

func TestEnrollmentSeedServiceUnanchoredTermFails(t *testing.T) {
	f := newSeedFixture(t, &enrollmentStoreStub{counts: map[string]int{}}, &termStoreStub{}, &courseStoreStub{})

	records := []dto.CourseRecord{{Code: "ART101", Term: "2030-2031-2", Weekday: 1, Periods: []int{1}, Weeks: []int{1}}}
	_, err := f.svc.Seed(context.Background(), dto.SeedRequest{Records: records, DryRun: true})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTermNotConfigured.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentSeedServiceValidatesRange(t *testing.T) {
	f := newSeedFixture(t, &enrollmentStoreStub{}, &termStoreStub{}, &courseStoreStub{})

	_, err := f.svc.Seed(context.Background(), dto.SeedRequest{RandomMin: 3, RandomMax: 1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDeriveCoursesDedupesByTuple(t *testing.T) {
	records := []dto.CourseRecord{
		{StudentID: "a", Code: "MATH101", Term: testTerm, Weekday: 1, Periods: []int{2, 1}, Weeks: []int{1, 2}},
		{StudentID: "b", Code: "MATH101", Term: testTerm, Weekday: 1, Periods: []int{1, 2}, Weeks: []int{2, 1}},
		{Code: "MATH101", Term: testTerm, Weekday: 2, Periods: []int{1, 2}, Weeks: []int{1, 2}},
	}
	courses, index := deriveCourses(records)
	require.Len(t, courses, 2)
	assert.Equal(t, index[0], index[1])
	assert.NotEqual(t, index[0], index[2])
	assert.Equal(t, courseID(records[0]), courses[0].ID)
}

func TestParseTermCode(t *testing.T) {
	year, semester, ok := parseTermCode("2024-2025-2")
	require.True(t, ok)
	assert.Equal(t, "2024-2025", year)
	assert.Equal(t, 2, semester)

	_, _, ok = parseTermCode("2024")
	assert.False(t, ok)
	_, _, ok = parseTermCode("2024-2025-x")
	assert.False(t, ok)
}
