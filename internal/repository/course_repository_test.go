package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/activitypass-api/internal/models"
)

func TestCourseRepositoryListByCode(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	monday := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(courseRowColumns).
		AddRow("c1", "CS101", "Intro", "2025-2026-1", "tch-1", 30, 1, "{1,2}", "{1,2,3}", "A101", monday, time.Now()).
		AddRow("c2", "CS101", "Intro", "2025-2026-1", nil, 0, -1, "{}", "{}", "", nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.code = $1 ORDER BY c.id ASC")).
		WithArgs("CS101").
		WillReturnRows(rows)

	courses, err := repo.ListByCode(context.Background(), "CS101")
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, pq.Int64Array{1, 2}, courses[0].Periods)
	assert.Equal(t, pq.Int64Array{1, 2, 3}, courses[0].Weeks)
	require.NotNil(t, courses[0].TeacherID)
	assert.Equal(t, "tch-1", *courses[0].TeacherID)
	assert.Nil(t, courses[1].TeacherID)
	assert.Empty(t, courses[1].Periods)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	columns := append([]string{"enrollment_id"}, courseRowColumns...)
	rows := sqlmock.NewRows(columns).
		AddRow("enr-1", "c1", "CS101", "Intro", "2025-2026-1", nil, 30, 2, "{3,4}", "{1}", "B2", nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM course_enrollments e")).
		WithArgs("stu-1").
		WillReturnRows(rows)

	courses, err := repo.ListByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "enr-1", courses[0].EnrollmentID)
	assert.Equal(t, "c1", courses[0].ID)
	assert.Equal(t, 2, courses[0].Weekday)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY c.code ASC, c.id ASC")).
		WillReturnRows(sqlmock.NewRows(courseRowColumns))

	courses, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, courses)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (id) DO UPDATE")).
		WithArgs("c1", "CS101", "Intro", "2025-2026-1", nil, 30, 1, sqlmock.AnyArg(), sqlmock.AnyArg(), "A101", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	courses := []models.Course{{ID: "c1", Code: "CS101", Title: "Intro", TermCode: "2025-2026-1", Capacity: 30, Weekday: 1, Periods: pq.Int64Array{1, 2}, Weeks: pq.Int64Array{1}, Location: "A101"}}
	require.NoError(t, repo.Upsert(context.Background(), nil, courses))
	assert.False(t, courses[0].CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
