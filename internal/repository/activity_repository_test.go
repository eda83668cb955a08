package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var activityRowColumns = []string{"id", "title", "description", "college_required", "major_required", "chinese_level_min", "start_at", "end_at", "capacity", "created_at"}

func TestActivityRepositoryListUpcoming(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	now := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(activityRowColumns).
		AddRow("a1", "Tea ceremony", "", "all", "", "HSK3", now.Add(time.Hour), now.Add(2*time.Hour), 50, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM activities WHERE end_at >= $1 ORDER BY start_at ASC, id ASC")).
		WithArgs(now).
		WillReturnRows(rows)

	list, err := repo.ListUpcoming(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "HSK3", list[0].ChineseLevelMin)
	assert.Equal(t, "all", list[0].CollegeRequired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(activityRowColumns).
		AddRow("a1", "Calligraphy", "desc", "", `["CS","Math"]`, "", now, now.Add(time.Hour), 20, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM activities WHERE id = $1")).WithArgs("a1").WillReturnRows(rows)

	activity, err := repo.FindByID(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, `["CS","Math"]`, activity.MajorRequired)
	assert.Equal(t, 20, activity.Capacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}
