package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/activitypass-api/internal/models"
)

func TestParticipationRepositoryCountApprovedSince(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewParticipationRepository(db)

	since := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM participations WHERE student_id = $1 AND status = $2 AND applied_at >= $3")).
		WithArgs("s1", models.ParticipationApproved, since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))

	count, err := repo.CountApprovedSince(context.Background(), "s1", since)
	require.NoError(t, err)
	assert.Equal(t, 6, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipationRepositoryFindMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewParticipationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM participations WHERE student_id = $1 AND activity_id = $2")).
		WithArgs("s1", "a1").
		WillReturnError(sql.ErrNoRows)

	p, err := repo.FindByStudentAndActivity(context.Background(), "s1", "a1")
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewParticipationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO participations")).
		WithArgs(sqlmock.AnyArg(), "s1", "a1", models.ParticipationApplied, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	p := &models.Participation{StudentID: "s1", ActivityID: "a1"}
	require.NoError(t, repo.Create(context.Background(), p))
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, models.ParticipationApplied, p.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipationRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewParticipationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO participations")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Participation{StudentID: "s1", ActivityID: "a1"})
	assert.ErrorIs(t, err, ErrDuplicateParticipation)
	assert.NoError(t, mock.ExpectationsWereMet())
}
