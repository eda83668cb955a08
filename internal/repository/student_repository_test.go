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

func TestStudentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_number", "full_name", "college", "major", "chinese_level", "year", "created_at"}).
		AddRow("s1", "2025001", "Li Wei", "Engineering", "CS", 4, 2, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM student_profiles WHERE id = $1")).WithArgs("s1").WillReturnRows(rows)

	student, err := repo.FindByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, student.ChineseLevel)
	assert.Equal(t, "Engineering", student.College)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_number", "full_name", "college", "major", "chinese_level", "year", "created_at"}).
		AddRow("s2", "2025001", "", "", "", 0, 1, time.Now()).
		AddRow("s1", "2025002", "", "", "", 0, 1, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY student_number ASC")).WillReturnRows(rows)

	students, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "s2", students[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
