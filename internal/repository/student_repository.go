package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/activitypass-api/internal/models"
)

const studentColumns = `id, student_number, full_name, college, major, chinese_level, year, created_at`

// StudentRepository reads student profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student profile.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentProfile, error) {
	var student models.StudentProfile
	if err := r.db.GetContext(ctx, &student, `SELECT `+studentColumns+` FROM student_profiles WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("find student by id: %w", err)
	}
	return &student, nil
}

// ListAll returns every student ordered by student number.
func (r *StudentRepository) ListAll(ctx context.Context) ([]models.StudentProfile, error) {
	var students []models.StudentProfile
	if err := r.db.SelectContext(ctx, &students, `SELECT `+studentColumns+` FROM student_profiles ORDER BY student_number ASC`); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}
