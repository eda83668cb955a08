package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/activitypass-api/internal/models"
)

const termColumns = `id, code, academic_year, semester, first_week_monday, is_active, created_at, updated_at`

// TermRepository persists academic terms and their week-1 anchors.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository constructs the repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

// FindByCode returns the term identified by code.
func (r *TermRepository) FindByCode(ctx context.Context, code string) (*models.AcademicTerm, error) {
	query := `SELECT ` + termColumns + ` FROM academic_terms WHERE code = $1`
	var term models.AcademicTerm
	if err := r.db.GetContext(ctx, &term, query, code); err != nil {
		return nil, fmt.Errorf("find term by code: %w", err)
	}
	return &term, nil
}

// ListAnchored returns every term with a week-1 anchor ordered by code. Inactive
// terms are included since stored enrollments may still reference them.
func (r *TermRepository) ListAnchored(ctx context.Context) ([]models.AcademicTerm, error) {
	query := `SELECT ` + termColumns + ` FROM academic_terms WHERE first_week_monday IS NOT NULL ORDER BY code ASC`
	var terms []models.AcademicTerm
	if err := r.db.SelectContext(ctx, &terms, query); err != nil {
		return nil, fmt.Errorf("list anchored terms: %w", err)
	}
	return terms, nil
}

// Upsert inserts the term or refreshes its anchor and metadata when the code exists.
func (r *TermRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, term *models.AcademicTerm) error {
	now := time.Now().UTC()
	if term.ID == "" {
		term.ID = uuid.NewString()
	}
	if term.CreatedAt.IsZero() {
		term.CreatedAt = now
	}
	term.UpdatedAt = now

	const query = `
INSERT INTO academic_terms (id, code, academic_year, semester, first_week_monday, is_active, created_at, updated_at)
VALUES (:id, :code, :academic_year, :semester, :first_week_monday, :is_active, :created_at, :updated_at)
ON CONFLICT (code) DO UPDATE
SET academic_year = EXCLUDED.academic_year,
    semester = EXCLUDED.semester,
    first_week_monday = EXCLUDED.first_week_monday,
    is_active = EXCLUDED.is_active,
    updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, pick(r.db, exec), query, term); err != nil {
		return fmt.Errorf("upsert term: %w", err)
	}
	return nil
}
