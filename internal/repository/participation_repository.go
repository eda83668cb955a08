package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/activitypass-api/internal/models"
)

// ErrDuplicateParticipation is returned when a student already applied to an activity.
var ErrDuplicateParticipation = errors.New("participation already exists")

const uniqueViolation = "23505"

// ParticipationRepository persists activity applications.
type ParticipationRepository struct {
	db *sqlx.DB
}

// NewParticipationRepository constructs the repository.
func NewParticipationRepository(db *sqlx.DB) *ParticipationRepository {
	return &ParticipationRepository{db: db}
}

// CountApprovedSince counts a student's approved participations applied at or after since.
func (r *ParticipationRepository) CountApprovedSince(ctx context.Context, studentID string, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM participations WHERE student_id = $1 AND status = $2 AND applied_at >= $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, studentID, models.ParticipationApproved, since); err != nil {
		return 0, fmt.Errorf("count approved participations: %w", err)
	}
	return count, nil
}

// FindByStudentAndActivity returns the application of studentID to activityID, or nil.
func (r *ParticipationRepository) FindByStudentAndActivity(ctx context.Context, studentID, activityID string) (*models.Participation, error) {
	const query = `SELECT id, student_id, activity_id, status, applied_at FROM participations WHERE student_id = $1 AND activity_id = $2`
	var p models.Participation
	if err := r.db.GetContext(ctx, &p, query, studentID, activityID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find participation: %w", err)
	}
	return &p, nil
}

// Create inserts a new application; a second application for the same pair yields
// ErrDuplicateParticipation.
func (r *ParticipationRepository) Create(ctx context.Context, p *models.Participation) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = models.ParticipationApplied
	}
	if p.AppliedAt.IsZero() {
		p.AppliedAt = time.Now().UTC()
	}
	const query = `INSERT INTO participations (id, student_id, activity_id, status, applied_at)
VALUES (:id, :student_id, :activity_id, :status, :applied_at)`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateParticipation
		}
		return fmt.Errorf("create participation: %w", err)
	}
	return nil
}
