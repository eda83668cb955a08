package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/activitypass-api/internal/models"
)

const activityColumns = `id, title, description, college_required, major_required, chinese_level_min, start_at, end_at, capacity, created_at`

// ActivityRepository reads activities.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs the repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// FindByID returns one activity.
func (r *ActivityRepository) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	var activity models.Activity
	if err := r.db.GetContext(ctx, &activity, `SELECT `+activityColumns+` FROM activities WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("find activity by id: %w", err)
	}
	return &activity, nil
}

// ListUpcoming returns activities that have not ended by now, soonest first.
func (r *ActivityRepository) ListUpcoming(ctx context.Context, now time.Time) ([]models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE end_at >= $1 ORDER BY start_at ASC, id ASC`
	var activities []models.Activity
	if err := r.db.SelectContext(ctx, &activities, query, now); err != nil {
		return nil, fmt.Errorf("list upcoming activities: %w", err)
	}
	return activities, nil
}
