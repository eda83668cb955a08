package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/activitypass-api/internal/models"
)

const courseSelect = `SELECT c.id, c.code, c.title, c.term_code, c.teacher_id, c.capacity, c.weekday, c.periods, c.weeks, c.location,
t.first_week_monday AS term_start_date, c.created_at
FROM courses c LEFT JOIN academic_terms t ON t.code = c.term_code`

// CourseRepository reads course sections.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns a single course.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := r.db.GetContext(ctx, &course, courseSelect+` WHERE c.id = $1`, id); err != nil {
		return nil, fmt.Errorf("find course by id: %w", err)
	}
	return &course, nil
}

// ListByCode returns every section sharing code, ordered by id.
func (r *CourseRepository) ListByCode(ctx context.Context, code string) ([]models.Course, error) {
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, courseSelect+` WHERE c.code = $1 ORDER BY c.id ASC`, code); err != nil {
		return nil, fmt.Errorf("list courses by code: %w", err)
	}
	return courses, nil
}

// ListAll returns the full course pool ordered by code then id.
func (r *CourseRepository) ListAll(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, courseSelect+` ORDER BY c.code ASC, c.id ASC`); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// ListByStudent returns the courses a student is enrolled in with their enrollment ids.
func (r *CourseRepository) ListByStudent(ctx context.Context, studentID string) ([]models.StudentCourse, error) {
	const query = `SELECT e.id AS enrollment_id, c.id, c.code, c.title, c.term_code, c.teacher_id, c.capacity, c.weekday, c.periods, c.weeks, c.location,
t.first_week_monday AS term_start_date, c.created_at
FROM course_enrollments e
JOIN courses c ON c.id = e.course_id
LEFT JOIN academic_terms t ON t.code = c.term_code
WHERE e.student_id = $1
ORDER BY c.code ASC, c.id ASC`
	var courses []models.StudentCourse
	if err := r.db.SelectContext(ctx, &courses, query, studentID); err != nil {
		return nil, fmt.Errorf("list courses by student: %w", err)
	}
	return courses, nil
}

// Upsert writes course sections keyed by id, refreshing capacity, schedule and location.
func (r *CourseRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, courses []models.Course) error {
	if len(courses) == 0 {
		return nil
	}
	target := pick(r.db, exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO courses (id, code, title, term_code, teacher_id, capacity, weekday, periods, weeks, location, created_at)
VALUES (:id, :code, :title, :term_code, :teacher_id, :capacity, :weekday, :periods, :weeks, :location, :created_at)
ON CONFLICT (id) DO UPDATE
SET capacity = EXCLUDED.capacity,
    weekday = EXCLUDED.weekday,
    periods = EXCLUDED.periods,
    weeks = EXCLUDED.weeks,
    location = EXCLUDED.location`

	for i := range courses {
		course := &courses[i]
		if course.CreatedAt.IsZero() {
			course.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, course); err != nil {
			return fmt.Errorf("upsert course %s: %w", course.Code, err)
		}
	}
	return nil
}
