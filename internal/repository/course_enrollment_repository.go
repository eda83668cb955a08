package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/activitypass-api/internal/models"
)

// CourseEnrollmentRepository persists student course enrollments.
type CourseEnrollmentRepository struct {
	db *sqlx.DB
}

// NewCourseEnrollmentRepository constructs the repository.
func NewCourseEnrollmentRepository(db *sqlx.DB) *CourseEnrollmentRepository {
	return &CourseEnrollmentRepository{db: db}
}

// ListByStudent returns a student's enrollments ordered by creation.
func (r *CourseEnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.CourseEnrollment, error) {
	const query = `SELECT id, course_id, student_id, external_course_code, external_student_id, source, created_at
FROM course_enrollments WHERE student_id = $1 ORDER BY created_at ASC`
	var rows []models.CourseEnrollment
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list enrollments by student: %w", err)
	}
	return rows, nil
}

// CountByCourse returns the current enrollment count of every course holding at least one.
func (r *CourseEnrollmentRepository) CountByCourse(ctx context.Context) (map[string]int, error) {
	const query = `SELECT course_id, COUNT(*) AS count FROM course_enrollments GROUP BY course_id`
	var rows []models.CourseCount
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count enrollments by course: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.CourseID] = row.Count
	}
	return counts, nil
}

// Upsert inserts enrollments, skipping rows that collide with either unique key, and
// returns how many rows were written.
func (r *CourseEnrollmentRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, rows []models.CourseEnrollment) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	target := pick(r.db, exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO course_enrollments (id, course_id, student_id, external_course_code, external_student_id, source, created_at)
VALUES (:id, :course_id, :student_id, :external_course_code, :external_student_id, :source, :created_at)
ON CONFLICT DO NOTHING`

	inserted := 0
	for i := range rows {
		row := &rows[i]
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		res, err := sqlx.NamedExecContext(ctx, target, query, row)
		if err != nil {
			return inserted, fmt.Errorf("upsert enrollment: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	return inserted, nil
}

// ListAllWithCourse returns every enrollment joined with its course, ordered by
// student number then course code, for conflict audits.
func (r *CourseEnrollmentRepository) ListAllWithCourse(ctx context.Context) ([]models.EnrollmentWithCourse, error) {
	const query = `SELECT e.student_id, s.student_number, c.id, c.code, c.title, c.term_code, c.teacher_id, c.capacity,
c.weekday, c.periods, c.weeks, c.location, t.first_week_monday AS term_start_date, c.created_at,
e.external_course_code, e.external_student_id
FROM course_enrollments e
JOIN student_profiles s ON s.id = e.student_id
JOIN courses c ON c.id = e.course_id
LEFT JOIN academic_terms t ON t.code = c.term_code
ORDER BY s.student_number ASC, c.code ASC, c.id ASC`
	var rows []models.EnrollmentWithCourse
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list enrollments with course: %w", err)
	}
	return rows, nil
}
