package models

import (
	"time"

	"github.com/lib/pq"
)

// Course is a stored course section. Term start comes from the joined academic term.
type Course struct {
	ID            string        `db:"id" json:"id"`
	Code          string        `db:"code" json:"code"`
	Title         string        `db:"title" json:"title"`
	TermCode      string        `db:"term_code" json:"term"`
	TeacherID     *string       `db:"teacher_id" json:"teacher_id,omitempty"`
	Capacity      int           `db:"capacity" json:"capacity"`
	Weekday       int           `db:"weekday" json:"weekday"`
	Periods       pq.Int64Array `db:"periods" json:"periods"`
	Weeks         pq.Int64Array `db:"weeks" json:"weeks"`
	Location      string        `db:"location" json:"location"`
	TermStartDate *time.Time    `db:"term_start_date" json:"term_start_date,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// Ints converts a postgres integer array into plain ints.
func Ints(values pq.Int64Array) []int {
	out := make([]int, 0, len(values))
	for _, v := range values {
		out = append(out, int(v))
	}
	return out
}

// StudentCourse joins an enrollment with its course for per-student views.
type StudentCourse struct {
	EnrollmentID string `db:"enrollment_id" json:"enrollment_id"`
	Course
}
