package dto

import "time"

// StudentCoursePayload is the raw scheduling metadata of one enrolled course, for
// clients that expand occurrences themselves.
type StudentCoursePayload struct {
	EnrollmentID  string  `json:"enrollment_id"`
	CourseID      string  `json:"course_id"`
	StudentID     string  `json:"student"`
	Title         string  `json:"title"`
	Code          string  `json:"code"`
	Location      string  `json:"location"`
	Weekday       int     `json:"weekday"`
	Periods       []int   `json:"periods"`
	Weeks         []int   `json:"weeks"`
	TermStartDate *string `json:"term_start_date"`
	Term          string  `json:"term"`
	TeacherID     string  `json:"teacher_id"`
}

// CourseEventPayload is one expanded course occurrence.
type CourseEventPayload struct {
	ID        int       `json:"id"`
	StudentID string    `json:"student"`
	CourseID  string    `json:"course_id"`
	Code      string    `json:"code"`
	Title     string    `json:"title"`
	Location  string    `json:"location,omitempty"`
	Week      int       `json:"week"`
	Start     time.Time `json:"start_datetime"`
	End       time.Time `json:"end_datetime"`
}
