package models

import "time"

// CourseEnrollment links a student to a course section.
type CourseEnrollment struct {
	ID                 string    `db:"id" json:"id"`
	CourseID           string    `db:"course_id" json:"course_id"`
	StudentID          string    `db:"student_id" json:"student_id"`
	ExternalCourseCode *string   `db:"external_course_code" json:"external_course_code,omitempty"`
	ExternalStudentID  *string   `db:"external_student_id" json:"external_student_id,omitempty"`
	Source             string    `db:"source" json:"source"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// EnrollmentWithCourse is an enrollment row carrying the student number and course fields.
type EnrollmentWithCourse struct {
	StudentID          string  `db:"student_id"`
	StudentNumber      string  `db:"student_number"`
	ExternalCourseCode *string `db:"external_course_code"`
	ExternalStudentID  *string `db:"external_student_id"`
	Course
}

// CourseCount is the number of enrollments held by one course.
type CourseCount struct {
	CourseID string `db:"course_id"`
	Count    int    `db:"count"`
}
