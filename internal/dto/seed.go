package dto

import "github.com/noah-isme/activitypass-api/internal/scheduling"

// CourseRecord is one row of the course records file. Rows with a student id become
// explicit enrollments; every row contributes its course section to the pool.
type CourseRecord struct {
	StudentID          string `json:"student_id"`
	Code               string `json:"code" validate:"required"`
	Title              string `json:"title"`
	TeacherID          string `json:"teacher_id"`
	Location           string `json:"location"`
	Term               string `json:"term" validate:"required"`
	TermStartDate      string `json:"term_start_date" validate:"omitempty,datetime=2006-01-02"`
	Weekday            int    `json:"weekday"`
	Periods            []int  `json:"periods"`
	Weeks              []int  `json:"weeks"`
	Capacity           int    `json:"capacity" validate:"min=0"`
	ExternalCourseCode string `json:"external_course_code"`
}

// ManualAssignment lists course codes to enroll a student in.
type ManualAssignment struct {
	StudentID string   `json:"student_id" validate:"required"`
	Courses   []string `json:"courses" validate:"required,min=1"`
}

// SeedRequest drives one enrollment seeding run.
type SeedRequest struct {
	Records      []CourseRecord     `validate:"dive"`
	Manual       []ManualAssignment `validate:"dive"`
	RandomMin    int                `validate:"min=0"`
	RandomMax    int                `validate:"gtefield=RandomMin"`
	SkipExisting bool
	Seed         int64
	DryRun       bool
}

// SeedSummary reports what a seeding run did.
type SeedSummary struct {
	DryRun          bool                      `json:"dry_run"`
	Students        int                       `json:"students"`
	TermsUpserted   int                       `json:"terms_upserted"`
	CoursesUpserted int                       `json:"courses_upserted"`
	Accepted        int                       `json:"accepted"`
	Inserted        int                       `json:"inserted"`
	Rejected        int                       `json:"rejected"`
	Skipped         int                       `json:"skipped"`
	BySource        map[string]int            `json:"by_source"`
	Rejections      []scheduling.Rejection    `json:"rejections,omitempty"`
	Results         []scheduling.AssignResult `json:"-"`
}
