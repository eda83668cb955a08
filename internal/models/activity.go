package models

import "time"

// Activity is an extracurricular event students can apply to.
// CollegeRequired and MajorRequired hold raw requirement strings ("", "all", a value, or a list).
type Activity struct {
	ID              string    `db:"id" json:"id"`
	Title           string    `db:"title" json:"title"`
	Description     string    `db:"description" json:"description"`
	CollegeRequired string    `db:"college_required" json:"college_required"`
	MajorRequired   string    `db:"major_required" json:"major_required"`
	ChineseLevelMin string    `db:"chinese_level_min" json:"chinese_level_min"`
	StartAt         time.Time `db:"start_at" json:"start_at"`
	EndAt           time.Time `db:"end_at" json:"end_at"`
	Capacity        int       `db:"capacity" json:"capacity"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
