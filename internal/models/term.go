package models

import "time"

// AcademicTerm anchors a term code (e.g. "2025-2026-1") to the Monday of its first week.
type AcademicTerm struct {
	ID              string     `db:"id" json:"id"`
	Code            string     `db:"code" json:"code"`
	AcademicYear    string     `db:"academic_year" json:"academic_year"`
	Semester        int        `db:"semester" json:"semester"`
	FirstWeekMonday *time.Time `db:"first_week_monday" json:"first_week_monday,omitempty"`
	IsActive        bool       `db:"is_active" json:"is_active"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}
