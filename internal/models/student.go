package models

import "time"

// StudentProfile holds the attributes eligibility rules look at.
type StudentProfile struct {
	ID            string    `db:"id" json:"id"`
	StudentNumber string    `db:"student_number" json:"student_number"`
	FullName      string    `db:"full_name" json:"full_name"`
	College       string    `db:"college" json:"college"`
	Major         string    `db:"major" json:"major"`
	ChineseLevel  int       `db:"chinese_level" json:"chinese_level"`
	Year          int       `db:"year" json:"year"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
