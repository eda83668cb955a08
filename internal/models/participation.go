package models

import "time"

// ParticipationStatus tracks an application through review.
type ParticipationStatus string

const (
	ParticipationApplied  ParticipationStatus = "applied"
	ParticipationApproved ParticipationStatus = "approved"
	ParticipationRejected ParticipationStatus = "rejected"
)

// Participation is a student's application to an activity.
type Participation struct {
	ID         string              `db:"id" json:"id"`
	StudentID  string              `db:"student_id" json:"student_id"`
	ActivityID string              `db:"activity_id" json:"activity_id"`
	Status     ParticipationStatus `db:"status" json:"status"`
	AppliedAt  time.Time           `db:"applied_at" json:"applied_at"`
}
