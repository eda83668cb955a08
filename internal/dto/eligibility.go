package dto

import "github.com/noah-isme/activitypass-api/internal/models"

// EligibilityReason pairs a machine readable code with its message.
type EligibilityReason struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// EligibilityResponse is the verdict for one student and activity.
type EligibilityResponse struct {
	StudentID  string              `json:"student_id"`
	ActivityID string              `json:"activity_id"`
	Eligible   bool                `json:"eligible"`
	Reasons    []EligibilityReason `json:"reasons"`
}

// EligibleActivity is an upcoming activity the student may apply to.
type EligibleActivity struct {
	models.Activity
	Eligibility EligibilityResponse `json:"eligibility"`
}

// EligibleListQuery captures GET /students/:id/activities/eligible parameters.
type EligibleListQuery struct {
	Limit int `form:"limit" validate:"omitempty,min=0,max=200"`
}
