package dto

// AnchorValidationRequest submits a week-1 Monday for a term.
type AnchorValidationRequest struct {
	FirstWeekMonday string `json:"first_week_monday" validate:"required,datetime=2006-01-02"`
}

// AnchorValidationResponse echoes the configured anchor.
type AnchorValidationResponse struct {
	Term            string `json:"term"`
	FirstWeekMonday string `json:"first_week_monday"`
	Valid           bool   `json:"valid"`
}
