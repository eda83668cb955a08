package scheduling

import "time"

// ReasonCode identifies a failed eligibility rule.
type ReasonCode string

// Eligibility failure reasons, reported in rule order.
const (
	ReasonTimeConflict     ReasonCode = "TIME_CONFLICT"
	ReasonMajorCollege     ReasonCode = "MAJOR_COLLEGE_REQUIREMENT"
	ReasonProficiency      ReasonCode = "PROFICIENCY_REQUIREMENT"
	ReasonAnnualCapReached ReasonCode = "ANNUAL_CAP_REACHED"
)

const (
	defaultAnnualCap           = 7
	defaultParticipationWindow = 365 * 24 * time.Hour
)

var reasonMessages = map[ReasonCode]string{
	ReasonTimeConflict:     "time conflict with existing classes",
	ReasonMajorCollege:     "major or college requirement not met",
	ReasonProficiency:      "language proficiency requirement not met",
	ReasonAnnualCapReached: "yearly activity cap reached",
}

// Message returns a human readable description of the reason.
func (r ReasonCode) Message() string {
	if msg, ok := reasonMessages[r]; ok {
		return msg
	}
	return string(r)
}

// StudentAttributes are the student fields the rules inspect.
type StudentAttributes struct {
	College            string
	Major              string
	ProficiencyOrdinal int
}

// ActivityRequirements are the normalised constraints of one activity.
type ActivityRequirements struct {
	Start          time.Time
	End            time.Time
	College        Requirement
	Major          Requirement
	MinProficiency string
}

// Verdict is the outcome of an eligibility evaluation.
type Verdict struct {
	Eligible bool         `json:"eligible"`
	Reasons  []ReasonCode `json:"reasons"`
}

// EvaluatorConfig tunes the participation cap rule.
type EvaluatorConfig struct {
	AnnualCap int
	Window    time.Duration
	Now       func() time.Time
}

// Evaluator runs the eligibility rule chain.
type Evaluator struct {
	expander *Expander
	cap      int
	window   time.Duration
	now      func() time.Time
}

// NewEvaluator builds an evaluator; zero config values use a cap of 7 over 365 days.
func NewEvaluator(expander *Expander, cfg EvaluatorConfig) *Evaluator {
	if expander == nil {
		expander = NewExpander(nil, nil)
	}
	if cfg.AnnualCap <= 0 {
		cfg.AnnualCap = defaultAnnualCap
	}
	if cfg.Window <= 0 {
		cfg.Window = defaultParticipationWindow
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Evaluator{expander: expander, cap: cfg.AnnualCap, window: cfg.Window, now: cfg.Now}
}

// AnnualCap returns the configured participation cap.
func (e *Evaluator) AnnualCap() int {
	return e.cap
}

// WindowStart returns the lower bound of the rolling participation window.
func (e *Evaluator) WindowStart() time.Time {
	return e.now().Add(-e.window)
}

// Evaluate applies every rule and collects all failures.
func (e *Evaluator) Evaluate(student StudentAttributes, activity ActivityRequirements, enrolled []TimeSlot, approvedInWindow int) Verdict {
	reasons := make([]ReasonCode, 0, 4)

	if IntervalConflicts(e.expander, enrolled, activity.Start, activity.End) {
		reasons = append(reasons, ReasonTimeConflict)
	}
	if !activity.College.Satisfied(student.College) || !activity.Major.Satisfied(student.Major) {
		reasons = append(reasons, ReasonMajorCollege)
	}
	if !MeetsProficiency(student.ProficiencyOrdinal, activity.MinProficiency) {
		reasons = append(reasons, ReasonProficiency)
	}
	if approvedInWindow >= e.cap {
		reasons = append(reasons, ReasonAnnualCapReached)
	}

	return Verdict{Eligible: len(reasons) == 0, Reasons: reasons}
}
