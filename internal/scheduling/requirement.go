package scheduling

import (
	"encoding/json"
	"strings"
)

// RequirementKind enumerates the shapes an attribute requirement can take.
type RequirementKind int

const (
	RequirementUnrestricted RequirementKind = iota
	RequirementExact
	RequirementOneOf
)

// allSentinel is the stored value meaning "no restriction".
const allSentinel = "all"

// Requirement restricts a student attribute such as college or major.
type Requirement struct {
	Kind   RequirementKind `json:"kind"`
	Values []string        `json:"values,omitempty"`
}

// Unrestricted accepts every value.
func Unrestricted() Requirement {
	return Requirement{Kind: RequirementUnrestricted}
}

// Exact accepts a single value.
func Exact(value string) Requirement {
	return Requirement{Kind: RequirementExact, Values: []string{strings.TrimSpace(value)}}
}

// OneOf accepts any listed value. An empty list is unrestricted.
func OneOf(values ...string) Requirement {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			cleaned = append(cleaned, v)
		}
	}
	if len(cleaned) == 0 {
		return Unrestricted()
	}
	return Requirement{Kind: RequirementOneOf, Values: cleaned}
}

// ParseRequirement resolves a stored requirement: empty or "all" is unrestricted,
// a JSON array or comma separated list is OneOf, anything else is Exact.
func ParseRequirement(raw string) Requirement {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, allSentinel) {
		return Unrestricted()
	}
	if strings.HasPrefix(raw, "[") {
		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			return OneOf(list...)
		}
	}
	if strings.Contains(raw, ",") {
		return OneOf(strings.Split(raw, ",")...)
	}
	return Exact(raw)
}

// Satisfied reports whether value meets the requirement.
func (r Requirement) Satisfied(value string) bool {
	switch r.Kind {
	case RequirementUnrestricted:
		return true
	case RequirementExact, RequirementOneOf:
		value = strings.TrimSpace(value)
		for _, allowed := range r.Values {
			if allowed == value {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// proficiencyOrdinals is the closed vocabulary of language levels.
var proficiencyOrdinals = map[string]int{
	"HSK1":         1,
	"HSK2":         2,
	"HSK3":         3,
	"HSK4":         4,
	"HSK5":         5,
	"HSK6":         6,
	"CET4":         4,
	"CET6":         6,
	"全英文班":         6,
	"FULL_ENGLISH": 6,
}

// ProficiencyOrdinal maps a level label to its 0-6 ordinal. The boolean is false
// for labels outside the vocabulary, which callers must not treat as zero.
func ProficiencyOrdinal(label string) (int, bool) {
	key := strings.ToUpper(strings.Join(strings.Fields(label), ""))
	if key == "" {
		return 0, true
	}
	ordinal, ok := proficiencyOrdinals[key]
	return ordinal, ok
}

// MeetsProficiency reports whether a student ordinal satisfies the required label.
// An empty requirement always passes; an unknown one never does.
func MeetsProficiency(studentOrdinal int, required string) bool {
	if strings.TrimSpace(required) == "" {
		return true
	}
	needed, ok := ProficiencyOrdinal(required)
	if !ok {
		return false
	}
	return studentOrdinal >= needed
}
