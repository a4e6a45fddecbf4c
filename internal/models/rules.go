package models

import "time"

// SpecialSlot reserves a coordinate for a subject code or subject kind.
// The coordinate is addressed either by Period (1-based) or by TimeBand label.
type SpecialSlot struct {
	Day         DayName     `json:"day"`
	Period      int         `json:"period,omitempty"`
	TimeBand    string      `json:"timeBand,omitempty"`
	SubjectKind SubjectKind `json:"subjectKind,omitempty"`
	SubjectCode string      `json:"subjectCode,omitempty"`
}

// Rules holds global scheduling configuration.
type Rules struct {
	MaxSessionsPerDay         int            `json:"maxSessionsPerDay"`
	SessionsPerSubjectPerWeek map[string]int `json:"sessionsPerSubjectPerWeek"`
	SpecialSlots              []SpecialSlot  `json:"specialSlots"`
	ConsiderFacultyLeaves     bool           `json:"considerFacultyLeaves"`
	UpdatedAt                 time.Time      `json:"updatedAt"`
}

// DefaultRules mirrors the settings a fresh installation starts with.
func DefaultRules() Rules {
	return Rules{
		MaxSessionsPerDay:         6,
		SessionsPerSubjectPerWeek: map[string]int{},
		SpecialSlots:              []SpecialSlot{},
		ConsiderFacultyLeaves:     true,
	}
}
