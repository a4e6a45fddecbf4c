package models

import "time"

// FacultyStatus tracks whether a faculty member can be scheduled.
type FacultyStatus string

const (
	FacultyStatusActive   FacultyStatus = "active"
	FacultyStatusInactive FacultyStatus = "inactive"
)

// Faculty represents a teaching staff member.
type Faculty struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Email              string        `json:"email,omitempty"`
	Department         string        `json:"department"`
	AssignedSubjects   []string      `json:"assignedSubjects"`
	MaxSessionsPerWeek int           `json:"maxSessionsPerWeek"`
	AvgLeavesPerMonth  float64       `json:"avgLeavesPerMonth"`
	Availability       Availability  `json:"availability"`
	Status             FacultyStatus `json:"status"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// Active reports whether the faculty member may receive sessions.
func (f Faculty) Active() bool {
	return f.Status == "" || f.Status == FacultyStatusActive
}

// Teaches reports whether the subject code is part of the faculty's assigned subjects.
func (f Faculty) Teaches(code string) bool {
	for _, assigned := range f.AssignedSubjects {
		if assigned == code {
			return true
		}
	}
	return false
}

// FacultyFilter captures supported filters for listing faculty.
type FacultyFilter struct {
	Department string
	Search     string
	Page       int
	PageSize   int
}
