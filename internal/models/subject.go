package models

import (
	"strings"
	"time"
)

// SubjectKind classifies how a subject is taught.
type SubjectKind string

const (
	SubjectKindTheory    SubjectKind = "theory"
	SubjectKindPractical SubjectKind = "practical"
	SubjectKindTutorial  SubjectKind = "tutorial"
)

// DefaultWeeklyHours is used when a subject does not declare its weekly load.
const DefaultWeeklyHours = 3

// ParseSubjectKind accepts "lab" as an alias of practical.
func ParseSubjectKind(raw string) SubjectKind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "practical", "lab":
		return SubjectKindPractical
	case "tutorial":
		return SubjectKindTutorial
	default:
		return SubjectKindTheory
	}
}

// Subject represents an academic subject.
type Subject struct {
	ID               string      `json:"id"`
	Code             string      `json:"code"`
	Name             string      `json:"name"`
	Semester         string      `json:"semester"`
	Kind             SubjectKind `json:"kind"`
	WeeklyHours      int         `json:"weeklyHours"`
	LinkedFacultyIDs []string    `json:"linkedFacultyIds"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// LinkedTo reports whether the faculty id is listed as qualified for this subject.
func (s Subject) LinkedTo(facultyID string) bool {
	for _, id := range s.LinkedFacultyIDs {
		if id == facultyID {
			return true
		}
	}
	return false
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Semester string
	Kind     SubjectKind
	Search   string
	Page     int
	PageSize int
}
