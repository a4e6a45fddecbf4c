package models

import "time"

// EntryKind distinguishes placed sessions from filler cells of the grid.
type EntryKind string

const (
	EntryKindSession EntryKind = "session"
	EntryKindFree    EntryKind = "free"
	EntryKindLunch   EntryKind = "lunch"
)

const (
	LunchBreakLabel = "Lunch Break"
	FreePeriodLabel = "Free Period"
)

// TimetableEntry is one cell of a batch's weekly grid.
type TimetableEntry struct {
	Day         DayName     `json:"day"`
	Period      int         `json:"period"`
	TimeBand    string      `json:"timeBand"`
	BatchID     string      `json:"batchId"`
	Kind        EntryKind   `json:"kind"`
	Label       string      `json:"label"`
	SubjectCode string      `json:"subjectCode,omitempty"`
	SubjectName string      `json:"subjectName,omitempty"`
	SubjectKind SubjectKind `json:"subjectKind,omitempty"`
	FacultyID   string      `json:"facultyId"`
	ClassroomID string      `json:"classroomId"`
}

// UnplacedSession describes a session the allocator could not place.
type UnplacedSession struct {
	BatchID     string `json:"batchId"`
	SubjectCode string `json:"subjectCode"`
	FacultyID   string `json:"facultyId,omitempty"`
	Index       int    `json:"index"`
	Total       int    `json:"total"`
	Reason      string `json:"reason"`
}

// Diagnostic is a non-fatal observation made during generation.
type Diagnostic struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Timetable is the materialised output of a generation run.
type Timetable struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	GeneratedAt      time.Time         `json:"generatedAt"`
	PeriodsPerDay    int               `json:"periodsPerDay"`
	Days             []DayName         `json:"days"`
	TimeBands        []string          `json:"timeBands"`
	LunchPeriod      int               `json:"lunchPeriod"`
	Algorithm        string            `json:"algorithm"`
	Entries          []TimetableEntry  `json:"entries"`
	UnplacedSessions []UnplacedSession `json:"unplacedSessions"`
	UnplacedCount    int               `json:"unplacedCount"`
	Warnings         []Diagnostic      `json:"warnings"`
}

// PlacedCount returns the number of session entries in the timetable.
func (t *Timetable) PlacedCount() int {
	count := 0
	for _, entry := range t.Entries {
		if entry.Kind == EntryKindSession {
			count++
		}
	}
	return count
}

// Summary returns lightweight metadata for list views.
func (t *Timetable) Summary() TimetableSummary {
	return TimetableSummary{
		ID:            t.ID,
		Title:         t.Title,
		GeneratedAt:   t.GeneratedAt,
		PeriodsPerDay: t.PeriodsPerDay,
		Days:          t.Days,
		PlacedCount:   t.PlacedCount(),
		UnplacedCount: t.UnplacedCount,
	}
}

// TimetableSummary represents a stored timetable in list responses.
type TimetableSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	GeneratedAt   time.Time `json:"generatedAt"`
	PeriodsPerDay int       `json:"periodsPerDay"`
	Days          []DayName `json:"days"`
	PlacedCount   int       `json:"placedCount"`
	UnplacedCount int       `json:"unplacedCount"`
}

// TimetableFilter paginates stored timetables, newest first.
type TimetableFilter struct {
	Page     int
	PageSize int
}
