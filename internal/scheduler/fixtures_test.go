package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduscheduler-api/internal/models"
)

var weekdays = []models.DayName{models.Monday, models.Tuesday, models.Wednesday, models.Thursday, models.Friday}

func baseSnapshot() models.EntitySnapshot {
	return models.EntitySnapshot{
		Faculty: []models.Faculty{
			{ID: "fac-1", Name: "Dr. Rao", AssignedSubjects: []string{"CS301"}, MaxSessionsPerWeek: 20, Status: models.FacultyStatusActive},
		},
		Subjects: []models.Subject{
			{ID: "sub-1", Code: "CS301", Name: "Data Structures", Kind: models.SubjectKindTheory, WeeklyHours: 3, LinkedFacultyIDs: []string{"fac-1"}},
		},
		Batches: []models.Batch{
			{ID: "cse-3a", Name: "CSE 3A", Strength: 60, Subjects: []string{"CS301"}, FacultyAssignments: map[string]string{"CS301": "fac-1"}},
		},
		Classrooms: []models.Classroom{
			{ID: "room-101", Name: "LH 101", Capacity: 80, Kind: models.ClassroomKindLecture, Status: models.ClassroomStatusActive},
			{ID: "lab-1", Name: "Lab 1", Capacity: 40, Kind: models.ClassroomKindLab, Status: models.ClassroomStatusActive},
		},
		Rules: models.Rules{MaxSessionsPerDay: 6, SessionsPerSubjectPerWeek: map[string]int{}},
	}
}

// richSnapshot has two batches sharing faculty so occupancy across batches is exercised.
func richSnapshot() models.EntitySnapshot {
	snap := baseSnapshot()
	snap.Faculty = append(snap.Faculty,
		models.Faculty{ID: "fac-2", Name: "Dr. Iyer", AssignedSubjects: []string{"CS302", "CS303L"}, MaxSessionsPerWeek: 20},
		models.Faculty{ID: "fac-3", Name: "Prof. Sen", AssignedSubjects: []string{"MA201"}},
	)
	snap.Subjects = append(snap.Subjects,
		models.Subject{ID: "sub-2", Code: "CS302", Name: "Operating Systems", Kind: models.SubjectKindTheory, WeeklyHours: 4},
		models.Subject{ID: "sub-3", Code: "CS303L", Name: "Systems Lab", Kind: models.SubjectKindPractical, WeeklyHours: 2},
		models.Subject{ID: "sub-4", Code: "MA201", Name: "Discrete Maths", Kind: models.SubjectKindTutorial},
	)
	snap.Batches = []models.Batch{
		{ID: "cse-3a", Strength: 60, Subjects: []string{"CS301", "CS302", "CS303L", "MA201"},
			FacultyAssignments: map[string]string{"CS301": "fac-1", "CS302": "fac-2", "CS303L": "fac-2", "MA201": "fac-3"}},
		{ID: "cse-3b", Strength: 55, Subjects: []string{"CS301", "CS302", "MA201"},
			FacultyAssignments: map[string]string{"CS301": "fac-1", "CS302": "fac-2", "MA201": "fac-3"}},
	}
	return snap
}

func fixedEngine(t *testing.T) *Engine {
	t.Helper()
	clock := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	return NewEngine(EngineConfig{
		Shuffler: IdentityOrder{},
		Now:      func() time.Time { return clock },
		NewID:    func() string { return "tt-fixed" },
	})
}

func generate(t *testing.T, snap models.EntitySnapshot, grid GridConfig) *models.Timetable {
	t.Helper()
	tt, err := fixedEngine(t).Generate(snap, Request{Title: "test", Grid: grid})
	require.NoError(t, err)
	require.NotNil(t, tt)
	return tt
}

func sessionsFor(tt *models.Timetable, batchID, code string) []models.TimetableEntry {
	var out []models.TimetableEntry
	for _, entry := range tt.Entries {
		if entry.Kind == models.EntryKindSession && entry.BatchID == batchID && entry.SubjectCode == code {
			out = append(out, entry)
		}
	}
	return out
}
