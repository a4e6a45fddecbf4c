package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduscheduler-api/internal/models"
)

func TestExpandSessionsCounts(t *testing.T) {
	snap := richSnapshot()
	snap.Rules.SessionsPerSubjectPerWeek = map[string]int{"CS302": 2}

	out := ExpandSessions(snap)

	counts := map[string]int{}
	for _, s := range out.Sessions {
		counts[s.BatchID+"/"+s.SubjectCode]++
		assert.Equal(t, counts[s.BatchID+"/"+s.SubjectCode], s.Index)
	}
	assert.Equal(t, map[string]int{
		"cse-3a/CS301": 3, "cse-3a/CS302": 2, "cse-3a/CS303L": 2, "cse-3a/MA201": models.DefaultWeeklyHours,
		"cse-3b/CS301": 3, "cse-3b/CS302": 2, "cse-3b/MA201": models.DefaultWeeklyHours,
	}, counts)
	assert.Equal(t, "fac-2", out.Sessions[3].FacultyID)
	assert.Equal(t, 2, out.Sessions[3].Total)
	assert.Empty(t, out.Warnings)
}

func TestExpandSessionsUnknownSubject(t *testing.T) {
	snap := baseSnapshot()
	snap.Batches[0].Subjects = []string{"CS301", "XX999", "CS301"}

	out := ExpandSessions(snap)

	require.Len(t, out.Sessions, 3)
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, WarnUnknownSubject, out.Warnings[0].Type)
	assert.Equal(t, "XX999", out.Warnings[0].Meta["subjectCode"])
}

func TestExpandSessionsFacultyNotLinked(t *testing.T) {
	snap := baseSnapshot()
	snap.Faculty = append(snap.Faculty, models.Faculty{ID: "fac-9", AssignedSubjects: []string{"PH101"}})
	snap.Batches[0].FacultyAssignments["CS301"] = "fac-9"

	out := ExpandSessions(snap)

	require.Len(t, out.Warnings, 1)
	assert.Equal(t, WarnFacultyNotLinked, out.Warnings[0].Type)
	assert.Len(t, out.Sessions, 3)
}

func TestWeeklyCount(t *testing.T) {
	rules := models.Rules{SessionsPerSubjectPerWeek: map[string]int{"A": 5}}
	assert.Equal(t, 5, WeeklyCount(rules, models.Subject{Code: "A", WeeklyHours: 2}))
	assert.Equal(t, 2, WeeklyCount(rules, models.Subject{Code: "B", WeeklyHours: 2}))
	assert.Equal(t, 3, WeeklyCount(models.Rules{}, models.Subject{Code: "C"}))
}
