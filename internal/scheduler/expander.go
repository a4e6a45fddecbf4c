package scheduler

import (
	"fmt"

	"github.com/noah-isme/eduscheduler-api/internal/models"
)

// Warning and unplaced reason codes reported on a timetable.
const (
	WarnUnknownSubject   = "UNKNOWN_SUBJECT"
	WarnFacultyNotLinked = "FACULTY_NOT_LINKED"
	WarnFacultyOverload  = "FACULTY_OVERLOAD"
	WarnRoomUnavailable  = "ROOM_UNAVAILABLE"

	ReasonNoFeasibleSlot  = "NO_FEASIBLE_SLOT"
	ReasonUnknownFaculty  = "UNKNOWN_FACULTY"
	ReasonFacultyInactive = "FACULTY_INACTIVE"
)

// Session is one weekly teaching instance of a (batch, subject) pair awaiting placement.
type Session struct {
	BatchID     string
	SubjectCode string
	SubjectName string
	Kind        models.SubjectKind
	FacultyID   string
	Index       int
	Total       int
}

// Expansion is the output of ExpandSessions.
type Expansion struct {
	Sessions []Session
	Warnings []models.Diagnostic
}

// ExpandSessions emits WeeklyCount sessions for every subject of every batch,
// in batch then subject order. Unknown subject codes produce a warning and no sessions.
func ExpandSessions(snapshot models.EntitySnapshot) Expansion {
	subjects := make(map[string]models.Subject, len(snapshot.Subjects))
	for _, subject := range snapshot.Subjects {
		subjects[subject.Code] = subject
	}
	faculty := make(map[string]models.Faculty, len(snapshot.Faculty))
	for _, member := range snapshot.Faculty {
		faculty[member.ID] = member
	}

	out := Expansion{Sessions: []Session{}, Warnings: []models.Diagnostic{}}
	for _, batch := range snapshot.Batches {
		seen := make(map[string]bool, len(batch.Subjects))
		for _, code := range batch.Subjects {
			if seen[code] {
				continue
			}
			seen[code] = true

			subject, ok := subjects[code]
			if !ok {
				out.Warnings = append(out.Warnings, diagnostic(WarnUnknownSubject,
					fmt.Sprintf("batch %s references unknown subject %s", batch.ID, code),
					map[string]any{"batchId": batch.ID, "subjectCode": code}))
				continue
			}

			facultyID := batch.FacultyFor(code)
			if member, ok := faculty[facultyID]; ok && !qualified(member, subject) {
				out.Warnings = append(out.Warnings, diagnostic(WarnFacultyNotLinked,
					fmt.Sprintf("faculty %s is not linked to subject %s", facultyID, code),
					map[string]any{"batchId": batch.ID, "subjectCode": code, "facultyId": facultyID}))
			}

			total := WeeklyCount(snapshot.Rules, subject)
			for i := 1; i <= total; i++ {
				out.Sessions = append(out.Sessions, Session{
					BatchID:     batch.ID,
					SubjectCode: code,
					SubjectName: subject.Name,
					Kind:        subject.Kind,
					FacultyID:   facultyID,
					Index:       i,
					Total:       total,
				})
			}
		}
	}
	return out
}

// WeeklyCount resolves the number of sessions per week: rules override, then the
// subject's weekly hours, then DefaultWeeklyHours.
func WeeklyCount(rules models.Rules, subject models.Subject) int {
	if n, ok := rules.SessionsPerSubjectPerWeek[subject.Code]; ok && n > 0 {
		return n
	}
	if subject.WeeklyHours > 0 {
		return subject.WeeklyHours
	}
	return models.DefaultWeeklyHours
}

func qualified(member models.Faculty, subject models.Subject) bool {
	if len(subject.LinkedFacultyIDs) == 0 && len(member.AssignedSubjects) == 0 {
		return true
	}
	return subject.LinkedTo(member.ID) || member.Teaches(subject.Code)
}

func diagnostic(kind, message string, meta map[string]any) models.Diagnostic {
	return models.Diagnostic{Type: kind, Message: message, Meta: meta}
}
