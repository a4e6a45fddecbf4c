package scheduler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduscheduler-api/internal/models"
	appErrors "github.com/noah-isme/eduscheduler-api/pkg/errors"
)

func TestGenerateDensity(t *testing.T) {
	snap := richSnapshot()
	tt := generate(t, snap, GridConfig{Days: weekdays, PeriodsPerDay: 7})

	require.Len(t, tt.Entries, len(snap.Batches)*len(weekdays)*7)
	seen := map[string]bool{}
	for _, entry := range tt.Entries {
		key := fmt.Sprintf("%s/%s/%d", entry.BatchID, entry.Day, entry.Period)
		assert.False(t, seen[key], "duplicate cell %s", key)
		seen[key] = true
	}
	assert.Equal(t, 7, tt.PeriodsPerDay)
	assert.Equal(t, 4, tt.LunchPeriod)
	assert.Equal(t, "greedy_v1", tt.Algorithm)
	assert.Equal(t, "tt-fixed", tt.ID)
}

func TestGenerateNoDoubleBooking(t *testing.T) {
	snap := richSnapshot()
	for seed := int64(1); seed <= 20; seed++ {
		engine := NewEngine(EngineConfig{})
		tt, err := engine.Generate(snap, Request{Grid: GridConfig{Days: weekdays, PeriodsPerDay: 6}, Seed: &seed})
		require.NoError(t, err)

		faculty := map[string]bool{}
		rooms := map[string]bool{}
		for _, entry := range tt.Entries {
			if entry.Kind != models.EntryKindSession {
				continue
			}
			cell := fmt.Sprintf("%s/%d", entry.Day, entry.Period)
			if entry.FacultyID != "" {
				key := entry.FacultyID + "@" + cell
				assert.False(t, faculty[key], "seed %d: faculty double booked %s", seed, key)
				faculty[key] = true
			}
			if entry.ClassroomID != "" {
				key := entry.ClassroomID + "@" + cell
				assert.False(t, rooms[key], "seed %d: room double booked %s", seed, key)
				rooms[key] = true
			}
		}
	}
}

func TestGenerateZeroSeedIsReproducible(t *testing.T) {
	var seed int64
	req := Request{Grid: GridConfig{Days: weekdays, PeriodsPerDay: 6}, Seed: &seed}

	first, err := NewEngine(EngineConfig{}).Generate(richSnapshot(), req)
	require.NoError(t, err)
	second, err := NewEngine(EngineConfig{}).Generate(richSnapshot(), req)
	require.NoError(t, err)
	assert.Equal(t, first.Entries, second.Entries)
}

func TestGenerateLunchInvariant(t *testing.T) {
	for _, periods := range []int{2, 3, 5, 8} {
		tt := generate(t, richSnapshot(), GridConfig{Days: weekdays, PeriodsPerDay: periods})
		lunch := periods/2 + 1
		for _, entry := range tt.Entries {
			if entry.Period == lunch {
				assert.Equal(t, models.LunchBreakLabel, entry.Label)
				assert.Equal(t, models.EntryKindLunch, entry.Kind)
			} else {
				assert.NotEqual(t, models.EntryKindLunch, entry.Kind)
			}
		}
	}
}

func TestGenerateWeeklyCountConservation(t *testing.T) {
	tt := generate(t, baseSnapshot(), GridConfig{Days: weekdays, PeriodsPerDay: 6})

	assert.Len(t, sessionsFor(tt, "cse-3a", "CS301"), 3)
	assert.Equal(t, 0, tt.UnplacedCount)
	assert.Empty(t, tt.UnplacedSessions)
	assert.Equal(t, 3, tt.PlacedCount())
}

func TestGenerateWeeklyCountNeverExceeded(t *testing.T) {
	snap := richSnapshot()
	tt := generate(t, snap, GridConfig{Days: []models.DayName{models.Monday, models.Tuesday}, PeriodsPerDay: 4})

	for _, batch := range snap.Batches {
		for _, code := range batch.Subjects {
			var subject models.Subject
			for _, s := range snap.Subjects {
				if s.Code == code {
					subject = s
				}
			}
			placed := len(sessionsFor(tt, batch.ID, code))
			unplaced := 0
			for _, u := range tt.UnplacedSessions {
				if u.BatchID == batch.ID && u.SubjectCode == code {
					unplaced++
				}
			}
			n := WeeklyCount(snap.Rules, subject)
			assert.LessOrEqual(t, placed, n)
			assert.Equal(t, n, placed+unplaced)
		}
	}
}

func TestGenerateDeterministicWithIdentityOrder(t *testing.T) {
	first := generate(t, richSnapshot(), GridConfig{Days: weekdays, PeriodsPerDay: 6})
	second := generate(t, richSnapshot(), GridConfig{Days: weekdays, PeriodsPerDay: 6})
	assert.Equal(t, first, second)
}

func TestGenerateSameDayAvoidance(t *testing.T) {
	snap := baseSnapshot()
	snap.Subjects[0].WeeklyHours = 2
	snap.Faculty[0].Availability = models.Availability{models.Tuesday: nil, models.Thursday: nil}

	tt := generate(t, snap, GridConfig{Days: weekdays, PeriodsPerDay: 6})

	placed := sessionsFor(tt, "cse-3a", "CS301")
	require.Len(t, placed, 2)
	assert.NotEqual(t, placed[0].Day, placed[1].Day)
	assert.ElementsMatch(t, []models.DayName{models.Tuesday, models.Thursday}, []models.DayName{placed[0].Day, placed[1].Day})
}

func TestGenerateFailSoftOnImpossibleConstraints(t *testing.T) {
	snap := baseSnapshot()
	snap.Subjects[0].WeeklyHours = 5
	snap.Faculty[0].Availability = models.Availability{models.Monday: nil}

	// two periods per day leave one open slot once lunch is reserved
	tt := generate(t, snap, GridConfig{Days: weekdays, PeriodsPerDay: 2})

	assert.Len(t, sessionsFor(tt, "cse-3a", "CS301"), 1)
	assert.Equal(t, 4, tt.UnplacedCount)
	require.Len(t, tt.UnplacedSessions, 4)
	for _, u := range tt.UnplacedSessions {
		assert.Equal(t, ReasonNoFeasibleSlot, u.Reason)
		assert.Equal(t, 5, u.Total)
	}
}

func TestGenerateFacultyAvailableOnNoDay(t *testing.T) {
	snap := baseSnapshot()
	snap.Subjects[0].WeeklyHours = 2
	snap.Faculty[0].Availability = models.Availability{}

	tt := generate(t, snap, GridConfig{Days: []models.DayName{models.Monday, models.Tuesday}, PeriodsPerDay: 4})

	assert.Empty(t, sessionsFor(tt, "cse-3a", "CS301"))
	require.Len(t, tt.UnplacedSessions, 2)
	for _, u := range tt.UnplacedSessions {
		assert.Equal(t, ReasonNoFeasibleSlot, u.Reason)
	}
}

func TestGenerateTwoSlotMondayScenario(t *testing.T) {
	tt := generate(t, baseSnapshot(), GridConfig{Days: []models.DayName{models.Monday}, StartTime: "09:00", EndTime: "11:00"})

	assert.Equal(t, []string{"09:00-10:00", "10:00-11:00"}, tt.TimeBands)
	require.Len(t, tt.Entries, 2)
	assert.Equal(t, "09:00-10:00", tt.Entries[0].TimeBand)
	assert.Equal(t, models.EntryKindSession, tt.Entries[0].Kind)
	assert.Equal(t, "CS301", tt.Entries[0].SubjectCode)
	assert.Equal(t, "10:00-11:00", tt.Entries[1].TimeBand)
	assert.Equal(t, models.LunchBreakLabel, tt.Entries[1].Label)
	assert.Equal(t, 2, tt.UnplacedCount)
}

func TestGenerateValidationErrors(t *testing.T) {
	engine := fixedEngine(t)
	grid := GridConfig{Days: weekdays, PeriodsPerDay: 6}

	noSubjects := baseSnapshot()
	noSubjects.Subjects = nil
	_, err := engine.Generate(noSubjects, Request{Grid: grid})
	assertAppError(t, err, appErrors.ErrValidation.Code, "no subjects provided")

	noBatches := baseSnapshot()
	noBatches.Batches = nil
	_, err = engine.Generate(noBatches, Request{Grid: grid})
	assertAppError(t, err, appErrors.ErrValidation.Code, "no batches provided")

	_, err = engine.Generate(baseSnapshot(), Request{Grid: GridConfig{PeriodsPerDay: 6}})
	assertAppError(t, err, appErrors.ErrValidation.Code, "no working days selected")

	_, err = engine.Generate(baseSnapshot(), Request{Grid: GridConfig{Days: weekdays, StartTime: "bad", EndTime: "10:00"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestGenerateMalformedRules(t *testing.T) {
	cases := map[string]func(*models.Rules){
		"negative max":       func(r *models.Rules) { r.MaxSessionsPerDay = -1 },
		"zero override":      func(r *models.Rules) { r.SessionsPerSubjectPerWeek = map[string]int{"CS301": 0} },
		"slot on lunch":      func(r *models.Rules) { r.SpecialSlots = []models.SpecialSlot{{Day: models.Monday, Period: 4}} },
		"slot out of range":  func(r *models.Rules) { r.SpecialSlots = []models.SpecialSlot{{Day: models.Monday, Period: 9}} },
		"slot unknown band":  func(r *models.Rules) { r.SpecialSlots = []models.SpecialSlot{{Day: models.Monday, TimeBand: "P0"}} },
		"slot unknown day":   func(r *models.Rules) { r.SpecialSlots = []models.SpecialSlot{{Day: "funday", Period: 1}} },
		"slot without place": func(r *models.Rules) { r.SpecialSlots = []models.SpecialSlot{{Day: models.Monday}} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			snap := baseSnapshot()
			mutate(&snap.Rules)
			_, err := fixedEngine(t).Generate(snap, Request{Grid: GridConfig{Days: weekdays, PeriodsPerDay: 6}})
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrGenerationFailed)
			assert.ErrorIs(t, err, ErrMalformedRules)
		})
	}
}

type panickingAllocator struct{}

func (panickingAllocator) Name() string { return "panic" }

func (panickingAllocator) Allocate(Problem) Allocation { panic("index out of range") }

func TestGenerateRecoversPanics(t *testing.T) {
	engine := NewEngine(EngineConfig{Allocator: panickingAllocator{}, Shuffler: IdentityOrder{}})
	tt, err := engine.Generate(baseSnapshot(), Request{Grid: GridConfig{Days: weekdays, PeriodsPerDay: 6}})
	assert.Nil(t, tt)
	assert.ErrorIs(t, err, appErrors.ErrGenerationFailed)
}

func TestGenerateDefaultsPeriodsFromRules(t *testing.T) {
	snap := baseSnapshot()
	snap.Rules.MaxSessionsPerDay = 4
	tt := generate(t, snap, GridConfig{Days: []models.DayName{models.Monday}})
	assert.Equal(t, 4, tt.PeriodsPerDay)

	snap.Rules.MaxSessionsPerDay = 0
	tt = generate(t, snap, GridConfig{Days: []models.DayName{models.Monday}})
	assert.Equal(t, DefaultPeriodsPerDay, tt.PeriodsPerDay)
}

func TestGenerateCollectsWarnings(t *testing.T) {
	snap := baseSnapshot()
	snap.Batches[0].Subjects = append(snap.Batches[0].Subjects, "NOPE")
	tt := generate(t, snap, GridConfig{Days: weekdays, PeriodsPerDay: 6})

	require.Len(t, tt.Warnings, 1)
	assert.Equal(t, WarnUnknownSubject, tt.Warnings[0].Type)
	assert.Equal(t, 0, tt.UnplacedCount)
	assert.Equal(t, "test", tt.Title)
}

func assertAppError(t *testing.T, err error, code, message string) {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, code, appErr.Code)
	assert.Equal(t, message, appErr.Message)
}
