package scheduler

import (
	"fmt"
	"math"
	"sort"

	"github.com/noah-isme/eduscheduler-api/internal/models"
)

const (
	sameSubjectPenalty = 100
	dayLoadWeight      = 2
	timeOfDayPenalty   = 1
)

// GreedyAllocator places sessions one by one on the cheapest feasible cell. It
// never backtracks; sessions without a feasible cell are reported as unplaced.
type GreedyAllocator struct{}

// NewGreedyAllocator returns the default allocation strategy.
func NewGreedyAllocator() GreedyAllocator { return GreedyAllocator{} }

// Name identifies the strategy on generated timetables.
func (GreedyAllocator) Name() string { return "greedy_v1" }

type candidate struct {
	day   models.DayName
	slot  int
	score int
}

type greedyRun struct {
	problem    Problem
	occupancy  *Occupancy
	faculty    map[string]models.Faculty
	batches    map[string]models.Batch
	rooms      []models.Classroom
	special    map[cell][]models.SpecialSlot
	subjectDay map[string]int
	result     Allocation
}

// Allocate implements Allocator.
func (g GreedyAllocator) Allocate(p Problem) Allocation {
	run := newGreedyRun(p)
	for _, session := range p.Sessions {
		run.place(session)
	}
	run.reportOverload()
	return run.result
}

func newGreedyRun(p Problem) *greedyRun {
	run := &greedyRun{
		problem:    p,
		occupancy:  NewOccupancy(),
		faculty:    make(map[string]models.Faculty, len(p.Snapshot.Faculty)),
		batches:    make(map[string]models.Batch, len(p.Snapshot.Batches)),
		special:    make(map[cell][]models.SpecialSlot),
		subjectDay: make(map[string]int),
		result: Allocation{
			Placements: []Placement{},
			Unplaced:   []models.UnplacedSession{},
			Warnings:   []models.Diagnostic{},
		},
	}
	for _, member := range p.Snapshot.Faculty {
		run.faculty[member.ID] = member
	}
	for _, batch := range p.Snapshot.Batches {
		run.batches[batch.ID] = batch
	}
	for _, room := range p.Snapshot.Classrooms {
		if room.Active() {
			run.rooms = append(run.rooms, room)
		}
	}
	for _, slot := range p.Snapshot.Rules.SpecialSlots {
		if at, ok := resolveSpecialSlot(p.Grid, slot); ok {
			key := cell{day: at.Day, slot: at.Slot}
			run.special[key] = append(run.special[key], slot)
		}
	}
	return run
}

func (r *greedyRun) place(session Session) {
	var member *models.Faculty
	if session.FacultyID != "" {
		found, ok := r.faculty[session.FacultyID]
		switch {
		case !ok:
			r.unplace(session, ReasonUnknownFaculty)
			return
		case !found.Active():
			r.unplace(session, ReasonFacultyInactive)
			return
		}
		member = &found
	}

	candidates := r.candidates(session, member)
	if len(candidates) == 0 {
		r.unplace(session, ReasonNoFeasibleSlot)
		return
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score < candidates[j].score
	})
	best := candidates[0]

	roomID := r.pickRoom(session, best.day, best.slot)
	if roomID == "" {
		r.result.Warnings = append(r.result.Warnings, diagnostic(WarnRoomUnavailable,
			fmt.Sprintf("no free classroom for %s (%s) on %s %s", session.SubjectCode, session.BatchID, best.day, r.problem.Grid.Band(best.slot)),
			map[string]any{"batchId": session.BatchID, "subjectCode": session.SubjectCode, "day": best.day, "period": best.slot + 1}))
	} else {
		r.occupancy.Reserve(ClassroomResource(roomID), best.day, best.slot)
	}
	if member != nil {
		r.occupancy.Reserve(FacultyResource(member.ID), best.day, best.slot)
	}
	r.occupancy.Reserve(BatchResource(session.BatchID), best.day, best.slot)
	r.subjectDay[subjectDayKey(session, best.day)]++

	r.result.Placements = append(r.result.Placements, Placement{
		Session:     session,
		Day:         best.day,
		Slot:        best.slot,
		ClassroomID: roomID,
	})
}

// candidates enumerates feasible cells day-major, slot-minor with their scores.
func (r *greedyRun) candidates(session Session, member *models.Faculty) []candidate {
	grid := r.problem.Grid
	maxPerDay := r.problem.Snapshot.Rules.MaxSessionsPerDay
	batchRes := BatchResource(session.BatchID)
	n := grid.SlotCount()

	var out []candidate
	for _, day := range grid.days {
		if member != nil && !availableOn(member.Availability, day) {
			continue
		}
		batchLoad := r.occupancy.CountOn(batchRes, day)
		if maxPerDay > 0 && batchLoad >= maxPerDay {
			continue
		}
		if member != nil && maxPerDay > 0 && r.occupancy.CountOn(FacultyResource(member.ID), day) >= maxPerDay {
			continue
		}

		for slot := 0; slot < n; slot++ {
			if grid.IsLunch(slot) || !r.occupancy.IsFree(batchRes, day, slot) {
				continue
			}
			if member != nil {
				if !r.occupancy.IsFree(FacultyResource(member.ID), day, slot) {
					continue
				}
				if r.problem.StrictAvailability && !availableAt(member.Availability, day, grid.Band(slot)) {
					continue
				}
			}
			if !r.specialAllows(session, day, slot) {
				continue
			}

			score := dayLoadWeight * batchLoad
			if r.subjectDay[subjectDayKey(session, day)] > 0 {
				score += sameSubjectPenalty
			}
			switch session.Kind {
			case models.SubjectKindTheory:
				if 2*slot > n {
					score += timeOfDayPenalty
				}
			case models.SubjectKindPractical:
				if 2*slot < n {
					score += timeOfDayPenalty
				}
			}
			out = append(out, candidate{day: day, slot: slot, score: score})
		}
	}
	return out
}

// specialAllows reports whether a reserved cell accepts the session. A special
// slot naming neither a code nor a kind blocks the cell entirely.
func (r *greedyRun) specialAllows(session Session, day models.DayName, slot int) bool {
	rules, reserved := r.special[cell{day: day, slot: slot}]
	if !reserved {
		return true
	}
	for _, rule := range rules {
		if rule.SubjectCode == "" && rule.SubjectKind == "" {
			continue
		}
		if rule.SubjectCode != "" && rule.SubjectCode != session.SubjectCode {
			continue
		}
		if rule.SubjectKind != "" && rule.SubjectKind != session.Kind {
			continue
		}
		return true
	}
	return false
}

// pickRoom prefers a free room of the matching kind that seats the batch, then any
// free room of that kind, then any free active room.
func (r *greedyRun) pickRoom(session Session, day models.DayName, slot int) string {
	preferred := models.ClassroomKindLecture
	if session.Kind == models.SubjectKindPractical {
		preferred = models.ClassroomKindLab
	}
	strength := r.batches[session.BatchID].Strength

	var sameKind, anyRoom string
	for _, room := range r.rooms {
		if !availableOn(room.Availability, day) || !r.occupancy.IsFree(ClassroomResource(room.ID), day, slot) {
			continue
		}
		if room.Kind == preferred {
			if room.Capacity >= strength {
				return room.ID
			}
			if sameKind == "" {
				sameKind = room.ID
			}
		}
		if anyRoom == "" {
			anyRoom = room.ID
		}
	}
	if sameKind != "" {
		return sameKind
	}
	return anyRoom
}

func (r *greedyRun) unplace(session Session, reason string) {
	r.result.Unplaced = append(r.result.Unplaced, models.UnplacedSession{
		BatchID:     session.BatchID,
		SubjectCode: session.SubjectCode,
		FacultyID:   session.FacultyID,
		Index:       session.Index,
		Total:       session.Total,
		Reason:      reason,
	})
}

func (r *greedyRun) reportOverload() {
	considerLeaves := r.problem.Snapshot.Rules.ConsiderFacultyLeaves
	for _, member := range r.problem.Snapshot.Faculty {
		if member.MaxSessionsPerWeek <= 0 {
			continue
		}
		limit := EffectiveWeeklyCap(member, considerLeaves)
		placed := r.occupancy.Count(FacultyResource(member.ID))
		if placed <= limit {
			continue
		}
		r.result.Warnings = append(r.result.Warnings, diagnostic(WarnFacultyOverload,
			fmt.Sprintf("faculty %s has %d sessions, weekly cap is %d", member.ID, placed, limit),
			map[string]any{"facultyId": member.ID, "placed": placed, "cap": limit}))
	}
}

// EffectiveWeeklyCap lowers the weekly cap by the expected weekly leaves when enabled.
func EffectiveWeeklyCap(member models.Faculty, considerLeaves bool) int {
	limit := member.MaxSessionsPerWeek
	if considerLeaves && member.AvgLeavesPerMonth > 0 {
		limit -= int(math.Ceil(member.AvgLeavesPerMonth / 4))
	}
	if limit < 0 {
		return 0
	}
	return limit
}

func availableOn(av models.Availability, day models.DayName) bool {
	if av == nil {
		return true
	}
	_, ok := av[day]
	return ok
}

func availableAt(av models.Availability, day models.DayName, band string) bool {
	if av == nil {
		return true
	}
	bands, ok := av[day]
	if !ok {
		return false
	}
	if len(bands) == 0 {
		return true
	}
	for _, b := range bands {
		if b == band {
			return true
		}
	}
	return false
}

func subjectDayKey(session Session, day models.DayName) string {
	return session.BatchID + "|" + session.SubjectCode + "|" + string(day)
}
