package scheduler

import (
	"errors"
	"fmt"

	"github.com/noah-isme/eduscheduler-api/internal/models"
)

// ErrMalformedRules marks rule sets the allocator cannot interpret.
var ErrMalformedRules = errors.New("malformed scheduling rules")

// ValidateRules checks rules against the grid they will be applied to.
func ValidateRules(rules models.Rules, grid *Grid) error {
	if rules.MaxSessionsPerDay < 0 {
		return fmt.Errorf("%w: maxSessionsPerDay must not be negative", ErrMalformedRules)
	}
	for code, n := range rules.SessionsPerSubjectPerWeek {
		if n < 1 {
			return fmt.Errorf("%w: sessionsPerSubjectPerWeek[%s] must be at least 1", ErrMalformedRules, code)
		}
	}
	for i, slot := range rules.SpecialSlots {
		if err := checkSpecialSlot(grid, slot); err != nil {
			return fmt.Errorf("%w: specialSlots[%d]: %v", ErrMalformedRules, i, err)
		}
	}
	return nil
}

func checkSpecialSlot(grid *Grid, slot models.SpecialSlot) error {
	if _, ok := models.ParseDayName(string(slot.Day)); !ok {
		return fmt.Errorf("unknown day %q", slot.Day)
	}
	if slot.Period == 0 && slot.TimeBand == "" {
		return errors.New("period or timeBand required")
	}
	idx, err := specialSlotIndex(grid, slot)
	if err != nil {
		return err
	}
	if grid.IsLunch(idx) {
		return fmt.Errorf("period %d is the lunch break", idx+1)
	}
	return nil
}

// resolveSpecialSlot maps a validated special slot onto the grid. Slots on days
// outside the grid do not apply.
func resolveSpecialSlot(grid *Grid, slot models.SpecialSlot) (Coordinate, bool) {
	day, ok := models.ParseDayName(string(slot.Day))
	if !ok || !grid.HasDay(day) {
		return Coordinate{}, false
	}
	idx, err := specialSlotIndex(grid, slot)
	if err != nil {
		return Coordinate{}, false
	}
	return Coordinate{Day: day, Slot: idx}, true
}

func specialSlotIndex(grid *Grid, slot models.SpecialSlot) (int, error) {
	if slot.Period != 0 {
		if slot.Period < 1 || slot.Period > grid.SlotCount() {
			return 0, fmt.Errorf("period %d outside 1..%d", slot.Period, grid.SlotCount())
		}
		return slot.Period - 1, nil
	}
	idx, ok := grid.SlotForBand(slot.TimeBand)
	if !ok {
		return 0, fmt.Errorf("unknown time band %q", slot.TimeBand)
	}
	return idx, nil
}
