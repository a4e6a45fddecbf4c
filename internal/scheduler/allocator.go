package scheduler

import "github.com/noah-isme/eduscheduler-api/internal/models"

// Problem is everything an allocator needs for one run.
type Problem struct {
	Grid     *Grid
	Sessions []Session
	Snapshot models.EntitySnapshot
	// StrictAvailability requires the slot's band to be listed in the faculty's
	// availability for that day instead of only the day itself.
	StrictAvailability bool
}

// Placement is a session pinned to a grid cell.
type Placement struct {
	Session     Session
	Day         models.DayName
	Slot        int
	ClassroomID string
}

// Allocation is an allocator's result. Every input session ends up in exactly one
// of Placements or Unplaced.
type Allocation struct {
	Placements []Placement
	Unplaced   []models.UnplacedSession
	Warnings   []models.Diagnostic
}

// Allocator assigns sessions to grid cells. Implementations must never book a
// faculty, room or batch twice in the same cell.
type Allocator interface {
	Name() string
	Allocate(p Problem) Allocation
}
