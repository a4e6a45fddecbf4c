package scheduler

import "github.com/noah-isme/eduscheduler-api/internal/models"

// Resource is a namespaced key for anything that can only be in one place per slot.
type Resource string

// FacultyResource keys a faculty member.
func FacultyResource(id string) Resource { return Resource("faculty:" + id) }

// ClassroomResource keys a room.
func ClassroomResource(id string) Resource { return Resource("classroom:" + id) }

// BatchResource keys a student batch.
func BatchResource(id string) Resource { return Resource("batch:" + id) }

type cell struct {
	day  models.DayName
	slot int
}

// Occupancy records which resources are booked at which coordinates.
// It is owned by a single generation run and is not safe for concurrent use.
type Occupancy struct {
	booked map[Resource]map[cell]struct{}
	perDay map[Resource]map[models.DayName]int
}

// NewOccupancy returns an empty tracker.
func NewOccupancy() *Occupancy {
	return &Occupancy{
		booked: make(map[Resource]map[cell]struct{}),
		perDay: make(map[Resource]map[models.DayName]int),
	}
}

// IsFree reports whether r has nothing booked at (day, slot).
func (o *Occupancy) IsFree(r Resource, day models.DayName, slot int) bool {
	_, taken := o.booked[r][cell{day: day, slot: slot}]
	return !taken
}

// Reserve books r at (day, slot). Callers check IsFree first; booking the same
// cell twice is a no-op.
func (o *Occupancy) Reserve(r Resource, day models.DayName, slot int) {
	cells := o.booked[r]
	if cells == nil {
		cells = make(map[cell]struct{})
		o.booked[r] = cells
	}
	key := cell{day: day, slot: slot}
	if _, taken := cells[key]; taken {
		return
	}
	cells[key] = struct{}{}

	days := o.perDay[r]
	if days == nil {
		days = make(map[models.DayName]int)
		o.perDay[r] = days
	}
	days[day]++
}

// Count returns the number of cells booked for r across the week.
func (o *Occupancy) Count(r Resource) int {
	return len(o.booked[r])
}

// CountOn returns the number of cells booked for r on day.
func (o *Occupancy) CountOn(r Resource, day models.DayName) int {
	return o.perDay[r][day]
}
