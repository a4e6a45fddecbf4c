package scheduler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/eduscheduler-api/internal/models"
)

// DefaultSlotMinutes is the band length used when a start/end window is given without one.
const DefaultSlotMinutes = 60

var (
	// ErrNoDays is returned when no working day survives normalisation.
	ErrNoDays = errors.New("no working days selected")
	// ErrInvalidGrid covers malformed period counts and time windows.
	ErrInvalidGrid = errors.New("invalid time grid")
)

// GridConfig describes the weekly grid. Either PeriodsPerDay or a StartTime/EndTime
// window is used; PeriodsPerDay wins when both are set.
type GridConfig struct {
	Days          []models.DayName
	PeriodsPerDay int
	StartTime     string
	EndTime       string
	SlotMinutes   int
}

// Coordinate addresses one cell of the grid. Slot is zero based.
type Coordinate struct {
	Day  models.DayName
	Slot int
}

// Grid is the immutable day x slot matrix a generation run schedules over.
type Grid struct {
	days  []models.DayName
	bands []string
	lunch int
}

// NewGrid validates cfg and derives the ordered time bands.
func NewGrid(cfg GridConfig) (*Grid, error) {
	days := normalizeDays(cfg.Days)
	if len(days) == 0 {
		return nil, ErrNoDays
	}

	var bands []string
	switch {
	case cfg.PeriodsPerDay < 0:
		return nil, fmt.Errorf("%w: periodsPerDay must be positive", ErrInvalidGrid)
	case cfg.PeriodsPerDay > 0:
		bands = make([]string, cfg.PeriodsPerDay)
		for i := range bands {
			bands[i] = "P" + strconv.Itoa(i+1)
		}
	case cfg.StartTime != "" || cfg.EndTime != "":
		var err error
		bands, err = bandsFromWindow(cfg.StartTime, cfg.EndTime, cfg.SlotMinutes)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: periodsPerDay or startTime/endTime required", ErrInvalidGrid)
	}

	return &Grid{days: days, bands: bands, lunch: len(bands) / 2}, nil
}

// Days returns the working days in calendar order.
func (g *Grid) Days() []models.DayName {
	out := make([]models.DayName, len(g.days))
	copy(out, g.days)
	return out
}

// Bands returns the time band labels in slot order.
func (g *Grid) Bands() []string {
	out := make([]string, len(g.bands))
	copy(out, g.bands)
	return out
}

// SlotCount is the number of slots per day, lunch included.
func (g *Grid) SlotCount() int { return len(g.bands) }

// LunchSlot is the zero based index of the reserved lunch slot.
func (g *Grid) LunchSlot() int { return g.lunch }

// IsLunch reports whether slot is the reserved lunch slot.
func (g *Grid) IsLunch(slot int) bool { return slot == g.lunch }

// Band returns the label of a slot.
func (g *Grid) Band(slot int) string {
	if slot < 0 || slot >= len(g.bands) {
		return ""
	}
	return g.bands[slot]
}

// SlotForBand resolves a band label to its slot index.
func (g *Grid) SlotForBand(label string) (int, bool) {
	label = strings.TrimSpace(label)
	for i, band := range g.bands {
		if band == label {
			return i, true
		}
	}
	return 0, false
}

// HasDay reports whether day is one of the grid's working days.
func (g *Grid) HasDay(day models.DayName) bool {
	for _, d := range g.days {
		if d == day {
			return true
		}
	}
	return false
}

// Coordinates lists every cell day-major, slot-minor. Allocation tie-breaks depend on this order.
func (g *Grid) Coordinates() []Coordinate {
	coords := make([]Coordinate, 0, len(g.days)*len(g.bands))
	for _, day := range g.days {
		for slot := range g.bands {
			coords = append(coords, Coordinate{Day: day, Slot: slot})
		}
	}
	return coords
}

func normalizeDays(days []models.DayName) []models.DayName {
	seen := make(map[models.DayName]bool, len(days))
	for _, raw := range days {
		if day, ok := models.ParseDayName(string(raw)); ok {
			seen[day] = true
		}
	}
	result := make([]models.DayName, 0, len(seen))
	for _, day := range models.WeekDays {
		if seen[day] {
			result = append(result, day)
		}
	}
	return result
}

func bandsFromWindow(start, end string, slotMinutes int) ([]string, error) {
	if slotMinutes == 0 {
		slotMinutes = DefaultSlotMinutes
	}
	if slotMinutes < 0 {
		return nil, fmt.Errorf("%w: slotMinutes must be positive", ErrInvalidGrid)
	}
	from, err := parseClock(start)
	if err != nil {
		return nil, err
	}
	to, err := parseClock(end)
	if err != nil {
		return nil, err
	}
	if to <= from {
		return nil, fmt.Errorf("%w: endTime must be after startTime", ErrInvalidGrid)
	}

	var bands []string
	for m := from; m+slotMinutes <= to; m += slotMinutes {
		bands = append(bands, formatClock(m)+"-"+formatClock(m+slotMinutes))
	}
	if len(bands) == 0 {
		return nil, fmt.Errorf("%w: window %s-%s is shorter than one slot", ErrInvalidGrid, start, end)
	}
	return bands, nil
}

// parseClock accepts "9", "09:00" or "9:30" and returns minutes after midnight.
func parseClock(raw string) (int, error) {
	value := strings.TrimSpace(raw)
	if value != "" && !strings.Contains(value, ":") {
		value += ":00"
	}
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("%w: bad time %q", ErrInvalidGrid, raw)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
