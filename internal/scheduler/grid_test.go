package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduscheduler-api/internal/models"
)

func TestNewGridPeriods(t *testing.T) {
	grid, err := NewGrid(GridConfig{Days: []models.DayName{"Wed", "monday", "MONDAY"}, PeriodsPerDay: 7})
	require.NoError(t, err)

	assert.Equal(t, []models.DayName{models.Monday, models.Wednesday}, grid.Days())
	assert.Equal(t, []string{"P1", "P2", "P3", "P4", "P5", "P6", "P7"}, grid.Bands())
	assert.Equal(t, 3, grid.LunchSlot())
	assert.True(t, grid.IsLunch(3))
}

func TestNewGridFromWindow(t *testing.T) {
	grid, err := NewGrid(GridConfig{Days: []models.DayName{models.Monday}, StartTime: "9", EndTime: "13:00"})
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00-10:00", "10:00-11:00", "11:00-12:00", "12:00-13:00"}, grid.Bands())
	assert.Equal(t, 2, grid.LunchSlot())

	grid, err = NewGrid(GridConfig{Days: []models.DayName{models.Monday}, StartTime: "08:30", EndTime: "10:15", SlotMinutes: 45})
	require.NoError(t, err)
	assert.Equal(t, []string{"08:30-09:15", "09:15-10:00"}, grid.Bands())

	slot, ok := grid.SlotForBand("09:15-10:00")
	assert.True(t, ok)
	assert.Equal(t, 1, slot)
}

func TestNewGridLunchUsesFloorDivision(t *testing.T) {
	for periods, lunch := range map[int]int{1: 0, 2: 1, 3: 1, 6: 3, 8: 4} {
		grid, err := NewGrid(GridConfig{Days: []models.DayName{models.Friday}, PeriodsPerDay: periods})
		require.NoError(t, err)
		assert.Equal(t, lunch, grid.LunchSlot(), "periods=%d", periods)
	}
}

func TestNewGridErrors(t *testing.T) {
	cases := map[string]struct {
		cfg  GridConfig
		want error
	}{
		"no days":        {GridConfig{PeriodsPerDay: 4}, ErrNoDays},
		"unknown days":   {GridConfig{Days: []models.DayName{"sunday"}, PeriodsPerDay: 4}, ErrNoDays},
		"negative":       {GridConfig{Days: weekdays, PeriodsPerDay: -1}, ErrInvalidGrid},
		"no sizing":      {GridConfig{Days: weekdays}, ErrInvalidGrid},
		"reversed":       {GridConfig{Days: weekdays, StartTime: "15:00", EndTime: "09:00"}, ErrInvalidGrid},
		"bad clock":      {GridConfig{Days: weekdays, StartTime: "nine", EndTime: "17:00"}, ErrInvalidGrid},
		"shorter window": {GridConfig{Days: weekdays, StartTime: "09:00", EndTime: "09:30"}, ErrInvalidGrid},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewGrid(tc.cfg)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestGridCoordinatesOrder(t *testing.T) {
	grid, err := NewGrid(GridConfig{Days: []models.DayName{models.Tuesday, models.Monday}, PeriodsPerDay: 2})
	require.NoError(t, err)
	assert.Equal(t, []Coordinate{
		{Day: models.Monday, Slot: 0}, {Day: models.Monday, Slot: 1},
		{Day: models.Tuesday, Slot: 0}, {Day: models.Tuesday, Slot: 1},
	}, grid.Coordinates())
}
