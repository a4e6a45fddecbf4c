package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/eduscheduler-api/internal/models"
)

func TestOccupancyReserve(t *testing.T) {
	occ := NewOccupancy()
	fac := FacultyResource("fac-1")

	assert.True(t, occ.IsFree(fac, models.Monday, 0))
	occ.Reserve(fac, models.Monday, 0)
	occ.Reserve(fac, models.Monday, 2)
	occ.Reserve(fac, models.Tuesday, 0)

	assert.False(t, occ.IsFree(fac, models.Monday, 0))
	assert.True(t, occ.IsFree(fac, models.Monday, 1))
	assert.True(t, occ.IsFree(ClassroomResource("fac-1"), models.Monday, 0))
	assert.Equal(t, 3, occ.Count(fac))
	assert.Equal(t, 2, occ.CountOn(fac, models.Monday))
	assert.Equal(t, 0, occ.CountOn(fac, models.Friday))
}

func TestOccupancyReserveTwiceCountsOnce(t *testing.T) {
	occ := NewOccupancy()
	room := ClassroomResource("room-101")
	occ.Reserve(room, models.Monday, 1)
	occ.Reserve(room, models.Monday, 1)

	assert.Equal(t, 1, occ.Count(room))
	assert.Equal(t, 1, occ.CountOn(room, models.Monday))
}

func TestResourceNamespaces(t *testing.T) {
	assert.NotEqual(t, FacultyResource("x"), BatchResource("x"))
	assert.NotEqual(t, ClassroomResource("x"), BatchResource("x"))
}
