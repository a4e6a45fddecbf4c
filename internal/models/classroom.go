package models

import "time"

// ClassroomKind describes the teaching setup of a room.
type ClassroomKind string

const (
	ClassroomKindLecture  ClassroomKind = "lecture"
	ClassroomKindLab      ClassroomKind = "lab"
	ClassroomKindTutorial ClassroomKind = "tutorial"
	ClassroomKindSeminar  ClassroomKind = "seminar"
)

// ClassroomStatus tracks room lifecycle. Only active rooms are allocated.
type ClassroomStatus string

const (
	ClassroomStatusActive      ClassroomStatus = "active"
	ClassroomStatusMaintenance ClassroomStatus = "maintenance"
	ClassroomStatusInactive    ClassroomStatus = "inactive"
)

// Classroom represents a physical teaching room.
type Classroom struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Number       string          `json:"number"`
	Building     string          `json:"building,omitempty"`
	Capacity     int             `json:"capacity"`
	Kind         ClassroomKind   `json:"kind"`
	Equipment    []string        `json:"equipment"`
	Availability Availability    `json:"availability"`
	Status       ClassroomStatus `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Active reports whether the room is eligible for allocation.
func (c Classroom) Active() bool {
	return c.Status == "" || c.Status == ClassroomStatusActive
}

// ClassroomFilter captures supported filters for listing classrooms.
type ClassroomFilter struct {
	Kind     ClassroomKind
	Status   ClassroomStatus
	Search   string
	Page     int
	PageSize int
}
