package models

import "strings"

// DayName is a lower-case working day identifier.
type DayName string

const (
	Monday    DayName = "monday"
	Tuesday   DayName = "tuesday"
	Wednesday DayName = "wednesday"
	Thursday  DayName = "thursday"
	Friday    DayName = "friday"
	Saturday  DayName = "saturday"
)

// WeekDays lists the schedulable days in calendar order.
var WeekDays = []DayName{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// ParseDayName normalises free-form day input ("Monday", " MON ") into a DayName.
func ParseDayName(raw string) (DayName, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	for _, day := range WeekDays {
		if value == string(day) || (len(value) == 3 && strings.HasPrefix(string(day), value)) {
			return day, true
		}
	}
	return "", false
}

// Index returns the zero based position of the day within WeekDays or -1.
func (d DayName) Index() int {
	for i, day := range WeekDays {
		if day == d {
			return i
		}
	}
	return -1
}

// Title returns the capitalised day name used by exports.
func (d DayName) Title() string {
	if d == "" {
		return ""
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:])
}

// Availability maps a working day to the time bands that are open on it.
// An empty band list means the whole day is open. A nil map means every day
// is open, an empty map means none is.
type Availability map[DayName][]string
