package scheduler

import "github.com/noah-isme/eduscheduler-api/internal/models"

// Materialize expands placements into a dense grid: one entry per batch, day and
// slot. The lunch slot always reads LunchBreakLabel, empty cells FreePeriodLabel.
func Materialize(grid *Grid, batches []models.Batch, placements []Placement) []models.TimetableEntry {
	type key struct {
		batch string
		day   models.DayName
		slot  int
	}
	placed := make(map[key]Placement, len(placements))
	for _, p := range placements {
		placed[key{batch: p.Session.BatchID, day: p.Day, slot: p.Slot}] = p
	}

	entries := make([]models.TimetableEntry, 0, len(batches)*len(grid.days)*len(grid.bands))
	for _, batch := range batches {
		for _, coord := range grid.Coordinates() {
			entry := models.TimetableEntry{
				Day:      coord.Day,
				Period:   coord.Slot + 1,
				TimeBand: grid.Band(coord.Slot),
				BatchID:  batch.ID,
			}
			p, ok := placed[key{batch: batch.ID, day: coord.Day, slot: coord.Slot}]
			switch {
			case grid.IsLunch(coord.Slot):
				entry.Kind = models.EntryKindLunch
				entry.Label = models.LunchBreakLabel
			case ok:
				entry.Kind = models.EntryKindSession
				entry.Label = sessionLabel(p.Session)
				entry.SubjectCode = p.Session.SubjectCode
				entry.SubjectName = p.Session.SubjectName
				entry.SubjectKind = p.Session.Kind
				entry.FacultyID = p.Session.FacultyID
				entry.ClassroomID = p.ClassroomID
			default:
				entry.Kind = models.EntryKindFree
				entry.Label = models.FreePeriodLabel
			}
			entries = append(entries, entry)
		}
	}
	return entries
}

func sessionLabel(s Session) string {
	if s.SubjectName == "" {
		return s.SubjectCode
	}
	return s.SubjectName
}
