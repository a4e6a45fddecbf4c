package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

// EntryHeaders is the column order of a timetable entry export.
var EntryHeaders = []string{"Batch", "Day", "Period", "Time", "Type", "Subject Code", "Subject", "Faculty", "Classroom"}

// EntryRow is one timetable cell with ids already resolved to display names.
type EntryRow struct {
	Batch       string
	Day         string
	Period      int
	Time        string
	Type        string
	SubjectCode string
	Subject     string
	Faculty     string
	Classroom   string
}

func (r EntryRow) record() []string {
	return []string{r.Batch, r.Day, strconv.Itoa(r.Period), r.Time, r.Type, r.SubjectCode, r.Subject, r.Faculty, r.Classroom}
}

// CSVExporter writes timetable entries as one CSV line per cell.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render writes the header line followed by rows in the order given. Every row
// must name its batch, day and a 1-based period.
func (e *CSVExporter) Render(rows []EntryRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(EntryHeaders); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for i, row := range rows {
		if row.Batch == "" || row.Day == "" || row.Period < 1 {
			return nil, fmt.Errorf("csv row %d: batch, day and period are required", i+1)
		}
		if err := writer.Write(row.record()); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
