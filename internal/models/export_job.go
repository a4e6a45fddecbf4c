package models

import "time"

// ExportFormat enumerates supported timetable export formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ParseExportFormat validates a user supplied format string.
func ParseExportFormat(raw string) (ExportFormat, bool) {
	switch ExportFormat(raw) {
	case ExportFormatCSV, ExportFormatPDF:
		return ExportFormat(raw), true
	default:
		return "", false
	}
}

// ContentType returns the MIME type served for the format.
func (f ExportFormat) ContentType() string {
	if f == ExportFormatPDF {
		return "application/pdf"
	}
	return "text/csv"
}

// ExportStatus captures background export lifecycle states.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusFinished   ExportStatus = "FINISHED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportJob tracks a background timetable export.
type ExportJob struct {
	ID           string       `json:"id"`
	TimetableID  string       `json:"timetableId"`
	Format       ExportFormat `json:"format"`
	Status       ExportStatus `json:"status"`
	Attempts     int          `json:"attempts"`
	RelativePath string       `json:"-"`
	ResultURL    *string      `json:"resultUrl,omitempty"`
	ExpiresAt    *time.Time   `json:"expiresAt,omitempty"`
	ErrorMessage *string      `json:"errorMessage,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	FinishedAt   *time.Time   `json:"finishedAt,omitempty"`
}
