package models

import "time"

// Batch is a cohort of students taking a common set of subjects.
type Batch struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name,omitempty"`
	Department         string            `json:"department"`
	Semester           string            `json:"semester"`
	Year               string            `json:"year"`
	Strength           int               `json:"strength"`
	Subjects           []string          `json:"subjects"`
	FacultyAssignments map[string]string `json:"facultyAssignments"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

// FacultyFor returns the faculty assigned to teach the subject code for this batch.
func (b Batch) FacultyFor(code string) string {
	if b.FacultyAssignments == nil {
		return ""
	}
	return b.FacultyAssignments[code]
}

// BatchFilter captures supported filters for listing batches.
type BatchFilter struct {
	Department string
	Semester   string
	Search     string
	Page       int
	PageSize   int
}
