package dto

// FacultyRequest creates or replaces a faculty member.
type FacultyRequest struct {
	Name               string              `json:"name" validate:"required,max=120"`
	Email              string              `json:"email" validate:"omitempty,email"`
	Department         string              `json:"department" validate:"omitempty,max=120"`
	AssignedSubjects   []string            `json:"assignedSubjects" validate:"omitempty,dive,required"`
	MaxSessionsPerWeek int                 `json:"maxSessionsPerWeek" validate:"min=0,max=60"`
	AvgLeavesPerMonth  float64             `json:"avgLeavesPerMonth" validate:"min=0,max=31"`
	Availability       map[string][]string `json:"availability"`
	Status             string              `json:"status" validate:"omitempty,oneof=active inactive"`
}

// SubjectRequest creates or replaces a subject. Codes are stored upper-cased.
type SubjectRequest struct {
	Code             string   `json:"code" validate:"required,max=32"`
	Name             string   `json:"name" validate:"required,max=160"`
	Semester         string   `json:"semester" validate:"omitempty,max=16"`
	Kind             string   `json:"kind" validate:"omitempty,oneof=theory practical lab tutorial"`
	WeeklyHours      int      `json:"weeklyHours" validate:"omitempty,min=1,max=20"`
	LinkedFacultyIDs []string `json:"linkedFacultyIds" validate:"omitempty,dive,required"`
}

// ClassroomRequest creates or replaces a classroom.
type ClassroomRequest struct {
	Name         string              `json:"name" validate:"required,max=120"`
	Number       string              `json:"number" validate:"omitempty,max=32"`
	Building     string              `json:"building" validate:"omitempty,max=120"`
	Capacity     int                 `json:"capacity" validate:"min=0,max=2000"`
	Kind         string              `json:"kind" validate:"omitempty,oneof=lecture lab tutorial seminar"`
	Equipment    []string            `json:"equipment"`
	Availability map[string][]string `json:"availability"`
	Status       string              `json:"status" validate:"omitempty,oneof=active maintenance inactive"`
}

// BatchRequest creates or replaces a student batch. Subjects are subject codes.
type BatchRequest struct {
	Name               string            `json:"name" validate:"required,max=120"`
	Department         string            `json:"department" validate:"omitempty,max=120"`
	Semester           string            `json:"semester" validate:"omitempty,max=16"`
	Year               string            `json:"year" validate:"omitempty,max=16"`
	Strength           int               `json:"strength" validate:"min=0,max=1000"`
	Subjects           []string          `json:"subjects" validate:"omitempty,dive,required"`
	FacultyAssignments map[string]string `json:"facultyAssignments"`
}

// SpecialSlotRequest reserves a cell for a subject code or kind.
type SpecialSlotRequest struct {
	Day         string `json:"day" validate:"required"`
	Period      int    `json:"period" validate:"min=0,max=16"`
	TimeBand    string `json:"timeBand"`
	SubjectKind string `json:"subjectKind" validate:"omitempty,oneof=theory practical lab tutorial"`
	SubjectCode string `json:"subjectCode"`
}

// UpdateRulesRequest patches the global rules; nil fields are left unchanged.
type UpdateRulesRequest struct {
	MaxSessionsPerDay         *int                  `json:"maxSessionsPerDay" validate:"omitempty,min=0,max=16"`
	SessionsPerSubjectPerWeek map[string]int        `json:"sessionsPerSubjectPerWeek" validate:"omitempty,dive,keys,required,endkeys,min=1,max=20"`
	SpecialSlots              *[]SpecialSlotRequest `json:"specialSlots" validate:"omitempty,dive"`
	ConsiderFacultyLeaves     *bool                 `json:"considerFacultyLeaves"`
}

// ListQuery carries the common list parameters bound from the query string.
type ListQuery struct {
	Search     string `form:"q"`
	Department string `form:"department"`
	Semester   string `form:"semester"`
	Kind       string `form:"kind"`
	Status     string `form:"status"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}
