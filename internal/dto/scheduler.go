package dto

// GenerateTimetableRequest instructs the generator to build a weekly timetable from the
// current entity store. Either periodsPerDay or startTime/endTime sizes the grid; when
// both are omitted the rules' maxSessionsPerDay is used.
type GenerateTimetableRequest struct {
	Title              string   `json:"title" validate:"omitempty,max=120"`
	Days               []string `json:"days" validate:"omitempty,max=6,dive,required"`
	PeriodsPerDay      int      `json:"periodsPerDay" validate:"omitempty,min=1,max=16"`
	StartTime          string   `json:"startTime" validate:"omitempty,max=5"`
	EndTime            string   `json:"endTime" validate:"omitempty,max=5"`
	SlotMinutes        int      `json:"slotMinutes" validate:"omitempty,min=15,max=240"`
	StrictAvailability *bool    `json:"strictAvailability"`
	// Seed fixes the session shuffle, 0 included. Omitted falls back to
	// SCHEDULER_SEED and then to the clock.
	Seed *int64 `json:"seed"`
	// BatchIDs restricts generation to a subset of batches.
	BatchIDs []string `json:"batchIds" validate:"omitempty,dive,required"`
}

// TimetableQuery paginates stored timetables.
type TimetableQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// CreateExportRequest queues a background export.
type CreateExportRequest struct {
	Format string `json:"format" validate:"required,oneof=csv pdf"`
}
