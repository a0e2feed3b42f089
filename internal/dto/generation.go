package dto

// GenerateScheduleRequest asks for a timetable run over one school week.
type GenerateScheduleRequest struct {
	SchoolYear      string `json:"schoolYear" validate:"required"`
	Week            int    `json:"week" validate:"required,min=1"`
	Grade           string `json:"grade" validate:"omitempty"`
	ConfigurationID string `json:"configurationId" validate:"omitempty"`
}

// ScheduleEntryResponse is one committed placement in API form.
type ScheduleEntryResponse struct {
	ClassID   string `json:"classId"`
	TeacherID string `json:"teacherId"`
	RoomID    string `json:"roomId"`
	Grade     string `json:"grade"`
	Week      int    `json:"week"`
	Day       int    `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// ScheduleStatisticsResponse summarises a run.
type ScheduleStatisticsResponse struct {
	TotalAssignments int      `json:"totalAssignments"`
	TeachersAssigned int      `json:"teachersAssigned"`
	RoomsUsed        int      `json:"roomsUsed"`
	Conflicts        []string `json:"conflicts"`
	SoftViolations   int      `json:"softViolations"`
	ExecutionMs      int64    `json:"executionMs"`
}

// GenerateScheduleResponse is the run result; partial schedules return all
// placed entries with feasible=false and the unplaceable class ids listed.
type GenerateScheduleResponse struct {
	GenerationID string                     `json:"generationId"`
	Feasible     bool                       `json:"feasible"`
	Entries      []ScheduleEntryResponse    `json:"entries"`
	Statistics   ScheduleStatisticsResponse `json:"statistics"`
}

// AsyncGenerateResponse acknowledges a queued run.
type AsyncGenerateResponse struct {
	GenerationID string `json:"generationId"`
	Status       string `json:"status"`
}

// GenerationListQuery filters stored generation records.
type GenerationListQuery struct {
	SchoolYear string `form:"schoolYear"`
	Week       *int   `form:"week"`
	Status     string `form:"status"`
	Page       int    `form:"page"`
	PageSize   int    `form:"pageSize"`
}
