package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// GenerationStatus tracks the lifecycle of a timetable generation run.
type GenerationStatus string

const (
	GenerationStatusGenerating GenerationStatus = "generating"
	GenerationStatusCompleted  GenerationStatus = "completed"
	GenerationStatusFailed     GenerationStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s GenerationStatus) Terminal() bool {
	return s == GenerationStatusCompleted || s == GenerationStatusFailed
}

// GenerationRecord is the audit trail of one run: created in `generating`
// before any data is loaded, always finalized to `completed` or `failed`.
type GenerationRecord struct {
	ID              string           `db:"id" json:"id"`
	SchoolYear      string           `db:"school_year" json:"school_year"`
	Week            int              `db:"week" json:"week"`
	Grade           *string          `db:"grade" json:"grade,omitempty"`
	ConfigurationID *string          `db:"configuration_id" json:"configuration_id,omitempty"`
	Status          GenerationStatus `db:"status" json:"status"`
	Feasible        bool             `db:"feasible" json:"feasible"`
	Stats           types.JSONText   `db:"stats" json:"stats,omitempty"`
	ErrorMessage    *string          `db:"error_message" json:"error_message,omitempty"`
	Warnings        types.JSONText   `db:"warnings" json:"warnings,omitempty"`
	ExecutionMs     int64            `db:"execution_ms" json:"execution_ms"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}

// ScheduleStatistics summarises a run; serialized into GenerationRecord.Stats.
type ScheduleStatistics struct {
	TotalAssignments int      `json:"totalAssignments"`
	TeachersAssigned int      `json:"teachersAssigned"`
	RoomsUsed        int      `json:"roomsUsed"`
	Conflicts        []string `json:"conflicts"`
	SoftViolations   int      `json:"softViolations"`
	ExecutionMs      int64    `json:"executionMs"`
}

// ScheduleEntry is one committed placement of the generated timetable.
// Times carry the English duration override when it applies.
type ScheduleEntry struct {
	ID           string    `db:"id" json:"id"`
	GenerationID string    `db:"generation_id" json:"generation_id"`
	ClassID      string    `db:"class_id" json:"class_id"`
	TeacherID    string    `db:"teacher_id" json:"teacher_id"`
	RoomID       string    `db:"room_id" json:"room_id"`
	Grade        string    `db:"grade" json:"grade"`
	Week         int       `db:"week" json:"week"`
	Day          int       `db:"day" json:"day"`
	Block        int       `db:"block" json:"block"`
	StartTime    string    `db:"start_time" json:"start_time"`
	EndTime      string    `db:"end_time" json:"end_time"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// GenerationFilter selects records for list queries.
type GenerationFilter struct {
	SchoolYear string
	Week       *int
	Status     *GenerationStatus
	Page       int
	PageSize   int
}
