package models

import "time"

// EnglishLevelConfig flags a grade as running leveled English. The two
// uppermost primary grades are expected here; any flagged grade routes its
// English sections through the per-level assignments below.
type EnglishLevelConfig struct {
	ID         string    `db:"id" json:"id"`
	SchoolYear string    `db:"school_year" json:"school_year"`
	Grade      string    `db:"grade" json:"grade"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Validate checks structural consistency of the config row.
func (c EnglishLevelConfig) Validate() error {
	if c.SchoolYear == "" {
		return newFieldError("english_level_config", "school_year", "must not be empty")
	}
	if !KnownGrade(c.Grade) {
		return newFieldError("english_level_config", "grade", "unknown grade "+c.Grade)
	}
	return nil
}

// EnglishTeacherAssignment fixes the teacher for one proficiency level.
type EnglishTeacherAssignment struct {
	ID         string    `db:"id" json:"id"`
	SchoolYear string    `db:"school_year" json:"school_year"`
	Level      string    `db:"level" json:"level"`
	TeacherID  string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Validate checks structural consistency of the assignment row.
func (a EnglishTeacherAssignment) Validate() error {
	if !KnownEnglishLevel(a.Level) {
		return newFieldError("english_teacher_assignment", "level", "unknown level "+a.Level)
	}
	if a.TeacherID == "" {
		return newFieldError("english_teacher_assignment", "teacher_id", "must not be empty")
	}
	return nil
}

// EnglishRoomAssignment fixes the room for one proficiency level.
type EnglishRoomAssignment struct {
	ID         string    `db:"id" json:"id"`
	SchoolYear string    `db:"school_year" json:"school_year"`
	Level      string    `db:"level" json:"level"`
	RoomID     string    `db:"room_id" json:"room_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Validate checks structural consistency of the assignment row.
func (a EnglishRoomAssignment) Validate() error {
	if !KnownEnglishLevel(a.Level) {
		return newFieldError("english_room_assignment", "level", "unknown level "+a.Level)
	}
	if a.RoomID == "" {
		return newFieldError("english_room_assignment", "room_id", "must not be empty")
	}
	return nil
}
