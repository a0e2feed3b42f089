package models

import "time"

// ClassSection represents one weekly session demand for a subject and grade.
// A section may arrive with a pinned teacher and/or room; the solver honours
// pins and only searches the remaining dimensions.
type ClassSection struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Subject          string    `db:"subject" json:"subject"`
	Grade            string    `db:"grade" json:"grade"`
	TeacherID        *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	RoomID           *string   `db:"room_id" json:"room_id,omitempty"`
	IsEnglishPrimary bool      `db:"is_english_primary" json:"is_english_primary"`
	IsProject        bool      `db:"is_project" json:"is_project"`
	EnglishLevel     *string   `db:"english_level" json:"english_level,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`

	// StudentIDs is populated from enrollments after the row load; it is used
	// to infer the dominant English level when the section spans levels.
	StudentIDs []string `db:"-" json:"student_ids,omitempty"`
}

// Validate checks structural consistency of a loaded section.
func (c ClassSection) Validate() error {
	if c.ID == "" || c.Subject == "" {
		return newFieldError("class_section", "id/subject", "must not be empty")
	}
	if !KnownGrade(c.Grade) {
		return newFieldError("class_section", "grade", "unknown grade "+c.Grade)
	}
	if c.EnglishLevel != nil && !KnownEnglishLevel(*c.EnglishLevel) {
		return newFieldError("class_section", "english_level", "unknown level "+*c.EnglishLevel)
	}
	return nil
}

// ClassEnrollment links a student to a section.
type ClassEnrollment struct {
	ClassID   string    `db:"class_id" json:"class_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ClassRequirement constrains the rooms a section may occupy.
type ClassRequirement struct {
	ID          string    `db:"id" json:"id"`
	ClassID     string    `db:"class_id" json:"class_id"`
	RoomType    *string   `db:"room_type" json:"room_type,omitempty"`
	MinCapacity *int      `db:"min_capacity" json:"min_capacity,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Validate checks structural consistency of a requirement record.
func (r ClassRequirement) Validate() error {
	if r.ClassID == "" {
		return newFieldError("class_requirement", "class_id", "must not be empty")
	}
	if r.MinCapacity != nil && *r.MinCapacity < 0 {
		return newFieldError("class_requirement", "min_capacity", "must not be negative")
	}
	return nil
}

// AdmitsRoom reports whether the room satisfies the requirement.
func (r ClassRequirement) AdmitsRoom(room Room) bool {
	if r.RoomType != nil && room.Type != *r.RoomType {
		return false
	}
	if r.MinCapacity != nil && room.Capacity < *r.MinCapacity {
		return false
	}
	return true
}
