package models

import "time"

// Student represents a learner; their English level feeds leveled sections.
type Student struct {
	ID           string    `db:"id" json:"id"`
	FullName     string    `db:"full_name" json:"full_name"`
	Grade        string    `db:"grade" json:"grade"`
	EnglishLevel *string   `db:"english_level" json:"english_level,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Validate checks structural consistency of a loaded student record.
func (s Student) Validate() error {
	if s.ID == "" {
		return newFieldError("student", "id", "must not be empty")
	}
	if !KnownGrade(s.Grade) {
		return newFieldError("student", "grade", "unknown grade "+s.Grade)
	}
	if s.EnglishLevel != nil && !KnownEnglishLevel(*s.EnglishLevel) {
		return newFieldError("student", "english_level", "unknown level "+*s.EnglishLevel)
	}
	return nil
}
