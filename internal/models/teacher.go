package models

import "time"

// Teacher represents an instructor available for timetable placement.
type Teacher struct {
	ID           string    `db:"id" json:"id"`
	FullName     string    `db:"full_name" json:"full_name"`
	Email        string    `db:"email" json:"email"`
	EnglishLevel *string   `db:"english_level" json:"english_level,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Validate checks structural consistency of a loaded teacher record.
func (t Teacher) Validate() error {
	if t.ID == "" {
		return newFieldError("teacher", "id", "must not be empty")
	}
	if t.EnglishLevel != nil && !KnownEnglishLevel(*t.EnglishLevel) {
		return newFieldError("teacher", "english_level", "unknown level "+*t.EnglishLevel)
	}
	return nil
}

// TeacherSubjectQualification declares a teacher eligible for a subject,
// optionally narrowed to a single grade. A nil grade covers every grade.
type TeacherSubjectQualification struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	Subject   string    `db:"subject" json:"subject"`
	Grade     *string   `db:"grade" json:"grade,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Validate checks structural consistency of a qualification record.
func (q TeacherSubjectQualification) Validate() error {
	if q.TeacherID == "" || q.Subject == "" {
		return newFieldError("qualification", "teacher_id/subject", "must not be empty")
	}
	if q.Grade != nil && !KnownGrade(*q.Grade) {
		return newFieldError("qualification", "grade", "unknown grade "+*q.Grade)
	}
	return nil
}

// Covers reports whether the qualification matches the subject/grade pair.
func (q TeacherSubjectQualification) Covers(subject, grade string) bool {
	if q.Subject != subject {
		return false
	}
	return q.Grade == nil || *q.Grade == grade
}
