package models

import "fmt"

// Pagination describes page metadata included in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// FieldError reports a structurally invalid stored record. The orchestrator
// treats it as a data-integrity failure, never as user input error.
type FieldError struct {
	Entity string
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Entity, e.Field, e.Reason)
}

func newFieldError(entity, field, reason string) *FieldError {
	return &FieldError{Entity: entity, Field: field, Reason: reason}
}

// Grades covered by the primary curriculum, lowest to highest.
var primaryGrades = []string{"1", "2", "3", "4", "5", "6", "7", "8"}

// KnownGrade reports whether the grade belongs to the primary curriculum.
func KnownGrade(grade string) bool {
	for _, g := range primaryGrades {
		if g == grade {
			return true
		}
	}
	return false
}

// English proficiency levels used by the leveled upper-grade programme.
const (
	EnglishLevelBasic = "BASIC"
	EnglishLevelLower = "LOWER"
	EnglishLevelUpper = "UPPER"
)

// KnownEnglishLevel reports whether the level is one of the supported tiers.
func KnownEnglishLevel(level string) bool {
	switch level {
	case EnglishLevelBasic, EnglishLevelLower, EnglishLevelUpper:
		return true
	}
	return false
}
