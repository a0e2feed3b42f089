package models

import "time"

// HardConstraintKind enumerates rules whose violation blocks a placement.
type HardConstraintKind string

const (
	HardKindTeacherBlackout HardConstraintKind = "TEACHER_BLACKOUT"
	HardKindRoomBlackout    HardConstraintKind = "ROOM_BLACKOUT"
)

// SoftConstraintKind enumerates rules whose violation is penalised but tolerated.
type SoftConstraintKind string

const (
	SoftKindNoBackToBack   SoftConstraintKind = "NO_BACK_TO_BACK"
	SoftKindMaxDailyLoad   SoftConstraintKind = "MAX_DAILY_LOAD"
	SoftKindAvoidLastBlock SoftConstraintKind = "AVOID_LAST_BLOCK"
)

// HardConstraint is a blackout rule scoped to a school year. Nil Day or Block
// means the rule applies to every day or block respectively.
type HardConstraint struct {
	ID         string             `db:"id" json:"id"`
	SchoolYear string             `db:"school_year" json:"school_year"`
	Kind       HardConstraintKind `db:"kind" json:"kind"`
	TeacherID  *string            `db:"teacher_id" json:"teacher_id,omitempty"`
	RoomID     *string            `db:"room_id" json:"room_id,omitempty"`
	Day        *int               `db:"day" json:"day,omitempty"`
	Block      *int               `db:"block" json:"block,omitempty"`
	Active     bool               `db:"active" json:"active"`
	CreatedAt  time.Time          `db:"created_at" json:"created_at"`
}

// Validate ensures the rule kind is known and its subject is present.
func (c HardConstraint) Validate() error {
	switch c.Kind {
	case HardKindTeacherBlackout:
		if c.TeacherID == nil || *c.TeacherID == "" {
			return newFieldError("hard_constraint", "teacher_id", "required for "+string(c.Kind))
		}
	case HardKindRoomBlackout:
		if c.RoomID == nil || *c.RoomID == "" {
			return newFieldError("hard_constraint", "room_id", "required for "+string(c.Kind))
		}
	default:
		return newFieldError("hard_constraint", "kind", "unknown kind "+string(c.Kind))
	}
	return nil
}

// AppliesAt reports whether the rule covers the given day/block pair.
func (c HardConstraint) AppliesAt(day, block int) bool {
	if c.Day != nil && *c.Day != day {
		return false
	}
	if c.Block != nil && *c.Block != block {
		return false
	}
	return true
}

// SoftConstraint is a weighted preference scoped to a school year. A nil
// TeacherID applies the rule to every teacher.
type SoftConstraint struct {
	ID         string             `db:"id" json:"id"`
	SchoolYear string             `db:"school_year" json:"school_year"`
	Kind       SoftConstraintKind `db:"kind" json:"kind"`
	TeacherID  *string            `db:"teacher_id" json:"teacher_id,omitempty"`
	Limit      *int               `db:"limit_value" json:"limit_value,omitempty"`
	Weight     float64            `db:"weight" json:"weight"`
	Active     bool               `db:"active" json:"active"`
	CreatedAt  time.Time          `db:"created_at" json:"created_at"`
}

// Validate ensures the rule kind is known and carries its parameters.
func (c SoftConstraint) Validate() error {
	switch c.Kind {
	case SoftKindNoBackToBack, SoftKindAvoidLastBlock:
	case SoftKindMaxDailyLoad:
		if c.Limit == nil || *c.Limit < 1 {
			return newFieldError("soft_constraint", "limit_value", "required and >= 1 for "+string(c.Kind))
		}
	default:
		return newFieldError("soft_constraint", "kind", "unknown kind "+string(c.Kind))
	}
	if c.Weight < 0 {
		return newFieldError("soft_constraint", "weight", "must not be negative")
	}
	return nil
}

// AppliesToTeacher reports whether the rule covers the teacher.
func (c SoftConstraint) AppliesToTeacher(teacherID string) bool {
	return c.TeacherID == nil || *c.TeacherID == teacherID
}
