package models

import "time"

// Room represents a physical space eligible for placements while active.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Capacity  int       `db:"capacity" json:"capacity"`
	Type      string    `db:"type" json:"type"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Validate checks structural consistency of a loaded room record.
func (r Room) Validate() error {
	if r.ID == "" {
		return newFieldError("room", "id", "must not be empty")
	}
	if r.Capacity < 0 {
		return newFieldError("room", "capacity", "must not be negative")
	}
	return nil
}
