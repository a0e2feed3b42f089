package models

import (
	"time"
)

// ScheduleConfiguration defines the weekly grid a generation runs against.
// Days are numbered 1 (Monday) through DaysPerWeek.
type ScheduleConfiguration struct {
	ID          string    `db:"id" json:"id"`
	SchoolYear  string    `db:"school_year" json:"school_year"`
	Name        string    `db:"name" json:"name"`
	DaysPerWeek int       `db:"days_per_week" json:"days_per_week"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	// Blocks is populated from the time_blocks table, ordered by index.
	Blocks []TimeBlock `db:"-" json:"blocks,omitempty"`
}

// Validate checks structural consistency of a loaded configuration.
func (c ScheduleConfiguration) Validate() error {
	if c.ID == "" || c.SchoolYear == "" {
		return newFieldError("schedule_configuration", "id/school_year", "must not be empty")
	}
	if c.DaysPerWeek < 1 || c.DaysPerWeek > 7 {
		return newFieldError("schedule_configuration", "days_per_week", "must be between 1 and 7")
	}
	for _, block := range c.Blocks {
		if err := block.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// TimeBlock is one fixed interval of the daily grid. Start and end times are
// wall-clock strings in 24h HH:MM form.
type TimeBlock struct {
	ID              string    `db:"id" json:"id"`
	ConfigurationID string    `db:"configuration_id" json:"configuration_id"`
	Index           int       `db:"block_index" json:"block_index"`
	StartTime       string    `db:"start_time" json:"start_time"`
	EndTime         string    `db:"end_time" json:"end_time"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Validate checks the clock strings parse and the interval is positive.
func (b TimeBlock) Validate() error {
	start, err := ParseClock(b.StartTime)
	if err != nil {
		return newFieldError("time_block", "start_time", err.Error())
	}
	end, err := ParseClock(b.EndTime)
	if err != nil {
		return newFieldError("time_block", "end_time", err.Error())
	}
	if !end.After(start) {
		return newFieldError("time_block", "end_time", "must be after start_time")
	}
	if b.Index < 1 {
		return newFieldError("time_block", "block_index", "must be >= 1")
	}
	return nil
}

// DurationMinutes returns the block length. Validate must have passed.
func (b TimeBlock) DurationMinutes() int {
	start, err := ParseClock(b.StartTime)
	if err != nil {
		return 0
	}
	end, err := ParseClock(b.EndTime)
	if err != nil {
		return 0
	}
	return int(end.Sub(start).Minutes())
}

// ParseClock parses an HH:MM wall-clock string.
func ParseClock(raw string) (time.Time, error) {
	return time.Parse("15:04", raw)
}
