package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/andino-edu/horario-api/internal/models"
)

// ScheduleConfigRepository reads grid configurations and their time blocks.
type ScheduleConfigRepository struct {
	db *sqlx.DB
}

// NewScheduleConfigRepository constructs a ScheduleConfigRepository.
func NewScheduleConfigRepository(db *sqlx.DB) *ScheduleConfigRepository {
	return &ScheduleConfigRepository{db: db}
}

// FindActive returns the active configuration for a school year with its
// blocks populated.
func (r *ScheduleConfigRepository) FindActive(ctx context.Context, schoolYear string) (*models.ScheduleConfiguration, error) {
	const query = `SELECT id, school_year, name, days_per_week, active, created_at, updated_at
FROM schedule_configurations WHERE school_year = $1 AND active = TRUE ORDER BY updated_at DESC LIMIT 1`
	var cfg models.ScheduleConfiguration
	if err := r.db.GetContext(ctx, &cfg, query, schoolYear); err != nil {
		return nil, err
	}
	if err := r.loadBlocks(ctx, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FindByID returns a configuration by id with its blocks populated.
func (r *ScheduleConfigRepository) FindByID(ctx context.Context, id string) (*models.ScheduleConfiguration, error) {
	const query = `SELECT id, school_year, name, days_per_week, active, created_at, updated_at
FROM schedule_configurations WHERE id = $1`
	var cfg models.ScheduleConfiguration
	if err := r.db.GetContext(ctx, &cfg, query, id); err != nil {
		return nil, err
	}
	if err := r.loadBlocks(ctx, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *ScheduleConfigRepository) loadBlocks(ctx context.Context, cfg *models.ScheduleConfiguration) error {
	const query = `SELECT id, configuration_id, block_index, start_time, end_time, created_at
FROM time_blocks WHERE configuration_id = $1 ORDER BY block_index ASC`
	if err := r.db.SelectContext(ctx, &cfg.Blocks, query, cfg.ID); err != nil {
		return fmt.Errorf("load time blocks for configuration %s: %w", cfg.ID, err)
	}
	return nil
}
