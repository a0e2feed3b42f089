package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/andino-edu/horario-api/internal/models"
)

// EnglishRepository reads the leveled-English configuration for upper grades.
type EnglishRepository struct {
	db *sqlx.DB
}

// NewEnglishRepository constructs an EnglishRepository.
func NewEnglishRepository(db *sqlx.DB) *EnglishRepository {
	return &EnglishRepository{db: db}
}

// ListLevelConfigs returns the active leveled-grade flags for a school year.
func (r *EnglishRepository) ListLevelConfigs(ctx context.Context, schoolYear string) ([]models.EnglishLevelConfig, error) {
	const query = `SELECT id, school_year, grade, active, created_at
FROM english_level_configs WHERE school_year = $1 AND active = TRUE ORDER BY grade ASC`
	var configs []models.EnglishLevelConfig
	if err := r.db.SelectContext(ctx, &configs, query, schoolYear); err != nil {
		return nil, fmt.Errorf("list english level configs: %w", err)
	}
	return configs, nil
}

// ListTeacherAssignments returns the per-level teacher overrides.
func (r *EnglishRepository) ListTeacherAssignments(ctx context.Context, schoolYear string) ([]models.EnglishTeacherAssignment, error) {
	const query = `SELECT id, school_year, level, teacher_id, created_at
FROM english_teacher_assignments WHERE school_year = $1 ORDER BY level ASC`
	var assignments []models.EnglishTeacherAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, schoolYear); err != nil {
		return nil, fmt.Errorf("list english teacher assignments: %w", err)
	}
	return assignments, nil
}

// ListRoomAssignments returns the per-level room overrides.
func (r *EnglishRepository) ListRoomAssignments(ctx context.Context, schoolYear string) ([]models.EnglishRoomAssignment, error) {
	const query = `SELECT id, school_year, level, room_id, created_at
FROM english_room_assignments WHERE school_year = $1 ORDER BY level ASC`
	var assignments []models.EnglishRoomAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, schoolYear); err != nil {
		return nil, fmt.Errorf("list english room assignments: %w", err)
	}
	return assignments, nil
}
