package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/andino-edu/horario-api/internal/models"
)

// ConstraintRepository reads hard and soft scheduling constraints.
type ConstraintRepository struct {
	db *sqlx.DB
}

// NewConstraintRepository constructs a ConstraintRepository.
func NewConstraintRepository(db *sqlx.DB) *ConstraintRepository {
	return &ConstraintRepository{db: db}
}

// ListHardActive returns active hard constraints for a school year.
func (r *ConstraintRepository) ListHardActive(ctx context.Context, schoolYear string) ([]models.HardConstraint, error) {
	const query = `SELECT id, school_year, kind, teacher_id, room_id, day, block, active, created_at
FROM hard_constraints WHERE school_year = $1 AND active = TRUE ORDER BY id ASC`
	var constraints []models.HardConstraint
	if err := r.db.SelectContext(ctx, &constraints, query, schoolYear); err != nil {
		return nil, fmt.Errorf("list hard constraints: %w", err)
	}
	return constraints, nil
}

// ListSoftActive returns active soft constraints for a school year.
func (r *ConstraintRepository) ListSoftActive(ctx context.Context, schoolYear string) ([]models.SoftConstraint, error) {
	const query = `SELECT id, school_year, kind, teacher_id, limit_value, weight, active, created_at
FROM soft_constraints WHERE school_year = $1 AND active = TRUE ORDER BY id ASC`
	var constraints []models.SoftConstraint
	if err := r.db.SelectContext(ctx, &constraints, query, schoolYear); err != nil {
		return nil, fmt.Errorf("list soft constraints: %w", err)
	}
	return constraints, nil
}
