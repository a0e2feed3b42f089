package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/andino-edu/horario-api/internal/models"
)

// ClassRepository reads class sections, room requirements, and enrollments.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// ListSections returns sections, optionally filtered to a single grade.
func (r *ClassRepository) ListSections(ctx context.Context, grade string) ([]models.ClassSection, error) {
	query := `SELECT id, name, subject, grade, teacher_id, room_id, is_english_primary, is_project, english_level, created_at, updated_at
FROM class_sections`
	var args []interface{}
	if grade != "" {
		query += " WHERE grade = $1"
		args = append(args, grade)
	}
	query += " ORDER BY grade ASC, subject ASC, id ASC"

	var sections []models.ClassSection
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, fmt.Errorf("list class sections: %w", err)
	}
	return sections, nil
}

// ListRequirements returns every room requirement.
func (r *ClassRepository) ListRequirements(ctx context.Context) ([]models.ClassRequirement, error) {
	const query = `SELECT id, class_id, room_type, min_capacity, created_at
FROM class_requirements ORDER BY class_id ASC`
	var reqs []models.ClassRequirement
	if err := r.db.SelectContext(ctx, &reqs, query); err != nil {
		return nil, fmt.Errorf("list class requirements: %w", err)
	}
	return reqs, nil
}

// ListEnrollments returns every class-student link.
func (r *ClassRepository) ListEnrollments(ctx context.Context) ([]models.ClassEnrollment, error) {
	const query = `SELECT class_id, student_id, created_at
FROM class_enrollments ORDER BY class_id ASC, student_id ASC`
	var rows []models.ClassEnrollment
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list class enrollments: %w", err)
	}
	return rows, nil
}
