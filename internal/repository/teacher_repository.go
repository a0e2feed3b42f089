package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/andino-edu/horario-api/internal/models"
)

// TeacherRepository reads instructor records and their qualifications.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// ListActive returns every active teacher ordered by id for stable output.
func (r *TeacherRepository) ListActive(ctx context.Context) ([]models.Teacher, error) {
	const query = `SELECT id, full_name, email, english_level, active, created_at, updated_at
FROM teachers WHERE active = TRUE ORDER BY id ASC`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list active teachers: %w", err)
	}
	return teachers, nil
}

// FindByID fetches a teacher by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	const query = `SELECT id, full_name, email, english_level, active, created_at, updated_at
FROM teachers WHERE id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// ListQualifications returns all subject qualifications ordered by teacher.
func (r *TeacherRepository) ListQualifications(ctx context.Context) ([]models.TeacherSubjectQualification, error) {
	const query = `SELECT id, teacher_id, subject, grade, created_at
FROM teacher_subject_qualifications ORDER BY teacher_id ASC, subject ASC`
	var quals []models.TeacherSubjectQualification
	if err := r.db.SelectContext(ctx, &quals, query); err != nil {
		return nil, fmt.Errorf("list teacher qualifications: %w", err)
	}
	return quals, nil
}
