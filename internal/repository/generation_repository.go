package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/andino-edu/horario-api/internal/models"
)

// GenerationRepository persists generation records and schedule entries.
type GenerationRepository struct {
	db *sqlx.DB
}

// NewGenerationRepository constructs a GenerationRepository.
func NewGenerationRepository(db *sqlx.DB) *GenerationRepository {
	return &GenerationRepository{db: db}
}

// Create inserts a new record; callers start runs in `generating` state.
func (r *GenerationRepository) Create(ctx context.Context, record *models.GenerationRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	if record.Status == "" {
		record.Status = models.GenerationStatusGenerating
	}

	const query = `INSERT INTO generation_records (id, school_year, week, grade, configuration_id, status, feasible, stats, error_message, warnings, execution_ms, created_at, updated_at)
VALUES (:id, :school_year, :week, :grade, :configuration_id, :status, :feasible, :stats, :error_message, :warnings, :execution_ms, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create generation record: %w", err)
	}
	return nil
}

// Finalize moves a record into a terminal state with its run outcome.
func (r *GenerationRepository) Finalize(
	ctx context.Context,
	id string,
	status models.GenerationStatus,
	feasible bool,
	stats types.JSONText,
	errorMessage *string,
	warnings types.JSONText,
	executionMs int64,
) error {
	const query = `UPDATE generation_records
SET status = $2, feasible = $3, stats = $4, error_message = $5, warnings = $6, execution_ms = $7, updated_at = $8
WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, feasible, stats, errorMessage, warnings, executionMs, time.Now().UTC()); err != nil {
		return fmt.Errorf("finalize generation record %s: %w", id, err)
	}
	return nil
}

// FindByID fetches a generation record.
func (r *GenerationRepository) FindByID(ctx context.Context, id string) (*models.GenerationRecord, error) {
	const query = `SELECT id, school_year, week, grade, configuration_id, status, feasible, stats, error_message, warnings, execution_ms, created_at, updated_at
FROM generation_records WHERE id = $1`
	var record models.GenerationRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns generation records matching the filter plus the total count.
func (r *GenerationRepository) List(ctx context.Context, filter models.GenerationFilter) ([]models.GenerationRecord, int, error) {
	base := "FROM generation_records WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.SchoolYear != "" {
		conditions = append(conditions, fmt.Sprintf("school_year = $%d", len(args)+1))
		args = append(args, filter.SchoolYear)
	}
	if filter.Week != nil {
		conditions = append(conditions, fmt.Sprintf("week = $%d", len(args)+1))
		args = append(args, *filter.Week)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, school_year, week, grade, configuration_id, status, feasible, stats, error_message, warnings, execution_ms, created_at, updated_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d", base, size, offset)
	var records []models.GenerationRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list generation records: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count generation records: %w", err)
	}

	return records, total, nil
}

// InsertEntries bulk-inserts the committed placements of a run.
func (r *GenerationRepository) InsertEntries(ctx context.Context, entries []models.ScheduleEntry) error {
	if len(entries) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		if entries[i].CreatedAt.IsZero() {
			entries[i].CreatedAt = now
		}
	}
	const query = `INSERT INTO schedule_entries (id, generation_id, class_id, teacher_id, room_id, grade, week, day, block, start_time, end_time, created_at)
VALUES (:id, :generation_id, :class_id, :teacher_id, :room_id, :grade, :week, :day, :block, :start_time, :end_time, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entries); err != nil {
		return fmt.Errorf("insert schedule entries: %w", err)
	}
	return nil
}

// ListEntries returns the placements of a generation ordered by day and block.
func (r *GenerationRepository) ListEntries(ctx context.Context, generationID string) ([]models.ScheduleEntry, error) {
	const query = `SELECT id, generation_id, class_id, teacher_id, room_id, grade, week, day, block, start_time, end_time, created_at
FROM schedule_entries WHERE generation_id = $1 ORDER BY day ASC, block ASC, class_id ASC`
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, generationID); err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	return entries, nil
}
