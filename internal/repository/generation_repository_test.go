package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andino-edu/horario-api/internal/models"
)

func newGenerationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestGenerationRepositoryCreateFillsDefaults(t *testing.T) {
	db, mock, cleanup := newGenerationRepoMock(t)
	defer cleanup()
	repo := NewGenerationRepository(db)

	mock.ExpectExec("INSERT INTO generation_records").
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.GenerationRecord{SchoolYear: "2026", Week: 10}
	require.NoError(t, repo.Create(context.Background(), record))

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, models.GenerationStatusGenerating, record.Status)
	assert.False(t, record.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationRepositoryFinalize(t *testing.T) {
	db, mock, cleanup := newGenerationRepoMock(t)
	defer cleanup()
	repo := NewGenerationRepository(db)

	stats := types.JSONText(`{"totalAssignments":2}`)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE generation_records")).
		WithArgs("gen-1", models.GenerationStatusCompleted, true, stats, nil, nil, int64(120), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Finalize(context.Background(), "gen-1", models.GenerationStatusCompleted, true, stats, nil, nil, 120)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newGenerationRepoMock(t)
	defer cleanup()
	repo := NewGenerationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "school_year", "week", "grade", "configuration_id", "status", "feasible", "stats", "error_message", "warnings", "execution_ms", "created_at", "updated_at"}).
		AddRow("gen-1", "2026", 10, nil, nil, "completed", true, []byte(`{}`), nil, nil, 120, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, school_year, week, grade, configuration_id, status, feasible, stats, error_message, warnings, execution_ms, created_at, updated_at\nFROM generation_records WHERE id = $1")).
		WithArgs("gen-1").
		WillReturnRows(rows)

	record, err := repo.FindByID(context.Background(), "gen-1")
	require.NoError(t, err)
	assert.Equal(t, models.GenerationStatusCompleted, record.Status)
	assert.True(t, record.Feasible)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationRepositoryListWithFilter(t *testing.T) {
	db, mock, cleanup := newGenerationRepoMock(t)
	defer cleanup()
	repo := NewGenerationRepository(db)

	status := models.GenerationStatusFailed
	rows := sqlmock.NewRows([]string{"id", "school_year", "week", "grade", "configuration_id", "status", "feasible", "stats", "error_message", "warnings", "execution_ms", "created_at", "updated_at"}).
		AddRow("gen-2", "2026", 11, nil, nil, "failed", false, []byte(`{}`), nil, nil, 80, time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, school_year, .+ FROM generation_records WHERE 1=1 AND school_year = \\$1 AND status = \\$2 ORDER BY created_at DESC LIMIT 20 OFFSET 0").
		WithArgs("2026", status).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM generation_records WHERE 1=1 AND school_year = $1 AND status = $2")).
		WithArgs("2026", status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	records, total, err := repo.List(context.Background(), models.GenerationFilter{SchoolYear: "2026", Status: &status})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationRepositoryInsertEntries(t *testing.T) {
	db, mock, cleanup := newGenerationRepoMock(t)
	defer cleanup()
	repo := NewGenerationRepository(db)

	mock.ExpectExec("INSERT INTO schedule_entries").
		WillReturnResult(sqlmock.NewResult(2, 2))

	entries := []models.ScheduleEntry{
		{GenerationID: "gen-1", ClassID: "class-1", TeacherID: "teacher-1", RoomID: "room-1", Grade: "1", Week: 10, Day: 1, Block: 1, StartTime: "08:00", EndTime: "09:00"},
		{GenerationID: "gen-1", ClassID: "class-2", TeacherID: "teacher-2", RoomID: "room-1", Grade: "1", Week: 10, Day: 1, Block: 2, StartTime: "09:00", EndTime: "10:00"},
	}
	require.NoError(t, repo.InsertEntries(context.Background(), entries))
	assert.NotEmpty(t, entries[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationRepositoryInsertEntriesEmptyIsNoop(t *testing.T) {
	db, mock, cleanup := newGenerationRepoMock(t)
	defer cleanup()
	repo := NewGenerationRepository(db)

	require.NoError(t, repo.InsertEntries(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationRepositoryListEntries(t *testing.T) {
	db, mock, cleanup := newGenerationRepoMock(t)
	defer cleanup()
	repo := NewGenerationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "generation_id", "class_id", "teacher_id", "room_id", "grade", "week", "day", "block", "start_time", "end_time", "created_at"}).
		AddRow("e-1", "gen-1", "class-1", "teacher-1", "room-1", "1", 10, 1, 1, "08:00", "09:00", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM schedule_entries WHERE generation_id = $1 ORDER BY day ASC, block ASC, class_id ASC")).
		WithArgs("gen-1").
		WillReturnRows(rows)

	entries, err := repo.ListEntries(context.Background(), "gen-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "class-1", entries[0].ClassID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
