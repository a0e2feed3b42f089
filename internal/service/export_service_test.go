package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andino-edu/horario-api/internal/models"
	appErrors "github.com/andino-edu/horario-api/pkg/errors"
)

func TestExportServiceRendersCSV(t *testing.T) {
	reader := &exportReaderStub{
		record: &models.GenerationRecord{ID: "gen-1", SchoolYear: "2026", Week: 10, Status: models.GenerationStatusCompleted},
		entries: []models.ScheduleEntry{
			{ClassID: "class-1", TeacherID: "teacher-1", RoomID: "room-1", Grade: "1", Week: 10, Day: 1, StartTime: "08:00", EndTime: "09:00"},
		},
	}
	service := NewExportService(reader, 100, zap.NewNop())

	result, err := service.Export(context.Background(), "gen-1", ExportFormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "schedule-gen-1.csv", result.FileName)
	assert.Equal(t, "text/csv", result.ContentType)
	lines := strings.Split(strings.TrimSpace(string(result.Content)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "class_id,teacher_id,room_id,grade,week,day,start_time,end_time", lines[0])
	assert.Equal(t, "class-1,teacher-1,room-1,1,10,1,08:00,09:00", lines[1])
}

func TestExportServiceRendersPDF(t *testing.T) {
	reader := &exportReaderStub{
		record: &models.GenerationRecord{ID: "gen-1", SchoolYear: "2026", Week: 10, Status: models.GenerationStatusCompleted},
	}
	service := NewExportService(reader, 100, zap.NewNop())

	result, err := service.Export(context.Background(), "gen-1", ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.NotEmpty(t, result.Content)
}

func TestExportServiceRejectsRunningGeneration(t *testing.T) {
	reader := &exportReaderStub{
		record: &models.GenerationRecord{ID: "gen-1", Status: models.GenerationStatusGenerating},
	}
	service := NewExportService(reader, 100, zap.NewNop())

	_, err := service.Export(context.Background(), "gen-1", ExportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	reader := &exportReaderStub{
		record: &models.GenerationRecord{ID: "gen-1", Status: models.GenerationStatusCompleted},
	}
	service := NewExportService(reader, 100, zap.NewNop())

	_, err := service.Export(context.Background(), "gen-1", ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceEnforcesRowLimit(t *testing.T) {
	reader := &exportReaderStub{
		record: &models.GenerationRecord{ID: "gen-1", Status: models.GenerationStatusCompleted},
		entries: []models.ScheduleEntry{
			{ClassID: "class-1"}, {ClassID: "class-2"}, {ClassID: "class-3"},
		},
	}
	service := NewExportService(reader, 2, zap.NewNop())

	_, err := service.Export(context.Background(), "gen-1", ExportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

type exportReaderStub struct {
	record  *models.GenerationRecord
	entries []models.ScheduleEntry
}

func (s *exportReaderStub) Get(ctx context.Context, id string) (*models.GenerationRecord, error) {
	if s.record == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "generation record not found")
	}
	return s.record, nil
}

func (s *exportReaderStub) Entries(ctx context.Context, id string) ([]models.ScheduleEntry, error) {
	return s.entries, nil
}
