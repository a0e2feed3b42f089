package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/andino-edu/horario-api/internal/models"
	appErrors "github.com/andino-edu/horario-api/pkg/errors"
	"github.com/andino-edu/horario-api/pkg/export"
)

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type exportGenerationReader interface {
	Get(ctx context.Context, id string) (*models.GenerationRecord, error)
	Entries(ctx context.Context, id string) ([]models.ScheduleEntry, error)
}

// ExportResult carries the rendered document and its HTTP metadata.
type ExportResult struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ExportService renders a finished generation's timetable as CSV or PDF.
type ExportService struct {
	generations exportGenerationReader
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	maxRows     int
	logger      *zap.Logger
}

// NewExportService wires the exporters.
func NewExportService(generations exportGenerationReader, maxRows int, logger *zap.Logger) *ExportService {
	if maxRows <= 0 {
		maxRows = 5000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		generations: generations,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		maxRows:     maxRows,
		logger:      logger,
	}
}

var exportHeaders = []string{"class_id", "teacher_id", "room_id", "grade", "week", "day", "start_time", "end_time"}

// Export renders the entries of a terminal generation. Runs still in
// progress cannot be exported.
func (s *ExportService) Export(ctx context.Context, generationID string, format ExportFormat) (*ExportResult, error) {
	record, err := s.generations.Get(ctx, generationID)
	if err != nil {
		return nil, err
	}
	if !record.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "generation is still running")
	}

	entries, err := s.generations.Entries(ctx, generationID)
	if err != nil {
		return nil, err
	}
	if len(entries) > s.maxRows {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("export exceeds %d rows", s.maxRows))
	}

	dataset := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(entries))}
	for _, e := range entries {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"class_id":   e.ClassID,
			"teacher_id": e.TeacherID,
			"room_id":    e.RoomID,
			"grade":      e.Grade,
			"week":       strconv.Itoa(e.Week),
			"day":        strconv.Itoa(e.Day),
			"start_time": e.StartTime,
			"end_time":   e.EndTime,
		})
	}

	switch format {
	case ExportFormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("schedule-%s.csv", record.ID),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case ExportFormatPDF:
		title := fmt.Sprintf("Schedule %s week %d", record.SchoolYear, record.Week)
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("schedule-%s.pdf", record.ID),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format "+string(format))
	}
}
