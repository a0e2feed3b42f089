package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andino-edu/horario-api/internal/dto"
	"github.com/andino-edu/horario-api/internal/models"
	"github.com/andino-edu/horario-api/internal/service"
	appErrors "github.com/andino-edu/horario-api/pkg/errors"
	"github.com/andino-edu/horario-api/pkg/response"
)

type generationRunner interface {
	Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error)
	EnqueueGenerate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.AsyncGenerateResponse, error)
	Get(ctx context.Context, id string) (*models.GenerationRecord, error)
	List(ctx context.Context, query dto.GenerationListQuery) ([]models.GenerationRecord, *models.Pagination, error)
	Entries(ctx context.Context, id string) ([]models.ScheduleEntry, error)
}

type scheduleExporter interface {
	Export(ctx context.Context, generationID string, format service.ExportFormat) (*service.ExportResult, error)
}

// GenerationHandler manages schedule generation endpoints.
type GenerationHandler struct {
	generations generationRunner
	exports     scheduleExporter
}

// NewGenerationHandler constructs handler.
func NewGenerationHandler(generations generationRunner, exports scheduleExporter) *GenerationHandler {
	return &GenerationHandler{generations: generations, exports: exports}
}

// Generate godoc
// @Summary Generate a weekly timetable
// @Tags Generations
// @Accept json
// @Produce json
// @Param request body dto.GenerateScheduleRequest true "Generation parameters"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /schedule/generations [post]
func (h *GenerationHandler) Generate(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	result, err := h.generations.Generate(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Created(c, result)
}

// GenerateAsync godoc
// @Summary Queue a timetable generation
// @Tags Generations
// @Accept json
// @Produce json
// @Param request body dto.GenerateScheduleRequest true "Generation parameters"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedule/generations/async [post]
func (h *GenerationHandler) GenerateAsync(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	ack, err := h.generations.EnqueueGenerate(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, ack, nil)
}

// List godoc
// @Summary List generation records
// @Tags Generations
// @Produce json
// @Param schoolYear query string false "Filter by school year"
// @Param week query int false "Filter by week"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /schedule/generations [get]
func (h *GenerationHandler) List(c *gin.Context) {
	var query dto.GenerationListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}

	records, pagination, err := h.generations.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Get godoc
// @Summary Fetch a generation record
// @Tags Generations
// @Produce json
// @Param id path string true "Generation ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedule/generations/{id} [get]
func (h *GenerationHandler) Get(c *gin.Context) {
	record, err := h.generations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Entries godoc
// @Summary List the committed placements of a generation
// @Tags Generations
// @Produce json
// @Param id path string true "Generation ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedule/generations/{id}/entries [get]
func (h *GenerationHandler) Entries(c *gin.Context) {
	entries, err := h.generations.Entries(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Export godoc
// @Summary Export a generation's timetable
// @Tags Generations
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Generation ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedule/generations/{id}/export [get]
func (h *GenerationHandler) Export(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.exports.Export(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+result.FileName)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

// respondError attaches the generation id when a run failed after its record
// was created, so clients can still inspect the failed record.
func (h *GenerationHandler) respondError(c *gin.Context, err error) {
	var runErr *service.RunError
	if errors.As(err, &runErr) {
		response.ErrorWithMeta(c, runErr.Err, map[string]interface{}{"generationId": runErr.GenerationID})
		return
	}
	response.Error(c, err)
}
