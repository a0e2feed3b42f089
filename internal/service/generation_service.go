package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/andino-edu/horario-api/internal/dto"
	"github.com/andino-edu/horario-api/internal/models"
	appErrors "github.com/andino-edu/horario-api/pkg/errors"
	"github.com/andino-edu/horario-api/pkg/jobs"
)

type generationTeacherReader interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
	ListQualifications(ctx context.Context) ([]models.TeacherSubjectQualification, error)
}

type generationClassReader interface {
	ListSections(ctx context.Context, grade string) ([]models.ClassSection, error)
	ListRequirements(ctx context.Context) ([]models.ClassRequirement, error)
	ListEnrollments(ctx context.Context) ([]models.ClassEnrollment, error)
}

type generationRoomReader interface {
	ListActive(ctx context.Context) ([]models.Room, error)
}

type generationConfigReader interface {
	FindActive(ctx context.Context, schoolYear string) (*models.ScheduleConfiguration, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleConfiguration, error)
}

type generationConstraintReader interface {
	ListHardActive(ctx context.Context, schoolYear string) ([]models.HardConstraint, error)
	ListSoftActive(ctx context.Context, schoolYear string) ([]models.SoftConstraint, error)
}

type generationStudentReader interface {
	ListActive(ctx context.Context) ([]models.Student, error)
}

type englishConfigReader interface {
	ListLevelConfigs(ctx context.Context, schoolYear string) ([]models.EnglishLevelConfig, error)
	ListTeacherAssignments(ctx context.Context, schoolYear string) ([]models.EnglishTeacherAssignment, error)
	ListRoomAssignments(ctx context.Context, schoolYear string) ([]models.EnglishRoomAssignment, error)
}

type generationStore interface {
	Create(ctx context.Context, record *models.GenerationRecord) error
	Finalize(ctx context.Context, id string, status models.GenerationStatus, feasible bool, stats types.JSONText, errorMessage *string, warnings types.JSONText, executionMs int64) error
	FindByID(ctx context.Context, id string) (*models.GenerationRecord, error)
	List(ctx context.Context, filter models.GenerationFilter) ([]models.GenerationRecord, int, error)
	InsertEntries(ctx context.Context, entries []models.ScheduleEntry) error
	ListEntries(ctx context.Context, generationID string) ([]models.ScheduleEntry, error)
}

type resultCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type generationObserver interface {
	ObserveGenerationRun(status models.GenerationStatus, feasible bool, duration time.Duration, conflicts int)
}

// RunError carries the generation id alongside the underlying failure so
// callers can correlate the error with the persisted record.
type RunError struct {
	GenerationID string
	Err          error
}

// Error implements the error interface.
func (e *RunError) Error() string {
	return fmt.Sprintf("generation %s: %v", e.GenerationID, e.Err)
}

// Unwrap returns the wrapped error.
func (e *RunError) Unwrap() error {
	return e.Err
}

// GenerationService orchestrates timetable runs: it snapshots inputs, drives
// the solver, and guarantees every generation record reaches a terminal state.
type GenerationService struct {
	teachers    generationTeacherReader
	classes     generationClassReader
	rooms       generationRoomReader
	configs     generationConfigReader
	constraints generationConstraintReader
	students    generationStudentReader
	english     englishConfigReader
	store       generationStore
	cache       resultCache
	queue       jobDispatcher
	observer    generationObserver
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         GenerationConfig
}

// GenerationConfig tunes run behaviour.
type GenerationConfig struct {
	LoadTimeout           time.Duration
	EnglishSessionMinutes int
	ResultCacheTTL        time.Duration
}

// NewGenerationService wires orchestration dependencies.
func NewGenerationService(
	teachers generationTeacherReader,
	classes generationClassReader,
	rooms generationRoomReader,
	configs generationConfigReader,
	constraints generationConstraintReader,
	students generationStudentReader,
	english englishConfigReader,
	store generationStore,
	cache resultCache,
	queue jobDispatcher,
	observer generationObserver,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg GenerationConfig,
) *GenerationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = 15 * time.Second
	}
	if cfg.EnglishSessionMinutes <= 0 {
		cfg.EnglishSessionMinutes = defaultEnglishSessionMinutes
	}
	if cfg.ResultCacheTTL <= 0 {
		cfg.ResultCacheTTL = 10 * time.Minute
	}
	return &GenerationService{
		teachers:    teachers,
		classes:     classes,
		rooms:       rooms,
		configs:     configs,
		constraints: constraints,
		students:    students,
		english:     english,
		store:       store,
		cache:       cache,
		queue:       queue,
		observer:    observer,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
}

// Generate runs a timetable generation synchronously. Invalid requests fail
// before any record is created; once a record exists it always ends in
// `completed` or `failed`, never `generating`.
func (s *GenerationService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "schoolYear and week are required")
	}

	record, err := s.createRecord(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, record, req)
}

// EnqueueGenerate creates the run record and hands the work to the queue;
// callers poll the record for the terminal result.
func (s *GenerationService) EnqueueGenerate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.AsyncGenerateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "schoolYear and week are required")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "generation queue unavailable")
	}

	record, err := s.createRecord(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.queue.Enqueue(jobs.Job{ID: record.ID, Type: jobTypeGeneration, Payload: req}); err != nil {
		s.failRecord(ctx, record.ID, 0, "failed to enqueue generation")
		return nil, &RunError{GenerationID: record.ID, Err: appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue generation")}
	}
	return &dto.AsyncGenerateResponse{GenerationID: record.ID, Status: string(models.GenerationStatusGenerating)}, nil
}

// Get returns a generation record; terminal records are served from cache
// when possible.
func (s *GenerationService) Get(ctx context.Context, id string) (*models.GenerationRecord, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "generation id is required")
	}

	cacheKey := generationCacheKey(id)
	if s.cache != nil {
		var cached models.GenerationRecord
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	record, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "generation record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load generation record")
	}

	if s.cache != nil && record.Status.Terminal() {
		if err := s.cache.Set(ctx, cacheKey, record, s.cfg.ResultCacheTTL); err != nil {
			s.logger.Sugar().Warnw("failed to cache generation record", "generation_id", id, "error", err)
		}
	}
	return record, nil
}

// List returns generation records matching the query.
func (s *GenerationService) List(ctx context.Context, query dto.GenerationListQuery) ([]models.GenerationRecord, *models.Pagination, error) {
	filter := models.GenerationFilter{
		SchoolYear: query.SchoolYear,
		Week:       query.Week,
		Page:       query.Page,
		PageSize:   query.PageSize,
	}
	if query.Status != "" {
		status := models.GenerationStatus(query.Status)
		switch status {
		case models.GenerationStatusGenerating, models.GenerationStatusCompleted, models.GenerationStatusFailed:
			filter.Status = &status
		default:
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown status "+query.Status)
		}
	}

	records, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list generation records")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return records, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Entries returns the committed placements of a run.
func (s *GenerationService) Entries(ctx context.Context, id string) ([]models.ScheduleEntry, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.store.ListEntries(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule entries")
	}
	return entries, nil
}

func (s *GenerationService) createRecord(ctx context.Context, req dto.GenerateScheduleRequest) (*models.GenerationRecord, error) {
	record := &models.GenerationRecord{
		SchoolYear: req.SchoolYear,
		Week:       req.Week,
		Status:     models.GenerationStatusGenerating,
	}
	if req.Grade != "" {
		grade := req.Grade
		record.Grade = &grade
	}
	if req.ConfigurationID != "" {
		configID := req.ConfigurationID
		record.ConfigurationID = &configID
	}
	if err := s.store.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create generation record")
	}
	return record, nil
}

// execute runs the load-solve-persist pipeline. Every failure path finalizes
// the record before surfacing the error with the generation id attached.
func (s *GenerationService) execute(ctx context.Context, record *models.GenerationRecord, req dto.GenerateScheduleRequest) (resp *dto.GenerateScheduleResponse, err error) {
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = appErrors.Wrap(fmt.Errorf("panic: %v", r), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "unexpected failure during generation")
		}
		elapsed := time.Since(started)
		if err != nil {
			s.failRecord(ctx, record.ID, elapsed.Milliseconds(), appErrors.FromError(err).Message)
			s.observe(models.GenerationStatusFailed, false, elapsed, 0)
			err = &RunError{GenerationID: record.ID, Err: err}
		}
	}()

	inputs, err := s.loadInputs(ctx, req)
	if err != nil {
		return nil, err
	}

	result := solveTimetable(inputs)
	elapsed := time.Since(started)

	entries := buildScheduleEntries(inputs, result, record.ID, s.cfg.EnglishSessionMinutes)
	stats := buildStatistics(result)
	stats.ExecutionMs = elapsed.Milliseconds()
	feasible := len(result.Conflicts) == 0

	if err = s.store.InsertEntries(ctx, entries); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist schedule entries")
	}

	statsJSON, marshalErr := json.Marshal(stats)
	if marshalErr != nil {
		err = appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode statistics")
		return nil, err
	}
	warningsJSON := conflictWarnings(result.Conflicts)

	status := models.GenerationStatusCompleted
	if !feasible {
		status = models.GenerationStatusFailed
	}
	if err = s.store.Finalize(ctx, record.ID, status, feasible, statsJSON, nil, warningsJSON, stats.ExecutionMs); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize generation record")
		return nil, err
	}

	s.observe(status, feasible, elapsed, len(result.Conflicts))
	s.logger.Sugar().Infow("generation finished",
		"generation_id", record.ID,
		"status", status,
		"feasible", feasible,
		"assignments", stats.TotalAssignments,
		"conflicts", len(stats.Conflicts),
		"execution_ms", stats.ExecutionMs,
	)

	return &dto.GenerateScheduleResponse{
		GenerationID: record.ID,
		Feasible:     feasible,
		Entries:      entriesToDTO(entries),
		Statistics: dto.ScheduleStatisticsResponse{
			TotalAssignments: stats.TotalAssignments,
			TeachersAssigned: stats.TeachersAssigned,
			RoomsUsed:        stats.RoomsUsed,
			Conflicts:        stats.Conflicts,
			SoftViolations:   stats.SoftViolations,
			ExecutionMs:      stats.ExecutionMs,
		},
	}, nil
}

// loadInputs fans the independent reads out concurrently, joins them under a
// bounded timeout, and verifies the reference data is complete.
func (s *GenerationService) loadInputs(ctx context.Context, req dto.GenerateScheduleRequest) (*scheduleInputs, error) {
	loadCtx, cancel := context.WithTimeout(ctx, s.cfg.LoadTimeout)
	defer cancel()

	inputs := &scheduleInputs{
		SchoolYear:      req.SchoolYear,
		Week:            req.Week,
		Now:             time.Now().UTC(),
		LeveledGrades:   map[string]bool{},
		EnglishTeachers: map[string]string{},
		EnglishRooms:    map[string]string{},
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	load := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(loadCtx); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("load %s: %w", name, err)
				}
				mu.Unlock()
			}
		}()
	}

	var (
		levelConfigs       []models.EnglishLevelConfig
		teacherAssignments []models.EnglishTeacherAssignment
		roomAssignments    []models.EnglishRoomAssignment
		enrollments        []models.ClassEnrollment
	)

	load("teachers", func(ctx context.Context) error {
		var err error
		inputs.Teachers, err = s.teachers.ListActive(ctx)
		return err
	})
	load("qualifications", func(ctx context.Context) error {
		var err error
		inputs.Qualifications, err = s.teachers.ListQualifications(ctx)
		return err
	})
	load("sections", func(ctx context.Context) error {
		var err error
		inputs.Sections, err = s.classes.ListSections(ctx, req.Grade)
		return err
	})
	load("requirements", func(ctx context.Context) error {
		var err error
		inputs.Requirements, err = s.classes.ListRequirements(ctx)
		return err
	})
	load("enrollments", func(ctx context.Context) error {
		var err error
		enrollments, err = s.classes.ListEnrollments(ctx)
		return err
	})
	load("rooms", func(ctx context.Context) error {
		var err error
		inputs.Rooms, err = s.rooms.ListActive(ctx)
		return err
	})
	load("configuration", func(ctx context.Context) error {
		var err error
		if req.ConfigurationID != "" {
			inputs.Config, err = s.configs.FindByID(ctx, req.ConfigurationID)
		} else {
			inputs.Config, err = s.configs.FindActive(ctx, req.SchoolYear)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return errNoConfiguration
		}
		return err
	})
	load("hard constraints", func(ctx context.Context) error {
		var err error
		inputs.HardConstraints, err = s.constraints.ListHardActive(ctx, req.SchoolYear)
		return err
	})
	load("soft constraints", func(ctx context.Context) error {
		var err error
		inputs.SoftConstraints, err = s.constraints.ListSoftActive(ctx, req.SchoolYear)
		return err
	})
	load("students", func(ctx context.Context) error {
		var err error
		inputs.Students, err = s.students.ListActive(ctx)
		return err
	})
	load("english level configs", func(ctx context.Context) error {
		var err error
		levelConfigs, err = s.english.ListLevelConfigs(ctx, req.SchoolYear)
		return err
	})
	load("english teacher assignments", func(ctx context.Context) error {
		var err error
		teacherAssignments, err = s.english.ListTeacherAssignments(ctx, req.SchoolYear)
		return err
	})
	load("english room assignments", func(ctx context.Context) error {
		var err error
		roomAssignments, err = s.english.ListRoomAssignments(ctx, req.SchoolYear)
		return err
	})

	wg.Wait()
	if firstErr != nil {
		if errors.Is(firstErr, errNoConfiguration) {
			return nil, appErrors.Clone(appErrors.ErrDataIntegrity, "no schedule configuration found for "+req.SchoolYear)
		}
		return nil, appErrors.Wrap(firstErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scheduling inputs")
	}

	if len(inputs.Teachers) == 0 {
		return nil, appErrors.Clone(appErrors.ErrDataIntegrity, "no active teachers available")
	}
	if len(inputs.Rooms) == 0 {
		return nil, appErrors.Clone(appErrors.ErrDataIntegrity, "no active rooms available")
	}
	if req.Grade != "" && len(inputs.Sections) == 0 {
		return nil, appErrors.Clone(appErrors.ErrDataIntegrity, "no classes found for grade "+req.Grade)
	}

	for _, lvl := range levelConfigs {
		if err := lvl.Validate(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrDataIntegrity.Code, appErrors.ErrDataIntegrity.Status, "invalid english level configuration")
		}
		inputs.LeveledGrades[lvl.Grade] = true
	}
	for _, ta := range teacherAssignments {
		if err := ta.Validate(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrDataIntegrity.Code, appErrors.ErrDataIntegrity.Status, "invalid english teacher assignment")
		}
		inputs.EnglishTeachers[ta.Level] = ta.TeacherID
	}
	for _, ra := range roomAssignments {
		if err := ra.Validate(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrDataIntegrity.Code, appErrors.ErrDataIntegrity.Status, "invalid english room assignment")
		}
		inputs.EnglishRooms[ra.Level] = ra.RoomID
	}

	byClass := map[string][]string{}
	for _, e := range enrollments {
		byClass[e.ClassID] = append(byClass[e.ClassID], e.StudentID)
	}
	for i := range inputs.Sections {
		inputs.Sections[i].StudentIDs = byClass[inputs.Sections[i].ID]
	}

	if err := inputs.validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDataIntegrity.Code, appErrors.ErrDataIntegrity.Status, "invalid reference data: "+err.Error())
	}
	return inputs, nil
}

func (s *GenerationService) failRecord(ctx context.Context, id string, executionMs int64, message string) {
	msg := message
	if err := s.store.Finalize(ctx, id, models.GenerationStatusFailed, false, nil, &msg, nil, executionMs); err != nil {
		s.logger.Sugar().Errorw("failed to mark generation as failed", "generation_id", id, "error", err)
	}
}

func (s *GenerationService) observe(status models.GenerationStatus, feasible bool, duration time.Duration, conflicts int) {
	if s.observer != nil {
		s.observer.ObserveGenerationRun(status, feasible, duration, conflicts)
	}
}

func conflictWarnings(conflicts []placementConflict) types.JSONText {
	if len(conflicts) == 0 {
		return nil
	}
	type warning struct {
		ClassID string `json:"classId"`
		Reason  string `json:"reason"`
	}
	warnings := make([]warning, 0, len(conflicts))
	for _, c := range conflicts {
		warnings = append(warnings, warning{ClassID: c.ClassID, Reason: c.Reason})
	}
	payload, err := json.Marshal(warnings)
	if err != nil {
		return nil
	}
	return payload
}

func entriesToDTO(entries []models.ScheduleEntry) []dto.ScheduleEntryResponse {
	out := make([]dto.ScheduleEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.ScheduleEntryResponse{
			ClassID:   e.ClassID,
			TeacherID: e.TeacherID,
			RoomID:    e.RoomID,
			Grade:     e.Grade,
			Week:      e.Week,
			Day:       e.Day,
			StartTime: e.StartTime,
			EndTime:   e.EndTime,
		})
	}
	return out
}

func generationCacheKey(id string) string {
	return "generation:" + id
}

var errNoConfiguration = errors.New("no matching schedule configuration")

const jobTypeGeneration = "schedule_generation"

// GenerationWorker bridges queued jobs to the generation pipeline.
type GenerationWorker struct {
	service *GenerationService
	logger  *zap.Logger
}

// NewGenerationWorker constructs the worker.
func NewGenerationWorker(service *GenerationService, logger *zap.Logger) *GenerationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationWorker{service: service, logger: logger}
}

// Handle executes one queued generation run. The record already exists in
// `generating` state; the pipeline finalizes it on every path, so a handler
// error only signals the queue, it never strands the record.
func (w *GenerationWorker) Handle(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.GenerateScheduleRequest)
	if !ok {
		w.logger.Sugar().Errorw("unexpected generation job payload", "job_id", job.ID)
		w.service.failRecord(ctx, job.ID, 0, "unreadable generation job payload")
		return nil
	}

	record := &models.GenerationRecord{ID: job.ID, SchoolYear: req.SchoolYear, Week: req.Week}
	if _, err := w.service.execute(ctx, record, req); err != nil {
		w.logger.Sugar().Warnw("queued generation failed", "generation_id", job.ID, "error", err)
	}
	return nil
}
