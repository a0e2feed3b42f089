package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andino-edu/horario-api/internal/dto"
	"github.com/andino-edu/horario-api/internal/models"
	appErrors "github.com/andino-edu/horario-api/pkg/errors"
	"github.com/andino-edu/horario-api/pkg/jobs"
)

func TestGenerationServiceGenerateSuccess(t *testing.T) {
	fixture := newGenerationFixture(t)
	service := fixture.build()

	resp, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{SchoolYear: "2026", Week: 10})
	require.NoError(t, err)

	assert.True(t, resp.Feasible)
	assert.Len(t, resp.Entries, 2)
	assert.Equal(t, 2, resp.Statistics.TotalAssignments)
	assert.Empty(t, resp.Statistics.Conflicts)

	record := fixture.store.records[resp.GenerationID]
	require.NotNil(t, record)
	assert.Equal(t, models.GenerationStatusCompleted, record.Status)
	assert.True(t, record.Feasible)
	assert.Len(t, fixture.store.entries[resp.GenerationID], 2)

	var stats models.ScheduleStatistics
	require.NoError(t, json.Unmarshal(record.Stats, &stats))
	assert.Equal(t, 2, stats.TotalAssignments)
}

func TestGenerationServiceGenerateRejectsInvalidRequestWithoutRecord(t *testing.T) {
	fixture := newGenerationFixture(t)
	service := fixture.build()

	_, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{SchoolYear: "2026"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, fixture.store.records, "no record may exist for a rejected request")
}

func TestGenerationServiceGenerateNoTeachersFinalizesFailed(t *testing.T) {
	fixture := newGenerationFixture(t)
	fixture.teachers.teachers = nil
	service := fixture.build()

	_, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{SchoolYear: "2026", Week: 10})
	require.Error(t, err)

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, appErrors.ErrDataIntegrity.Code, appErrors.FromError(err).Code)

	record := fixture.store.records[runErr.GenerationID]
	require.NotNil(t, record)
	assert.Equal(t, models.GenerationStatusFailed, record.Status)
	assert.False(t, record.Feasible)
	require.NotNil(t, record.ErrorMessage)
}

func TestGenerationServiceGenerateUnknownGradeFinalizesFailed(t *testing.T) {
	fixture := newGenerationFixture(t)
	fixture.classes.sections = nil
	service := fixture.build()

	_, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{SchoolYear: "2026", Week: 10, Grade: "3"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDataIntegrity.Code, appErrors.FromError(err).Code)

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, models.GenerationStatusFailed, fixture.store.records[runErr.GenerationID].Status)
}

func TestGenerationServicePartialScheduleCompletesAsFailed(t *testing.T) {
	fixture := newGenerationFixture(t)
	// class-2 has no qualified teacher; the run degrades instead of erroring.
	fixture.teachers.qualifications = []models.TeacherSubjectQualification{
		{ID: "q-1", TeacherID: "teacher-1", Subject: "MATH"},
	}
	service := fixture.build()

	resp, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{SchoolYear: "2026", Week: 10})
	require.NoError(t, err)

	assert.False(t, resp.Feasible)
	assert.Len(t, resp.Entries, 1)
	assert.Equal(t, []string{"class-2"}, resp.Statistics.Conflicts)

	record := fixture.store.records[resp.GenerationID]
	assert.Equal(t, models.GenerationStatusFailed, record.Status)
	assert.False(t, record.Feasible)
	assert.NotEmpty(t, record.Warnings)
}

func TestGenerationServiceNoRecordLeftGenerating(t *testing.T) {
	fixture := newGenerationFixture(t)
	fixture.store.insertErr = fmt.Errorf("disk full")
	service := fixture.build()

	_, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{SchoolYear: "2026", Week: 10})
	require.Error(t, err)

	for id, record := range fixture.store.records {
		assert.True(t, record.Status.Terminal(), "record %s left in %s", id, record.Status)
	}
}

func TestGenerationServiceEnqueueGenerate(t *testing.T) {
	fixture := newGenerationFixture(t)
	service := fixture.build()

	ack, err := service.EnqueueGenerate(context.Background(), dto.GenerateScheduleRequest{SchoolYear: "2026", Week: 10})
	require.NoError(t, err)

	assert.Equal(t, string(models.GenerationStatusGenerating), ack.Status)
	require.Len(t, fixture.queue.jobs, 1)
	assert.Equal(t, ack.GenerationID, fixture.queue.jobs[0].ID)
}

func TestGenerationServiceEnqueueFailureFinalizesRecord(t *testing.T) {
	fixture := newGenerationFixture(t)
	fixture.queue.err = fmt.Errorf("queue stopped")
	service := fixture.build()

	_, err := service.EnqueueGenerate(context.Background(), dto.GenerateScheduleRequest{SchoolYear: "2026", Week: 10})
	require.Error(t, err)

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, models.GenerationStatusFailed, fixture.store.records[runErr.GenerationID].Status)
}

func TestGenerationWorkerRunsQueuedJob(t *testing.T) {
	fixture := newGenerationFixture(t)
	service := fixture.build()
	worker := NewGenerationWorker(service, zap.NewNop())

	ack, err := service.EnqueueGenerate(context.Background(), dto.GenerateScheduleRequest{SchoolYear: "2026", Week: 10})
	require.NoError(t, err)

	require.NoError(t, worker.Handle(context.Background(), fixture.queue.jobs[0]))

	record := fixture.store.records[ack.GenerationID]
	assert.Equal(t, models.GenerationStatusCompleted, record.Status)
	assert.True(t, record.Feasible)
}

func TestGenerationServiceGetCachesTerminalRecords(t *testing.T) {
	fixture := newGenerationFixture(t)
	service := fixture.build()

	resp, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{SchoolYear: "2026", Week: 10})
	require.NoError(t, err)

	record, err := service.Get(context.Background(), resp.GenerationID)
	require.NoError(t, err)
	assert.Equal(t, resp.GenerationID, record.ID)
	assert.Contains(t, fixture.cache.items, generationCacheKey(resp.GenerationID))

	// A cached record is served even after the store forgets it.
	delete(fixture.store.records, resp.GenerationID)
	record, err = service.Get(context.Background(), resp.GenerationID)
	require.NoError(t, err)
	assert.Equal(t, resp.GenerationID, record.ID)
}

func TestGenerationServiceGetNotFound(t *testing.T) {
	fixture := newGenerationFixture(t)
	service := fixture.build()

	_, err := service.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGenerationServiceListRejectsUnknownStatus(t *testing.T) {
	fixture := newGenerationFixture(t)
	service := fixture.build()

	_, _, err := service.List(context.Background(), dto.GenerationListQuery{Status: "archived"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

// --- Fixtures ---

type generationFixture struct {
	teachers    *teacherReaderStub
	classes     *classReaderStub
	rooms       *roomReaderStub
	configs     *configReaderStub
	constraints *constraintReaderStub
	students    *studentReaderStub
	english     *englishReaderStub
	store       *generationStoreStub
	cache       *cacheStub
	queue       *dispatcherStub
}

func newGenerationFixture(t *testing.T) *generationFixture {
	t.Helper()

	blocks := []models.TimeBlock{
		{ID: "block-1", ConfigurationID: "config-1", Index: 1, StartTime: "08:00", EndTime: "09:00"},
		{ID: "block-2", ConfigurationID: "config-1", Index: 2, StartTime: "09:00", EndTime: "10:00"},
	}

	return &generationFixture{
		teachers: &teacherReaderStub{
			teachers: []models.Teacher{
				{ID: "teacher-1", FullName: "Ana Rojas", Active: true},
				{ID: "teacher-2", FullName: "Bruno Soto", Active: true},
			},
			qualifications: []models.TeacherSubjectQualification{
				{ID: "q-1", TeacherID: "teacher-1", Subject: "MATH"},
				{ID: "q-2", TeacherID: "teacher-2", Subject: "SCIENCE"},
			},
		},
		classes: &classReaderStub{
			sections: []models.ClassSection{
				{ID: "class-1", Name: "1A Math", Subject: "MATH", Grade: "1"},
				{ID: "class-2", Name: "1A Science", Subject: "SCIENCE", Grade: "1"},
			},
		},
		rooms: &roomReaderStub{rooms: []models.Room{
			{ID: "room-1", Name: "Sala 1", Capacity: 30, Type: "STANDARD", Active: true},
		}},
		configs: &configReaderStub{config: &models.ScheduleConfiguration{
			ID:          "config-1",
			SchoolYear:  "2026",
			Name:        "Default",
			DaysPerWeek: 5,
			Active:      true,
			Blocks:      blocks,
		}},
		constraints: &constraintReaderStub{},
		students:    &studentReaderStub{},
		english:     &englishReaderStub{},
		store:       newGenerationStoreStub(),
		cache:       newCacheStub(),
		queue:       &dispatcherStub{},
	}
}

func (f *generationFixture) build() *GenerationService {
	return NewGenerationService(
		f.teachers,
		f.classes,
		f.rooms,
		f.configs,
		f.constraints,
		f.students,
		f.english,
		f.store,
		f.cache,
		f.queue,
		nil,
		validator.New(),
		zap.NewNop(),
		GenerationConfig{LoadTimeout: 5 * time.Second, EnglishSessionMinutes: 45, ResultCacheTTL: time.Minute},
	)
}

type teacherReaderStub struct {
	teachers       []models.Teacher
	qualifications []models.TeacherSubjectQualification
}

func (s *teacherReaderStub) ListActive(ctx context.Context) ([]models.Teacher, error) {
	return s.teachers, nil
}

func (s *teacherReaderStub) ListQualifications(ctx context.Context) ([]models.TeacherSubjectQualification, error) {
	return s.qualifications, nil
}

type classReaderStub struct {
	sections     []models.ClassSection
	requirements []models.ClassRequirement
	enrollments  []models.ClassEnrollment
}

func (s *classReaderStub) ListSections(ctx context.Context, grade string) ([]models.ClassSection, error) {
	if grade == "" {
		return s.sections, nil
	}
	var out []models.ClassSection
	for _, section := range s.sections {
		if section.Grade == grade {
			out = append(out, section)
		}
	}
	return out, nil
}

func (s *classReaderStub) ListRequirements(ctx context.Context) ([]models.ClassRequirement, error) {
	return s.requirements, nil
}

func (s *classReaderStub) ListEnrollments(ctx context.Context) ([]models.ClassEnrollment, error) {
	return s.enrollments, nil
}

type roomReaderStub struct {
	rooms []models.Room
}

func (s *roomReaderStub) ListActive(ctx context.Context) ([]models.Room, error) {
	return s.rooms, nil
}

type configReaderStub struct {
	config *models.ScheduleConfiguration
}

func (s *configReaderStub) FindActive(ctx context.Context, schoolYear string) (*models.ScheduleConfiguration, error) {
	if s.config == nil {
		return nil, sql.ErrNoRows
	}
	return s.config, nil
}

func (s *configReaderStub) FindByID(ctx context.Context, id string) (*models.ScheduleConfiguration, error) {
	if s.config == nil || s.config.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.config, nil
}

type constraintReaderStub struct {
	hard []models.HardConstraint
	soft []models.SoftConstraint
}

func (s *constraintReaderStub) ListHardActive(ctx context.Context, schoolYear string) ([]models.HardConstraint, error) {
	return s.hard, nil
}

func (s *constraintReaderStub) ListSoftActive(ctx context.Context, schoolYear string) ([]models.SoftConstraint, error) {
	return s.soft, nil
}

type studentReaderStub struct {
	students []models.Student
}

func (s *studentReaderStub) ListActive(ctx context.Context) ([]models.Student, error) {
	return s.students, nil
}

type englishReaderStub struct {
	levels   []models.EnglishLevelConfig
	teachers []models.EnglishTeacherAssignment
	rooms    []models.EnglishRoomAssignment
}

func (s *englishReaderStub) ListLevelConfigs(ctx context.Context, schoolYear string) ([]models.EnglishLevelConfig, error) {
	return s.levels, nil
}

func (s *englishReaderStub) ListTeacherAssignments(ctx context.Context, schoolYear string) ([]models.EnglishTeacherAssignment, error) {
	return s.teachers, nil
}

func (s *englishReaderStub) ListRoomAssignments(ctx context.Context, schoolYear string) ([]models.EnglishRoomAssignment, error) {
	return s.rooms, nil
}

type generationStoreStub struct {
	records   map[string]*models.GenerationRecord
	entries   map[string][]models.ScheduleEntry
	insertErr error
}

func newGenerationStoreStub() *generationStoreStub {
	return &generationStoreStub{
		records: map[string]*models.GenerationRecord{},
		entries: map[string][]models.ScheduleEntry{},
	}
}

func (s *generationStoreStub) Create(ctx context.Context, record *models.GenerationRecord) error {
	if record.ID == "" {
		record.ID = fmt.Sprintf("gen-%d", len(s.records)+1)
	}
	record.Status = models.GenerationStatusGenerating
	record.CreatedAt = time.Now().UTC()
	stored := *record
	s.records[record.ID] = &stored
	return nil
}

func (s *generationStoreStub) Finalize(ctx context.Context, id string, status models.GenerationStatus, feasible bool, stats types.JSONText, errorMessage *string, warnings types.JSONText, executionMs int64) error {
	record, ok := s.records[id]
	if !ok {
		return sql.ErrNoRows
	}
	record.Status = status
	record.Feasible = feasible
	record.Stats = stats
	record.ErrorMessage = errorMessage
	record.Warnings = warnings
	record.ExecutionMs = executionMs
	record.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *generationStoreStub) FindByID(ctx context.Context, id string) (*models.GenerationRecord, error) {
	record, ok := s.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	found := *record
	return &found, nil
}

func (s *generationStoreStub) List(ctx context.Context, filter models.GenerationFilter) ([]models.GenerationRecord, int, error) {
	var out []models.GenerationRecord
	for _, record := range s.records {
		out = append(out, *record)
	}
	return out, len(out), nil
}

func (s *generationStoreStub) InsertEntries(ctx context.Context, entries []models.ScheduleEntry) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	for _, entry := range entries {
		s.entries[entry.GenerationID] = append(s.entries[entry.GenerationID], entry)
	}
	return nil
}

func (s *generationStoreStub) ListEntries(ctx context.Context, generationID string) ([]models.ScheduleEntry, error) {
	return s.entries[generationID], nil
}

type cacheStub struct {
	items map[string][]byte
}

func newCacheStub() *cacheStub {
	return &cacheStub{items: map[string][]byte{}}
}

func (c *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.items[key] = raw
	return nil
}

type dispatcherStub struct {
	jobs []jobs.Job
	err  error
}

func (d *dispatcherStub) Enqueue(job jobs.Job) error {
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}
