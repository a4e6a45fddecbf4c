package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/eduscheduler-api/internal/dto"
	"github.com/noah-isme/eduscheduler-api/internal/models"
	"github.com/noah-isme/eduscheduler-api/internal/scheduler"
	appErrors "github.com/noah-isme/eduscheduler-api/pkg/errors"
)

type facultyReader interface {
	All(ctx context.Context) ([]models.Faculty, error)
}

type subjectReader interface {
	All(ctx context.Context) ([]models.Subject, error)
}

type classroomReader interface {
	All(ctx context.Context) ([]models.Classroom, error)
}

type batchReader interface {
	All(ctx context.Context) ([]models.Batch, error)
}

type rulesReader interface {
	Get(ctx context.Context) (*models.Rules, error)
}

type timetableRepository interface {
	Create(ctx context.Context, timetable *models.Timetable) error
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableSummary, int, error)
	Delete(ctx context.Context, id string) error
}

type timetableGenerator interface {
	Generate(snapshot models.EntitySnapshot, req scheduler.Request) (*models.Timetable, error)
}

// EntitySources are the stores a generation snapshot is read from.
type EntitySources struct {
	Faculty    facultyReader
	Subjects   subjectReader
	Classrooms classroomReader
	Batches    batchReader
	Rules      rulesReader
}

// TimetableOptions carries generator defaults from configuration.
type TimetableOptions struct {
	StrictAvailability bool
	Seed               int64
	CacheTTL           time.Duration
}

// TimetableService runs the generator against the entity store and manages stored timetables.
type TimetableService struct {
	sources    EntitySources
	timetables timetableRepository
	generator  timetableGenerator
	cache      *CacheService
	metrics    *MetricsService
	opts       TimetableOptions
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewTimetableService constructs the service.
func NewTimetableService(sources EntitySources, timetables timetableRepository, generator timetableGenerator, cache *CacheService, metrics *MetricsService, opts TimetableOptions, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		sources:    sources,
		timetables: timetables,
		generator:  generator,
		cache:      cache,
		metrics:    metrics,
		opts:       opts,
		validator:  validate,
		logger:     logger,
	}
}

func timetableCacheKey(id string) string {
	return "timetable:" + id
}

// timetableListPattern matches every cached page of List.
const timetableListPattern = "timetables:list:*"

func timetableListKey(page, size int) string {
	return fmt.Sprintf("timetables:list:%d:%d", page, size)
}

type cachedTimetablePage struct {
	Items      []models.TimetableSummary `json:"items"`
	Pagination *models.Pagination        `json:"pagination"`
}

// Generate snapshots the store, runs the generator and persists the result.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*models.Timetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid generation request")
	}

	days := make([]models.DayName, 0, len(req.Days))
	for _, raw := range req.Days {
		day, ok := models.ParseDayName(raw)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown day %q", raw))
		}
		days = append(days, day)
	}

	snapshot, err := s.Snapshot(ctx, req.BatchIDs)
	if err != nil {
		return nil, err
	}

	genReq := scheduler.Request{
		Title: req.Title,
		Grid: scheduler.GridConfig{
			Days:          days,
			PeriodsPerDay: req.PeriodsPerDay,
			StartTime:     req.StartTime,
			EndTime:       req.EndTime,
			SlotMinutes:   req.SlotMinutes,
		},
		StrictAvailability: s.opts.StrictAvailability,
	}
	if req.StrictAvailability != nil {
		genReq.StrictAvailability = *req.StrictAvailability
	}
	switch {
	case req.Seed != nil:
		seed := *req.Seed
		genReq.Seed = &seed
	case s.opts.Seed != 0:
		seed := s.opts.Seed
		genReq.Seed = &seed
	}

	start := time.Now()
	timetable, err := s.generator.Generate(*snapshot, genReq)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.ObserveGeneration(generationOutcome(err), elapsed, 0, 0)
		return nil, err
	}
	s.metrics.ObserveGeneration(OutcomeSuccess, elapsed, timetable.PlacedCount(), timetable.UnplacedCount)

	if err := s.timetables.Create(ctx, timetable); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store timetable")
	}
	s.cache.Set(ctx, timetableCacheKey(timetable.ID), timetable, s.opts.CacheTTL)
	s.cache.InvalidatePattern(ctx, timetableListPattern)
	return timetable, nil
}

// Snapshot copies the entity store. A non-empty batchIDs limits the batches
// included; unknown ids are a validation error.
func (s *TimetableService) Snapshot(ctx context.Context, batchIDs []string) (*models.EntitySnapshot, error) {
	faculty, err := s.sources.Faculty.All(ctx)
	if err != nil {
		return nil, snapshotError(err, "faculty")
	}
	subjects, err := s.sources.Subjects.All(ctx)
	if err != nil {
		return nil, snapshotError(err, "subjects")
	}
	classrooms, err := s.sources.Classrooms.All(ctx)
	if err != nil {
		return nil, snapshotError(err, "classrooms")
	}
	batches, err := s.sources.Batches.All(ctx)
	if err != nil {
		return nil, snapshotError(err, "batches")
	}
	rules, err := s.sources.Rules.Get(ctx)
	if err != nil {
		return nil, snapshotError(err, "rules")
	}

	if len(batchIDs) > 0 {
		batches, err = selectBatches(batches, batchIDs)
		if err != nil {
			return nil, err
		}
	}

	return &models.EntitySnapshot{
		Faculty:    faculty,
		Subjects:   subjects,
		Classrooms: classrooms,
		Batches:    batches,
		Rules:      *rules,
	}, nil
}

// Get returns a stored timetable, reading through the cache.
func (s *TimetableService) Get(ctx context.Context, id string) (*models.Timetable, error) {
	timetable, _, err := s.Lookup(ctx, id)
	return timetable, err
}

// Lookup is Get that also reports whether the cache served the timetable.
func (s *TimetableService) Lookup(ctx context.Context, id string) (*models.Timetable, bool, error) {
	var cached models.Timetable
	if s.cache.Get(ctx, timetableCacheKey(id), &cached) {
		return &cached, true, nil
	}

	timetable, err := s.timetables.FindByID(ctx, id)
	if err != nil {
		return nil, false, loadError(err, "timetable")
	}
	s.cache.Set(ctx, timetableCacheKey(id), timetable, s.opts.CacheTTL)
	return timetable, false, nil
}

// List returns stored timetable summaries, newest first. Pages are cached until
// the next generation or delete.
func (s *TimetableService) List(ctx context.Context, query dto.TimetableQuery) ([]models.TimetableSummary, *models.Pagination, error) {
	key := timetableListKey(query.Page, query.PageSize)
	var cached cachedTimetablePage
	if s.cache.Get(ctx, key, &cached) {
		return cached.Items, cached.Pagination, nil
	}

	filter := models.TimetableFilter{Page: query.Page, PageSize: query.PageSize}
	items, total, err := s.timetables.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	pagination := newPagination(filter.Page, filter.PageSize, total)
	s.cache.Set(ctx, key, cachedTimetablePage{Items: items, Pagination: pagination}, s.opts.CacheTTL)
	return items, pagination, nil
}

// Delete removes a stored timetable and its cache entries.
func (s *TimetableService) Delete(ctx context.Context, id string) error {
	if err := s.timetables.Delete(ctx, id); err != nil {
		return loadError(err, "timetable")
	}
	s.cache.Invalidate(ctx, timetableCacheKey(id))
	s.cache.InvalidatePattern(ctx, timetableListPattern)
	s.logger.Info("timetable deleted", zap.String("timetable_id", id))
	return nil
}

// selectBatches keeps store order so allocation tie-breaks do not depend on request order.
func selectBatches(all []models.Batch, ids []string) ([]models.Batch, error) {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	out := make([]models.Batch, 0, len(wanted))
	for _, b := range all {
		if _, ok := wanted[b.ID]; ok {
			out = append(out, b)
			delete(wanted, b.ID)
		}
	}
	for _, id := range ids {
		if _, missing := wanted[id]; missing {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown batch %s", id))
		}
	}
	return out, nil
}

func snapshotError(err error, what string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+what)
}

func generationOutcome(err error) string {
	if errors.Is(err, appErrors.ErrValidation) {
		return OutcomeValidation
	}
	return OutcomeFailed
}
