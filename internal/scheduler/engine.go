package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/eduscheduler-api/internal/models"
	appErrors "github.com/noah-isme/eduscheduler-api/pkg/errors"
)

// DefaultPeriodsPerDay applies when neither the request nor the rules size the grid.
const DefaultPeriodsPerDay = 6

// Request parameterises one generation run.
type Request struct {
	Title              string
	Grid               GridConfig
	StrictAvailability bool
	// Seed fixes the session shuffle; nil draws one from the clock.
	Seed *int64
}

// EngineConfig wires an Engine. Zero values fall back to production defaults.
type EngineConfig struct {
	Allocator      Allocator
	Shuffler       Shuffler
	DefaultPeriods int
	Logger         *zap.Logger
	Now            func() time.Time
	NewID          func() string
}

// Engine runs expansion, allocation and materialisation over a snapshot.
// It holds no per-run state and is safe for concurrent use provided the
// configured Shuffler is.
type Engine struct {
	allocator      Allocator
	shuffler       Shuffler
	defaultPeriods int
	logger         *zap.Logger
	now            func() time.Time
	newID          func() string
}

// NewEngine builds an Engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Allocator == nil {
		cfg.Allocator = NewGreedyAllocator()
	}
	if cfg.DefaultPeriods <= 0 {
		cfg.DefaultPeriods = DefaultPeriodsPerDay
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return &Engine{
		allocator:      cfg.Allocator,
		shuffler:       cfg.Shuffler,
		defaultPeriods: cfg.DefaultPeriods,
		logger:         cfg.Logger,
		now:            cfg.Now,
		newID:          cfg.NewID,
	}
}

// Generate produces a timetable or an *appErrors.Error: VALIDATION_ERROR for
// unusable input, GENERATION_FAILED for malformed rules or an internal fault.
// Sessions that cannot be placed never fail the run.
func (e *Engine) Generate(snapshot models.EntitySnapshot, req Request) (tt *models.Timetable, err error) {
	started := e.now()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("timetable generation panicked", zap.Any("panic", r), zap.Stack("stack"))
			tt = nil
			err = appErrors.Wrap(fmt.Errorf("%v", r), appErrors.ErrGenerationFailed.Code, appErrors.ErrGenerationFailed.Status, "timetable generation failed unexpectedly")
		}
	}()

	if len(snapshot.Subjects) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no subjects provided")
	}
	if len(snapshot.Batches) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no batches provided")
	}

	gridCfg := req.Grid
	if gridCfg.PeriodsPerDay == 0 && gridCfg.StartTime == "" && gridCfg.EndTime == "" {
		gridCfg.PeriodsPerDay = e.defaultPeriods
		if snapshot.Rules.MaxSessionsPerDay > 0 {
			gridCfg.PeriodsPerDay = snapshot.Rules.MaxSessionsPerDay
		}
	}
	grid, err := NewGrid(gridCfg)
	if err != nil {
		if errors.Is(err, ErrNoDays) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "no working days selected")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if err := ValidateRules(snapshot.Rules, grid); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrGenerationFailed.Code, appErrors.ErrGenerationFailed.Status, err.Error())
	}

	expansion := ExpandSessions(snapshot)
	shuffler := e.shuffler
	if shuffler == nil {
		if req.Seed != nil {
			shuffler = NewSeededShuffler(*req.Seed)
		} else {
			shuffler = NewRandomShuffler()
		}
	}
	shuffler.Shuffle(expansion.Sessions)

	allocation := e.allocator.Allocate(Problem{
		Grid:               grid,
		Sessions:           expansion.Sessions,
		Snapshot:           snapshot,
		StrictAvailability: req.StrictAvailability,
	})

	generatedAt := e.now().UTC()
	title := req.Title
	if title == "" {
		title = "Timetable " + generatedAt.Format("2006-01-02 15:04")
	}

	tt = &models.Timetable{
		ID:               e.newID(),
		Title:            title,
		GeneratedAt:      generatedAt,
		PeriodsPerDay:    grid.SlotCount(),
		Days:             grid.Days(),
		TimeBands:        grid.Bands(),
		LunchPeriod:      grid.LunchSlot() + 1,
		Algorithm:        e.allocator.Name(),
		Entries:          Materialize(grid, snapshot.Batches, allocation.Placements),
		UnplacedSessions: allocation.Unplaced,
		UnplacedCount:    len(allocation.Unplaced),
		Warnings:         append(expansion.Warnings, allocation.Warnings...),
	}

	e.logger.Info("timetable generated",
		zap.String("timetable_id", tt.ID),
		zap.String("algorithm", tt.Algorithm),
		zap.Int("sessions", len(expansion.Sessions)),
		zap.Int("placed", len(allocation.Placements)),
		zap.Int("unplaced", tt.UnplacedCount),
		zap.Int("warnings", len(tt.Warnings)),
		zap.Duration("duration", e.now().Sub(started)),
	)
	return tt, nil
}
