package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/eduscheduler-api/internal/dto"
	"github.com/noah-isme/eduscheduler-api/internal/models"
	appErrors "github.com/noah-isme/eduscheduler-api/pkg/errors"
)

type rulesRepository interface {
	Get(ctx context.Context) (*models.Rules, error)
	Save(ctx context.Context, rules *models.Rules) error
}

// RulesService reads and patches the global scheduling rules.
type RulesService struct {
	repo      rulesRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRulesService creates a new rules service.
func NewRulesService(repo rulesRepository, validate *validator.Validate, logger *zap.Logger) *RulesService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RulesService{repo: repo, validator: validate, logger: logger}
}

// Get returns the current rules.
func (s *RulesService) Get(ctx context.Context) (*models.Rules, error) {
	rules, err := s.repo.Get(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rules")
	}
	return rules, nil
}

// Update applies the non-nil fields of req.
func (s *RulesService) Update(ctx context.Context, req dto.UpdateRulesRequest) (*models.Rules, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid rules payload")
	}

	rules, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	if req.MaxSessionsPerDay != nil {
		rules.MaxSessionsPerDay = *req.MaxSessionsPerDay
	}
	if req.SessionsPerSubjectPerWeek != nil {
		overrides := make(map[string]int, len(req.SessionsPerSubjectPerWeek))
		for code, count := range req.SessionsPerSubjectPerWeek {
			if code = normalizeCode(code); code != "" {
				overrides[code] = count
			}
		}
		rules.SessionsPerSubjectPerWeek = overrides
	}
	if req.SpecialSlots != nil {
		slots, err := specialSlots(*req.SpecialSlots)
		if err != nil {
			return nil, err
		}
		rules.SpecialSlots = slots
	}
	if req.ConsiderFacultyLeaves != nil {
		rules.ConsiderFacultyLeaves = *req.ConsiderFacultyLeaves
	}

	if err := s.repo.Save(ctx, rules); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save rules")
	}
	s.logger.Info("scheduling rules updated",
		zap.Int("max_sessions_per_day", rules.MaxSessionsPerDay),
		zap.Int("special_slots", len(rules.SpecialSlots)),
	)
	return rules, nil
}

// specialSlots checks what can be checked without a grid; range checks happen per run.
func specialSlots(reqs []dto.SpecialSlotRequest) ([]models.SpecialSlot, error) {
	out := make([]models.SpecialSlot, 0, len(reqs))
	for i, req := range reqs {
		day, ok := models.ParseDayName(req.Day)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("special slot %d: unknown day %q", i+1, req.Day))
		}
		band := strings.TrimSpace(req.TimeBand)
		if req.Period <= 0 && band == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("special slot %d: period or timeBand is required", i+1))
		}
		slot := models.SpecialSlot{
			Day:         day,
			Period:      req.Period,
			TimeBand:    band,
			SubjectCode: normalizeCode(req.SubjectCode),
		}
		if req.SubjectKind != "" {
			slot.SubjectKind = models.ParseSubjectKind(req.SubjectKind)
		}
		out = append(out, slot)
	}
	return out, nil
}
