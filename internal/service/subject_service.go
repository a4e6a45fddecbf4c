package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/eduscheduler-api/internal/dto"
	"github.com/noah-isme/eduscheduler-api/internal/models"
	appErrors "github.com/noah-isme/eduscheduler-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	FindByCode(ctx context.Context, code string) (*models.Subject, error)
	ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

type subjectUsage interface {
	CountBySubject(ctx context.Context, code string) (int, error)
}

// SubjectService handles subject domain workflows.
type SubjectService struct {
	repo      subjectRepository
	usage     subjectUsage
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService creates a new subject service. usage reports how many
// batches take a subject and guards deletes and code changes.
func NewSubjectService(repo subjectRepository, usage subjectUsage, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, usage: usage, validator: validate, logger: logger}
}

// List returns paginated subjects.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	subjects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns subject by identifier.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "subject")
	}
	return subject, nil
}

// Create adds a new subject ensuring code uniqueness.
func (s *SubjectService) Create(ctx context.Context, req dto.SubjectRequest) (*models.Subject, error) {
	subject := &models.Subject{}
	if err := s.apply(subject, req); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByCode(ctx, subject.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject code already exists")
	}

	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	return subject, nil
}

// Update modifies an existing subject. Renaming the code of a subject that
// batches still take is refused.
func (s *SubjectService) Update(ctx context.Context, id string, req dto.SubjectRequest) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "subject")
	}
	previousCode := subject.Code
	if err := s.apply(subject, req); err != nil {
		return nil, err
	}

	if subject.Code != previousCode {
		exists, err := s.repo.ExistsByCode(ctx, subject.Code, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject code")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "subject code already exists")
		}
		if err := s.ensureUnused(ctx, previousCode, "subject code is referenced by batches"); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}
	return subject, nil
}

// Import upserts subjects by code: existing codes are updated in place.
func (s *SubjectService) Import(ctx context.Context, reqs []dto.SubjectRequest) ([]models.Subject, error) {
	out := make([]models.Subject, 0, len(reqs))
	for i, req := range reqs {
		existing, err := s.repo.FindByCode(ctx, normalizeCode(req.Code))
		switch {
		case errors.Is(err, sql.ErrNoRows):
			existing = &models.Subject{}
		case err != nil:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
		}

		if err := s.apply(existing, req); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subject %d: %s", i+1, err.Error()))
		}

		if existing.ID == "" {
			err = s.repo.Create(ctx, existing)
		} else {
			err = s.repo.Update(ctx, existing)
		}
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save subject")
		}
		out = append(out, *existing)
	}
	s.logger.Info("subjects imported", zap.Int("count", len(out)))
	return out, nil
}

// Delete removes a subject when no batch takes it.
func (s *SubjectService) Delete(ctx context.Context, id string) error {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return loadError(err, "subject")
	}
	if err := s.ensureUnused(ctx, subject.Code, "subject is assigned to batches"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	return nil
}

func (s *SubjectService) ensureUnused(ctx context.Context, code, message string) error {
	if s.usage == nil {
		return nil
	}
	count, err := s.usage.CountBySubject(ctx, code)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject dependencies")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, message)
	}
	return nil
}

func (s *SubjectService) apply(subject *models.Subject, req dto.SubjectRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid subject payload")
	}
	code := normalizeCode(req.Code)
	if code == "" {
		return appErrors.Clone(appErrors.ErrValidation, "subject code is required")
	}

	hours := req.WeeklyHours
	if hours <= 0 {
		hours = models.DefaultWeeklyHours
	}

	subject.Code = code
	subject.Name = strings.TrimSpace(req.Name)
	subject.Semester = strings.TrimSpace(req.Semester)
	subject.Kind = models.ParseSubjectKind(req.Kind)
	subject.WeeklyHours = hours
	subject.LinkedFacultyIDs = trimmedIDs(req.LinkedFacultyIDs)
	return nil
}
