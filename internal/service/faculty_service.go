package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/eduscheduler-api/internal/dto"
	"github.com/noah-isme/eduscheduler-api/internal/models"
	appErrors "github.com/noah-isme/eduscheduler-api/pkg/errors"
)

type facultyRepository interface {
	List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, int, error)
	FindByID(ctx context.Context, id string) (*models.Faculty, error)
	Create(ctx context.Context, faculty *models.Faculty) error
	Update(ctx context.Context, faculty *models.Faculty) error
	Delete(ctx context.Context, id string) error
}

// FacultyService manages teaching staff records.
type FacultyService struct {
	repo      facultyRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFacultyService creates a new faculty service.
func NewFacultyService(repo facultyRepository, validate *validator.Validate, logger *zap.Logger) *FacultyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacultyService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated faculty.
func (s *FacultyService) List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, *models.Pagination, error) {
	faculty, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty")
	}
	return faculty, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a faculty member by identifier.
func (s *FacultyService) Get(ctx context.Context, id string) (*models.Faculty, error) {
	faculty, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "faculty")
	}
	return faculty, nil
}

// Create registers a faculty member.
func (s *FacultyService) Create(ctx context.Context, req dto.FacultyRequest) (*models.Faculty, error) {
	faculty := &models.Faculty{}
	if err := s.apply(faculty, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, faculty); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create faculty")
	}
	s.logger.Info("faculty created", zap.String("faculty_id", faculty.ID))
	return faculty, nil
}

// Update replaces a faculty member's attributes.
func (s *FacultyService) Update(ctx context.Context, id string, req dto.FacultyRequest) (*models.Faculty, error) {
	faculty, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "faculty")
	}
	if err := s.apply(faculty, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, faculty); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update faculty")
	}
	return faculty, nil
}

// Delete removes a faculty member. Batches that still reference the id produce
// UNKNOWN_FACULTY diagnostics at generation time.
func (s *FacultyService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return loadError(err, "faculty")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete faculty")
	}
	return nil
}

func (s *FacultyService) apply(faculty *models.Faculty, req dto.FacultyRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid faculty payload")
	}
	availability, err := parseAvailability(req.Availability)
	if err != nil {
		return err
	}

	status := models.FacultyStatus(req.Status)
	if status == "" {
		status = models.FacultyStatusActive
	}

	faculty.Name = strings.TrimSpace(req.Name)
	faculty.Email = strings.TrimSpace(req.Email)
	faculty.Department = strings.TrimSpace(req.Department)
	faculty.AssignedSubjects = normalizeCodes(req.AssignedSubjects)
	faculty.MaxSessionsPerWeek = req.MaxSessionsPerWeek
	faculty.AvgLeavesPerMonth = req.AvgLeavesPerMonth
	faculty.Availability = availability
	faculty.Status = status
	return nil
}
