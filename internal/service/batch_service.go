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

type batchRepository interface {
	List(ctx context.Context, filter models.BatchFilter) ([]models.Batch, int, error)
	FindByID(ctx context.Context, id string) (*models.Batch, error)
	Create(ctx context.Context, batch *models.Batch) error
	Update(ctx context.Context, batch *models.Batch) error
	Delete(ctx context.Context, id string) error
}

type subjectCodeLookup interface {
	FindByCode(ctx context.Context, code string) (*models.Subject, error)
}

type facultyLookup interface {
	FindByID(ctx context.Context, id string) (*models.Faculty, error)
}

// BatchService manages student batches and their subject enrolment.
type BatchService struct {
	repo      batchRepository
	subjects  subjectCodeLookup
	faculty   facultyLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBatchService creates a new batch service.
func NewBatchService(repo batchRepository, subjects subjectCodeLookup, faculty facultyLookup, validate *validator.Validate, logger *zap.Logger) *BatchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchService{repo: repo, subjects: subjects, faculty: faculty, validator: validate, logger: logger}
}

// List returns paginated batches.
func (s *BatchService) List(ctx context.Context, filter models.BatchFilter) ([]models.Batch, *models.Pagination, error) {
	batches, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list batches")
	}
	return batches, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a batch by identifier.
func (s *BatchService) Get(ctx context.Context, id string) (*models.Batch, error) {
	batch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "batch")
	}
	return batch, nil
}

// Create registers a batch after checking its subject codes and faculty assignments.
func (s *BatchService) Create(ctx context.Context, req dto.BatchRequest) (*models.Batch, error) {
	batch := &models.Batch{}
	if err := s.apply(ctx, batch, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, batch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create batch")
	}
	s.logger.Info("batch created", zap.String("batch_id", batch.ID), zap.Int("subjects", len(batch.Subjects)))
	return batch, nil
}

// Update replaces a batch's attributes.
func (s *BatchService) Update(ctx context.Context, id string, req dto.BatchRequest) (*models.Batch, error) {
	batch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "batch")
	}
	if err := s.apply(ctx, batch, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, batch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update batch")
	}
	return batch, nil
}

// Delete removes a batch.
func (s *BatchService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return loadError(err, "batch")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete batch")
	}
	return nil
}

func (s *BatchService) apply(ctx context.Context, batch *models.Batch, req dto.BatchRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid batch payload")
	}

	codes := normalizeCodes(req.Subjects)
	for _, code := range codes {
		if _, err := s.subjects.FindByCode(ctx, code); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown subject code %s", code))
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
		}
	}

	assignments, err := s.assignments(ctx, codes, req.FacultyAssignments)
	if err != nil {
		return err
	}

	batch.Name = strings.TrimSpace(req.Name)
	batch.Department = strings.TrimSpace(req.Department)
	batch.Semester = strings.TrimSpace(req.Semester)
	batch.Year = strings.TrimSpace(req.Year)
	batch.Strength = req.Strength
	batch.Subjects = codes
	batch.FacultyAssignments = assignments
	return nil
}

func (s *BatchService) assignments(ctx context.Context, codes []string, raw map[string]string) (map[string]string, error) {
	taken := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		taken[code] = struct{}{}
	}

	out := make(map[string]string, len(raw))
	for rawCode, facultyID := range raw {
		code := normalizeCode(rawCode)
		facultyID = strings.TrimSpace(facultyID)
		if facultyID == "" {
			continue
		}
		if _, ok := taken[code]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("faculty assigned to %s, which the batch does not take", code))
		}
		if s.faculty != nil {
			if _, err := s.faculty.FindByID(ctx, facultyID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown faculty %s assigned to %s", facultyID, code))
				}
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
			}
		}
		out[code] = facultyID
	}
	return out, nil
}
