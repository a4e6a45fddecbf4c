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

type classroomRepository interface {
	List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, int, error)
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
	Create(ctx context.Context, classroom *models.Classroom) error
	Update(ctx context.Context, classroom *models.Classroom) error
	Delete(ctx context.Context, id string) error
}

// ClassroomService manages teaching rooms.
type ClassroomService struct {
	repo      classroomRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassroomService creates a new classroom service.
func NewClassroomService(repo classroomRepository, validate *validator.Validate, logger *zap.Logger) *ClassroomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassroomService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated classrooms.
func (s *ClassroomService) List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, *models.Pagination, error) {
	rooms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classrooms")
	}
	return rooms, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a classroom by identifier.
func (s *ClassroomService) Get(ctx context.Context, id string) (*models.Classroom, error) {
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "classroom")
	}
	return room, nil
}

// Create registers a classroom.
func (s *ClassroomService) Create(ctx context.Context, req dto.ClassroomRequest) (*models.Classroom, error) {
	room := &models.Classroom{}
	if err := s.apply(room, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create classroom")
	}
	return room, nil
}

// Update replaces a classroom's attributes.
func (s *ClassroomService) Update(ctx context.Context, id string, req dto.ClassroomRequest) (*models.Classroom, error) {
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "classroom")
	}
	if err := s.apply(room, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update classroom")
	}
	return room, nil
}

// Delete removes a classroom.
func (s *ClassroomService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return loadError(err, "classroom")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete classroom")
	}
	return nil
}

func (s *ClassroomService) apply(room *models.Classroom, req dto.ClassroomRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid classroom payload")
	}
	availability, err := parseAvailability(req.Availability)
	if err != nil {
		return err
	}

	kind := models.ClassroomKind(req.Kind)
	if kind == "" {
		kind = models.ClassroomKindLecture
	}
	status := models.ClassroomStatus(req.Status)
	if status == "" {
		status = models.ClassroomStatusActive
	}
	equipment := req.Equipment
	if equipment == nil {
		equipment = []string{}
	}

	room.Name = strings.TrimSpace(req.Name)
	room.Number = strings.TrimSpace(req.Number)
	room.Building = strings.TrimSpace(req.Building)
	room.Capacity = req.Capacity
	room.Kind = kind
	room.Equipment = equipment
	room.Availability = availability
	room.Status = status
	return nil
}
