package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/eduscheduler-api/internal/dto"
	"github.com/noah-isme/eduscheduler-api/internal/models"
	"github.com/noah-isme/eduscheduler-api/internal/repository"
	appErrors "github.com/noah-isme/eduscheduler-api/pkg/errors"
)

type entityServices struct {
	store      *repository.MemoryStore
	faculty    *FacultyService
	subjects   *SubjectService
	classrooms *ClassroomService
	batches    *BatchService
	rules      *RulesService
}

func newEntityServices() entityServices {
	store := repository.NewMemoryStore()
	logger := zap.NewNop()
	return entityServices{
		store:      store,
		faculty:    NewFacultyService(store.Faculty(), nil, logger),
		subjects:   NewSubjectService(store.Subjects(), store.Batches(), nil, logger),
		classrooms: NewClassroomService(store.Classrooms(), nil, logger),
		batches:    NewBatchService(store.Batches(), store.Subjects(), store.Faculty(), nil, logger),
		rules:      NewRulesService(store.Rules(), nil, logger),
	}
}

func assertCode(t *testing.T, err error, want *appErrors.Error) {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected *errors.Error, got %T", err)
	assert.Equal(t, want.Code, appErr.Code)
	assert.Equal(t, want.Status, appErr.Status)
}

func TestFacultyServiceCreateNormalises(t *testing.T) {
	svc := newEntityServices()
	ctx := context.Background()

	faculty, err := svc.faculty.Create(ctx, dto.FacultyRequest{
		Name:             "  Dr. Rao ",
		AssignedSubjects: []string{"cs301", "CS301", " ma201 "},
		Availability:     map[string][]string{"Mon": {"P1", " "}, "tuesday": nil},
	})
	require.NoError(t, err)
	assert.Equal(t, "Dr. Rao", faculty.Name)
	assert.Equal(t, []string{"CS301", "MA201"}, faculty.AssignedSubjects)
	assert.Equal(t, models.FacultyStatusActive, faculty.Status)
	assert.Equal(t, []string{"P1"}, faculty.Availability[models.Monday])
	assert.Contains(t, faculty.Availability, models.Tuesday)
}

func TestFacultyServiceRejectsBadInput(t *testing.T) {
	svc := newEntityServices()
	ctx := context.Background()

	_, err := svc.faculty.Create(ctx, dto.FacultyRequest{})
	assertCode(t, err, appErrors.ErrValidation)

	_, err = svc.faculty.Create(ctx, dto.FacultyRequest{Name: "X", Availability: map[string][]string{"someday": nil}})
	assertCode(t, err, appErrors.ErrValidation)

	_, err = svc.faculty.Get(ctx, "missing")
	assertCode(t, err, appErrors.ErrNotFound)
}

func TestFacultyServiceKeepsNilAvailability(t *testing.T) {
	svc := newEntityServices()
	faculty, err := svc.faculty.Create(context.Background(), dto.FacultyRequest{Name: "Always Free"})
	require.NoError(t, err)
	assert.Nil(t, faculty.Availability)

	closed, err := svc.faculty.Create(context.Background(), dto.FacultyRequest{Name: "Never Free", Availability: map[string][]string{}})
	require.NoError(t, err)
	assert.NotNil(t, closed.Availability)
	assert.Empty(t, closed.Availability)
}

func TestSubjectServiceCodeRules(t *testing.T) {
	svc := newEntityServices()
	ctx := context.Background()

	subject, err := svc.subjects.Create(ctx, dto.SubjectRequest{Code: " cs301 ", Name: "Data Structures", Kind: "lab"})
	require.NoError(t, err)
	assert.Equal(t, "CS301", subject.Code)
	assert.Equal(t, models.SubjectKindPractical, subject.Kind)
	assert.Equal(t, models.DefaultWeeklyHours, subject.WeeklyHours)

	_, err = svc.subjects.Create(ctx, dto.SubjectRequest{Code: "CS301", Name: "Again"})
	assertCode(t, err, appErrors.ErrConflict)
}

func TestSubjectServiceDeleteGuardsBatches(t *testing.T) {
	svc := newEntityServices()
	ctx := context.Background()

	subject, err := svc.subjects.Create(ctx, dto.SubjectRequest{Code: "CS301", Name: "Data Structures"})
	require.NoError(t, err)
	batch, err := svc.batches.Create(ctx, dto.BatchRequest{Name: "CSE 3A", Subjects: []string{"cs301"}})
	require.NoError(t, err)

	err = svc.subjects.Delete(ctx, subject.ID)
	assertCode(t, err, appErrors.ErrPreconditionFailed)

	_, err = svc.subjects.Update(ctx, subject.ID, dto.SubjectRequest{Code: "CS999", Name: "Renamed"})
	assertCode(t, err, appErrors.ErrPreconditionFailed)

	require.NoError(t, svc.batches.Delete(ctx, batch.ID))
	require.NoError(t, svc.subjects.Delete(ctx, subject.ID))
}

func TestSubjectServiceImportUpserts(t *testing.T) {
	svc := newEntityServices()
	ctx := context.Background()

	_, err := svc.subjects.Create(ctx, dto.SubjectRequest{Code: "CS301", Name: "Old Name", WeeklyHours: 2})
	require.NoError(t, err)

	imported, err := svc.subjects.Import(ctx, []dto.SubjectRequest{
		{Code: "cs301", Name: "Data Structures", WeeklyHours: 4},
		{Code: "MA201", Name: "Discrete Maths"},
	})
	require.NoError(t, err)
	require.Len(t, imported, 2)

	all, err := svc.store.Subjects().All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Data Structures", all[0].Name)
	assert.Equal(t, 4, all[0].WeeklyHours)
	assert.Equal(t, 3, all[1].WeeklyHours)
}

func TestBatchServiceValidatesReferences(t *testing.T) {
	svc := newEntityServices()
	ctx := context.Background()

	_, err := svc.subjects.Create(ctx, dto.SubjectRequest{Code: "CS301", Name: "Data Structures"})
	require.NoError(t, err)
	faculty, err := svc.faculty.Create(ctx, dto.FacultyRequest{Name: "Dr. Rao"})
	require.NoError(t, err)

	_, err = svc.batches.Create(ctx, dto.BatchRequest{Name: "A", Subjects: []string{"NOPE"}})
	assertCode(t, err, appErrors.ErrValidation)

	_, err = svc.batches.Create(ctx, dto.BatchRequest{Name: "A", Subjects: []string{"CS301"}, FacultyAssignments: map[string]string{"CS301": "ghost"}})
	assertCode(t, err, appErrors.ErrValidation)

	_, err = svc.batches.Create(ctx, dto.BatchRequest{Name: "A", Subjects: []string{"CS301"}, FacultyAssignments: map[string]string{"MA201": faculty.ID}})
	assertCode(t, err, appErrors.ErrValidation)

	batch, err := svc.batches.Create(ctx, dto.BatchRequest{
		Name:               "A",
		Subjects:           []string{"cs301", "CS301"},
		FacultyAssignments: map[string]string{"cs301": faculty.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"CS301"}, batch.Subjects)
	assert.Equal(t, faculty.ID, batch.FacultyFor("CS301"))
}

func TestClassroomServiceDefaults(t *testing.T) {
	svc := newEntityServices()
	room, err := svc.classrooms.Create(context.Background(), dto.ClassroomRequest{Name: "LH 101", Capacity: 80})
	require.NoError(t, err)
	assert.Equal(t, models.ClassroomKindLecture, room.Kind)
	assert.Equal(t, models.ClassroomStatusActive, room.Status)
	assert.NotNil(t, room.Equipment)

	_, err = svc.classrooms.Create(context.Background(), dto.ClassroomRequest{Name: "Bad", Kind: "garage"})
	assertCode(t, err, appErrors.ErrValidation)
}

func TestRulesServicePatch(t *testing.T) {
	svc := newEntityServices()
	ctx := context.Background()

	four := 4
	off := false
	slots := []dto.SpecialSlotRequest{{Day: "Wed", Period: 2, SubjectKind: "lab", SubjectCode: "cs303l"}}
	rules, err := svc.rules.Update(ctx, dto.UpdateRulesRequest{
		MaxSessionsPerDay:         &four,
		SessionsPerSubjectPerWeek: map[string]int{"cs301": 2},
		SpecialSlots:              &slots,
		ConsiderFacultyLeaves:     &off,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, rules.MaxSessionsPerDay)
	assert.Equal(t, 2, rules.SessionsPerSubjectPerWeek["CS301"])
	require.Len(t, rules.SpecialSlots, 1)
	assert.Equal(t, models.Wednesday, rules.SpecialSlots[0].Day)
	assert.Equal(t, models.SubjectKindPractical, rules.SpecialSlots[0].SubjectKind)
	assert.Equal(t, "CS303L", rules.SpecialSlots[0].SubjectCode)
	assert.False(t, rules.ConsiderFacultyLeaves)

	// untouched fields survive a partial patch
	rules, err = svc.rules.Update(ctx, dto.UpdateRulesRequest{})
	require.NoError(t, err)
	assert.Equal(t, 4, rules.MaxSessionsPerDay)
	assert.Len(t, rules.SpecialSlots, 1)
}

func TestRulesServiceRejectsBadSpecialSlots(t *testing.T) {
	svc := newEntityServices()
	ctx := context.Background()

	noPlace := []dto.SpecialSlotRequest{{Day: "monday"}}
	_, err := svc.rules.Update(ctx, dto.UpdateRulesRequest{SpecialSlots: &noPlace})
	assertCode(t, err, appErrors.ErrValidation)

	badDay := []dto.SpecialSlotRequest{{Day: "funday", Period: 1}}
	_, err = svc.rules.Update(ctx, dto.UpdateRulesRequest{SpecialSlots: &badDay})
	assertCode(t, err, appErrors.ErrValidation)
}
