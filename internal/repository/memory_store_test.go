package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduscheduler-api/internal/models"
	"github.com/noah-isme/eduscheduler-api/internal/scheduler"
)

func TestMemoryStoreFacultyCRUD(t *testing.T) {
	store := NewMemoryStore()
	repo := store.Faculty()
	ctx := context.Background()

	f := &models.Faculty{Name: "Ada Lovelace", Department: "CS", AssignedSubjects: []string{"CS101"}}
	require.NoError(t, repo.Create(ctx, f))
	require.NotEmpty(t, f.ID)
	assert.False(t, f.CreatedAt.IsZero())

	found, err := repo.FindByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", found.Name)

	found.AssignedSubjects[0] = "MUTATED"
	again, err := repo.FindByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "CS101", again.AssignedSubjects[0], "callers must not share stored slices")

	f.Department = "Math"
	require.NoError(t, repo.Update(ctx, f))
	list, total, err := repo.List(ctx, models.FacultyFilter{Department: "math"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, f.ID))
	_, err = repo.FindByID(ctx, f.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.ErrorIs(t, repo.Delete(ctx, f.ID), sql.ErrNoRows)
	assert.ErrorIs(t, repo.Update(ctx, &models.Faculty{ID: "ghost"}), sql.ErrNoRows)
}

func TestMemoryStoreKeepsInsertionOrder(t *testing.T) {
	store := NewMemoryStore()
	repo := store.Subjects()
	ctx := context.Background()

	for _, code := range []string{"CS300", "CS100", "CS200"} {
		require.NoError(t, repo.Create(ctx, &models.Subject{Code: code, Name: code}))
	}

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "CS300", all[0].Code)
	assert.Equal(t, "CS100", all[1].Code)
	assert.Equal(t, "CS200", all[2].Code)
}

func TestMemorySubjectRepositoryCodeLookup(t *testing.T) {
	store := NewMemoryStore()
	repo := store.Subjects()
	ctx := context.Background()

	sub := &models.Subject{Code: "CS101", Name: "Programming"}
	require.NoError(t, repo.Create(ctx, sub))

	found, err := repo.FindByCode(ctx, "cs101")
	require.NoError(t, err)
	assert.Equal(t, sub.ID, found.ID)

	exists, err := repo.ExistsByCode(ctx, "CS101", "")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByCode(ctx, "CS101", sub.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.FindByCode(ctx, "NOPE")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestMemoryBatchRepositoryCountBySubject(t *testing.T) {
	store := NewMemoryStore()
	repo := store.Batches()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Batch{Name: "A", Subjects: []string{"CS101", "CS102"}}))
	require.NoError(t, repo.Create(ctx, &models.Batch{Name: "B", Subjects: []string{"CS102"}}))

	count, err := repo.CountBySubject(ctx, "CS102")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = repo.CountBySubject(ctx, "CS101")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryListPagination(t *testing.T) {
	store := NewMemoryStore()
	repo := store.Classrooms()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &models.Classroom{Name: "Room", Kind: models.ClassroomKindLecture}))
	}
	require.NoError(t, repo.Create(ctx, &models.Classroom{Name: "Lab", Kind: models.ClassroomKindLab}))

	page, total, err := repo.List(ctx, models.ClassroomFilter{Kind: models.ClassroomKindLecture, Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page, 2)

	page, _, err = repo.List(ctx, models.ClassroomFilter{Page: 9, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestMemoryRulesRepository(t *testing.T) {
	store := NewMemoryStore()
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	store.now = func() time.Time { return fixed }
	repo := store.Rules()
	ctx := context.Background()

	rules, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultRules().MaxSessionsPerDay, rules.MaxSessionsPerDay)

	rules.MaxSessionsPerDay = 4
	require.NoError(t, repo.Save(ctx, rules))
	assert.Equal(t, fixed, rules.UpdatedAt)

	loaded, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.MaxSessionsPerDay)
}

func TestMemoryTimetableRepositoryNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	repo := store.Timetables()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &models.Timetable{ID: "old", GeneratedAt: base}))
	require.NoError(t, repo.Create(ctx, &models.Timetable{ID: "new", GeneratedAt: base.Add(time.Hour)}))

	list, total, err := repo.List(ctx, models.TimetableFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)

	require.NoError(t, repo.Delete(ctx, "old"))
	_, err = repo.FindByID(ctx, "old")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestExportJobRepositoryListFinishedBefore(t *testing.T) {
	repo := NewExportJobRepository()
	ctx := context.Background()
	now := time.Now().UTC()
	expired := now.Add(-time.Hour)
	live := now.Add(time.Hour)

	require.NoError(t, repo.Create(ctx, &models.ExportJob{ID: "a", Status: models.ExportStatusFinished, ExpiresAt: &expired}))
	require.NoError(t, repo.Create(ctx, &models.ExportJob{ID: "b", Status: models.ExportStatusFinished, ExpiresAt: &live}))
	require.NoError(t, repo.Create(ctx, &models.ExportJob{ID: "c", Status: models.ExportStatusQueued}))

	jobs, err := repo.ListFinishedBefore(ctx, now)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "a", jobs[0].ID)

	assert.ErrorIs(t, repo.Update(ctx, &models.ExportJob{ID: "zzz"}), sql.ErrNoRows)
}

func TestMemoryStoreKeepsEmptyAvailability(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	never := &models.Faculty{Name: "On Sabbatical", Availability: models.Availability{}}
	always := &models.Faculty{Name: "Anytime"}
	require.NoError(t, store.Faculty().Create(ctx, never))
	require.NoError(t, store.Faculty().Create(ctx, always))

	found, err := store.Faculty().FindByID(ctx, never.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Availability)
	assert.Empty(t, found.Availability)

	all, err := store.Faculty().All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.NotNil(t, all[0].Availability)
	assert.Nil(t, all[1].Availability)

	room := &models.Classroom{Name: "Closed", Kind: models.ClassroomKindLecture, Availability: models.Availability{}}
	require.NoError(t, store.Classrooms().Create(ctx, room))
	foundRoom, err := store.Classrooms().FindByID(ctx, room.ID)
	require.NoError(t, err)
	require.NotNil(t, foundRoom.Availability)
	assert.Empty(t, foundRoom.Availability)
}

func TestMemoryStoreUnavailableFacultyIsNeverScheduled(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	member := &models.Faculty{Name: "On Sabbatical", AssignedSubjects: []string{"CS301"}, Availability: models.Availability{}}
	require.NoError(t, store.Faculty().Create(ctx, member))
	faculty, err := store.Faculty().All(ctx)
	require.NoError(t, err)

	snap := models.EntitySnapshot{
		Faculty:    faculty,
		Subjects:   []models.Subject{{ID: "sub-1", Code: "CS301", Name: "Data Structures", Kind: models.SubjectKindTheory, WeeklyHours: 2}},
		Batches:    []models.Batch{{ID: "b-1", Subjects: []string{"CS301"}, FacultyAssignments: map[string]string{"CS301": member.ID}}},
		Classrooms: []models.Classroom{{ID: "room-1", Kind: models.ClassroomKindLecture, Capacity: 60, Status: models.ClassroomStatusActive}},
		Rules:      models.DefaultRules(),
	}
	engine := scheduler.NewEngine(scheduler.EngineConfig{Shuffler: scheduler.IdentityOrder{}})
	tt, err := engine.Generate(snap, scheduler.Request{Grid: scheduler.GridConfig{Days: []models.DayName{models.Monday, models.Tuesday}, PeriodsPerDay: 4}})
	require.NoError(t, err)

	assert.Zero(t, tt.PlacedCount())
	require.Len(t, tt.UnplacedSessions, 2)
	assert.Equal(t, scheduler.ReasonNoFeasibleSlot, tt.UnplacedSessions[0].Reason)
}
