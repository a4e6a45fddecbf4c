package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eduscheduler-api/internal/models"
)

// FacultyStore persists faculty members.
type FacultyStore interface {
	List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, int, error)
	All(ctx context.Context) ([]models.Faculty, error)
	FindByID(ctx context.Context, id string) (*models.Faculty, error)
	Create(ctx context.Context, f *models.Faculty) error
	Update(ctx context.Context, f *models.Faculty) error
	Delete(ctx context.Context, id string) error
}

// SubjectStore persists subjects keyed by a unique code.
type SubjectStore interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	All(ctx context.Context) ([]models.Subject, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	FindByCode(ctx context.Context, code string) (*models.Subject, error)
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

// ClassroomStore persists classrooms.
type ClassroomStore interface {
	List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, int, error)
	All(ctx context.Context) ([]models.Classroom, error)
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
	Create(ctx context.Context, room *models.Classroom) error
	Update(ctx context.Context, room *models.Classroom) error
	Delete(ctx context.Context, id string) error
}

// BatchStore persists student batches.
type BatchStore interface {
	List(ctx context.Context, filter models.BatchFilter) ([]models.Batch, int, error)
	All(ctx context.Context) ([]models.Batch, error)
	FindByID(ctx context.Context, id string) (*models.Batch, error)
	CountBySubject(ctx context.Context, code string) (int, error)
	Create(ctx context.Context, b *models.Batch) error
	Update(ctx context.Context, b *models.Batch) error
	Delete(ctx context.Context, id string) error
}

// RulesStore persists the single global rules document.
type RulesStore interface {
	Get(ctx context.Context) (*models.Rules, error)
	Save(ctx context.Context, rules *models.Rules) error
}

// TimetableStore persists generated timetables.
type TimetableStore interface {
	Create(ctx context.Context, t *models.Timetable) error
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableSummary, int, error)
	Delete(ctx context.Context, id string) error
}

// Registry groups the stores backing one process.
type Registry struct {
	Faculty    FacultyStore
	Subjects   SubjectStore
	Classrooms ClassroomStore
	Batches    BatchStore
	Rules      RulesStore
	Timetables TimetableStore
}

// NewSQLRegistry returns stores backed by db.
func NewSQLRegistry(db *sqlx.DB) Registry {
	return Registry{
		Faculty:    NewFacultyRepository(db),
		Subjects:   NewSubjectRepository(db),
		Classrooms: NewClassroomRepository(db),
		Batches:    NewBatchRepository(db),
		Rules:      NewRulesRepository(db),
		Timetables: NewTimetableRepository(db),
	}
}

// NewMemoryRegistry returns stores sharing one in-process MemoryStore.
func NewMemoryRegistry(store *MemoryStore) Registry {
	if store == nil {
		store = NewMemoryStore()
	}
	return Registry{
		Faculty:    store.Faculty(),
		Subjects:   store.Subjects(),
		Classrooms: store.Classrooms(),
		Batches:    store.Batches(),
		Rules:      store.Rules(),
		Timetables: store.Timetables(),
	}
}

var (
	_ FacultyStore   = (*FacultyRepository)(nil)
	_ FacultyStore   = (*MemoryFacultyRepository)(nil)
	_ SubjectStore   = (*SubjectRepository)(nil)
	_ SubjectStore   = (*MemorySubjectRepository)(nil)
	_ ClassroomStore = (*ClassroomRepository)(nil)
	_ ClassroomStore = (*MemoryClassroomRepository)(nil)
	_ BatchStore     = (*BatchRepository)(nil)
	_ BatchStore     = (*MemoryBatchRepository)(nil)
	_ RulesStore     = (*RulesRepository)(nil)
	_ RulesStore     = (*MemoryRulesRepository)(nil)
	_ TimetableStore = (*TimetableRepository)(nil)
	_ TimetableStore = (*MemoryTimetableRepository)(nil)
)
