package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/eduscheduler-api/internal/models"
)

// table keeps rows in insertion order; snapshot order drives allocation tie-breaks.
type table[T any] struct {
	order []string
	rows  map[string]T
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

func (t *table[T]) get(id string) (T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

func (t *table[T]) put(id string, row T) {
	if _, exists := t.rows[id]; !exists {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
}

func (t *table[T]) remove(id string) bool {
	if _, exists := t.rows[id]; !exists {
		return false
	}
	delete(t.rows, id)
	for i, existing := range t.order {
		if existing == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

func (t *table[T]) all() []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.rows[id])
	}
	return out
}

// MemoryStore is the default entity store: process-local and lost on restart.
// Values are deep-copied on the way in and out so callers never share state.
type MemoryStore struct {
	mu         sync.RWMutex
	faculty    *table[models.Faculty]
	subjects   *table[models.Subject]
	classrooms *table[models.Classroom]
	batches    *table[models.Batch]
	timetables *table[models.Timetable]
	rules      *models.Rules
	now        func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		faculty:    newTable[models.Faculty](),
		subjects:   newTable[models.Subject](),
		classrooms: newTable[models.Classroom](),
		batches:    newTable[models.Batch](),
		timetables: newTable[models.Timetable](),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Faculty returns the faculty repository view of the store.
func (s *MemoryStore) Faculty() *MemoryFacultyRepository { return &MemoryFacultyRepository{s: s} }

// Subjects returns the subject repository view of the store.
func (s *MemoryStore) Subjects() *MemorySubjectRepository { return &MemorySubjectRepository{s: s} }

// Classrooms returns the classroom repository view of the store.
func (s *MemoryStore) Classrooms() *MemoryClassroomRepository {
	return &MemoryClassroomRepository{s: s}
}

// Batches returns the batch repository view of the store.
func (s *MemoryStore) Batches() *MemoryBatchRepository { return &MemoryBatchRepository{s: s} }

// Rules returns the rules repository view of the store.
func (s *MemoryStore) Rules() *MemoryRulesRepository { return &MemoryRulesRepository{s: s} }

// Timetables returns the timetable repository view of the store.
func (s *MemoryStore) Timetables() *MemoryTimetableRepository {
	return &MemoryTimetableRepository{s: s}
}

func (s *MemoryStore) stamp(id *string, created, updated *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	now := s.now()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// clone deep-copies v through JSON. Fields whose nil and empty values differ
// (Availability) must not be tagged omitempty.
func clone[T any](v T) T {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("memory store: clone %T: %v", v, err))
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(fmt.Sprintf("memory store: clone %T: %v", v, err))
	}
	return out
}

func paginate[T any](rows []T, page, size int) []T {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	start := (page - 1) * size
	if start >= len(rows) {
		return []T{}
	}
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// MemoryFacultyRepository stores faculty in a MemoryStore.
type MemoryFacultyRepository struct{ s *MemoryStore }

// List returns faculty matching filter.
func (r *MemoryFacultyRepository) List(_ context.Context, filter models.FacultyFilter) ([]models.Faculty, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var matched []models.Faculty
	for _, f := range r.s.faculty.all() {
		if filter.Department != "" && !strings.EqualFold(f.Department, filter.Department) {
			continue
		}
		if filter.Search != "" && !containsFold(f.Name, filter.Search) && !containsFold(f.Email, filter.Search) {
			continue
		}
		matched = append(matched, clone(f))
	}
	return paginate(matched, filter.Page, filter.PageSize), len(matched), nil
}

// All returns every faculty member in insertion order.
func (r *MemoryFacultyRepository) All(context.Context) ([]models.Faculty, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return clone(r.s.faculty.all()), nil
}

// FindByID returns a faculty member or sql.ErrNoRows.
func (r *MemoryFacultyRepository) FindByID(_ context.Context, id string) (*models.Faculty, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	f, ok := r.s.faculty.get(id)
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := clone(f)
	return &out, nil
}

// Create stores a new faculty member.
func (r *MemoryFacultyRepository) Create(_ context.Context, f *models.Faculty) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.stamp(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	r.s.faculty.put(f.ID, clone(*f))
	return nil
}

// Update replaces a faculty member.
func (r *MemoryFacultyRepository) Update(_ context.Context, f *models.Faculty) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.faculty.get(f.ID); !ok {
		return sql.ErrNoRows
	}
	r.s.stamp(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	r.s.faculty.put(f.ID, clone(*f))
	return nil
}

// Delete removes a faculty member.
func (r *MemoryFacultyRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.faculty.remove(id) {
		return sql.ErrNoRows
	}
	return nil
}

// MemorySubjectRepository stores subjects in a MemoryStore.
type MemorySubjectRepository struct{ s *MemoryStore }

// List returns subjects matching filter.
func (r *MemorySubjectRepository) List(_ context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var matched []models.Subject
	for _, sub := range r.s.subjects.all() {
		if filter.Semester != "" && sub.Semester != filter.Semester {
			continue
		}
		if filter.Kind != "" && sub.Kind != filter.Kind {
			continue
		}
		if filter.Search != "" && !containsFold(sub.Code, filter.Search) && !containsFold(sub.Name, filter.Search) {
			continue
		}
		matched = append(matched, clone(sub))
	}
	return paginate(matched, filter.Page, filter.PageSize), len(matched), nil
}

// All returns every subject in insertion order.
func (r *MemorySubjectRepository) All(context.Context) ([]models.Subject, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return clone(r.s.subjects.all()), nil
}

// FindByID returns a subject or sql.ErrNoRows.
func (r *MemorySubjectRepository) FindByID(_ context.Context, id string) (*models.Subject, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sub, ok := r.s.subjects.get(id)
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := clone(sub)
	return &out, nil
}

// FindByCode returns a subject by its case-insensitive code or sql.ErrNoRows.
func (r *MemorySubjectRepository) FindByCode(_ context.Context, code string) (*models.Subject, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, sub := range r.s.subjects.all() {
		if strings.EqualFold(sub.Code, code) {
			out := clone(sub)
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

// ExistsByCode checks uniqueness of subject code.
func (r *MemorySubjectRepository) ExistsByCode(_ context.Context, code, excludeID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, sub := range r.s.subjects.all() {
		if strings.EqualFold(sub.Code, code) && sub.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// Create stores a new subject.
func (r *MemorySubjectRepository) Create(_ context.Context, sub *models.Subject) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.stamp(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
	r.s.subjects.put(sub.ID, clone(*sub))
	return nil
}

// Update replaces a subject.
func (r *MemorySubjectRepository) Update(_ context.Context, sub *models.Subject) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.subjects.get(sub.ID); !ok {
		return sql.ErrNoRows
	}
	r.s.stamp(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
	r.s.subjects.put(sub.ID, clone(*sub))
	return nil
}

// Delete removes a subject.
func (r *MemorySubjectRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.subjects.remove(id) {
		return sql.ErrNoRows
	}
	return nil
}

// MemoryClassroomRepository stores classrooms in a MemoryStore.
type MemoryClassroomRepository struct{ s *MemoryStore }

// List returns classrooms matching filter.
func (r *MemoryClassroomRepository) List(_ context.Context, filter models.ClassroomFilter) ([]models.Classroom, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var matched []models.Classroom
	for _, room := range r.s.classrooms.all() {
		if filter.Kind != "" && room.Kind != filter.Kind {
			continue
		}
		if filter.Status != "" && room.Status != filter.Status {
			continue
		}
		if filter.Search != "" && !containsFold(room.Name, filter.Search) && !containsFold(room.Number, filter.Search) {
			continue
		}
		matched = append(matched, clone(room))
	}
	return paginate(matched, filter.Page, filter.PageSize), len(matched), nil
}

// All returns every classroom in insertion order.
func (r *MemoryClassroomRepository) All(context.Context) ([]models.Classroom, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return clone(r.s.classrooms.all()), nil
}

// FindByID returns a classroom or sql.ErrNoRows.
func (r *MemoryClassroomRepository) FindByID(_ context.Context, id string) (*models.Classroom, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	room, ok := r.s.classrooms.get(id)
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := clone(room)
	return &out, nil
}

// Create stores a new classroom.
func (r *MemoryClassroomRepository) Create(_ context.Context, room *models.Classroom) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.stamp(&room.ID, &room.CreatedAt, &room.UpdatedAt)
	r.s.classrooms.put(room.ID, clone(*room))
	return nil
}

// Update replaces a classroom.
func (r *MemoryClassroomRepository) Update(_ context.Context, room *models.Classroom) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.classrooms.get(room.ID); !ok {
		return sql.ErrNoRows
	}
	r.s.stamp(&room.ID, &room.CreatedAt, &room.UpdatedAt)
	r.s.classrooms.put(room.ID, clone(*room))
	return nil
}

// Delete removes a classroom.
func (r *MemoryClassroomRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.classrooms.remove(id) {
		return sql.ErrNoRows
	}
	return nil
}

// MemoryBatchRepository stores batches in a MemoryStore.
type MemoryBatchRepository struct{ s *MemoryStore }

// List returns batches matching filter.
func (r *MemoryBatchRepository) List(_ context.Context, filter models.BatchFilter) ([]models.Batch, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var matched []models.Batch
	for _, b := range r.s.batches.all() {
		if filter.Department != "" && !strings.EqualFold(b.Department, filter.Department) {
			continue
		}
		if filter.Semester != "" && b.Semester != filter.Semester {
			continue
		}
		if filter.Search != "" && !containsFold(b.Name, filter.Search) {
			continue
		}
		matched = append(matched, clone(b))
	}
	return paginate(matched, filter.Page, filter.PageSize), len(matched), nil
}

// All returns every batch in insertion order.
func (r *MemoryBatchRepository) All(context.Context) ([]models.Batch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return clone(r.s.batches.all()), nil
}

// FindByID returns a batch or sql.ErrNoRows.
func (r *MemoryBatchRepository) FindByID(_ context.Context, id string) (*models.Batch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.batches.get(id)
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := clone(b)
	return &out, nil
}

// CountBySubject returns how many batches take the subject code.
func (r *MemoryBatchRepository) CountBySubject(_ context.Context, code string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	count := 0
	for _, b := range r.s.batches.all() {
		for _, c := range b.Subjects {
			if strings.EqualFold(c, code) {
				count++
				break
			}
		}
	}
	return count, nil
}

// Create stores a new batch.
func (r *MemoryBatchRepository) Create(_ context.Context, b *models.Batch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.stamp(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	r.s.batches.put(b.ID, clone(*b))
	return nil
}

// Update replaces a batch.
func (r *MemoryBatchRepository) Update(_ context.Context, b *models.Batch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.batches.get(b.ID); !ok {
		return sql.ErrNoRows
	}
	r.s.stamp(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	r.s.batches.put(b.ID, clone(*b))
	return nil
}

// Delete removes a batch.
func (r *MemoryBatchRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.batches.remove(id) {
		return sql.ErrNoRows
	}
	return nil
}

// MemoryRulesRepository stores the single rules document.
type MemoryRulesRepository struct{ s *MemoryStore }

// Get returns the stored rules, or DefaultRules when none were saved.
func (r *MemoryRulesRepository) Get(context.Context) (*models.Rules, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.rules == nil {
		rules := models.DefaultRules()
		return &rules, nil
	}
	out := clone(*r.s.rules)
	return &out, nil
}

// Save replaces the rules document.
func (r *MemoryRulesRepository) Save(_ context.Context, rules *models.Rules) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rules.UpdatedAt = r.s.now()
	stored := clone(*rules)
	r.s.rules = &stored
	return nil
}

// MemoryTimetableRepository stores generated timetables.
type MemoryTimetableRepository struct{ s *MemoryStore }

// Create stores a timetable.
func (r *MemoryTimetableRepository) Create(_ context.Context, tt *models.Timetable) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if tt.ID == "" {
		tt.ID = uuid.NewString()
	}
	r.s.timetables.put(tt.ID, clone(*tt))
	return nil
}

// FindByID returns a timetable or sql.ErrNoRows.
func (r *MemoryTimetableRepository) FindByID(_ context.Context, id string) (*models.Timetable, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	tt, ok := r.s.timetables.get(id)
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := clone(tt)
	return &out, nil
}

// List returns timetable summaries, newest first.
func (r *MemoryTimetableRepository) List(_ context.Context, filter models.TimetableFilter) ([]models.TimetableSummary, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := r.s.timetables.all()
	summaries := make([]models.TimetableSummary, 0, len(all))
	for i := range all {
		summaries = append(summaries, all[i].Summary())
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].GeneratedAt.After(summaries[j].GeneratedAt)
	})
	return clone(paginate(summaries, filter.Page, filter.PageSize)), len(summaries), nil
}

// Delete removes a timetable.
func (r *MemoryTimetableRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.timetables.remove(id) {
		return sql.ErrNoRows
	}
	return nil
}
