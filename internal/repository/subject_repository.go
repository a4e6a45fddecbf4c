package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/eduscheduler-api/internal/models"
)

const subjectColumns = "id, code, name, semester, kind, weekly_hours, linked_faculty_ids, created_at, updated_at"

type subjectRow struct {
	ID               string         `db:"id"`
	Code             string         `db:"code"`
	Name             string         `db:"name"`
	Semester         string         `db:"semester"`
	Kind             string         `db:"kind"`
	WeeklyHours      int            `db:"weekly_hours"`
	LinkedFacultyIDs types.JSONText `db:"linked_faculty_ids"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func newSubjectRow(s *models.Subject) (*subjectRow, error) {
	linked, err := toJSONText(s.LinkedFacultyIDs)
	if err != nil {
		return nil, err
	}
	return &subjectRow{
		ID:               s.ID,
		Code:             s.Code,
		Name:             s.Name,
		Semester:         s.Semester,
		Kind:             string(s.Kind),
		WeeklyHours:      s.WeeklyHours,
		LinkedFacultyIDs: linked,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}, nil
}

func (row subjectRow) model() (models.Subject, error) {
	s := models.Subject{
		ID:          row.ID,
		Code:        row.Code,
		Name:        row.Name,
		Semester:    row.Semester,
		Kind:        models.SubjectKind(row.Kind),
		WeeklyHours: row.WeeklyHours,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	return s, fromJSONText(row.LinkedFacultyIDs, &s.LinkedFacultyIDs)
}

// SubjectRepository handles persistence for subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new repository instance.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns subjects matching filters with the total count.
func (r *SubjectRepository) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	base := "FROM subjects WHERE 1=1"
	var args []interface{}
	if filter.Semester != "" {
		base += " AND semester = ?"
		args = append(args, filter.Semester)
	}
	if filter.Kind != "" {
		base += " AND kind = ?"
		args = append(args, string(filter.Kind))
	}
	if filter.Search != "" {
		base += " AND (LOWER(code) LIKE ? OR LOWER(name) LIKE ?)"
		like := "%" + strings.ToLower(filter.Search) + "%"
		args = append(args, like, like)
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY code LIMIT %d OFFSET %d", subjectColumns, base, limit, offset)
	var rows []subjectRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, 0, fmt.Errorf("list subjects: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind("SELECT COUNT(*) "+base), args...); err != nil {
		return nil, 0, fmt.Errorf("count subjects: %w", err)
	}

	out, err := subjectModels(rows)
	return out, total, err
}

// All returns every subject ordered by creation.
func (r *SubjectRepository) All(ctx context.Context) ([]models.Subject, error) {
	var rows []subjectRow
	if err := r.db.SelectContext(ctx, &rows, "SELECT "+subjectColumns+" FROM subjects ORDER BY created_at, id"); err != nil {
		return nil, fmt.Errorf("load subjects: %w", err)
	}
	return subjectModels(rows)
}

// FindByID returns a subject by id.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByCode returns a subject by case-insensitive code.
func (r *SubjectRepository) FindByCode(ctx context.Context, code string) (*models.Subject, error) {
	return r.findOne(ctx, "LOWER(code) = LOWER(?)", code)
}

func (r *SubjectRepository) findOne(ctx context.Context, where string, arg string) (*models.Subject, error) {
	var row subjectRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind("SELECT "+subjectColumns+" FROM subjects WHERE "+where), arg); err != nil {
		return nil, err
	}
	s, err := row.model()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ExistsByCode checks uniqueness of subject code.
func (r *SubjectRepository) ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM subjects WHERE LOWER(code) = LOWER(?)"
	args := []interface{}{code}
	if excludeID != "" {
		query += " AND id <> ?"
		args = append(args, excludeID)
	}

	var exists int
	if err := r.db.GetContext(ctx, &exists, r.db.Rebind(query+" LIMIT 1"), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check subject code: %w", err)
	}
	return true, nil
}

// Create persists a new subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = now
	}
	subject.UpdatedAt = now

	row, err := newSubjectRow(subject)
	if err != nil {
		return err
	}
	const query = `INSERT INTO subjects (id, code, name, semester, kind, weekly_hours, linked_faculty_ids, created_at, updated_at) VALUES (:id, :code, :name, :semester, :kind, :weekly_hours, :linked_faculty_ids, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Update modifies a subject.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	subject.UpdatedAt = time.Now().UTC()
	row, err := newSubjectRow(subject)
	if err != nil {
		return err
	}
	const query = `UPDATE subjects SET code = :code, name = :name, semester = :semester, kind = :kind, weekly_hours = :weekly_hours, linked_faculty_ids = :linked_faculty_ids, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a subject record.
func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM subjects WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return requireAffected(res)
}

func subjectModels(rows []subjectRow) ([]models.Subject, error) {
	out := make([]models.Subject, 0, len(rows))
	for _, row := range rows {
		s, err := row.model()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
