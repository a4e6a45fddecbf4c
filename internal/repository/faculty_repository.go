package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/eduscheduler-api/internal/models"
)

const facultyColumns = "id, name, email, department, assigned_subjects, max_sessions_per_week, avg_leaves_per_month, availability, status, created_at, updated_at"

type facultyRow struct {
	ID                 string         `db:"id"`
	Name               string         `db:"name"`
	Email              string         `db:"email"`
	Department         string         `db:"department"`
	AssignedSubjects   types.JSONText `db:"assigned_subjects"`
	MaxSessionsPerWeek int            `db:"max_sessions_per_week"`
	AvgLeavesPerMonth  float64        `db:"avg_leaves_per_month"`
	Availability       types.JSONText `db:"availability"`
	Status             string         `db:"status"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

func newFacultyRow(f *models.Faculty) (*facultyRow, error) {
	subjects, err := toJSONText(f.AssignedSubjects)
	if err != nil {
		return nil, err
	}
	availability, err := toJSONText(f.Availability)
	if err != nil {
		return nil, err
	}
	return &facultyRow{
		ID:                 f.ID,
		Name:               f.Name,
		Email:              f.Email,
		Department:         f.Department,
		AssignedSubjects:   subjects,
		MaxSessionsPerWeek: f.MaxSessionsPerWeek,
		AvgLeavesPerMonth:  f.AvgLeavesPerMonth,
		Availability:       availability,
		Status:             string(f.Status),
		CreatedAt:          f.CreatedAt,
		UpdatedAt:          f.UpdatedAt,
	}, nil
}

func (row facultyRow) model() (models.Faculty, error) {
	f := models.Faculty{
		ID:                 row.ID,
		Name:               row.Name,
		Email:              row.Email,
		Department:         row.Department,
		MaxSessionsPerWeek: row.MaxSessionsPerWeek,
		AvgLeavesPerMonth:  row.AvgLeavesPerMonth,
		Status:             models.FacultyStatus(row.Status),
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
	if err := fromJSONText(row.AssignedSubjects, &f.AssignedSubjects); err != nil {
		return f, err
	}
	if err := fromJSONText(row.Availability, &f.Availability); err != nil {
		return f, err
	}
	return f, nil
}

// FacultyRepository persists faculty in postgres or sqlite.
type FacultyRepository struct {
	db *sqlx.DB
}

// NewFacultyRepository creates a new repository instance.
func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

// List returns faculty matching filters with the total count.
func (r *FacultyRepository) List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, int, error) {
	base := "FROM faculty WHERE 1=1"
	var args []interface{}
	if filter.Department != "" {
		base += " AND LOWER(department) = LOWER(?)"
		args = append(args, filter.Department)
	}
	if filter.Search != "" {
		base += " AND (LOWER(name) LIKE ? OR LOWER(email) LIKE ?)"
		like := "%" + strings.ToLower(filter.Search) + "%"
		args = append(args, like, like)
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at, id LIMIT %d OFFSET %d", facultyColumns, base, limit, offset)
	var rows []facultyRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, 0, fmt.Errorf("list faculty: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind("SELECT COUNT(*) "+base), args...); err != nil {
		return nil, 0, fmt.Errorf("count faculty: %w", err)
	}

	out, err := facultyModels(rows)
	return out, total, err
}

// All returns every faculty member ordered by creation.
func (r *FacultyRepository) All(ctx context.Context) ([]models.Faculty, error) {
	var rows []facultyRow
	if err := r.db.SelectContext(ctx, &rows, "SELECT "+facultyColumns+" FROM faculty ORDER BY created_at, id"); err != nil {
		return nil, fmt.Errorf("load faculty: %w", err)
	}
	return facultyModels(rows)
}

// FindByID returns a faculty member by id.
func (r *FacultyRepository) FindByID(ctx context.Context, id string) (*models.Faculty, error) {
	var row facultyRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind("SELECT "+facultyColumns+" FROM faculty WHERE id = ?"), id); err != nil {
		return nil, err
	}
	f, err := row.model()
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Create persists a new faculty member.
func (r *FacultyRepository) Create(ctx context.Context, f *models.Faculty) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now

	row, err := newFacultyRow(f)
	if err != nil {
		return err
	}
	const query = `INSERT INTO faculty (id, name, email, department, assigned_subjects, max_sessions_per_week, avg_leaves_per_month, availability, status, created_at, updated_at) VALUES (:id, :name, :email, :department, :assigned_subjects, :max_sessions_per_week, :avg_leaves_per_month, :availability, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create faculty: %w", err)
	}
	return nil
}

// Update modifies a faculty member.
func (r *FacultyRepository) Update(ctx context.Context, f *models.Faculty) error {
	f.UpdatedAt = time.Now().UTC()
	row, err := newFacultyRow(f)
	if err != nil {
		return err
	}
	const query = `UPDATE faculty SET name = :name, email = :email, department = :department, assigned_subjects = :assigned_subjects, max_sessions_per_week = :max_sessions_per_week, avg_leaves_per_month = :avg_leaves_per_month, availability = :availability, status = :status, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("update faculty: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a faculty member.
func (r *FacultyRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM faculty WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete faculty: %w", err)
	}
	return requireAffected(res)
}

func facultyModels(rows []facultyRow) ([]models.Faculty, error) {
	out := make([]models.Faculty, 0, len(rows))
	for _, row := range rows {
		f, err := row.model()
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
