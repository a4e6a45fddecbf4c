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

const batchColumns = "id, name, department, semester, year, strength, subjects, faculty_assignments, created_at, updated_at"

type batchRow struct {
	ID                 string         `db:"id"`
	Name               string         `db:"name"`
	Department         string         `db:"department"`
	Semester           string         `db:"semester"`
	Year               string         `db:"year"`
	Strength           int            `db:"strength"`
	Subjects           types.JSONText `db:"subjects"`
	FacultyAssignments types.JSONText `db:"faculty_assignments"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

func newBatchRow(b *models.Batch) (*batchRow, error) {
	subjects, err := toJSONText(b.Subjects)
	if err != nil {
		return nil, err
	}
	assignments := b.FacultyAssignments
	if assignments == nil {
		assignments = map[string]string{}
	}
	assigned, err := toJSONText(assignments)
	if err != nil {
		return nil, err
	}
	return &batchRow{
		ID:                 b.ID,
		Name:               b.Name,
		Department:         b.Department,
		Semester:           b.Semester,
		Year:               b.Year,
		Strength:           b.Strength,
		Subjects:           subjects,
		FacultyAssignments: assigned,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}, nil
}

func (row batchRow) model() (models.Batch, error) {
	b := models.Batch{
		ID:         row.ID,
		Name:       row.Name,
		Department: row.Department,
		Semester:   row.Semester,
		Year:       row.Year,
		Strength:   row.Strength,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
	if err := fromJSONText(row.Subjects, &b.Subjects); err != nil {
		return b, err
	}
	return b, fromJSONText(row.FacultyAssignments, &b.FacultyAssignments)
}

// BatchRepository persists student batches.
type BatchRepository struct {
	db *sqlx.DB
}

// NewBatchRepository creates a new repository instance.
func NewBatchRepository(db *sqlx.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// List returns batches matching filters with the total count.
func (r *BatchRepository) List(ctx context.Context, filter models.BatchFilter) ([]models.Batch, int, error) {
	base := "FROM batches WHERE 1=1"
	var args []interface{}
	if filter.Department != "" {
		base += " AND department = ?"
		args = append(args, filter.Department)
	}
	if filter.Semester != "" {
		base += " AND semester = ?"
		args = append(args, filter.Semester)
	}
	if filter.Search != "" {
		base += " AND (LOWER(name) LIKE ? OR LOWER(id) LIKE ?)"
		like := "%" + strings.ToLower(filter.Search) + "%"
		args = append(args, like, like)
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at, id LIMIT %d OFFSET %d", batchColumns, base, limit, offset)
	var rows []batchRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, 0, fmt.Errorf("list batches: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind("SELECT COUNT(*) "+base), args...); err != nil {
		return nil, 0, fmt.Errorf("count batches: %w", err)
	}

	out, err := batchModels(rows)
	return out, total, err
}

// All returns every batch ordered by creation.
func (r *BatchRepository) All(ctx context.Context) ([]models.Batch, error) {
	var rows []batchRow
	if err := r.db.SelectContext(ctx, &rows, "SELECT "+batchColumns+" FROM batches ORDER BY created_at, id"); err != nil {
		return nil, fmt.Errorf("load batches: %w", err)
	}
	return batchModels(rows)
}

// FindByID returns a batch by id.
func (r *BatchRepository) FindByID(ctx context.Context, id string) (*models.Batch, error) {
	var row batchRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind("SELECT "+batchColumns+" FROM batches WHERE id = ?"), id); err != nil {
		return nil, err
	}
	b, err := row.model()
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CountBySubject returns how many batches list the subject code.
func (r *BatchRepository) CountBySubject(ctx context.Context, code string) (int, error) {
	var total int
	like := `%"` + code + `"%`
	if err := r.db.GetContext(ctx, &total, r.db.Rebind("SELECT COUNT(*) FROM batches WHERE subjects LIKE ?"), like); err != nil {
		return 0, fmt.Errorf("count batches by subject: %w", err)
	}
	return total, nil
}

// Create persists a new batch.
func (r *BatchRepository) Create(ctx context.Context, b *models.Batch) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	row, err := newBatchRow(b)
	if err != nil {
		return err
	}
	const query = `INSERT INTO batches (id, name, department, semester, year, strength, subjects, faculty_assignments, created_at, updated_at) VALUES (:id, :name, :department, :semester, :year, :strength, :subjects, :faculty_assignments, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}

// Update modifies a batch.
func (r *BatchRepository) Update(ctx context.Context, b *models.Batch) error {
	b.UpdatedAt = time.Now().UTC()
	row, err := newBatchRow(b)
	if err != nil {
		return err
	}
	const query = `UPDATE batches SET name = :name, department = :department, semester = :semester, year = :year, strength = :strength, subjects = :subjects, faculty_assignments = :faculty_assignments, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("update batch: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a batch.
func (r *BatchRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM batches WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	return requireAffected(res)
}

func batchModels(rows []batchRow) ([]models.Batch, error) {
	out := make([]models.Batch, 0, len(rows))
	for _, row := range rows {
		b, err := row.model()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
