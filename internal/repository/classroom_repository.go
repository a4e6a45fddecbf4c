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

const classroomColumns = "id, name, number, building, capacity, kind, equipment, availability, status, created_at, updated_at"

type classroomRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Number       string         `db:"number"`
	Building     string         `db:"building"`
	Capacity     int            `db:"capacity"`
	Kind         string         `db:"kind"`
	Equipment    types.JSONText `db:"equipment"`
	Availability types.JSONText `db:"availability"`
	Status       string         `db:"status"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func newClassroomRow(c *models.Classroom) (*classroomRow, error) {
	equipment, err := toJSONText(c.Equipment)
	if err != nil {
		return nil, err
	}
	availability, err := toJSONText(c.Availability)
	if err != nil {
		return nil, err
	}
	return &classroomRow{
		ID:           c.ID,
		Name:         c.Name,
		Number:       c.Number,
		Building:     c.Building,
		Capacity:     c.Capacity,
		Kind:         string(c.Kind),
		Equipment:    equipment,
		Availability: availability,
		Status:       string(c.Status),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}, nil
}

func (row classroomRow) model() (models.Classroom, error) {
	c := models.Classroom{
		ID:        row.ID,
		Name:      row.Name,
		Number:    row.Number,
		Building:  row.Building,
		Capacity:  row.Capacity,
		Kind:      models.ClassroomKind(row.Kind),
		Status:    models.ClassroomStatus(row.Status),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if err := fromJSONText(row.Equipment, &c.Equipment); err != nil {
		return c, err
	}
	return c, fromJSONText(row.Availability, &c.Availability)
}

// ClassroomRepository persists classrooms.
type ClassroomRepository struct {
	db *sqlx.DB
}

// NewClassroomRepository creates a new repository instance.
func NewClassroomRepository(db *sqlx.DB) *ClassroomRepository {
	return &ClassroomRepository{db: db}
}

// List returns classrooms matching filters with the total count.
func (r *ClassroomRepository) List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, int, error) {
	base := "FROM classrooms WHERE 1=1"
	var args []interface{}
	if filter.Kind != "" {
		base += " AND kind = ?"
		args = append(args, string(filter.Kind))
	}
	if filter.Status != "" {
		base += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.Search != "" {
		base += " AND (LOWER(name) LIKE ? OR LOWER(number) LIKE ?)"
		like := "%" + strings.ToLower(filter.Search) + "%"
		args = append(args, like, like)
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at, id LIMIT %d OFFSET %d", classroomColumns, base, limit, offset)
	var rows []classroomRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, 0, fmt.Errorf("list classrooms: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind("SELECT COUNT(*) "+base), args...); err != nil {
		return nil, 0, fmt.Errorf("count classrooms: %w", err)
	}

	out, err := classroomModels(rows)
	return out, total, err
}

// All returns every classroom ordered by creation.
func (r *ClassroomRepository) All(ctx context.Context) ([]models.Classroom, error) {
	var rows []classroomRow
	if err := r.db.SelectContext(ctx, &rows, "SELECT "+classroomColumns+" FROM classrooms ORDER BY created_at, id"); err != nil {
		return nil, fmt.Errorf("load classrooms: %w", err)
	}
	return classroomModels(rows)
}

// FindByID returns a classroom by id.
func (r *ClassroomRepository) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	var row classroomRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind("SELECT "+classroomColumns+" FROM classrooms WHERE id = ?"), id); err != nil {
		return nil, err
	}
	c, err := row.model()
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create persists a new classroom.
func (r *ClassroomRepository) Create(ctx context.Context, c *models.Classroom) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	row, err := newClassroomRow(c)
	if err != nil {
		return err
	}
	const query = `INSERT INTO classrooms (id, name, number, building, capacity, kind, equipment, availability, status, created_at, updated_at) VALUES (:id, :name, :number, :building, :capacity, :kind, :equipment, :availability, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create classroom: %w", err)
	}
	return nil
}

// Update modifies a classroom.
func (r *ClassroomRepository) Update(ctx context.Context, c *models.Classroom) error {
	c.UpdatedAt = time.Now().UTC()
	row, err := newClassroomRow(c)
	if err != nil {
		return err
	}
	const query = `UPDATE classrooms SET name = :name, number = :number, building = :building, capacity = :capacity, kind = :kind, equipment = :equipment, availability = :availability, status = :status, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("update classroom: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a classroom.
func (r *ClassroomRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM classrooms WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete classroom: %w", err)
	}
	return requireAffected(res)
}

func classroomModels(rows []classroomRow) ([]models.Classroom, error) {
	out := make([]models.Classroom, 0, len(rows))
	for _, row := range rows {
		c, err := row.model()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
