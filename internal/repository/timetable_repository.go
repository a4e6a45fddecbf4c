package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/eduscheduler-api/internal/models"
)

type timetableRow struct {
	ID            string         `db:"id"`
	Title         string         `db:"title"`
	Algorithm     string         `db:"algorithm"`
	PeriodsPerDay int            `db:"periods_per_day"`
	Days          types.JSONText `db:"days"`
	PlacedCount   int            `db:"placed_count"`
	UnplacedCount int            `db:"unplaced_count"`
	GeneratedAt   time.Time      `db:"generated_at"`
	Payload       types.JSONText `db:"payload"`
}

// TimetableRepository stores generated timetables as JSON documents with
// summary columns for listing.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository creates a new repository instance.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// Create persists a generated timetable.
func (r *TimetableRepository) Create(ctx context.Context, t *models.Timetable) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.GeneratedAt.IsZero() {
		t.GeneratedAt = time.Now().UTC()
	}

	days, err := toJSONText(t.Days)
	if err != nil {
		return err
	}
	payload, err := toJSONText(t)
	if err != nil {
		return err
	}
	row := timetableRow{
		ID:            t.ID,
		Title:         t.Title,
		Algorithm:     t.Algorithm,
		PeriodsPerDay: t.PeriodsPerDay,
		Days:          days,
		PlacedCount:   t.PlacedCount(),
		UnplacedCount: t.UnplacedCount,
		GeneratedAt:   t.GeneratedAt,
		Payload:       payload,
	}

	const query = `INSERT INTO timetables (id, title, algorithm, periods_per_day, days, placed_count, unplaced_count, generated_at, payload) VALUES (:id, :title, :algorithm, :periods_per_day, :days, :placed_count, :unplaced_count, :generated_at, :payload)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create timetable: %w", err)
	}
	return nil
}

// FindByID loads the full timetable document.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	var payload types.JSONText
	if err := r.db.GetContext(ctx, &payload, r.db.Rebind("SELECT payload FROM timetables WHERE id = ?"), id); err != nil {
		return nil, err
	}
	var t models.Timetable
	if err := fromJSONText(payload, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns timetable summaries, newest first.
func (r *TimetableRepository) List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableSummary, int, error) {
	limit, offset := pageBounds(filter.Page, filter.PageSize)
	query := fmt.Sprintf(`SELECT id, title, algorithm, periods_per_day, days, placed_count, unplaced_count, generated_at
FROM timetables ORDER BY generated_at DESC, id LIMIT %d OFFSET %d`, limit, offset)

	var rows []timetableRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, 0, fmt.Errorf("list timetables: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM timetables"); err != nil {
		return nil, 0, fmt.Errorf("count timetables: %w", err)
	}

	out := make([]models.TimetableSummary, 0, len(rows))
	for _, row := range rows {
		summary := models.TimetableSummary{
			ID:            row.ID,
			Title:         row.Title,
			GeneratedAt:   row.GeneratedAt,
			PeriodsPerDay: row.PeriodsPerDay,
			PlacedCount:   row.PlacedCount,
			UnplacedCount: row.UnplacedCount,
		}
		if err := fromJSONText(row.Days, &summary.Days); err != nil {
			return nil, 0, err
		}
		out = append(out, summary)
	}
	return out, total, nil
}

// Delete removes a stored timetable.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM timetables WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete timetable: %w", err)
	}
	return requireAffected(res)
}
