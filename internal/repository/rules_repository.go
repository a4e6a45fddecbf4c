package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/eduscheduler-api/internal/models"
)

// the rules table holds a single row
const rulesRowID = 1

type rulesRow struct {
	ID        int            `db:"id"`
	Payload   types.JSONText `db:"payload"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// RulesRepository stores the global scheduling rules document.
type RulesRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewRulesRepository creates a new repository instance.
func NewRulesRepository(db *sqlx.DB) *RulesRepository {
	return &RulesRepository{db: db, now: time.Now}
}

// Get returns the stored rules or the defaults when nothing was saved yet.
func (r *RulesRepository) Get(ctx context.Context) (*models.Rules, error) {
	var row rulesRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind("SELECT id, payload, updated_at FROM scheduling_rules WHERE id = ?"), rulesRowID)
	if errors.Is(err, sql.ErrNoRows) {
		rules := models.DefaultRules()
		return &rules, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	rules := models.DefaultRules()
	if err := fromJSONText(row.Payload, &rules); err != nil {
		return nil, err
	}
	rules.UpdatedAt = row.UpdatedAt
	return &rules, nil
}

// Save replaces the rules document.
func (r *RulesRepository) Save(ctx context.Context, rules *models.Rules) error {
	rules.UpdatedAt = r.now().UTC()
	payload, err := toJSONText(rules)
	if err != nil {
		return err
	}

	const query = `INSERT INTO scheduling_rules (id, payload, updated_at) VALUES (:id, :payload, :updated_at)
ON CONFLICT (id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
	row := rulesRow{ID: rulesRowID, Payload: payload, UpdatedAt: rules.UpdatedAt}
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("save rules: %w", err)
	}
	return nil
}
