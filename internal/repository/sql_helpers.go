package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx/types"
)

// Queries in this package use "?" placeholders and go through DB.Rebind, so the
// same text runs on postgres ($n) and sqlite (?).

func toJSONText(v interface{}) (types.JSONText, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json column: %w", err)
	}
	return types.JSONText(raw), nil
}

func fromJSONText(raw types.JSONText, dest interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := raw.Unmarshal(dest); err != nil {
		return fmt.Errorf("decode json column: %w", err)
	}
	return nil
}

func pageBounds(page, size int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return size, (page - 1) * size
}

// requireAffected maps a zero-row write to sql.ErrNoRows.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
