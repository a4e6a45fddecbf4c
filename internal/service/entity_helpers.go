package service

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/eduscheduler-api/internal/models"
	appErrors "github.com/noah-isme/eduscheduler-api/pkg/errors"
)

func newPagination(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

// loadError maps repository lookups to NOT_FOUND or INTERNAL_ERROR.
func loadError(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+entity)
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// parseAvailability keeps nil as "every day" and an empty object as "no day".
func parseAvailability(raw map[string][]string) (models.Availability, error) {
	if raw == nil {
		return nil, nil
	}
	out := make(models.Availability, len(raw))
	for key, bands := range raw {
		day, ok := models.ParseDayName(key)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown availability day %q", key))
		}
		cleaned := make([]string, 0, len(bands))
		for _, band := range bands {
			if band = strings.TrimSpace(band); band != "" {
				cleaned = append(cleaned, band)
			}
		}
		out[day] = append(out[day], cleaned...)
	}
	return out, nil
}

// normalizeCodes upper-cases subject codes and drops blanks and duplicates, keeping first-seen order.
func normalizeCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = normalizeCode(code)
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func trimmedIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
