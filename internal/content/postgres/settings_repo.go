// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/slportal/slportal/internal/content"
)

// SettingsRepository implements content.SettingsRepository using
// PostgreSQL.
type SettingsRepository struct {
	pool poolIface
}

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(pool poolIface) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// GetAll returns every setting as a key/value map.
func (r *SettingsRepository) GetAll(ctx context.Context) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value FROM site_settings`)
	if err != nil {
		return nil, oops.Code("SETTINGS_GET_ALL_FAILED").
			With("operation", "get site settings").
			Wrap(err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, oops.Code("SETTINGS_SCAN_FAILED").
				With("operation", "scan setting row").
				Wrap(err)
		}
		settings[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, oops.Code("SETTINGS_ROWS_ERROR").
			With("operation", "iterate setting rows").
			Wrap(err)
	}

	return settings, nil
}

// Get returns a single setting value.
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, error) {
	row := r.pool.QueryRow(ctx, `SELECT value FROM site_settings WHERE key = $1`, key)

	var value string
	err := row.Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", oops.Code("SETTING_NOT_FOUND").
			With("key", key).
			Wrap(content.ErrNotFound)
	}
	if err != nil {
		return "", oops.Code("SETTING_GET_FAILED").
			With("operation", "get setting").
			With("key", key).
			Wrap(err)
	}
	return value, nil
}

// Compile-time interface check.
var _ content.SettingsRepository = (*SettingsRepository)(nil)
