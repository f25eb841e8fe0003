// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

// Package postgres implements the content repositories on PostgreSQL.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/slportal/slportal/internal/content"
)

// poolIface is the subset of pgxpool.Pool the repositories use.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AnnouncementRepository implements content.AnnouncementRepository
// using PostgreSQL.
type AnnouncementRepository struct {
	pool poolIface
}

// NewAnnouncementRepository creates a new AnnouncementRepository.
func NewAnnouncementRepository(pool poolIface) *AnnouncementRepository {
	return &AnnouncementRepository{pool: pool}
}

// List returns a page of announcements with author usernames joined.
func (r *AnnouncementRepository) List(ctx context.Context, opts content.ListOptions) ([]*content.Announcement, error) {
	offset := (opts.Page - 1) * opts.Limit

	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.title, a.body, a.author_id, u.username, a.priority, a.status, a.created_at, a.updated_at
		FROM announcements a
		JOIN users u ON a.author_id = u.id
		WHERE a.status = $1
		ORDER BY a.priority DESC, a.created_at DESC
		LIMIT $2 OFFSET $3
	`, opts.Status, opts.Limit, offset)
	if err != nil {
		return nil, oops.Code("ANNOUNCEMENT_LIST_FAILED").
			With("operation", "list announcements").
			With("status", opts.Status).
			Wrap(err)
	}
	defer rows.Close()

	var announcements []*content.Announcement
	for rows.Next() {
		var a content.Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Body, &a.AuthorID, &a.AuthorName,
			&a.Priority, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, oops.Code("ANNOUNCEMENT_SCAN_FAILED").
				With("operation", "scan announcement row").
				Wrap(err)
		}
		announcements = append(announcements, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, oops.Code("ANNOUNCEMENT_ROWS_ERROR").
			With("operation", "iterate announcement rows").
			Wrap(err)
	}

	return announcements, nil
}

// Create stores a new announcement and fills in its assigned ID.
func (r *AnnouncementRepository) Create(ctx context.Context, a *content.Announcement) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO announcements (title, body, author_id, priority, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, a.Title, a.Body, a.AuthorID, a.Priority, a.Status, a.CreatedAt, a.UpdatedAt).Scan(&a.ID)
	if err != nil {
		return oops.Code("ANNOUNCEMENT_CREATE_FAILED").
			With("operation", "insert announcement").
			With("author_id", a.AuthorID).
			Wrap(err)
	}
	return nil
}

// Compile-time interface check.
var _ content.AnnouncementRepository = (*AnnouncementRepository)(nil)
