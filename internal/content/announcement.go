// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

// Package content provides the site's published content: announcements,
// site settings, and the game-server status snapshot. It consumes the
// auth core's outputs (a validated user identity and role) and has no
// auth logic of its own.
package content

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/samber/oops"
)

// Announcement publication states.
const (
	AnnouncementPublished = "published"
	AnnouncementDraft     = "draft"
	AnnouncementArchived  = "archived"
)

// Pagination bounds for announcement listings.
const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// CodeInvalid marks content validation failures.
const CodeInvalid = "CONTENT_INVALID"

// ErrNotFound is returned when requested content does not exist.
var ErrNotFound = errors.New("not found")

// Announcement is a site news post.
type Announcement struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	AuthorID   int64     `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Priority   int       `json:"priority"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ListOptions selects a page of announcements.
type ListOptions struct {
	Status string
	Page   int
	Limit  int
}

// normalize clamps pagination and defaults the status filter.
func (o ListOptions) normalize() ListOptions {
	if o.Status == "" {
		o.Status = AnnouncementPublished
	}
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 {
		o.Limit = DefaultPageSize
	}
	if o.Limit > MaxPageSize {
		o.Limit = MaxPageSize
	}
	return o
}

// AnnouncementRepository manages announcement persistence.
type AnnouncementRepository interface {
	// List returns a page of announcements ordered by priority then
	// recency, with the author's username joined in.
	List(ctx context.Context, opts ListOptions) ([]*Announcement, error)

	// Create stores a new announcement and fills in its assigned ID.
	Create(ctx context.Context, a *Announcement) error
}

// Service validates and serves announcements.
type Service struct {
	announcements AnnouncementRepository
	settings      SettingsRepository
}

// NewService creates a content Service.
func NewService(announcements AnnouncementRepository, settings SettingsRepository) (*Service, error) {
	if announcements == nil {
		return nil, oops.Errorf("announcement repository is required")
	}
	if settings == nil {
		return nil, oops.Errorf("settings repository is required")
	}
	return &Service{announcements: announcements, settings: settings}, nil
}

// ListAnnouncements returns a page of announcements.
func (s *Service) ListAnnouncements(ctx context.Context, opts ListOptions) ([]*Announcement, error) {
	return s.announcements.List(ctx, opts.normalize())
}

// CreateAnnouncementInput carries the fields of a new announcement.
// AuthorID comes from the authenticated session, never the request body.
type CreateAnnouncementInput struct {
	Title    string
	Body     string
	AuthorID int64
	Priority int
	Status   string
}

// CreateAnnouncement validates and stores a new announcement.
func (s *Service) CreateAnnouncement(ctx context.Context, input CreateAnnouncementInput) (*Announcement, error) {
	title := strings.TrimSpace(input.Title)
	body := strings.TrimSpace(input.Body)
	if title == "" {
		return nil, oops.Code(CodeInvalid).Errorf("title cannot be empty")
	}
	if len(title) > 200 {
		return nil, oops.Code(CodeInvalid).Errorf("title must be at most 200 characters")
	}
	if body == "" {
		return nil, oops.Code(CodeInvalid).Errorf("body cannot be empty")
	}
	if input.AuthorID <= 0 {
		return nil, oops.Code(CodeInvalid).Errorf("author is required")
	}

	status := input.Status
	if status == "" {
		status = AnnouncementPublished
	}
	switch status {
	case AnnouncementPublished, AnnouncementDraft, AnnouncementArchived:
	default:
		return nil, oops.Code(CodeInvalid).
			With("status", status).
			Errorf("unknown announcement status %q", status)
	}

	now := time.Now()
	a := &Announcement{
		Title:     title,
		Body:      body,
		AuthorID:  input.AuthorID,
		Priority:  input.Priority,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.announcements.Create(ctx, a); err != nil {
		return nil, oops.Code("CONTENT_CREATE_FAILED").
			With("operation", "create announcement").
			Wrap(err)
	}
	return a, nil
}
