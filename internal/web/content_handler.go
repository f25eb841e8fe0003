// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

package web

import (
	"net/http"
	"strconv"

	"github.com/slportal/slportal/internal/content"
)

func (s *Server) handleListAnnouncements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := content.ListOptions{
		Page:  queryInt(q.Get("page")),
		Limit: queryInt(q.Get("limit")),
	}
	announcements, err := s.content.ListAnnouncements(r.Context(), opts)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeOK(w, "", map[string]any{"announcements": announcements})
}

type createAnnouncementRequest struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Priority int    `json:"priority"`
	Status   string `json:"status"`
}

func (s *Server) handleCreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req createAnnouncementRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user := UserFromContext(r.Context())
	if user == nil {
		writeUnauthorized(w, "authentication required")
		return
	}

	announcement, err := s.content.CreateAnnouncement(r.Context(), content.CreateAnnouncementInput{
		Title:    req.Title,
		Body:     req.Body,
		AuthorID: user.ID,
		Priority: req.Priority,
		Status:   req.Status,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeCreated(w, "announcement created", announcement)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.content.ServerStatus(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeOK(w, "", status)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.content.Settings(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeOK(w, "", settings)
}

func queryInt(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
