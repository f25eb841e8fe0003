// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

package content

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// Setting keys used by the status snapshot.
const (
	SettingServerName    = "server_name"
	SettingServerAddress = "server_address"
	SettingMaxPlayers    = "max_players"
	SettingOnlinePlayers = "online_players"
	SettingMOTD          = "motd"
)

// SettingsRepository manages site settings persistence.
type SettingsRepository interface {
	// GetAll returns every public setting as a key/value map.
	GetAll(ctx context.Context) (map[string]string, error)

	// Get returns a single setting value.
	// Returns ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string) (string, error)
}

// ServerStatus is the game-server status snapshot derived from settings.
// The game server itself reports these values through a privileged
// updater outside this repository.
type ServerStatus struct {
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	OnlinePlayers int       `json:"online_players"`
	MaxPlayers    int       `json:"max_players"`
	MOTD          string    `json:"motd"`
	CheckedAt     time.Time `json:"checked_at"`
}

// Settings returns the public site settings.
func (s *Service) Settings(ctx context.Context) (map[string]string, error) {
	return s.settings.GetAll(ctx)
}

// ServerStatus builds the status snapshot from stored settings.
// Missing keys degrade to zero values rather than failing the endpoint.
func (s *Service) ServerStatus(ctx context.Context) (*ServerStatus, error) {
	all, err := s.settings.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	status := &ServerStatus{
		Name:      all[SettingServerName],
		Address:   all[SettingServerAddress],
		MOTD:      all[SettingMOTD],
		CheckedAt: time.Now(),
	}
	if v, err := strconv.Atoi(all[SettingMaxPlayers]); err == nil {
		status.MaxPlayers = v
	}
	if v, err := strconv.Atoi(all[SettingOnlinePlayers]); err == nil {
		status.OnlinePlayers = v
	}
	return status, nil
}

// IsNotFound reports whether err means missing content.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
