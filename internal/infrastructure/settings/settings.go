// Package settings provides the user preferences consulted before every
// interception.
package settings

import (
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/ecoswap/backend/internal/domain"
)

// Static is a fixed settings value.
type Static domain.Settings

// Current implements domain.SettingsProvider.
func (s Static) Current() domain.Settings {
	return domain.Settings(s)
}

// Default is interception enabled in auto mode.
func Default() Static {
	return Static{Enabled: true, Mode: domain.ModeAuto}
}

// Store holds the current settings behind an atomic pointer so readers on
// the interception path never block.
type Store struct {
	current atomic.Pointer[domain.Settings]
	log     *slog.Logger
}

// NewStore creates a store seeded with initial.
func NewStore(initial domain.Settings, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{log: logger.With("component", "settings")}
	s.Set(initial)
	return s
}

// Current implements domain.SettingsProvider.
func (s *Store) Current() domain.Settings {
	return *s.current.Load()
}

// Set replaces the settings. An invalid mode falls back to auto.
func (s *Store) Set(next domain.Settings) {
	if !next.Mode.Valid() {
		next.Mode = domain.ModeAuto
	}
	s.current.Store(&next)
}

// FromViper reads the settings section of v.
func FromViper(v *viper.Viper) domain.Settings {
	return domain.Settings{
		Enabled: v.GetBool("settings.enabled"),
		Mode:    domain.ClassificationMode(strings.ToLower(strings.TrimSpace(v.GetString("settings.mode")))),
	}
}

// Watch reloads the store whenever the config file behind v changes. It is
// a no-op when v was not loaded from a file.
func (s *Store) Watch(v *viper.Viper) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		s.Reload(v, e)
	})
	v.WatchConfig()
	s.log.Info("watching config for settings changes", "file", v.ConfigFileUsed())
}

// Reload applies the settings section of v. An invalid mode keeps the
// previous settings.
func (s *Store) Reload(v *viper.Viper, e fsnotify.Event) {
	next := FromViper(v)
	if !next.Mode.Valid() {
		s.log.Warn("ignoring settings reload with invalid mode", "file", e.Name, "mode", next.Mode)
		return
	}
	prev := s.Current()
	s.Set(next)
	s.log.Info("settings reloaded",
		"file", e.Name,
		"op", e.Op.String(),
		"enabled", next.Enabled,
		"mode", next.Mode,
		"previous_mode", prev.Mode,
	)
}
