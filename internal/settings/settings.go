// Package settings persists the user's choices from the settings screen:
// which system prompt variant the chat uses, and the database
// connection record for the external integration. Values live in the
// same namespaced key-value store as the custom prompt override.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nugget/promptdesk/internal/prompts"
)

// Settings keys within the shared namespace.
const (
	PromptIDKey         = "prompt_id"
	DatabaseSettingsKey = "database_settings"
)

// DatabaseSettings is the connection record edited on the database tab.
// It is stored as a JSON document.
type DatabaseSettings struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	Enabled  bool   `json:"enabled"`
}

// DefaultDatabaseSettings returns the record used before the user has
// saved anything.
func DefaultDatabaseSettings() DatabaseSettings {
	return DatabaseSettings{
		Host:     "localhost",
		Port:     3306,
		User:     "root",
		Password: "",
		Database: "bolt",
		Enabled:  false,
	}
}

// RedactedPassword replaces a stored password in anything shown to the
// user.
const RedactedPassword = "********"

// Redacted returns a copy with the password masked, for display.
func (d DatabaseSettings) Redacted() DatabaseSettings {
	if d.Password != "" {
		d.Password = RedactedPassword
	}
	return d
}

// Validate checks the record before it is stored.
func (d DatabaseSettings) Validate() error {
	if d.Port < 1 || d.Port > 65535 {
		return fmt.Errorf("port %d out of range (1-65535)", d.Port)
	}
	if d.Enabled && d.Host == "" {
		return errors.New("host is required when the connection is enabled")
	}
	return nil
}

// Service reads and writes settings through a prompts.KV.
type Service struct {
	kv      prompts.KV
	library *prompts.Library
	logger  *slog.Logger
}

// NewService creates a settings service. library validates prompt
// selections.
func NewService(kv prompts.KV, library *prompts.Library, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{kv: kv, library: library, logger: logger}
}

// SelectedPrompt returns the chosen prompt variant, or [prompts.Default]
// when nothing has been chosen. A stored value that no longer names a
// registered variant is reported as [prompts.ErrNotFound].
func (s *Service) SelectedPrompt() (prompts.Entry, error) {
	raw, err := s.kv.Get(PromptIDKey)
	if err != nil {
		return prompts.Entry{}, &prompts.PersistenceError{Op: "get", Key: PromptIDKey, Err: err}
	}
	if raw == "" {
		raw = string(prompts.Default)
	}
	return s.library.Lookup(raw)
}

// SelectPrompt validates id against the registry and persists it.
func (s *Service) SelectPrompt(id string) (prompts.Entry, error) {
	entry, err := s.library.Lookup(id)
	if err != nil {
		return prompts.Entry{}, err
	}
	if err := s.kv.Set(PromptIDKey, string(entry.ID)); err != nil {
		return prompts.Entry{}, &prompts.PersistenceError{Op: "set", Key: PromptIDKey, Err: err}
	}
	s.logger.Info("prompt selected", "prompt_id", entry.ID)
	return entry, nil
}

// Database returns the stored connection record, or the defaults when
// none is stored.
func (s *Service) Database() (DatabaseSettings, error) {
	raw, err := s.kv.Get(DatabaseSettingsKey)
	if err != nil {
		return DatabaseSettings{}, &prompts.PersistenceError{Op: "get", Key: DatabaseSettingsKey, Err: err}
	}
	if raw == "" {
		return DefaultDatabaseSettings(), nil
	}
	var d DatabaseSettings
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return DatabaseSettings{}, fmt.Errorf("decode %s: %w", DatabaseSettingsKey, err)
	}
	return d, nil
}

// SaveDatabase validates and stores the connection record, replacing
// any prior value.
func (s *Service) SaveDatabase(d DatabaseSettings) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("invalid database settings: %w", err)
	}
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode %s: %w", DatabaseSettingsKey, err)
	}
	if err := s.kv.Set(DatabaseSettingsKey, string(data)); err != nil {
		return &prompts.PersistenceError{Op: "set", Key: DatabaseSettingsKey, Err: err}
	}
	s.logger.Info("database settings updated", "host", d.Host, "port", d.Port, "enabled", d.Enabled)
	return nil
}
