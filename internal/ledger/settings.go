package ledger

import (
	"context"
	"encoding/json"
	"fmt"
)

// SettingsKey is the blob key for user settings.
const SettingsKey = "settings"

// Settings are the user preferences carried in an export document.
type Settings struct {
	DarkMode bool `json:"darkMode"`
}

// SettingsStore persists Settings next to the ledger.
type SettingsStore struct {
	storage Storage
}

func NewSettingsStore(storage Storage) *SettingsStore {
	return &SettingsStore{storage: storage}
}

// Load returns the stored settings, or the zero value when none are saved.
func (s *SettingsStore) Load(ctx context.Context) (Settings, error) {
	raw, ok, err := s.storage.Get(ctx, SettingsKey)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	var out Settings
	if !ok || len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return out, nil
}

func (s *SettingsStore) Save(ctx context.Context, settings Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.storage.Put(ctx, SettingsKey, raw); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// ToggleDarkMode flips and saves the dark mode preference.
func (s *SettingsStore) ToggleDarkMode(ctx context.Context) (Settings, error) {
	cur, err := s.Load(ctx)
	if err != nil {
		return Settings{}, err
	}
	cur.DarkMode = !cur.DarkMode
	if err := s.Save(ctx, cur); err != nil {
		return Settings{}, err
	}
	return cur, nil
}

// Reset deletes the stored settings.
func (s *SettingsStore) Reset(ctx context.Context) error {
	if err := s.storage.Delete(ctx, SettingsKey); err != nil {
		return fmt.Errorf("delete settings: %w", err)
	}
	return nil
}
