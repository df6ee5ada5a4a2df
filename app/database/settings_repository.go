package database

import (
	"encoding/json"
	"fmt"
)

// Settings keys. Cache and notification settings are stored as JSON blobs,
// the token as a plain string value.
const (
	settingsKeyCache        = "cache"
	settingsKeyNotification = "notification"
	settingsKeyGithubToken  = "github_token"
)

type settingsRepository struct {
	db *DB
}

func NewSettingsRepository(db *DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) GetAll() (map[string]string, error) {
	rows, err := r.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan settings row: %w", err)
		}
		settings[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settings rows: %w", err)
	}
	return settings, nil
}

func (r *settingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting %q: %w", key, err)
	}
	return nil
}

// LoadAppSettings reads the typed settings view. Missing or malformed keys
// fall back to defaults so a fresh database starts with a usable
// configuration.
func (r *settingsRepository) LoadAppSettings() (AppSettings, error) {
	settings := DefaultAppSettings()

	raw, err := r.GetAll()
	if err != nil {
		return settings, err
	}

	if v, ok := raw[settingsKeyCache]; ok {
		var cache CacheConfig
		if err := json.Unmarshal([]byte(v), &cache); err == nil {
			settings.Cache = cache
		}
	}
	if v, ok := raw[settingsKeyNotification]; ok {
		var notification NotificationConfig
		if err := json.Unmarshal([]byte(v), &notification); err == nil {
			settings.Notification = notification
		}
	}
	if v, ok := raw[settingsKeyGithubToken]; ok {
		settings.GithubToken = v
	}

	return settings, nil
}

func (r *settingsRepository) SaveAppSettings(settings AppSettings) error {
	cache, err := json.Marshal(settings.Cache)
	if err != nil {
		return fmt.Errorf("failed to marshal cache settings: %w", err)
	}
	notification, err := json.Marshal(settings.Notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification settings: %w", err)
	}

	if err := r.Set(settingsKeyCache, string(cache)); err != nil {
		return err
	}
	if err := r.Set(settingsKeyNotification, string(notification)); err != nil {
		return err
	}
	return r.Set(settingsKeyGithubToken, settings.GithubToken)
}
