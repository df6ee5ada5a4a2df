package database

import "time"

// SoftwareRepository handles persistence of tracked software items.
// GetAll returns items ordered by name. Lookups by id return ErrNotFound
// when no row matches.
type SoftwareRepository interface {
	GetAll() ([]Software, error)
	GetEnabled() ([]Software, error)
	Get(id string) (*Software, error)
	GetCount() (int, error)
	GetByName(name string) (*Software, error)

	Insert(sw Software) error
	Update(sw Software) error
	Delete(id string) error
	SetEnabled(id string, enabled bool) error

	UpdateCheckResult(id string, latestVersion string, localVersion *string, publishedAt *time.Time, checkedAt time.Time) error
	UpdateNotified(id string, version string, notifiedAt time.Time) error
}

// SettingsRepository handles the key-value settings table plus the typed
// AppSettings view over it.
type SettingsRepository interface {
	GetAll() (map[string]string, error)
	Set(key, value string) error

	LoadAppSettings() (AppSettings, error)
	SaveAppSettings(settings AppSettings) error
}
