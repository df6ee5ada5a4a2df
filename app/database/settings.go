package database

// CacheConfig controls the TTL cache and the background refresh loop.
type CacheConfig struct {
	TTLMinutes          int  `json:"ttlMinutes"`
	AutoRefreshEnabled  bool `json:"autoRefreshEnabled"`
	AutoRefreshInterval int  `json:"autoRefreshInterval"`
}

// NotificationConfig controls when update notifications fire.
// Quiet hours are expressed as local hours of day (0-23); a nil bound
// disables the quiet-hour check entirely.
type NotificationConfig struct {
	Enabled            bool `json:"enabled"`
	NotifyOnMajor      bool `json:"notifyOnMajor"`
	NotifyOnMinor      bool `json:"notifyOnMinor"`
	NotifyOnPatch      bool `json:"notifyOnPatch"`
	NotifyOnPrerelease bool `json:"notifyOnPrerelease"`
	SilentStartHour    *int `json:"silentStartHour,omitempty"`
	SilentEndHour      *int `json:"silentEndHour,omitempty"`
	TestMode           bool `json:"testMode"`
}

// AppSettings is the user-configurable application state persisted in the
// settings key-value table.
type AppSettings struct {
	Cache        CacheConfig        `json:"cache"`
	GithubToken  string             `json:"githubToken,omitempty"`
	Notification NotificationConfig `json:"notification"`
}

func DefaultAppSettings() AppSettings {
	start, end := 22, 8
	return AppSettings{
		Cache: CacheConfig{
			TTLMinutes:          30,
			AutoRefreshEnabled:  true,
			AutoRefreshInterval: 60,
		},
		Notification: NotificationConfig{
			Enabled:            true,
			NotifyOnMajor:      true,
			NotifyOnMinor:      true,
			NotifyOnPatch:      false,
			NotifyOnPrerelease: false,
			SilentStartHour:    &start,
			SilentEndHour:      &end,
		},
	}
}
