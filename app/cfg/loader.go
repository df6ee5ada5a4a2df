package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./vertrack.db" description:"Path to the SQLite database file"`

	// Application configuration
	ItemsDir         string `long:"items-dir" env:"ITEMS_DIR" description:"Optional directory with YAML software definitions registered at startup"`
	Port             string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey     string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	CheckConcurrency int    `long:"check-concurrency" env:"CHECK_CONCURRENCY" default:"5" description:"Maximum number of concurrent registry lookups"`
	CheckTimeout     int    `long:"check-timeout" env:"CHECK_TIMEOUT" default:"30" description:"Timeout for a single registry lookup in seconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"vertrack/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:           raw.DBPath,
		ItemsDir:         raw.ItemsDir,
		Port:             raw.Port,
		APIAccessKey:     raw.APIAccessKey,
		CheckConcurrency: raw.CheckConcurrency,
		CheckTimeout:     raw.CheckTimeout,
		UserAgent:        raw.UserAgent,
		Timezone:         raw.Timezone,
		Debug:            raw.Debug,
		Version:          GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
