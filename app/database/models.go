package database

import (
	"time"
)

// SourceType identifies the package registry a software item is tracked on.
// The set is closed; dispatch lives in the registry package.
type SourceType string

const (
	SourceGithubRelease SourceType = "github-release"
	SourceGithubTags    SourceType = "github-tags"
	SourceHomebrew      SourceType = "homebrew"
	SourceNpm           SourceType = "npm"
	SourcePypi          SourceType = "pypi"
	SourceCargo         SourceType = "cargo"
)

// ParseSourceType returns the SourceType for s, or false when s is not a
// known registry kind.
func ParseSourceType(s string) (SourceType, bool) {
	switch SourceType(s) {
	case SourceGithubRelease, SourceGithubTags, SourceHomebrew, SourceNpm, SourcePypi, SourceCargo:
		return SourceType(s), true
	}
	return "", false
}

// SourceConfig describes where the latest version of a software item is
// published: a registry kind plus the registry-specific identifier
// (e.g. "cli/cli" for a GitHub repo, "ripgrep" for a Homebrew formula).
type SourceConfig struct {
	Type       SourceType `json:"type" yaml:"type"`
	Identifier string     `json:"identifier" yaml:"identifier"`
}

// ProbeConfig describes how to detect the locally installed version of a
// software item by running a command.
type ProbeConfig struct {
	Command    string `json:"command" yaml:"command"`
	VersionArg string `json:"versionArg,omitempty" yaml:"version_arg,omitempty"`
}

// Software is a tracked software item.
type Software struct {
	ID                  string       `json:"id"`
	Name                string       `json:"name"`
	Source              SourceConfig `json:"source"`
	LocalProbe          *ProbeConfig `json:"localProbe,omitempty"`
	LatestVersion       *string      `json:"latestVersion,omitempty"`
	LocalVersion        *string      `json:"localVersion,omitempty"`
	PublishedAt         *time.Time   `json:"publishedAt,omitempty"`
	LastCheckedAt       *time.Time   `json:"lastCheckedAt,omitempty"`
	Enabled             bool         `json:"enabled"`
	LastNotifiedVersion *string      `json:"lastNotifiedVersion,omitempty"`
	LastNotifiedAt      *time.Time   `json:"lastNotifiedAt,omitempty"`
}
