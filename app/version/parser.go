package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Parsed is the result of tolerant version parsing: a semantic version when
// the string could be resolved to one, otherwise the normalized string kept
// opaque. Parsing never fails.
type Parsed struct {
	Semantic *semver.Version
	Opaque   string
}

func (p Parsed) IsSemantic() bool {
	return p.Semantic != nil
}

// Normalize trims whitespace and strips a single leading "v" prefix.
func Normalize(raw string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "v"))
}

// Parse converts an arbitrary registry version string into a Parsed value.
// Registries mix strict semver, truncated versions ("1.2", "5") and date- or
// build-based schemes, so resolution is a ladder; the first successful step
// wins:
//
//  1. strict major.minor.patch semver parse
//  2. retry with ".0" appended (two-component forms)
//  3. purely numeric input, retry with ".0.0" (bare major versions)
//  4. split on "." and "_" and reassemble three numeric-leading components,
//     unless the string looks like a calendar date
//  5. keep the normalized string opaque
func Parse(raw string) Parsed {
	cleaned := Normalize(raw)

	if v, err := semver.StrictNewVersion(cleaned); err == nil {
		return Parsed{Semantic: v}
	}

	if v, err := semver.StrictNewVersion(cleaned + ".0"); err == nil {
		return Parsed{Semantic: v}
	}

	if isNumeric(cleaned) {
		if v, err := semver.StrictNewVersion(cleaned + ".0.0"); err == nil {
			return Parsed{Semantic: v}
		}
	}

	if v := parseLoose(cleaned); v != nil {
		return Parsed{Semantic: v}
	}

	return Parsed{Opaque: cleaned}
}

// parseLoose handles versions with extra suffixes such as "1.2.3_1" or
// "1.2.3.4". Strings with more than one hyphen are skipped, and a first
// component of 1000 or above is taken as a calendar year, so "2024-01-15"
// stays opaque.
func parseLoose(cleaned string) *semver.Version {
	if strings.Count(cleaned, "-") > 1 {
		return nil
	}

	parts := strings.FieldsFunc(cleaned, func(r rune) bool {
		return r == '.' || r == '_'
	})
	if len(parts) < 3 {
		return nil
	}

	major, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return nil
	}
	minor, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return nil
	}
	patch, err := strconv.ParseUint(leadingDigits(parts[2]), 10, 64)
	if err != nil {
		return nil
	}

	if major >= 1000 {
		return nil
	}

	v, err := semver.StrictNewVersion(fmt.Sprintf("%d.%d.%d", major, minor, patch))
	if err != nil {
		return nil
	}
	return v
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func leadingDigits(s string) string {
	for i, r := range s {
		if r < '0' || r > '9' {
			return s[:i]
		}
	}
	return s
}
