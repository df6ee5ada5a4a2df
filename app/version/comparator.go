package version

import (
	"strings"
)

// Comparison is the ordering of a remote latest version against the locally
// installed one.
type Comparison int

const (
	// Greater means the latest version is newer than the local one.
	Greater Comparison = iota
	// Equal means both versions are the same.
	Equal
	// Less means the local version is newer. Rare but possible.
	Less
	// Unknown means the versions cannot be compared (no local version).
	Unknown
)

func (c Comparison) String() string {
	switch c {
	case Greater:
		return "greater"
	case Equal:
		return "equal"
	case Less:
		return "less"
	default:
		return "unknown"
	}
}

// Compare orders latest against local. Semantic versions compare by semver
// rules. Two unequal opaque versions compare as Greater: their true order is
// unknowable, and the policy deliberately surfaces potential updates rather
// than silently missing them. Mixed parses fall back to normalized string
// equality with the same bias.
func Compare(latest string, local *string) Comparison {
	if local == nil {
		return Unknown
	}

	latestParsed := Parse(latest)
	localParsed := Parse(*local)

	switch {
	case latestParsed.IsSemantic() && localParsed.IsSemantic():
		switch latestParsed.Semantic.Compare(localParsed.Semantic) {
		case 1:
			return Greater
		case -1:
			return Less
		default:
			return Equal
		}
	case !latestParsed.IsSemantic() && !localParsed.IsSemantic():
		if latestParsed.Opaque == localParsed.Opaque {
			return Equal
		}
		return Greater
	default:
		if Normalize(latest) == Normalize(*local) {
			return Equal
		}
		return Greater
	}
}

// HasUpdate reports whether latest is newer than local.
func HasUpdate(latest string, local *string) bool {
	return Compare(latest, local) == Greater
}

var prereleaseMarkers = []string{"alpha", "beta", "rc", "preview", "canary", "nightly"}

// IsPrerelease reports whether v denotes a prerelease: a semantic version
// with a prerelease tag, or an opaque version containing a common prerelease
// marker.
func IsPrerelease(v string) bool {
	parsed := Parse(v)
	if parsed.IsSemantic() {
		return parsed.Semantic.Prerelease() != ""
	}

	lower := strings.ToLower(v)
	for _, marker := range prereleaseMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
