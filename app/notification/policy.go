package notification

import (
	"time"

	"github.com/try-to-fly/vertrack/app/database"
	"github.com/try-to-fly/vertrack/app/version"
)

// Decision is the outcome of the notification policy. Reason is always set,
// so skipped notifications stay explainable in the logs.
type Decision struct {
	Notify bool
	Reason string
}

// ShouldNotify decides whether a user-visible alert should fire for a
// candidate new version of sw. It is a pure function of its inputs and the
// current wall clock; the first applicable rule wins:
//
//  1. test mode bypasses everything, quiet hours and duplicates included
//  2. notifications disabled
//  3. quiet hours
//  4. candidate already notified
//  5. prerelease with prerelease notifications disabled
//  6. severity toggle for the major/minor/patch class of the change
//  7. notify
func ShouldNotify(config database.NotificationConfig, sw database.Software, candidate string) Decision {
	return shouldNotifyAt(config, sw, candidate, time.Now())
}

func shouldNotifyAt(config database.NotificationConfig, sw database.Software, candidate string, now time.Time) Decision {
	if config.TestMode {
		return Decision{Notify: true, Reason: "test mode"}
	}

	if !config.Enabled {
		return Decision{Notify: false, Reason: "notifications disabled"}
	}

	if isSilentHour(config, now.Hour()) {
		return Decision{Notify: false, Reason: "inside quiet hours"}
	}

	if sw.LastNotifiedVersion != nil && *sw.LastNotifiedVersion == candidate {
		return Decision{Notify: false, Reason: "version already notified"}
	}

	if version.IsPrerelease(candidate) && !config.NotifyOnPrerelease {
		return Decision{Notify: false, Reason: "prerelease notifications disabled"}
	}

	if sw.LatestVersion != nil {
		if decision := checkSeverity(config, *sw.LatestVersion, candidate); decision != nil {
			return *decision
		}
	}

	return Decision{Notify: true, Reason: "new version available"}
}

// isSilentHour implements the quiet-hour window. A window wrapping past
// midnight (start > end) silences hours from start to 23 and from 0 up to
// end. A missing bound disables the check.
func isSilentHour(config database.NotificationConfig, hour int) bool {
	if config.SilentStartHour == nil || config.SilentEndHour == nil {
		return false
	}

	start, end := *config.SilentStartHour, *config.SilentEndHour
	if start <= end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

// checkSeverity classifies the old→candidate change by its highest differing
// component and applies the matching toggle. A nil return means the rule does
// not apply (not a clean semantic upgrade) and the default decides.
func checkSeverity(config database.NotificationConfig, old, candidate string) *Decision {
	oldParsed := version.Parse(old)
	newParsed := version.Parse(candidate)
	if !oldParsed.IsSemantic() || !newParsed.IsSemantic() {
		return nil
	}

	oldV, newV := oldParsed.Semantic, newParsed.Semantic
	switch {
	case newV.Major() > oldV.Major():
		if !config.NotifyOnMajor {
			return &Decision{Notify: false, Reason: "major version notifications disabled"}
		}
	case newV.Minor() > oldV.Minor():
		if !config.NotifyOnMinor {
			return &Decision{Notify: false, Reason: "minor version notifications disabled"}
		}
	case newV.Patch() > oldV.Patch():
		if !config.NotifyOnPatch {
			return &Decision{Notify: false, Reason: "patch version notifications disabled"}
		}
	}

	return nil
}
