package registry

import (
	"fmt"
	"time"
)

// Result is the outcome of a registry lookup: the latest published version
// and, when the registry exposes it, the publication time.
type Result struct {
	Version     string
	PublishedAt *time.Time
}

// RemoteAPIError is returned when a registry responds with a non-success
// status or a payload that cannot be interpreted.
type RemoteAPIError struct {
	Source     string
	StatusCode int
	Reason     string
}

func (e *RemoteAPIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s API error: status %d", e.Source, e.StatusCode)
	}
	return fmt.Sprintf("%s API error: %s", e.Source, e.Reason)
}
