package probe

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// versionPattern matches the first thing that looks like a version number in
// command output: 1.2, 1.2.3, 1.2.3-beta.1, ...
var versionPattern = regexp.MustCompile(`\d+\.\d+(?:\.\d+)?(?:-[\w.]+)?`)

// Error is returned when the local version of a software item cannot be
// detected: the command failed to run, or its output carried nothing that
// looks like a version.
type Error struct {
	Command string
	Reason  string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("probe %s: %s: %v", e.Command, e.Reason, e.Err)
	}
	return fmt.Sprintf("probe %s: %s", e.Command, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Prober detects the version of locally installed software by running its
// version command.
type Prober struct{}

func New() *Prober {
	return &Prober{}
}

// Run executes command with versionArg (default "--version") and extracts a
// version number from the combined stdout and stderr. Tools disagree about
// which stream the version goes to and some exit non-zero after printing it,
// so a failed exit with matchable output still succeeds.
func (p *Prober) Run(ctx context.Context, command string, versionArg string) (string, error) {
	if versionArg == "" {
		versionArg = "--version"
	}

	cmd := exec.CommandContext(ctx, command, versionArg)
	output, err := cmd.CombinedOutput()
	if err != nil && len(output) == 0 {
		return "", &Error{Command: command, Reason: "failed to execute", Err: err}
	}

	match := versionPattern.FindString(string(output))
	if match == "" {
		return "", &Error{
			Command: command,
			Reason:  fmt.Sprintf("could not parse version from output %q", strings.TrimSpace(string(output))),
		}
	}

	return match, nil
}
