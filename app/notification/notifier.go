package notification

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"time"
)

// Notifier delivers a user-visible notification. Delivery failures are the
// caller's to log; they never roll back state already persisted.
type Notifier interface {
	Send(title, body string) error
}

// DesktopNotifier shells out to the platform notification tool.
type DesktopNotifier struct {
	timeout time.Duration
}

func NewDesktopNotifier() *DesktopNotifier {
	return &DesktopNotifier{timeout: 10 * time.Second}
}

func (n *DesktopNotifier) Send(title, body string) error {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", body, title)
		cmd = exec.CommandContext(ctx, "osascript", "-e", script)
	case "linux":
		cmd = exec.CommandContext(ctx, "notify-send", title, body)
	default:
		return fmt.Errorf("desktop notifications not supported on %s", runtime.GOOS)
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to send notification: %w (%s)", err, output)
	}
	return nil
}

// LogNotifier writes notifications to the log. Used as a fallback on
// platforms without a desktop notification tool and in tests.
type LogNotifier struct{}

func (LogNotifier) Send(title, body string) error {
	slog.Info("Notification", "title", title, "body", body)
	return nil
}

// Body renders the notification text for a new version of a software item.
func Body(softwareName, newVersion string, localVersion *string) string {
	if localVersion != nil {
		return fmt.Sprintf("%s has a new version available\nLatest: %s\nInstalled: %s", softwareName, newVersion, *localVersion)
	}
	return fmt.Sprintf("%s has a new version available\nLatest: %s", softwareName, newVersion)
}
