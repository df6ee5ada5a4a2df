package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/try-to-fly/vertrack/app/checker"
	"github.com/try-to-fly/vertrack/app/database"
	"github.com/try-to-fly/vertrack/app/notification"
)

// Runner executes one version check over a batch of software items.
// Satisfied by *checker.Checker.
type Runner interface {
	Run(ctx context.Context, items []database.Software, githubToken string) []checker.Result
}

// Listener receives the results of each completed check cycle.
type Listener func(results []checker.Result)

// Scheduler runs periodic version checks. Start, Stop and Restart are safe
// for concurrent use; at most one background loop runs at a time.
type Scheduler struct {
	softwareRepo database.SoftwareRepository
	settingsRepo database.SettingsRepository
	runner       Runner
	notifier     notification.Notifier

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	listenerMu sync.Mutex
	listeners  []Listener
}

func New(softwareRepo database.SoftwareRepository, settingsRepo database.SettingsRepository, runner Runner, notifier notification.Notifier) *Scheduler {
	return &Scheduler{
		softwareRepo: softwareRepo,
		settingsRepo: settingsRepo,
		runner:       runner,
		notifier:     notifier,
	}
}

// AddListener registers a callback invoked with the results of every
// completed cycle, scheduled or manual. Listeners must be registered before
// the scheduler starts.
func (s *Scheduler) AddListener(listener Listener) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// Start launches the periodic check loop. An interval of zero or less leaves
// the scheduler stopped. Calling Start while a loop is running replaces it.
func (s *Scheduler) Start(intervalMinutes int) {
	s.startWithInterval(time.Duration(intervalMinutes) * time.Minute)
}

func (s *Scheduler) startWithInterval(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	if interval <= 0 {
		slog.Info("Auto refresh disabled")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.run(ctx, interval)

	slog.Info("Auto refresh started", "interval", interval)
}

// Stop halts the periodic loop and waits for an in-flight cycle to finish.
// Stopping an already stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Restart stops the current loop and starts again with the given interval.
func (s *Scheduler) Restart(intervalMinutes int) {
	s.Start(intervalMinutes)
}

func (s *Scheduler) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	s.wg.Wait()
	slog.Info("Auto refresh stopped")
}

// run is the background loop. The ticker does not fire immediately, so the
// first check happens one full interval after Start.
func (s *Scheduler) run(ctx context.Context, interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunCheck(ctx); err != nil {
				slog.Error("Scheduled check failed", "error", err)
			}
		}
	}
}

// RunCheck performs one full check cycle: load the enabled items, resolve
// their versions, persist the outcomes, fire notifications per the policy,
// and hand the batch to the listeners. Persistence failures for one item are
// logged and do not abort the rest of the batch.
func (s *Scheduler) RunCheck(ctx context.Context) ([]checker.Result, error) {
	items, err := s.softwareRepo.GetEnabled()
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	settings, err := s.settingsRepo.LoadAppSettings()
	if err != nil {
		return nil, err
	}

	results := s.runner.Run(ctx, items, settings.GithubToken)

	byID := make(map[string]database.Software, len(items))
	for _, sw := range items {
		byID[sw.ID] = sw
	}

	now := time.Now()
	for _, result := range results {
		sw, ok := byID[result.SoftwareID]
		if !ok {
			continue
		}

		if err := s.softwareRepo.UpdateCheckResult(result.SoftwareID, result.LatestVersion, result.LocalVersion, result.PublishedAt, now); err != nil {
			slog.Error("Failed to persist check result", "software", sw.Name, "error", err)
			continue
		}

		if result.HasUpdate {
			s.notify(settings.Notification, sw, result)
		}
	}

	slog.Info("Check cycle completed", "items", len(items), "results", len(results))

	s.listenerMu.Lock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.listenerMu.Unlock()

	for _, listener := range listeners {
		listener(results)
	}

	return results, nil
}

// notify applies the notification policy and delivers the alert. The
// notified marker is only persisted after a successful delivery, so failed
// sends are retried on the next cycle.
func (s *Scheduler) notify(config database.NotificationConfig, sw database.Software, result checker.Result) {
	decision := notification.ShouldNotify(config, sw, result.LatestVersion)
	if !decision.Notify {
		slog.Debug("Notification skipped", "software", sw.Name, "reason", decision.Reason)
		return
	}

	title := sw.Name + " update available"
	body := notification.Body(sw.Name, result.LatestVersion, result.LocalVersion)
	if err := s.notifier.Send(title, body); err != nil {
		slog.Warn("Notification delivery failed", "software", sw.Name, "error", err)
		return
	}

	if err := s.softwareRepo.UpdateNotified(sw.ID, result.LatestVersion, time.Now()); err != nil {
		slog.Error("Failed to persist notified version", "software", sw.Name, "error", err)
	}
}
