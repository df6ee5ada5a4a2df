package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/try-to-fly/vertrack/app/api"
	"github.com/try-to-fly/vertrack/app/cache"
	"github.com/try-to-fly/vertrack/app/cfg"
	"github.com/try-to-fly/vertrack/app/checker"
	"github.com/try-to-fly/vertrack/app/database"
	"github.com/try-to-fly/vertrack/app/items"
	"github.com/try-to-fly/vertrack/app/notification"
	"github.com/try-to-fly/vertrack/app/probe"
	"github.com/try-to-fly/vertrack/app/registry"
	"github.com/try-to-fly/vertrack/app/scheduler"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting vertrack", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	migrationVersion, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration", migrationVersion, "dirty", dirty)

	softwareRepo := database.NewSoftwareRepository(db)
	settingsRepo := database.NewSettingsRepository(db)

	settings, err := settingsRepo.LoadAppSettings()
	if err != nil {
		slog.Error("Failed to load settings", "error", err)
		os.Exit(1)
	}

	if appCfg.ItemsDir != "" {
		loader := items.NewLoader(appCfg.ItemsDir, softwareRepo)
		if err := loader.Run(); err != nil {
			slog.Error("Failed to load software definitions", "dir", appCfg.ItemsDir, "error", err)
			os.Exit(1)
		}
		if count, err := softwareRepo.GetCount(); err == nil {
			slog.Info("Software definitions loaded", "dir", appCfg.ItemsDir, "total", count)
		}
	}

	versionCache := cache.New(settings.Cache.TTLMinutes)
	registryClient := registry.NewClient(&http.Client{Timeout: time.Duration(appCfg.CheckTimeout) * time.Second}, appCfg.UserAgent)
	prober := probe.New()
	versionChecker := checker.New(registryClient, prober, versionCache,
		appCfg.CheckConcurrency, time.Duration(appCfg.CheckTimeout)*time.Second)

	notifier := newNotifier()

	checkScheduler := scheduler.New(softwareRepo, settingsRepo, versionChecker, notifier)
	if settings.Cache.AutoRefreshEnabled {
		checkScheduler.Start(settings.Cache.AutoRefreshInterval)
	}
	defer checkScheduler.Stop()

	apiHandler := api.NewHandler(softwareRepo, settingsRepo, versionChecker, checkScheduler, versionCache)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

// newNotifier picks desktop notifications where a delivery tool exists and
// falls back to log output elsewhere.
func newNotifier() notification.Notifier {
	switch runtime.GOOS {
	case "darwin", "linux":
		return notification.NewDesktopNotifier()
	default:
		return notification.LogNotifier{}
	}
}
