package api

import (
	"context"

	"github.com/try-to-fly/vertrack/app/cache"
	"github.com/try-to-fly/vertrack/app/checker"
	"github.com/try-to-fly/vertrack/app/database"
	"github.com/try-to-fly/vertrack/app/scheduler"
)

type CheckerInterface interface {
	CheckOne(ctx context.Context, sw database.Software, githubToken string, forceRefresh bool) (checker.Result, error)
}

var _ CheckerInterface = (*checker.Checker)(nil)

type SchedulerInterface interface {
	RunCheck(ctx context.Context) ([]checker.Result, error)
	Start(intervalMinutes int)
	Stop()
}

var _ SchedulerInterface = (*scheduler.Scheduler)(nil)

type Handler struct {
	softwareRepo database.SoftwareRepository
	settingsRepo database.SettingsRepository
	checker      CheckerInterface
	scheduler    SchedulerInterface
	cache        *cache.Cache
}

// SoftwareRequest is the request body for creating or updating a software
// item. Enabled defaults to true on create.
type SoftwareRequest struct {
	Name    string                `json:"name" binding:"required"`
	Source  database.SourceConfig `json:"source" binding:"required"`
	Local   *database.ProbeConfig `json:"local,omitempty"`
	Enabled *bool                 `json:"enabled,omitempty"`
}
