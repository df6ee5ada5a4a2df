package checker

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/try-to-fly/vertrack/app/cache"
	"github.com/try-to-fly/vertrack/app/database"
	"github.com/try-to-fly/vertrack/app/registry"
	"github.com/try-to-fly/vertrack/app/version"
)

// Result is the per-item outcome of one check cycle. It is transient: the
// scheduler persists the computed fields and then hands the batch to
// listeners.
type Result struct {
	SoftwareID    string     `json:"softwareId"`
	LatestVersion string     `json:"latestVersion"`
	LocalVersion  *string    `json:"localVersion,omitempty"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
	HasUpdate     bool       `json:"hasUpdate"`
}

// Fetcher resolves the latest version of a software item from its registry.
// Satisfied by *registry.Client.
type Fetcher interface {
	FetchLatest(ctx context.Context, source database.SourceConfig, githubToken string) (registry.Result, error)
}

// Prober detects the locally installed version of a software item.
// Satisfied by *probe.Prober.
type Prober interface {
	Run(ctx context.Context, command string, versionArg string) (string, error)
}

// Checker resolves the current version state of tracked software items,
// serving from the TTL cache where possible and fetching the rest with a
// bounded number of concurrent registry lookups.
type Checker struct {
	fetcher     Fetcher
	prober      Prober
	cache       *cache.Cache
	concurrency int64
	timeout     time.Duration
}

func New(fetcher Fetcher, prober Prober, versionCache *cache.Cache, concurrency int, timeout time.Duration) *Checker {
	if concurrency <= 0 {
		concurrency = 5
	}
	return &Checker{
		fetcher:     fetcher,
		prober:      prober,
		cache:       versionCache,
		concurrency: int64(concurrency),
		timeout:     timeout,
	}
}

// Run checks all given items. Cache hits are answered without any network
// access; misses are fetched concurrently, capped by the configured limit
// so unauthenticated registry rate limits are respected. A failing item is
// logged and dropped from the batch; it never aborts its siblings.
func (c *Checker) Run(ctx context.Context, items []database.Software, githubToken string) []Result {
	var results []Result
	var missed []database.Software

	for _, sw := range items {
		if entry, ok := c.cache.Get(sw.ID); ok {
			local := c.localVersion(ctx, sw)
			results = append(results, Result{
				SoftwareID:    sw.ID,
				LatestVersion: entry.LatestVersion,
				LocalVersion:  local,
				PublishedAt:   entry.PublishedAt,
				HasUpdate:     version.HasUpdate(entry.LatestVersion, local),
			})
		} else {
			missed = append(missed, sw)
		}
	}

	if len(missed) == 0 {
		return results
	}

	type outcome struct {
		result Result
		name   string
		err    error
	}

	sem := semaphore.NewWeighted(c.concurrency)
	outcomes := make(chan outcome, len(missed))

	for _, sw := range missed {
		go func(sw database.Software) {
			if err := sem.Acquire(ctx, 1); err != nil {
				outcomes <- outcome{name: sw.Name, err: err}
				return
			}
			defer sem.Release(1)

			result, err := c.fetchOne(ctx, sw, githubToken)
			outcomes <- outcome{result: result, name: sw.Name, err: err}
		}(sw)
	}

	for range missed {
		o := <-outcomes
		if o.err != nil {
			slog.Warn("Version check failed", "software", o.name, "error", o.err)
			continue
		}
		c.cache.Set(o.result.SoftwareID, o.result.LatestVersion, o.result.PublishedAt)
		results = append(results, o.result)
	}

	return results
}

// CheckOne checks a single item on demand. With forceRefresh the cache is
// bypassed and the fresh result overwrites it.
func (c *Checker) CheckOne(ctx context.Context, sw database.Software, githubToken string, forceRefresh bool) (Result, error) {
	if !forceRefresh {
		if entry, ok := c.cache.Get(sw.ID); ok {
			local := c.localVersion(ctx, sw)
			return Result{
				SoftwareID:    sw.ID,
				LatestVersion: entry.LatestVersion,
				LocalVersion:  local,
				PublishedAt:   entry.PublishedAt,
				HasUpdate:     version.HasUpdate(entry.LatestVersion, local),
			}, nil
		}
	}

	result, err := c.fetchOne(ctx, sw, githubToken)
	if err != nil {
		return Result{}, err
	}
	c.cache.Set(result.SoftwareID, result.LatestVersion, result.PublishedAt)
	return result, nil
}

// fetchOne performs the registry lookup plus the local probe for one item.
// The lookup runs under its own timeout so a stalled registry cannot pin a
// concurrency permit indefinitely.
func (c *Checker) fetchOne(ctx context.Context, sw database.Software, githubToken string) (Result, error) {
	fetchCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	remote, err := c.fetcher.FetchLatest(fetchCtx, sw.Source, githubToken)
	if err != nil {
		return Result{}, err
	}

	local := c.localVersion(ctx, sw)

	return Result{
		SoftwareID:    sw.ID,
		LatestVersion: remote.Version,
		LocalVersion:  local,
		PublishedAt:   remote.PublishedAt,
		HasUpdate:     version.HasUpdate(remote.Version, local),
	}, nil
}

// localVersion probes the installed version when the item has a probe
// configured. Probe failures only mean "not installed or not detectable",
// so they degrade to an absent local version.
func (c *Checker) localVersion(ctx context.Context, sw database.Software) *string {
	if sw.LocalProbe == nil {
		return nil
	}

	v, err := c.prober.Run(ctx, sw.LocalProbe.Command, sw.LocalProbe.VersionArg)
	if err != nil {
		slog.Debug("Local version probe failed", "software", sw.Name, "command", sw.LocalProbe.Command, "error", err)
		return nil
	}
	return &v
}
