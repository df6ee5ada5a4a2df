package checker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/try-to-fly/vertrack/app/cache"
	"github.com/try-to-fly/vertrack/app/database"
	"github.com/try-to-fly/vertrack/app/registry"
)

// MockFetcher implements Fetcher with configurable per-item versions and
// failures, tracking call and concurrency counts.
type MockFetcher struct {
	versions map[string]string
	fail     map[string]error
	delay    time.Duration

	mu          sync.Mutex
	calls       int
	inFlight    int
	maxInFlight int
}

func (m *MockFetcher) FetchLatest(ctx context.Context, source database.SourceConfig, githubToken string) (registry.Result, error) {
	m.mu.Lock()
	m.calls++
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	m.mu.Unlock()

	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	m.inFlight--
	m.mu.Unlock()

	if err, ok := m.fail[source.Identifier]; ok {
		return registry.Result{}, err
	}
	return registry.Result{Version: m.versions[source.Identifier]}, nil
}

func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockFetcher) MaxInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}

// MockProber returns a fixed local version per command.
type MockProber struct {
	versions map[string]string
}

func (m *MockProber) Run(ctx context.Context, command string, versionArg string) (string, error) {
	if v, ok := m.versions[command]; ok {
		return v, nil
	}
	return "", errors.New("command not found")
}

func testItem(name string) database.Software {
	return database.Software{
		ID:      name + "-id",
		Name:    name,
		Source:  database.SourceConfig{Type: database.SourceGithubRelease, Identifier: name},
		Enabled: true,
	}
}

func TestRunComputesHasUpdate(t *testing.T) {
	fetcher := &MockFetcher{versions: map[string]string{"bat": "1.10.0"}}
	prober := &MockProber{versions: map[string]string{"bat": "1.9.0"}}
	c := New(fetcher, prober, cache.New(30), 5, time.Second)

	item := testItem("bat")
	item.LocalProbe = &database.ProbeConfig{Command: "bat"}

	results := c.Run(context.Background(), []database.Software{item}, "")
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].LatestVersion != "1.10.0" {
		t.Errorf("Expected latest '1.10.0', got '%s'", results[0].LatestVersion)
	}
	if results[0].LocalVersion == nil || *results[0].LocalVersion != "1.9.0" {
		t.Errorf("Expected local '1.9.0', got %v", results[0].LocalVersion)
	}
	if !results[0].HasUpdate {
		t.Error("Expected has-update for 1.9.0 -> 1.10.0")
	}
}

func TestRunServesCacheHitsWithoutFetching(t *testing.T) {
	fetcher := &MockFetcher{versions: map[string]string{"bat": "1.0.0", "fzf": "2.0.0", "jq": "3.0.0"}}
	versionCache := cache.New(30)
	c := New(fetcher, &MockProber{}, versionCache, 5, time.Second)

	// Two of three items are cache-valid
	versionCache.Set("bat-id", "1.0.0", nil)
	versionCache.Set("fzf-id", "2.0.0", nil)

	items := []database.Software{testItem("bat"), testItem("fzf"), testItem("jq")}
	results := c.Run(context.Background(), items, "")

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if fetcher.Calls() != 1 {
		t.Errorf("Expected exactly 1 remote fetch, got %d", fetcher.Calls())
	}
}

func TestRunAllCacheHitsSkipsNetwork(t *testing.T) {
	fetcher := &MockFetcher{versions: map[string]string{}}
	versionCache := cache.New(30)
	c := New(fetcher, &MockProber{}, versionCache, 5, time.Second)

	versionCache.Set("bat-id", "1.0.0", nil)

	results := c.Run(context.Background(), []database.Software{testItem("bat")}, "")
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if fetcher.Calls() != 0 {
		t.Errorf("Expected no remote fetches, got %d", fetcher.Calls())
	}
}

func TestRunRespectsConcurrencyCap(t *testing.T) {
	versions := make(map[string]string)
	var items []database.Software
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		versions[name] = "1.0.0"
		items = append(items, testItem(name))
	}

	fetcher := &MockFetcher{versions: versions, delay: 20 * time.Millisecond}
	c := New(fetcher, &MockProber{}, cache.New(30), 3, time.Second)

	results := c.Run(context.Background(), items, "")
	if len(results) != 8 {
		t.Fatalf("Expected 8 results, got %d", len(results))
	}
	if fetcher.MaxInFlight() > 3 {
		t.Errorf("Expected at most 3 concurrent fetches, observed %d", fetcher.MaxInFlight())
	}
}

func TestRunIsolatesPerItemFailures(t *testing.T) {
	fetcher := &MockFetcher{
		versions: map[string]string{"bat": "1.0.0", "jq": "3.0.0"},
		fail:     map[string]error{"fzf": errors.New("registry unreachable")},
	}
	c := New(fetcher, &MockProber{}, cache.New(30), 5, time.Second)

	items := []database.Software{testItem("bat"), testItem("fzf"), testItem("jq")}
	results := c.Run(context.Background(), items, "")

	if len(results) != 2 {
		t.Fatalf("Expected 2 results with one failure dropped, got %d", len(results))
	}
	for _, r := range results {
		if r.SoftwareID == "fzf-id" {
			t.Error("Expected failed item to be excluded from results")
		}
	}
}

func TestRunUpdatesCacheOnSuccess(t *testing.T) {
	fetcher := &MockFetcher{versions: map[string]string{"bat": "1.0.0"}}
	versionCache := cache.New(30)
	c := New(fetcher, &MockProber{}, versionCache, 5, time.Second)

	c.Run(context.Background(), []database.Software{testItem("bat")}, "")

	entry, ok := versionCache.Get("bat-id")
	if !ok {
		t.Fatal("Expected successful fetch to populate the cache")
	}
	if entry.LatestVersion != "1.0.0" {
		t.Errorf("Expected cached version '1.0.0', got '%s'", entry.LatestVersion)
	}
}

func TestRunCachedResultSurvivesUnreachableRegistry(t *testing.T) {
	fetcher := &MockFetcher{versions: map[string]string{"bat": "1.10.0"}}
	prober := &MockProber{versions: map[string]string{"bat": "1.9.0"}}
	versionCache := cache.New(30)
	c := New(fetcher, prober, versionCache, 5, time.Second)

	item := testItem("bat")
	item.LocalProbe = &database.ProbeConfig{Command: "bat"}

	first := c.Run(context.Background(), []database.Software{item}, "")
	if len(first) != 1 || !first[0].HasUpdate {
		t.Fatalf("Expected update in first cycle, got %+v", first)
	}

	// Registry goes dark; the cached entry still answers
	fetcher.fail = map[string]error{"bat": errors.New("registry unreachable")}

	second := c.Run(context.Background(), []database.Software{item}, "")
	if len(second) != 1 {
		t.Fatalf("Expected cached result despite unreachable registry, got %d results", len(second))
	}
	if second[0].LatestVersion != "1.10.0" || !second[0].HasUpdate {
		t.Errorf("Expected cached result to match first cycle, got %+v", second[0])
	}
}

func TestCheckOneForceRefreshBypassesCache(t *testing.T) {
	fetcher := &MockFetcher{versions: map[string]string{"bat": "2.0.0"}}
	versionCache := cache.New(30)
	c := New(fetcher, &MockProber{}, versionCache, 5, time.Second)

	versionCache.Set("bat-id", "1.0.0", nil)

	result, err := c.CheckOne(context.Background(), testItem("bat"), "", true)
	if err != nil {
		t.Fatal(err)
	}
	if result.LatestVersion != "2.0.0" {
		t.Errorf("Expected fresh version '2.0.0', got '%s'", result.LatestVersion)
	}

	entry, ok := versionCache.Get("bat-id")
	if !ok || entry.LatestVersion != "2.0.0" {
		t.Error("Expected forced refresh to overwrite the cache")
	}
}

func TestCheckOneCacheHit(t *testing.T) {
	fetcher := &MockFetcher{}
	versionCache := cache.New(30)
	c := New(fetcher, &MockProber{}, versionCache, 5, time.Second)

	versionCache.Set("bat-id", "1.0.0", nil)

	result, err := c.CheckOne(context.Background(), testItem("bat"), "", false)
	if err != nil {
		t.Fatal(err)
	}
	if result.LatestVersion != "1.0.0" {
		t.Errorf("Expected cached version '1.0.0', got '%s'", result.LatestVersion)
	}
	if fetcher.Calls() != 0 {
		t.Errorf("Expected no fetch on cache hit, got %d", fetcher.Calls())
	}
}
