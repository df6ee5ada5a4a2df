package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/try-to-fly/vertrack/app/database"
)

// Client resolves the latest published version of a software item from its
// registry. The base URLs are overridable for tests.
type Client struct {
	httpClient *http.Client
	userAgent  string

	GithubURL   string
	HomebrewURL string
	NpmURL      string
	PypiURL     string
	CratesURL   string
}

func NewClient(httpClient *http.Client, userAgent string) *Client {
	return &Client{
		httpClient:  httpClient,
		userAgent:   userAgent,
		GithubURL:   "https://api.github.com",
		HomebrewURL: "https://formulae.brew.sh",
		NpmURL:      "https://registry.npmjs.org",
		PypiURL:     "https://pypi.org",
		CratesURL:   "https://crates.io",
	}
}

// FetchLatest dispatches the lookup by source kind. The kind set is closed;
// an unknown kind is a programming error surfaced as a plain error.
func (c *Client) FetchLatest(ctx context.Context, source database.SourceConfig, githubToken string) (Result, error) {
	switch source.Type {
	case database.SourceGithubRelease:
		return c.LatestGithubRelease(ctx, source.Identifier, githubToken)
	case database.SourceGithubTags:
		return c.LatestGithubTag(ctx, source.Identifier, githubToken)
	case database.SourceHomebrew:
		return c.HomebrewVersion(ctx, source.Identifier)
	case database.SourceNpm:
		return c.NpmVersion(ctx, source.Identifier)
	case database.SourcePypi:
		return c.PypiVersion(ctx, source.Identifier)
	case database.SourceCargo:
		return c.CrateVersion(ctx, source.Identifier)
	default:
		return Result{}, fmt.Errorf("unknown source type: %s", source.Type)
	}
}

type githubRelease struct {
	TagName     string `json:"tag_name"`
	PublishedAt string `json:"published_at"`
}

// LatestGithubRelease returns the tag of the latest GitHub release for a
// repo in "owner/name" form.
func (c *Client) LatestGithubRelease(ctx context.Context, repo string, token string) (Result, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.GithubURL, repo)

	var release githubRelease
	if err := c.getJSON(ctx, "GitHub", url, token, &release); err != nil {
		return Result{}, err
	}
	if release.TagName == "" {
		return Result{}, &RemoteAPIError{Source: "GitHub", Reason: "release has no tag name"}
	}

	return Result{
		Version:     release.TagName,
		PublishedAt: parseRFC3339(release.PublishedAt),
	}, nil
}

type githubTag struct {
	Name string `json:"name"`
}

// LatestGithubTag returns the most recent tag of a GitHub repo. Tags carry
// no publication time.
func (c *Client) LatestGithubTag(ctx context.Context, repo string, token string) (Result, error) {
	url := fmt.Sprintf("%s/repos/%s/tags", c.GithubURL, repo)

	var tags []githubTag
	if err := c.getJSON(ctx, "GitHub", url, token, &tags); err != nil {
		return Result{}, err
	}
	if len(tags) == 0 {
		return Result{}, &RemoteAPIError{Source: "GitHub", Reason: "no tags found"}
	}

	return Result{Version: tags[0].Name}, nil
}

type homebrewFormula struct {
	Versions struct {
		Stable string `json:"stable"`
	} `json:"versions"`
}

// HomebrewVersion returns the stable version of a Homebrew formula.
func (c *Client) HomebrewVersion(ctx context.Context, formula string) (Result, error) {
	url := fmt.Sprintf("%s/api/formula/%s.json", c.HomebrewURL, formula)

	var info homebrewFormula
	if err := c.getJSON(ctx, "Homebrew", url, "", &info); err != nil {
		return Result{}, err
	}
	if info.Versions.Stable == "" {
		return Result{}, &RemoteAPIError{Source: "Homebrew", Reason: "formula has no stable version"}
	}

	return Result{Version: info.Versions.Stable}, nil
}

type npmPackage struct {
	DistTags map[string]string `json:"dist-tags"`
	Time     map[string]string `json:"time"`
}

// NpmVersion returns the version behind the "latest" dist-tag of an npm
// package, with its publication time from the time map when present.
func (c *Client) NpmVersion(ctx context.Context, pkg string) (Result, error) {
	url := fmt.Sprintf("%s/%s", c.NpmURL, pkg)

	var info npmPackage
	if err := c.getJSON(ctx, "npm", url, "", &info); err != nil {
		return Result{}, err
	}

	latest, ok := info.DistTags["latest"]
	if !ok || latest == "" {
		return Result{}, &RemoteAPIError{Source: "npm", Reason: "no 'latest' dist-tag found"}
	}

	return Result{
		Version:     latest,
		PublishedAt: parseRFC3339(info.Time[latest]),
	}, nil
}

type pypiPackage struct {
	Info struct {
		Version string `json:"version"`
	} `json:"info"`
	Releases map[string][]struct {
		UploadTime string `json:"upload_time"`
	} `json:"releases"`
}

// PypiVersion returns the current version of a PyPI package. PyPI reports
// upload times without a timezone ("2024-01-15T10:30:00"), so both that and
// RFC3339 are accepted.
func (c *Client) PypiVersion(ctx context.Context, pkg string) (Result, error) {
	url := fmt.Sprintf("%s/pypi/%s/json", c.PypiURL, pkg)

	var info pypiPackage
	if err := c.getJSON(ctx, "PyPI", url, "", &info); err != nil {
		return Result{}, err
	}
	if info.Info.Version == "" {
		return Result{}, &RemoteAPIError{Source: "PyPI", Reason: "package has no version"}
	}

	result := Result{Version: info.Info.Version}
	if files := info.Releases[info.Info.Version]; len(files) > 0 {
		result.PublishedAt = parsePypiTime(files[0].UploadTime)
	}
	return result, nil
}

type crateResponse struct {
	Crate struct {
		MaxVersion string `json:"max_version"`
		UpdatedAt  string `json:"updated_at"`
	} `json:"crate"`
}

// CrateVersion returns the max version of a crate on crates.io.
func (c *Client) CrateVersion(ctx context.Context, name string) (Result, error) {
	url := fmt.Sprintf("%s/api/v1/crates/%s", c.CratesURL, name)

	var info crateResponse
	if err := c.getJSON(ctx, "crates.io", url, "", &info); err != nil {
		return Result{}, err
	}
	if info.Crate.MaxVersion == "" {
		return Result{}, &RemoteAPIError{Source: "crates.io", Reason: "crate has no version"}
	}

	return Result{
		Version:     info.Crate.MaxVersion,
		PublishedAt: parseRFC3339(info.Crate.UpdatedAt),
	}, nil
}

func (c *Client) getJSON(ctx context.Context, source, url, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", source, err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if source == "GitHub" {
		req.Header.Set("Accept", "application/vnd.github.v3+json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RemoteAPIError{Source: source, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RemoteAPIError{Source: source, Reason: "failed to parse response: " + err.Error()}
	}
	return nil
}

func parseRFC3339(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

func parsePypiTime(s string) *time.Time {
	if t := parseRFC3339(s); t != nil {
		return t
	}
	t, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
