package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"
)

// ErrFeed wraps any network or decode failure while talking to the release
// feed. Callers convert it to an error status, never a crash.
var ErrFeed = errors.New("release feed error")

const feedTimeout = 10 * time.Second

type (
	// ReleaseAsset is a downloadable file attached to a release.
	ReleaseAsset struct {
		Name               string `json:"name"`
		Size               int64  `json:"size"`
		BrowserDownloadURL string `json:"browser_download_url"`
	}

	// Release is one entry of the release feed.
	Release struct {
		TagName     string         `json:"tag_name"`
		Name        string         `json:"name"`
		Body        string         `json:"body"`
		PublishedAt time.Time      `json:"published_at"`
		Draft       bool           `json:"draft"`
		Prerelease  bool           `json:"prerelease"`
		Assets      []ReleaseAsset `json:"assets"`
	}

	// FeedClient reads the releases-list endpoint of a provider. Only
	// GitHub-style feeds are supported.
	FeedClient struct {
		releasesURL string
		httpClient  *http.Client
	}
)

// NewFeedClient builds a client for the releases feed of owner/repo on the
// given provider. Only "github" is recognized.
func NewFeedClient(provider, owner, repo string) (*FeedClient, error) {
	if provider != "github" {
		return nil, fmt.Errorf("unsupported release feed provider %q", provider)
	}
	return &FeedClient{
		releasesURL: fmt.Sprintf("https://api.github.com/repos/%s/%s/releases", owner, repo),
		httpClient:  &http.Client{Timeout: feedTimeout},
	}, nil
}

// NewFeedClientURL builds a client against an explicit releases endpoint.
// Used for tests and self-hosted feeds.
func NewFeedClientURL(releasesURL string) *FeedClient {
	return &FeedClient{
		releasesURL: releasesURL,
		httpClient:  &http.Client{Timeout: feedTimeout},
	}
}

// ListReleases fetches all releases, drops drafts and sorts them newest
// first by publish date.
func (c *FeedClient) ListReleases(ctx context.Context) ([]Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.releasesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: feed returned status %d", ErrFeed, resp.StatusCode)
	}

	var releases []Release
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return nil, fmt.Errorf("%w: decode feed response: %v", ErrFeed, err)
	}

	published := releases[:0]
	for _, r := range releases {
		if r.Draft {
			continue
		}
		published = append(published, r)
	}
	sort.SliceStable(published, func(i, j int) bool {
		return published[i].PublishedAt.After(published[j].PublishedAt)
	})
	return published, nil
}

// LatestRelease returns the most recent non-draft, non-prerelease release,
// or nil when the feed has none.
func (c *FeedClient) LatestRelease(ctx context.Context) (*Release, error) {
	releases, err := c.ListReleases(ctx)
	if err != nil {
		return nil, err
	}
	for i := range releases {
		if releases[i].Prerelease {
			continue
		}
		return &releases[i], nil
	}
	return nil, nil
}
