package update

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
)

// ErrAssetNotFound means a release has no installer asset matching the
// current platform. There is nothing to retry until a new release appears.
var ErrAssetNotFound = errors.New("no installer asset for this platform")

// Classification of a release relative to the running version.
type Classification string

const (
	Current Classification = "current"
	Newer   Classification = "newer"
	Older   Classification = "older"
)

// VersionManager lists all historical releases and supports manually
// installing a specific one. Downloads go through the shared Downloader, so
// only one can be in flight at a time.
type VersionManager struct {
	feed       *FeedClient
	downloader *Downloader
	current    string
	goos       string
	launcher   LauncherFunc
}

func NewVersionManager(feed *FeedClient, downloader *Downloader, currentVersion string, launcher LauncherFunc) *VersionManager {
	if launcher == nil {
		launcher = platformLauncher
	}
	return &VersionManager{
		feed:       feed,
		downloader: downloader,
		current:    currentVersion,
		goos:       runtime.GOOS,
		launcher:   launcher,
	}
}

// Busy reports whether the shared downloader is occupied.
func (m *VersionManager) Busy() bool {
	return m.downloader.Busy()
}

// ListReleases returns all published releases, newest first.
func (m *VersionManager) ListReleases(ctx context.Context) ([]Release, error) {
	return m.feed.ListReleases(ctx)
}

// Classify compares a release tag against the running version. Exact string
// equality wins over numeric comparison, so "1.2" and "1.2.0" classify as
// Older/Newer by their components but an identical tag is always Current.
func (m *VersionManager) Classify(tag string) Classification {
	if tag == m.current {
		return Current
	}
	if IsNewer(tag, m.current) {
		return Newer
	}
	return Older
}

// SelectAssetForPlatform picks the installer asset matching the current
// platform's naming convention, or ErrAssetNotFound.
func (m *VersionManager) SelectAssetForPlatform(release *Release) (*ReleaseAsset, error) {
	return selectAsset(m.goos, release)
}

// DownloadAndInstall streams the release's platform asset to local storage,
// reporting progress, then hands it to the platform installer. A failure
// mid-download discards the partial artifact; there is no automatic retry.
// Returns ErrBusy while another download is in flight.
func (m *VersionManager) DownloadAndInstall(ctx context.Context, release *Release, onProgress ProgressFunc) error {
	asset, err := m.SelectAssetForPlatform(release)
	if err != nil {
		return err
	}

	path, err := m.downloader.Fetch(ctx, asset.BrowserDownloadURL, asset.Name, "", onProgress)
	if err != nil {
		return fmt.Errorf("download %s: %w", release.TagName, err)
	}

	slog.InfoContext(ctx, "Version downloaded, launching installer",
		"version", release.TagName, "asset", asset.Name)
	if err := m.launcher(path); err != nil {
		return fmt.Errorf("launch installer for %s: %w", release.TagName, err)
	}
	return nil
}

// selectAsset picks the asset whose name carries the platform's installer
// marker: a Windows setup executable, a macOS disk image or a Linux
// AppImage.
func selectAsset(goos string, release *Release) (*ReleaseAsset, error) {
	for i := range release.Assets {
		name := release.Assets[i].Name
		if name == ManifestAssetName {
			continue
		}
		switch goos {
		case "windows":
			if strings.HasSuffix(name, ".exe") || strings.Contains(name, "Setup") {
				return &release.Assets[i], nil
			}
		case "darwin":
			if strings.HasSuffix(name, ".dmg") {
				return &release.Assets[i], nil
			}
		default:
			if strings.HasSuffix(name, ".AppImage") {
				return &release.Assets[i], nil
			}
		}
	}
	return nil, ErrAssetNotFound
}
