package update

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"sync"
	"time"
)

// State of the auto-update machine. Checks move through Checking to
// Available or back to Idle; a staged download ends in Downloaded and, once
// the user picks a restart moment, InstallPending.
type State string

const (
	StateIdle           State = "idle"
	StateChecking       State = "checking"
	StateAvailable      State = "available"
	StateDownloading    State = "downloading"
	StateDownloaded     State = "downloaded"
	StateInstallPending State = "install-pending"
	StateError          State = "error"
)

// ErrNoStagedUpdate is returned when an install is requested before a
// download has been staged.
var ErrNoStagedUpdate = errors.New("no update staged for install")

// DefaultStartupDelay is how long after startup the single automatic check
// runs.
const DefaultStartupDelay = 3 * time.Second

// LauncherFunc hands a staged artifact to the platform installer.
type LauncherFunc func(path string) error

type (
	// Config configures the updater. CurrentVersion is required.
	Config struct {
		CurrentVersion string
		AutoDownload   bool
		StartupDelay   time.Duration
		Launcher       LauncherFunc
	}

	// Snapshot is a point-in-time view of the updater state.
	Snapshot struct {
		State            State  `json:"state"`
		CurrentVersion   string `json:"currentVersion"`
		AvailableVersion string `json:"availableVersion,omitempty"`
		StagedVersion    string `json:"stagedVersion,omitempty"`
		LastError        string `json:"lastError,omitempty"`
	}

	// Updater drives the auto-update workflow against a release feed.
	// There is one instance per process; its state is never persisted.
	Updater struct {
		feed         *FeedClient
		downloader   *Downloader
		notifier     *Notifier
		current      string
		autoDownload bool
		startupDelay time.Duration
		launcher     LauncherFunc
		goos         string

		startupOnce sync.Once

		mu               sync.Mutex
		state            State
		checkSeq         uint64
		availableVersion string
		stagedVersion    string
		stagedPath       string
		lastError        string
	}
)

func New(feed *FeedClient, downloader *Downloader, cfg Config) *Updater {
	launcher := cfg.Launcher
	if launcher == nil {
		launcher = platformLauncher
	}
	delay := cfg.StartupDelay
	if delay <= 0 {
		delay = DefaultStartupDelay
	}
	return &Updater{
		feed:         feed,
		downloader:   downloader,
		notifier:     NewNotifier(),
		current:      cfg.CurrentVersion,
		autoDownload: cfg.AutoDownload,
		startupDelay: delay,
		launcher:     launcher,
		goos:         runtime.GOOS,
		state:        StateIdle,
	}
}

// Events returns a channel of status events for this updater.
func (u *Updater) Events() <-chan Status {
	return u.notifier.Subscribe()
}

// Notifier exposes the underlying fan-out so manual downloads can report
// through the same event stream.
func (u *Updater) Notifier() *Notifier {
	return u.notifier
}

// Snapshot returns the current state.
func (u *Updater) Snapshot() Snapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	return Snapshot{
		State:            u.state,
		CurrentVersion:   u.current,
		AvailableVersion: u.availableVersion,
		StagedVersion:    u.stagedVersion,
		LastError:        u.lastError,
	}
}

// Start schedules the single automatic startup check. It runs exactly once
// per process lifetime; the returned stop function cancels a check that has
// not fired yet.
func (u *Updater) Start(ctx context.Context) (stop func()) {
	stop = func() {}
	u.startupOnce.Do(func() {
		timer := time.AfterFunc(u.startupDelay, func() {
			if ctx.Err() != nil {
				return
			}
			if err := u.CheckForUpdates(ctx); err != nil {
				slog.ErrorContext(ctx, "Startup update check failed", "error", err)
			}
		})
		stop = func() { timer.Stop() }
	})
	return stop
}

// CheckForUpdates queries the feed for the latest stable release and
// compares it against the running version. With auto-download enabled a
// newer release is downloaded and staged in the same call. A newer check
// supersedes the visible status of an older in-flight one; feed errors end
// in the Error state and are also returned.
func (u *Updater) CheckForUpdates(ctx context.Context) error {
	u.mu.Lock()
	u.checkSeq++
	seq := u.checkSeq
	u.state = StateChecking
	u.lastError = ""
	u.mu.Unlock()
	u.notifier.Publish(Status{Type: StatusChecking})

	release, err := u.feed.LatestRelease(ctx)
	if err != nil {
		u.fail(seq, err)
		return err
	}

	if release == nil || !IsNewer(release.TagName, u.current) {
		u.transition(seq, StateIdle, "")
		u.notifier.Publish(Status{Type: StatusNotAvailable})
		return nil
	}

	u.transition(seq, StateAvailable, release.TagName)
	u.notifier.Publish(Status{Type: StatusAvailable, Version: release.TagName})

	if !u.autoDownload {
		return nil
	}
	return u.downloadRelease(ctx, seq, release)
}

func (u *Updater) downloadRelease(ctx context.Context, seq uint64, release *Release) error {
	asset, err := selectAsset(u.goos, release)
	if err != nil {
		u.fail(seq, err)
		return err
	}

	manifest, err := u.feed.FetchManifest(ctx, release)
	if err != nil {
		u.fail(seq, err)
		return err
	}
	var expected string
	if manifest != nil {
		expected = manifest.SHA512For(asset.Name)
	}
	if expected == "" {
		slog.WarnContext(ctx, "No checksum available for update artifact, skipping verification",
			"version", release.TagName, "asset", asset.Name)
	}

	u.transition(seq, StateDownloading, release.TagName)
	path, err := u.downloader.Fetch(ctx, asset.BrowserDownloadURL, asset.Name, expected, func(p Progress) {
		u.notifier.Publish(Status{Type: StatusDownloadProgress, Version: release.TagName, Progress: &p})
	})
	if err != nil {
		u.fail(seq, err)
		return err
	}

	u.mu.Lock()
	u.state = StateDownloaded
	u.stagedVersion = release.TagName
	u.stagedPath = path
	u.mu.Unlock()
	u.notifier.Publish(Status{Type: StatusDownloaded, Version: release.TagName})
	slog.InfoContext(ctx, "Update downloaded and staged",
		"version", release.TagName, "path", path)
	return nil
}

// QuitAndInstall hands the staged artifact to the platform installer. It
// returns ErrNoStagedUpdate when no download has completed; a launcher
// failure is surfaced and the process keeps running.
func (u *Updater) QuitAndInstall() error {
	u.mu.Lock()
	path := u.stagedPath
	if path == "" {
		u.mu.Unlock()
		return ErrNoStagedUpdate
	}
	u.state = StateInstallPending
	u.mu.Unlock()

	if err := u.launcher(path); err != nil {
		err = fmt.Errorf("launch installer: %w", err)
		u.mu.Lock()
		u.state = StateError
		u.lastError = err.Error()
		u.mu.Unlock()
		u.notifier.Publish(Status{Type: StatusError, Message: err.Error()})
		return err
	}

	u.mu.Lock()
	u.state = StateIdle
	u.stagedPath = ""
	u.stagedVersion = ""
	u.mu.Unlock()
	return nil
}

// DeferInstall keeps the staged artifact and marks it for installation on
// the next restart.
func (u *Updater) DeferInstall() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.stagedPath == "" {
		return ErrNoStagedUpdate
	}
	u.state = StateInstallPending
	return nil
}

// StagedArtifact returns the path of the downloaded installer, empty when
// nothing is staged. The launcher applies it on the next start when the
// install was deferred.
func (u *Updater) StagedArtifact() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.stagedPath
}

// transition applies a state change unless a newer check superseded seq.
func (u *Updater) transition(seq uint64, s State, availableVersion string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.checkSeq != seq {
		return
	}
	u.state = s
	u.availableVersion = availableVersion
}

func (u *Updater) fail(seq uint64, err error) {
	u.mu.Lock()
	if u.checkSeq == seq {
		u.state = StateError
		u.lastError = err.Error()
	}
	u.mu.Unlock()
	u.notifier.Publish(Status{Type: StatusError, Message: err.Error()})
	slog.Error("Update check failed", "error", err)
}

func platformLauncher(path string) error {
	switch runtime.GOOS {
	case "windows":
		return exec.Command("cmd", "/C", "start", "", path).Start()
	case "darwin":
		return exec.Command("open", path).Start()
	default:
		return exec.Command(path).Start()
	}
}
