package update

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// updateFixture serves a release feed plus the asset and manifest downloads
// behind it, so the whole check-download-verify pipeline runs against one
// test server.
type updateFixture struct {
	srv      *httptest.Server
	releases []Release
	payload  []byte
	failFeed atomic.Bool
	checks   atomic.Int32
}

func newUpdateFixture(t *testing.T, tag string, payload []byte) *updateFixture {
	t.Helper()
	f := &updateFixture{payload: payload}

	mux := http.NewServeMux()
	mux.HandleFunc("/releases", func(w http.ResponseWriter, r *http.Request) {
		f.checks.Add(1)
		if f.failFeed.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(f.releases)
	})
	mux.HandleFunc("/asset", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(f.payload)
	})
	mux.HandleFunc("/manifest", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Manifest{
			Version:     tag,
			Path:        "BtwBuddy-Setup.exe",
			SHA512:      sha512b64(f.payload),
			ReleaseDate: "2024-03-01T10:00:00Z",
			Files: []ManifestFile{
				{URL: "BtwBuddy-Setup.exe", SHA512: sha512b64(f.payload), Size: int64(len(f.payload))},
			},
		})
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)

	f.releases = []Release{{
		TagName:     tag,
		Name:        "Release " + tag,
		PublishedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Assets: []ReleaseAsset{
			{Name: "BtwBuddy-Setup.exe", Size: int64(len(payload)), BrowserDownloadURL: f.srv.URL + "/asset"},
			{Name: ManifestAssetName, Size: 128, BrowserDownloadURL: f.srv.URL + "/manifest"},
		},
	}}
	return f
}

func (f *updateFixture) newUpdater(t *testing.T, cfg Config) *Updater {
	t.Helper()
	u := New(NewFeedClientURL(f.srv.URL+"/releases"), NewDownloader(t.TempDir()), cfg)
	u.goos = "windows" // fixture publishes a Windows setup asset
	return u
}

func collect(events <-chan Status) []Status {
	var out []Status
	for {
		select {
		case s := <-events:
			out = append(out, s)
		default:
			return out
		}
	}
}

func TestCheckForUpdatesNotAvailable(t *testing.T) {
	f := newUpdateFixture(t, "1.0.0", []byte("bytes"))
	u := f.newUpdater(t, Config{CurrentVersion: "1.0.0"})
	events := u.Events()

	require.NoError(t, u.CheckForUpdates(context.Background()))

	snap := u.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.AvailableVersion)

	got := collect(events)
	require.Len(t, got, 2)
	assert.Equal(t, StatusChecking, got[0].Type)
	assert.Equal(t, StatusNotAvailable, got[1].Type)
}

func TestCheckForUpdatesDownloadsAndStages(t *testing.T) {
	f := newUpdateFixture(t, "1.2.0", []byte("new installer"))
	u := f.newUpdater(t, Config{CurrentVersion: "1.1.9", AutoDownload: true})
	events := u.Events()

	require.NoError(t, u.CheckForUpdates(context.Background()))

	snap := u.Snapshot()
	assert.Equal(t, StateDownloaded, snap.State)
	assert.Equal(t, "1.2.0", snap.StagedVersion)
	assert.FileExists(t, u.StagedArtifact())

	got := collect(events)
	require.GreaterOrEqual(t, len(got), 4)
	assert.Equal(t, StatusChecking, got[0].Type)
	assert.Equal(t, StatusAvailable, got[1].Type)
	assert.Equal(t, "1.2.0", got[1].Version)
	assert.Equal(t, StatusDownloaded, got[len(got)-1].Type)

	lastPercent := -1.0
	for _, s := range got {
		if s.Type != StatusDownloadProgress {
			continue
		}
		require.NotNil(t, s.Progress)
		assert.GreaterOrEqual(t, s.Progress.Percent, lastPercent)
		lastPercent = s.Progress.Percent
	}
}

func TestCheckForUpdatesAvailableWithoutAutoDownload(t *testing.T) {
	f := newUpdateFixture(t, "2.0.0", []byte("bytes"))
	u := f.newUpdater(t, Config{CurrentVersion: "1.0.0"})

	require.NoError(t, u.CheckForUpdates(context.Background()))

	snap := u.Snapshot()
	assert.Equal(t, StateAvailable, snap.State)
	assert.Equal(t, "2.0.0", snap.AvailableVersion)
	assert.Empty(t, u.StagedArtifact())
}

func TestCheckForUpdatesFeedErrorRecovers(t *testing.T) {
	f := newUpdateFixture(t, "1.0.0", []byte("bytes"))
	u := f.newUpdater(t, Config{CurrentVersion: "1.0.0"})
	events := u.Events()

	f.failFeed.Store(true)
	err := u.CheckForUpdates(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFeed)
	assert.Equal(t, StateError, u.Snapshot().State)
	assert.NotEmpty(t, u.Snapshot().LastError)

	// A subsequent successful check transitions cleanly.
	f.failFeed.Store(false)
	require.NoError(t, u.CheckForUpdates(context.Background()))
	snap := u.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.LastError)

	got := collect(events)
	var types []StatusType
	for _, s := range got {
		types = append(types, s.Type)
	}
	assert.Equal(t, []StatusType{StatusChecking, StatusError, StatusChecking, StatusNotAvailable}, types)
}

func TestQuitAndInstall(t *testing.T) {
	t.Run("no staged update", func(t *testing.T) {
		f := newUpdateFixture(t, "1.0.0", []byte("bytes"))
		u := f.newUpdater(t, Config{CurrentVersion: "1.0.0"})
		assert.ErrorIs(t, u.QuitAndInstall(), ErrNoStagedUpdate)
	})

	t.Run("launches staged artifact", func(t *testing.T) {
		f := newUpdateFixture(t, "1.2.0", []byte("new installer"))
		var launched string
		u := f.newUpdater(t, Config{
			CurrentVersion: "1.1.0",
			AutoDownload:   true,
			Launcher: func(path string) error {
				launched = path
				return nil
			},
		})
		require.NoError(t, u.CheckForUpdates(context.Background()))
		staged := u.StagedArtifact()

		require.NoError(t, u.QuitAndInstall())
		assert.Equal(t, staged, launched)
		assert.Equal(t, StateIdle, u.Snapshot().State)
	})

	t.Run("launcher failure surfaces without crashing", func(t *testing.T) {
		f := newUpdateFixture(t, "1.2.0", []byte("new installer"))
		u := f.newUpdater(t, Config{
			CurrentVersion: "1.1.0",
			AutoDownload:   true,
			Launcher: func(path string) error {
				return errors.New("installer rejected")
			},
		})
		require.NoError(t, u.CheckForUpdates(context.Background()))

		err := u.QuitAndInstall()
		require.Error(t, err)
		assert.Equal(t, StateError, u.Snapshot().State)
	})
}

func TestDeferInstall(t *testing.T) {
	f := newUpdateFixture(t, "1.2.0", []byte("new installer"))
	u := f.newUpdater(t, Config{CurrentVersion: "1.1.0", AutoDownload: true})

	assert.ErrorIs(t, u.DeferInstall(), ErrNoStagedUpdate)

	require.NoError(t, u.CheckForUpdates(context.Background()))
	require.NoError(t, u.DeferInstall())
	assert.Equal(t, StateInstallPending, u.Snapshot().State)
	assert.NotEmpty(t, u.StagedArtifact())
}

func TestStartRunsSingleStartupCheck(t *testing.T) {
	f := newUpdateFixture(t, "1.0.0", []byte("bytes"))
	u := f.newUpdater(t, Config{CurrentVersion: "1.0.0", StartupDelay: 10 * time.Millisecond})

	stop := u.Start(context.Background())
	defer stop()
	// A second Start must not schedule another check.
	stop2 := u.Start(context.Background())
	defer stop2()

	assert.Eventually(t, func() bool {
		return f.checks.Load() == 1
	}, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), f.checks.Load())
}

func TestStartStopCancelsPendingCheck(t *testing.T) {
	f := newUpdateFixture(t, "1.0.0", []byte("bytes"))
	u := f.newUpdater(t, Config{CurrentVersion: "1.0.0", StartupDelay: time.Hour})

	stop := u.Start(context.Background())
	stop()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), f.checks.Load())
}
