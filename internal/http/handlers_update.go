package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"btwbuddy/internal/update"
)

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.updater.Snapshot())
}

// handleUpdateCheck kicks off a feed check. The outcome arrives through
// status events; failures are reported the same way, so the response only
// acknowledges the check was started.
func (s *Server) handleUpdateCheck(w http.ResponseWriter, r *http.Request) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := s.updater.CheckForUpdates(ctx); err != nil {
			slog.Warn("Update check failed", "error", err)
		}
	}()
	writeJSON(w, http.StatusAccepted, s.updater.Snapshot())
}

func (s *Server) handleUpdateInstall(w http.ResponseWriter, r *http.Request) {
	if err := s.updater.QuitAndInstall(); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.updater.Snapshot())
}

func (s *Server) handleUpdateDefer(w http.ResponseWriter, r *http.Request) {
	if err := s.updater.DeferInstall(); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.updater.Snapshot())
}

type releaseInfo struct {
	Tag            string                `json:"tag"`
	Name           string                `json:"name"`
	PublishedAt    time.Time             `json:"publishedAt"`
	Prerelease     bool                  `json:"prerelease"`
	Classification update.Classification `json:"classification"`
}

func (s *Server) handleListReleases(w http.ResponseWriter, r *http.Request) {
	releases, err := s.versions.ListReleases(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	infos := make([]releaseInfo, 0, len(releases))
	for _, rel := range releases {
		infos = append(infos, releaseInfo{
			Tag:            rel.TagName,
			Name:           rel.Name,
			PublishedAt:    rel.PublishedAt,
			Prerelease:     rel.Prerelease,
			Classification: s.versions.Classify(rel.TagName),
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleDownloadRelease starts a manual install of a specific release.
// Progress is published through the shared status event stream, tagged with
// the requested version.
func (s *Server) handleDownloadRelease(w http.ResponseWriter, r *http.Request) {
	tag := r.PathValue("tag")
	if tag == "" {
		writeError(w, http.StatusBadRequest, "missing release tag")
		return
	}

	if s.versions.Busy() {
		writeError(w, http.StatusConflict, "a download is already in progress")
		return
	}

	releases, err := s.versions.ListReleases(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var release *update.Release
	for i := range releases {
		if releases[i].TagName == tag {
			release = &releases[i]
			break
		}
	}
	if release == nil {
		writeError(w, http.StatusNotFound, "unknown release")
		return
	}

	if _, err := s.versions.SelectAssetForPlatform(release); err != nil {
		writeServiceError(w, r, err)
		return
	}

	notifier := s.updater.Notifier()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		err := s.versions.DownloadAndInstall(ctx, release, func(p update.Progress) {
			notifier.Publish(update.Status{
				Type:     update.StatusDownloadProgress,
				Version:  release.TagName,
				Progress: &p,
			})
		})
		if err != nil {
			slog.Warn("Manual install failed", "tag", release.TagName, "error", err)
			notifier.Publish(update.Status{
				Type:    update.StatusError,
				Version: release.TagName,
				Message: err.Error(),
			})
			return
		}
		notifier.Publish(update.Status{
			Type:    update.StatusDownloaded,
			Version: release.TagName,
		})
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"tag": release.TagName})
}
