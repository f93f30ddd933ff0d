package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// ErrBusy is returned when a download is requested while another one is in
// flight. Both would share the same local destination, so access is
// serialized and the second request is rejected rather than interleaved.
var ErrBusy = errors.New("another download is already in progress")

// ProgressFunc receives download progress. Percent never decreases within
// one download session.
type ProgressFunc func(Progress)

// Downloader streams release assets to a single exclusive destination
// directory. Partial files are removed on any failure, and the artifact is
// only moved into place after its checksum has been verified.
type Downloader struct {
	dir        string
	httpClient *http.Client

	busy chan struct{} // 1-slot semaphore guarding the destination dir
}

func NewDownloader(dir string) *Downloader {
	return &Downloader{
		dir:        dir,
		httpClient: &http.Client{},
		busy:       make(chan struct{}, 1),
	}
}

// Busy reports whether a download currently holds the destination.
func (d *Downloader) Busy() bool {
	return len(d.busy) > 0
}

// Fetch downloads url into the destination directory under filename. When
// expectedSHA512 is non-empty the artifact is verified before being renamed
// into place; a mismatch removes it and returns ErrIntegrity. Returns the
// final artifact path.
func (d *Downloader) Fetch(ctx context.Context, url, filename, expectedSHA512 string, onProgress ProgressFunc) (string, error) {
	select {
	case d.busy <- struct{}{}:
	default:
		return "", ErrBusy
	}
	defer func() { <-d.busy }()

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("create download directory: %w", err)
	}

	partialPath := filepath.Join(d.dir, filename+".partial")
	finalPath := filepath.Join(d.dir, filename)

	if err := d.stream(ctx, url, partialPath, onProgress); err != nil {
		os.Remove(partialPath)
		return "", err
	}

	if expectedSHA512 != "" {
		if err := VerifySHA512(partialPath, expectedSHA512); err != nil {
			os.Remove(partialPath)
			return "", err
		}
	}

	if err := os.Rename(partialPath, finalPath); err != nil {
		os.Remove(partialPath)
		return "", fmt.Errorf("stage artifact: %w", err)
	}
	return finalPath, nil
}

func (d *Downloader) stream(ctx context.Context, url, dest string, onProgress ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFeed, err)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFeed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: download returned status %d", ErrFeed, resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create partial file: %w", err)
	}

	total := resp.ContentLength
	var transferred int64
	start := time.Now()
	buf := make([]byte, 32*1024)

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := f.Write(buf[:n]); err != nil {
				f.Close()
				return fmt.Errorf("write partial file: %w", err)
			}
			transferred += int64(n)
			if onProgress != nil {
				onProgress(progressAt(transferred, total, time.Since(start)))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			f.Close()
			return fmt.Errorf("%w: %v", ErrFeed, readErr)
		}
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close partial file: %w", err)
	}
	if onProgress != nil {
		onProgress(Progress{Percent: 100, Transferred: transferred, Total: transferred, BytesPerSecond: rate(transferred, time.Since(start))})
	}
	return nil
}

func progressAt(transferred, total int64, elapsed time.Duration) Progress {
	p := Progress{
		Transferred:    transferred,
		Total:          total,
		BytesPerSecond: rate(transferred, elapsed),
	}
	if total > 0 {
		p.Percent = float64(transferred) / float64(total) * 100
	}
	return p
}

func rate(transferred int64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(transferred) / elapsed.Seconds()
}
