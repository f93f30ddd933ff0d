package update

import (
	"context"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
)

// ErrIntegrity marks a checksum mismatch on a downloaded artifact. The
// artifact is discarded and must not be installed.
var ErrIntegrity = errors.New("artifact checksum mismatch")

// ManifestAssetName is the latest-version descriptor the release pipeline
// attaches to each release.
const ManifestAssetName = "latest.json"

type (
	ManifestFile struct {
		URL    string `json:"url"`
		SHA512 string `json:"sha512"`
		Size   int64  `json:"size"`
	}

	// Manifest is the generated latest-version descriptor. The sha512
	// values are base64 encoded, as the release pipeline emits them.
	Manifest struct {
		Version     string         `json:"version"`
		Files       []ManifestFile `json:"files"`
		Path        string         `json:"path"`
		SHA512      string         `json:"sha512"`
		ReleaseDate string         `json:"releaseDate"`
	}
)

// SHA512For returns the expected checksum for the named file, preferring a
// per-file entry over the top-level value. Empty when unknown.
func (m *Manifest) SHA512For(name string) string {
	for _, f := range m.Files {
		if f.URL == name {
			return f.SHA512
		}
	}
	if m.Path == name {
		return m.SHA512
	}
	return ""
}

// FetchManifest downloads and decodes the latest-version descriptor
// attached to the release. Returns nil without error when the release
// carries no manifest asset.
func (c *FeedClient) FetchManifest(ctx context.Context, release *Release) (*Manifest, error) {
	var url string
	for _, a := range release.Assets {
		if a.Name == ManifestAssetName {
			url = a.BrowserDownloadURL
			break
		}
	}
	if url == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeed, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: manifest returned status %d", ErrFeed, resp.StatusCode)
	}

	var m Manifest
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: decode manifest: %v", ErrFeed, err)
	}
	return &m, nil
}

// VerifySHA512 streams the file at path through SHA-512 and compares the
// base64 digest against expected. A mismatch returns ErrIntegrity.
func VerifySHA512(path, expected string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	h := sha512.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("hash artifact: %w", err)
	}
	digest := base64.StdEncoding.EncodeToString(h.Sum(nil))
	if digest != expected {
		return fmt.Errorf("%w: got %s, want %s", ErrIntegrity, digest, expected)
	}
	return nil
}
