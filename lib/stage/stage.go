// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

// Package stage manages project staging directories. File submissions
// are downloaded into a project's upload directory; the directory is
// cleared first so each submission is checked in isolation.
package stage

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
)

// MaxDownloadSize caps a single staged download. Chat platforms cap
// uploads well below this; anything larger is not a code submission.
const MaxDownloadSize = 64 << 20

// DefaultTimeout bounds one download.
const DefaultTimeout = time.Minute

// Staged describes a downloaded submission file.
type Staged struct {
	// Path is the absolute path of the staged file.
	Path string
	// Size is the file size in bytes.
	Size int64
	// Digest is the hex BLAKE3 digest of the file contents. Logged so
	// a reported build result can be tied to exact submitted bytes.
	Digest string
}

// Options configures a Stager.
type Options struct {
	// HTTPClient performs downloads. Default: a client with
	// DefaultTimeout applied.
	HTTPClient *http.Client
	// MaxSize caps downloaded file size. Default: MaxDownloadSize.
	MaxSize int64
	// Logger receives download records. Default: slog.Default().
	Logger *slog.Logger
}

// Stager downloads submission files into staging directories.
type Stager struct {
	httpClient *http.Client
	maxSize    int64
	logger     *slog.Logger
}

// New returns a Stager with defaults applied.
func New(options Options) *Stager {
	if options.HTTPClient == nil {
		options.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if options.MaxSize == 0 {
		options.MaxSize = MaxDownloadSize
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return &Stager{
		httpClient: options.HTTPClient,
		maxSize:    options.MaxSize,
		logger:     options.Logger,
	}
}

// ClearDirectory removes every entry under dir, creating dir if it
// does not exist. The directory itself is kept.
func (s *Stager) ClearDirectory(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating staging directory %s: %w", dir, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading staging directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return fmt.Errorf("clearing staging directory %s: %w", dir, err)
		}
	}
	return nil
}

// DownloadFile fetches fileURL into destDir under the attachment's
// own filename and returns a description of the staged file. The
// download is size-capped; oversized responses fail.
func (s *Stager) DownloadFile(ctx context.Context, fileURL, destDir string) (*Staged, error) {
	name, err := filenameFromURL(fileURL)
	if err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building download request: %w", err)
	}
	response, err := s.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", fileURL, err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading %s: unexpected status %s", fileURL, response.Status)
	}

	destPath := filepath.Join(destDir, name)
	file, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating staged file: %w", err)
	}
	defer file.Close()

	hasher := blake3.New()
	size, err := io.Copy(io.MultiWriter(file, hasher), io.LimitReader(response.Body, s.maxSize+1))
	if err != nil {
		os.Remove(destPath)
		return nil, fmt.Errorf("writing staged file: %w", err)
	}
	if size > s.maxSize {
		os.Remove(destPath)
		return nil, fmt.Errorf("downloading %s: exceeds size limit of %d bytes", fileURL, s.maxSize)
	}
	if err := file.Close(); err != nil {
		os.Remove(destPath)
		return nil, fmt.Errorf("closing staged file: %w", err)
	}

	staged := &Staged{
		Path:   destPath,
		Size:   size,
		Digest: hex.EncodeToString(hasher.Sum(nil)),
	}
	s.logger.Info("staged submission file",
		"path", staged.Path,
		"size", staged.Size,
		"digest", staged.Digest)
	return staged, nil
}

// filenameFromURL extracts the attachment filename from the URL path,
// rejecting names that would escape the staging directory.
func filenameFromURL(fileURL string) (string, error) {
	parsed, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("parsing download URL: %w", err)
	}
	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" || name != filepath.Base(name) {
		return "", fmt.Errorf("download URL %s has no usable filename", fileURL)
	}
	return name, nil
}
