// Package cache persists the application's compiled bundle to disk so a
// test session fetches it from the dev server at most once. The cached copy
// survives across process runs; delete the file to force a refresh.
package cache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// ContentType is what the dev server serves the bundle as, and what
// interception replays it with.
const ContentType = "application/javascript"

// DefaultMinBundleSize rejects truncated or error-page responses. A real
// webpack bundle is far larger than this.
const DefaultMinBundleSize = 1024

// FetchError means the remote resource was unreachable (or answered with a
// non-200 status) and no cached copy exists.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch bundle %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ValidationError means the fetched content is implausibly small and was
// not cached.
type ValidationError struct {
	URL  string
	Size int
	Min  int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("bundle from %s is %d bytes, below minimum %d", e.URL, e.Size, e.Min)
}

// Cache fetches and persists one build artifact.
type Cache struct {
	Client        *http.Client
	MinBundleSize int
}

// New returns a cache with a bounded-timeout HTTP client.
func New(timeout time.Duration) *Cache {
	return &Cache{
		Client:        &http.Client{Timeout: timeout},
		MinBundleSize: DefaultMinBundleSize,
	}
}

// Ensure returns the bundle bytes for url, reading path when it already
// exists and fetching + writing it otherwise. Two racing first
// populations may both fetch; the content is byte-identical so last write
// wins harmlessly.
func (c *Cache) Ensure(ctx context.Context, url, path string) ([]byte, error) {
	if data, err := os.ReadFile(path); err == nil {
		slog.Debug("bundle served from cache", "path", path, "bytes", len(data))
		return data, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read bundle cache %s: %w", path, err)
	}

	data, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("write bundle cache %s: %w", path, err)
	}
	slog.Info("bundle fetched and cached", "url", url, "path", path, "bytes", len(data))
	return data, nil
}

func (c *Cache) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	min := c.MinBundleSize
	if min <= 0 {
		min = DefaultMinBundleSize
	}
	if len(data) < min {
		return nil, &ValidationError{URL: url, Size: len(data), Min: min}
	}
	return data, nil
}
