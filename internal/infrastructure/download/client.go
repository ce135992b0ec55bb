// Package download fetches a remote recipe dataset into the local data directory.
package download

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/recipelens/backend/internal/domain"
	"github.com/spf13/afero"
	"golang.org/x/time/rate"
)

// DefaultMaxAttempts is how many times a fetch is tried before giving up
const DefaultMaxAttempts = 3

// Client downloads dataset files over HTTP
type Client struct {
	httpClient  *http.Client
	fs          afero.Fs
	userAgent   string
	maxAttempts int
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new download client writing into fsys
func NewClient(fsys afero.Fs, userAgent string) *Client {
	// One request per second with a small burst keeps retries polite
	limiter := rate.NewLimiter(rate.Limit(1), 3)

	return &Client{
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		fs:          fsys,
		userAgent:   userAgent,
		maxAttempts: DefaultMaxAttempts,
		rateLimiter: limiter,
	}
}

// SetDebug enables verbose logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// exponentialBackoff returns the wait before the next attempt
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// doRequest executes an HTTP GET request with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDownloadFailed, err)
	}

	return resp, nil
}

// Fetch downloads srcURL to dest and returns the number of bytes written.
// The file is written to a temporary name and renamed on success, so a
// failed download never leaves a truncated dataset behind.
// 5xx responses and transport errors are retried; other statuses are not.
func (c *Client) Fetch(ctx context.Context, srcURL, dest string) (int64, error) {
	log.Printf("[FETCH] Downloading %s -> %s", srcURL, dest)

	if err := c.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create destination directory: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("rate limiter error: %w", err)
		}

		n, retry, err := c.fetchOnce(ctx, srcURL, dest)
		if err == nil {
			log.Printf("[FETCH] Wrote %d bytes to %s", n, dest)
			return n, nil
		}

		log.Printf("[FETCH] Attempt %d failed: %v", attempt, err)
		lastErr = err
		if !retry || attempt == c.maxAttempts {
			break
		}

		wait := exponentialBackoff(attempt)
		if c.debug {
			log.Printf("[FETCH] Retrying in %s", wait)
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(wait):
		}
	}

	return 0, lastErr
}

// fetchOnce performs a single download attempt. retry reports whether
// the failure is worth another attempt.
func (c *Client) fetchOnce(ctx context.Context, srcURL, dest string) (n int64, retry bool, err error) {
	resp, err := c.doRequest(ctx, srcURL)
	if err != nil {
		return 0, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("%w: status %d", domain.ErrDownloadFailed, resp.StatusCode)
		return 0, resp.StatusCode >= http.StatusInternalServerError, err
	}

	tmp := dest + ".part"
	f, err := c.fs.Create(tmp)
	if err != nil {
		return 0, false, fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	n, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		c.fs.Remove(tmp)
		if copyErr == nil {
			copyErr = closeErr
		}
		return 0, ctx.Err() == nil, fmt.Errorf("%w: %v", domain.ErrDownloadFailed, copyErr)
	}

	if err := c.fs.Rename(tmp, dest); err != nil {
		c.fs.Remove(tmp)
		return 0, false, fmt.Errorf("failed to move download into place: %w", err)
	}

	return n, false, nil
}
