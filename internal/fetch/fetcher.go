// Package fetch retrieves pages over plain HTTP or headless Chrome, with
// per-instance rate limiting and bounded exponential-backoff retries.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
)

// PageFetcher is the collaborator contract the crawler consumes: fetch a URL,
// return raw HTML, fail after bounded retries.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
	FetchWithRetry(ctx context.Context, url string) (string, error)
}

var defaultHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.5",
}

// Options configures a Fetcher.
type Options struct {
	Delay      time.Duration // Minimum interval between requests
	Timeout    time.Duration
	MaxRetries uint
	HTTPClient *http.Client // Optional (tests)
}

// Fetcher fetches pages over plain HTTP. The rate-limiter state is owned by
// the instance: concurrent crawls must each own their own Fetcher.
type Fetcher struct {
	client     *http.Client
	delay      time.Duration
	maxRetries uint

	mu       sync.Mutex
	lastDone time.Time
}

// NewFetcher creates a Fetcher from opts.
func NewFetcher(opts Options) *Fetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &Fetcher{
		client:     client,
		delay:      opts.Delay,
		maxRetries: opts.MaxRetries,
	}
}

// waitForRateLimit blocks until the configured minimum interval since the
// previous request completed has elapsed, or ctx is cancelled.
func (f *Fetcher) waitForRateLimit(ctx context.Context) error {
	if f.delay <= 0 {
		return nil
	}
	f.mu.Lock()
	elapsed := time.Since(f.lastDone)
	f.mu.Unlock()

	if elapsed >= f.delay {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(f.delay - elapsed):
		return nil
	}
}

func (f *Fetcher) markDone() {
	f.mu.Lock()
	f.lastDone = time.Now()
	f.mu.Unlock()
}

// Fetch retrieves the URL once, honoring the rate limit.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := f.waitForRateLimit(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	for k, v := range defaultHeaders {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	f.markDone()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	return string(body), nil
}

// FetchWithRetry retrieves the URL, retrying with exponential backoff up to
// the configured attempt count before surfacing the last error.
func (f *Fetcher) FetchWithRetry(ctx context.Context, url string) (string, error) {
	return retry.DoWithData(
		func() (string, error) {
			return f.Fetch(ctx, url)
		},
		retry.Context(ctx),
		retry.Attempts(f.maxRetries),
		retry.Delay(1*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}

var _ PageFetcher = (*Fetcher)(nil)
