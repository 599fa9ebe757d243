package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

// BrowserFetcher renders pages in headless Chrome before returning the HTML.
// Some sample-test sites hide answer keys behind script-driven toggles; a DOM
// snapshot after render captures what plain HTTP misses.
type BrowserFetcher struct {
	delay   time.Duration
	timeout time.Duration

	mu       sync.Mutex
	lastDone time.Time
}

// NewBrowserFetcher creates a BrowserFetcher with the given minimum interval
// between page loads.
func NewBrowserFetcher(delay time.Duration) *BrowserFetcher {
	return &BrowserFetcher{
		delay:   delay,
		timeout: 60 * time.Second,
	}
}

func (b *BrowserFetcher) waitForRateLimit(ctx context.Context) error {
	if b.delay <= 0 {
		return nil
	}
	b.mu.Lock()
	elapsed := time.Since(b.lastDone)
	b.mu.Unlock()

	if elapsed >= b.delay {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(b.delay - elapsed):
		return nil
	}
}

// Fetch loads the URL in a fresh headless Chrome tab and returns the rendered
// document HTML.
func (b *BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := b.waitForRateLimit(ctx); err != nil {
		return "", err
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(defaultHeaders["User-Agent"]),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(tabCtx,
		emulation.SetUserAgentOverride(defaultHeaders["User-Agent"]),
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(1*time.Second),
		chromedp.OuterHTML("html", &html),
	)

	b.mu.Lock()
	b.lastDone = time.Now()
	b.mu.Unlock()

	if err != nil {
		return "", fmt.Errorf("browser fetch %s: %w", url, err)
	}
	return html, nil
}

// FetchWithRetry is a single attempt: restarting Chrome on a render failure
// rarely changes the outcome, and each attempt is expensive.
func (b *BrowserFetcher) FetchWithRetry(ctx context.Context, url string) (string, error) {
	return b.Fetch(ctx, url)
}

var _ PageFetcher = (*BrowserFetcher)(nil)
