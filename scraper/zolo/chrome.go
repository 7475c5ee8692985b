package zolo

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"toronto-housing/utils"
)

const (
	userAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/124.0.0.0 Safari/537.36"
	actionTimeout = 60 * time.Second
)

// ChromeBrowser is a Browser backed by a single chromedp tab.
type ChromeBrowser struct {
	ctx context.Context
}

// NewChromeBrowser starts headless Chrome. The returned func shuts it down.
func NewChromeBrowser(parent context.Context, chromeBin string, logger *utils.Logger) (*ChromeBrowser, func(), error) {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("[zolo] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	closeFn := func() {
		cancelTab()
		cancelAlloc()
	}

	// The first Run starts the browser; it must not carry a timeout or the
	// browser dies with it.
	if err := chromedp.Run(tabCtx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("zolo: start browser: %w", err)
	}

	return &ChromeBrowser{ctx: tabCtx}, closeFn, nil
}

func (b *ChromeBrowser) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(b.ctx, actionTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (b *ChromeBrowser) Navigate(ctx context.Context, url string) error {
	return b.run(ctx, chromedp.Navigate(url))
}

// HTML returns the current page source.
func (b *ChromeBrowser) HTML(ctx context.Context) (string, error) {
	var html string
	if err := b.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// ClickNext scrolls the next-page link into view and clicks it.
func (b *ChromeBrowser) ClickNext(ctx context.Context) error {
	return b.run(ctx,
		chromedp.ScrollIntoView(nextSelector, chromedp.ByQuery),
		chromedp.Click(nextSelector, chromedp.ByQuery),
	)
}

// findChromeBinary locates a Chrome/Chromium binary, or returns "" to let
// chromedp use its own lookup.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
