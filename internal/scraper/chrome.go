package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"extract-catalog/internal/config"

	"github.com/chromedp/chromedp"
)

// ChromeFetcher renders pages in a running browser. ctx must come from
// browser.NewChrome.
type ChromeFetcher struct {
	ctx           context.Context
	actionTimeout time.Duration
	listTimeout   time.Duration
	marker        string
	readyScript   string
}

func NewChromeFetcher(ctx context.Context, cfg *config.Config) *ChromeFetcher {
	return &ChromeFetcher{
		ctx:           ctx,
		actionTimeout: cfg.ActionTimeout,
		listTimeout:   cfg.ListTimeout,
		marker:        cfg.Marker,
		readyScript:   listReadyScript(cfg.Marker),
	}
}

// runWithTimeout runs actions with their own deadline under the browser context.
func (f *ChromeFetcher) runWithTimeout(timeout time.Duration, actions ...chromedp.Action) error {
	if err := f.ctx.Err(); err != nil {
		return fmt.Errorf("browser context canceled: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(f.ctx, timeout)
	defer cancel()

	err := chromedp.Run(timeoutCtx, actions...)
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("action timed out after %v: %w", timeout, err)
	}
	return err
}

// Fetch navigates to url and returns the DOM once the target list shows up
// or the list wait runs out, whichever comes first. Only navigation and
// capture failures are errors.
func (f *ChromeFetcher) Fetch(ctx context.Context, url string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	slog.Info("navigating", "url", url)
	if err := f.runWithTimeout(f.actionTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("navigation failed: %w", err)}
	}

	slog.Debug("waiting for list", "marker", f.marker, "timeout", f.listTimeout)
	var ready bool
	if err := f.runWithTimeout(f.listTimeout,
		chromedp.Poll(f.readyScript, &ready, chromedp.WithPollingTimeout(f.listTimeout)),
	); err != nil {
		// The locator reports the missing list; keep whatever rendered.
		slog.Warn("list did not render in time", "marker", f.marker, "err", err)
	}

	var html string
	if err := f.runWithTimeout(f.actionTimeout,
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("capture DOM: %w", err)}
	}

	doc, err := ParseDocument(url, html)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	return doc, nil
}
