package browser

import (
	"context"
	"fmt"
	"log/slog"

	"extract-catalog/internal/config"

	"github.com/chromedp/chromedp"
)

// Options returns the allocator flags used to launch Chrome.
func Options(cfg *config.Config) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,

		// Disable updates and popups
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-component-update", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-default-apps", true),

		// Basic settings
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("window-size", "1920,1080"),

		// Stability flags
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.Flag("no-sandbox", true),

		// Keep navigator.webdriver unset
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	return opts
}

// NewChrome starts a browser and returns a context bound to it. The returned
// cancel func shuts the browser down and must always be called.
func NewChrome(parent context.Context, cfg *config.Config) (context.Context, context.CancelFunc, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, Options(cfg)...)

	logOpt := chromedp.WithLogf(func(format string, args ...interface{}) {
		slog.Debug(fmt.Sprintf(format, args...), "source", "chrome")
	})
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, logOpt)

	timeoutCtx, timeoutCancel := context.WithTimeout(browserCtx, cfg.GlobalTimeout)

	cancel := func() {
		slog.Debug("canceling browser contexts")
		timeoutCancel()
		browserCancel()
		allocCancel()
	}

	// The first Run launches the browser process.
	if err := chromedp.Run(timeoutCtx); err != nil {
		cancel()
		return nil, func() {}, fmt.Errorf("start browser: %w", err)
	}
	slog.Info("browser started", "headless", cfg.Headless)

	return timeoutCtx, cancel, nil
}
