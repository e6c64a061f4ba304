package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"extract-catalog/internal/browser"
	"extract-catalog/internal/config"
	"extract-catalog/internal/ingest"
	"extract-catalog/internal/report"
	"extract-catalog/internal/scraper"
	"extract-catalog/internal/store"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var rootCmd = &cobra.Command{
	Use:           "extract-catalog",
	Short:         "Extracts the catalog list from a page and stores the entries not yet recorded.",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	f := rootCmd.Flags()
	f.String("config", config.DefaultFile, "Configuration file (json5); <name>.local.<ext> is merged over it")
	f.String("url", "", "Page holding the list")
	f.String("marker", "", "CSS selector of the element right before the list")
	f.String("fetcher", "", "How to load the page: chrome or http")
	f.Bool("headless", true, "Run the browser in headless mode")
	f.Bool("debug", false, "Enable debug logging")
	f.Bool("dry-run", false, "Check the store but do not insert")
	f.BoolP("verbose", "v", false, "Print the entries of the batch")
	f.Duration("timeout", 0, "Global timeout")
	f.Duration("list-timeout", 0, "How long to wait for the list to render")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	applyFlags(flags, cfg)
	setupLogging(cfg.Debug)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.GlobalTimeout)
	defer cancel()

	fetcher, cleanup, err := newFetcher(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var rep ingest.Report
	runErr := store.WithSession(ctx, cfg.Store, func(s *store.Session) error {
		svc := ingest.NewService(fetcher, s, ingest.Config{
			URL:    cfg.URL,
			Marker: cfg.Marker,
			DryRun: cfg.DryRun,
		})
		var err error
		rep, err = svc.Run(ctx)
		return err
	})

	verbose, _ := flags.GetBool("verbose")
	report.Write(cmd.OutOrStdout(), rep, runErr, verbose || cfg.DryRun)
	return runErr
}

func newFetcher(ctx context.Context, cfg *config.Config) (scraper.Fetcher, func(), error) {
	if cfg.Fetcher == config.FetcherHTTP {
		return scraper.NewHTTPFetcher(cfg), func() {}, nil
	}

	slog.Info("initializing browser")
	browserCtx, cancel, err := browser.NewChrome(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return scraper.NewChromeFetcher(browserCtx, cfg), cancel, nil
}

// applyFlags overrides cfg with the flags set on the command line.
func applyFlags(f *pflag.FlagSet, cfg *config.Config) {
	if f.Changed("url") {
		cfg.URL, _ = f.GetString("url")
	}
	if f.Changed("marker") {
		cfg.Marker, _ = f.GetString("marker")
	}
	if f.Changed("fetcher") {
		cfg.Fetcher, _ = f.GetString("fetcher")
	}
	if f.Changed("headless") {
		cfg.Headless, _ = f.GetBool("headless")
	}
	if f.Changed("timeout") {
		cfg.GlobalTimeout, _ = f.GetDuration("timeout")
	}
	if f.Changed("list-timeout") {
		cfg.ListTimeout, _ = f.GetDuration("list-timeout")
	}
	cfg.Debug, _ = f.GetBool("debug")
	cfg.DryRun, _ = f.GetBool("dry-run")
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
