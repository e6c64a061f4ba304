// Package ingest runs the extraction pipeline: fetch the page, locate the
// list, normalize its items, drop the keys already stored and persist the
// rest in one batch.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"extract-catalog/internal/catalog"
	"extract-catalog/internal/scraper"
	"extract-catalog/internal/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("extract-catalog/internal/ingest")

type Config struct {
	URL    string
	Marker string
	DryRun bool // stop before writing
}

type Service struct {
	fetcher scraper.Fetcher
	repo    store.Repository
	cfg     Config
}

func NewService(fetcher scraper.Fetcher, repo store.Repository, cfg Config) *Service {
	return &Service{
		fetcher: fetcher,
		repo:    repo,
		cfg:     cfg,
	}
}

// Run executes one ingestion. Entries whose existence check failed are left
// out of the batch; the returned error then joins those failures even though
// the remaining entries were persisted.
func (s *Service) Run(ctx context.Context) (report Report, err error) {
	ctx, span := tracer.Start(ctx, "Run", trace.WithAttributes(attribute.String("url", s.cfg.URL)))
	report = Report{URL: s.cfg.URL, DryRun: s.cfg.DryRun, StartedAt: time.Now()}

	defer func() {
		report.FinishedAt = time.Now()
		span.SetAttributes(
			attribute.Int("found", report.Found),
			attribute.Int("existing", report.Existing),
			attribute.Int("inserted", report.Inserted),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(report.Stage))
		}
		span.End()
	}()

	doc, err := s.fetcher.Fetch(ctx, s.cfg.URL)
	if err != nil {
		report.Stage = StageFetch
		return report, err
	}

	raw, lerr := scraper.Locate(doc, s.cfg.Marker)
	var nf *scraper.NotFoundError
	if errors.As(lerr, &nf) {
		slog.WarnContext(ctx, "no list found, nothing to ingest", "marker", nf.Marker, "missing", nf.What)
	}
	report.Found = len(raw)
	slog.InfoContext(ctx, "located list items", "count", report.Found)

	entries := s.normalize(ctx, raw, &report)
	if len(entries) == 0 {
		slog.InfoContext(ctx, "no entries to ingest")
		return report, nil
	}

	pending, checkErr := s.filterNew(ctx, entries, &report)
	report.Pending = pending

	if len(pending) == 0 {
		slog.InfoContext(ctx, "no new entries to insert")
	} else if s.cfg.DryRun {
		slog.InfoContext(ctx, "dry run, skipping insert", "pending", len(pending))
	} else {
		n, err := s.repo.InsertBatch(ctx, pending)
		if err != nil {
			report.Stage = StagePersist
			return report, errors.Join(err, checkErr)
		}
		report.Inserted = n
		slog.InfoContext(ctx, "inserted entries", "count", n)
	}

	if checkErr != nil {
		report.Stage = StageCheck
		return report, checkErr
	}
	return report, nil
}

func (s *Service) normalize(ctx context.Context, raw []string, report *Report) []catalog.Entry {
	entries := make([]catalog.Entry, 0, len(raw))
	for i, e := range catalog.NormalizeAll(raw) {
		if !e.Valid() {
			report.Dropped++
			slog.WarnContext(ctx, "dropping entry without a name", "raw", raw[i])
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

// filterNew keeps, in source order, the entries whose key is neither stored
// nor already seen earlier in this run.
func (s *Service) filterNew(ctx context.Context, entries []catalog.Entry, report *Report) ([]catalog.Entry, error) {
	seen := make(map[string]bool, len(entries))
	pending := make([]catalog.Entry, 0, len(entries))
	var errs []error

	for i, e := range entries {
		if seen[e.Key] {
			report.Existing++
			slog.DebugContext(ctx, "repeated in list", "key", e.Key)
			continue
		}
		seen[e.Key] = true

		exists, err := s.repo.Exists(ctx, e.Key)
		if store.IsUnreachable(err) {
			// Nothing else can be checked; count the rest as failed.
			report.Failed += len(entries) - i
			slog.ErrorContext(ctx, "store unreachable, leaving remaining entries out", "remaining", len(entries)-i, "err", err)
			errs = append(errs, err)
			break
		}
		if err != nil {
			report.Failed++
			errs = append(errs, fmt.Errorf("check %q: %w", e.Key, err))
			slog.ErrorContext(ctx, "existence check failed, leaving entry out", "key", e.Key, "err", err)
			continue
		}
		if exists {
			report.Existing++
			slog.DebugContext(ctx, "already stored", "key", e.Key)
			continue
		}
		pending = append(pending, e)
	}
	return pending, errors.Join(errs...)
}
