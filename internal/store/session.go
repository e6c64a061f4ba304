package store

import (
	"context"
	"fmt"
	"log/slog"

	"extract-catalog/internal/catalog"
	"extract-catalog/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("extract-catalog/internal/store")

type opener func(ctx context.Context, cfg config.Store) (backend, error)

var drivers = map[string]opener{
	"mysql":    openMySQL,
	"sqlite":   openSQLite,
	"postgres": openPostgres,
}

// Session is a run-scoped handle on the store. The connection is opened on
// first use and released by Close. A failed open is not retried: every later
// call returns the same error.
type Session struct {
	cfg     config.Store
	open    opener
	b       backend
	openErr error
}

func NewSession(cfg config.Store) (*Session, error) {
	open, ok := drivers[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	return &Session{cfg: cfg, open: open}, nil
}

// WithSession runs fn with a session that is closed when fn returns.
func WithSession(ctx context.Context, cfg config.Store, fn func(*Session) error) error {
	s, err := NewSession(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			slog.WarnContext(ctx, "failed to close store session", "err", err)
		}
	}()
	return fn(s)
}

func (s *Session) conn(ctx context.Context) (backend, error) {
	if s.b != nil {
		return s.b, nil
	}
	if s.openErr != nil {
		return nil, s.openErr
	}
	b, err := s.open(ctx, s.cfg)
	if err != nil {
		s.openErr = &StoreError{Op: "connect", Err: err}
		return nil, s.openErr
	}
	slog.DebugContext(ctx, "store connection opened", "driver", s.cfg.Driver, "table", s.cfg.Table)
	s.b = b
	return b, nil
}

// Opened reports whether the session holds a live connection.
func (s *Session) Opened() bool {
	return s.b != nil
}

func (s *Session) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, s.cfg.Timeout)
	}
	return ctx, func() {}
}

func (s *Session) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	b, err := s.conn(ctx)
	if err != nil {
		return false, err
	}
	return b.Exists(ctx, key)
}

func (s *Session) InsertBatch(ctx context.Context, entries []catalog.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	ctx, span := tracer.Start(ctx, "InsertBatch")
	defer span.End()
	span.SetAttributes(attribute.Int("entries", len(entries)))

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	b, err := s.conn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "connect failed")
		return 0, err
	}
	n, err := b.InsertBatch(ctx, entries)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch rolled back")
	}
	return n, err
}

// Close releases the connection if one was opened. It is safe to call more
// than once.
func (s *Session) Close() error {
	if s.b == nil {
		return nil
	}
	err := s.b.Close()
	s.b = nil
	if err == nil {
		slog.Debug("store connection closed", "driver", s.cfg.Driver)
	}
	return err
}
