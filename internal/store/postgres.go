package store

import (
	"context"
	"net/url"

	"extract-catalog/internal/catalog"
	"extract-catalog/internal/config"

	"github.com/jackc/pgx/v5"
)

type pgBackend struct {
	conn *pgx.Conn
	q    queries
}

func postgresDSN(cfg config.Store) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   cfg.Host,
		Path:   "/" + cfg.Database,
	}
	return u.String()
}

func openPostgres(ctx context.Context, cfg config.Store) (backend, error) {
	q, err := buildQueries(postgresDialect, cfg)
	if err != nil {
		return nil, err
	}
	conn, err := pgx.Connect(ctx, postgresDSN(cfg))
	if err != nil {
		return nil, err
	}
	return &pgBackend{conn: conn, q: q}, nil
}

func (b *pgBackend) Exists(ctx context.Context, key string) (bool, error) {
	var n int64
	if err := b.conn.QueryRow(ctx, b.q.exists, key).Scan(&n); err != nil {
		return false, &StoreError{Op: "exists", Key: key, Err: err}
	}
	return n > 0, nil
}

func (b *pgBackend) InsertBatch(ctx context.Context, entries []catalog.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := b.conn.Begin(ctx)
	if err != nil {
		return 0, &StoreError{Op: "begin", Err: err}
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(b.q.insert, e.Key, e.Description)
	}

	br := tx.SendBatch(ctx, batch)
	for _, e := range entries {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return 0, &StoreError{Op: "insert", Key: e.Key, Err: err}
		}
	}
	if err := br.Close(); err != nil {
		return 0, &StoreError{Op: "insert", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, &StoreError{Op: "commit", Err: err}
	}
	return len(entries), nil
}

func (b *pgBackend) Close() error {
	return b.conn.Close(context.Background())
}
