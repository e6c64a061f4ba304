package store

import (
	"context"
	"database/sql"
	"fmt"

	"extract-catalog/internal/catalog"
	"extract-catalog/internal/config"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// sqlBackend serves the database/sql drivers (mysql, sqlite).
type sqlBackend struct {
	db *sql.DB
	q  queries
}

func mysqlDSN(cfg config.Store) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	c := mysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = cfg.Host
	c.DBName = cfg.Database
	c.ParseTime = true
	c.Collation = "utf8mb4_general_ci"
	return c.FormatDSN()
}

func sqliteDSN(cfg config.Store) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	return cfg.Database
}

func openMySQL(ctx context.Context, cfg config.Store) (backend, error) {
	b, err := openSQL(ctx, "mysql", mysqlDSN(cfg), mysqlDialect, cfg)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func openSQLite(ctx context.Context, cfg config.Store) (backend, error) {
	b, err := openSQL(ctx, "sqlite", sqliteDSN(cfg), sqliteDialect, cfg)
	if err != nil {
		return nil, err
	}
	// One writer at a time; WAL lets readers through meanwhile.
	b.db.SetMaxOpenConns(1)
	if _, err := b.db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		b.db.Close()
		return nil, err
	}
	return b, nil
}

func openSQL(ctx context.Context, driver, dsn string, d dialect, cfg config.Store) (*sqlBackend, error) {
	q, err := buildQueries(d, cfg)
	if err != nil {
		return nil, err
	}
	if dsn == "" {
		return nil, fmt.Errorf("%s: no database configured", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &sqlBackend{db: db, q: q}, nil
}

func (b *sqlBackend) Exists(ctx context.Context, key string) (bool, error) {
	var n int
	if err := b.db.QueryRowContext(ctx, b.q.exists, key).Scan(&n); err != nil {
		return false, &StoreError{Op: "exists", Key: key, Err: err}
	}
	return n > 0, nil
}

func (b *sqlBackend) InsertBatch(ctx context.Context, entries []catalog.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &StoreError{Op: "begin", Err: err}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, b.q.insert)
	if err != nil {
		return 0, &StoreError{Op: "insert", Err: err}
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Key, e.Description); err != nil {
			return 0, &StoreError{Op: "insert", Key: e.Key, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &StoreError{Op: "commit", Err: err}
	}
	return len(entries), nil
}

func (b *sqlBackend) Close() error {
	return b.db.Close()
}
