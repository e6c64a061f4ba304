package ingest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"extract-catalog/internal/config"
	"extract-catalog/internal/scraper"
	"extract-catalog/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func sqliteStore(t *testing.T, ddl string) (config.Store, *sql.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(ddl)
	require.NoError(t, err)

	cfg := config.Default().Store
	cfg.Driver = "sqlite"
	cfg.Database = path
	return cfg, db
}

func countRows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM plantas_medicinais`).Scan(&n))
	return n
}

func runOnce(t *testing.T, cfg config.Store, f scraper.Fetcher) (Report, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var report Report
	err := store.WithSession(ctx, cfg, func(s *store.Session) error {
		var err error
		report, err = NewService(f, s, Config{URL: "https://example.org", Marker: marker}).Run(ctx)
		return err
	})
	return report, err
}

func TestRun_Idempotent(t *testing.T) {
	cfg, db := sqliteStore(t, `CREATE TABLE plantas_medicinais (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nome TEXT NOT NULL,
		funcao TEXT NOT NULL DEFAULT ''
	)`)
	_, err := db.Exec(`INSERT INTO plantas_medicinais (nome, funcao) VALUES ('Aloe vera', 'burns')`)
	require.NoError(t, err)

	f := new(mockFetcher)
	f.On("Fetch", mock.Anything, mock.Anything).
		Return(doc(t, listPage("Aloe vera: Used for burns<sup>[2]</sup>", "Camomila", "Arnica[1]: Anti[x]-inflammatory[3]")), nil)

	first, err := runOnce(t, cfg, f)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Found)
	assert.Equal(t, 1, first.Existing)
	assert.Equal(t, 2, first.Inserted)

	second, err := runOnce(t, cfg, f)
	require.NoError(t, err)
	assert.Equal(t, 3, second.Existing)
	assert.Zero(t, second.Inserted)

	assert.Equal(t, 3, countRows(t, db))

	var desc string
	require.NoError(t, db.QueryRow(`SELECT funcao FROM plantas_medicinais WHERE nome = 'Arnica'`).Scan(&desc))
	assert.Equal(t, "Anti-inflammatory", desc)
}

func TestRun_FailedBatchLeavesNothing(t *testing.T) {
	// The length check makes the third insert fail after two succeeded.
	cfg, db := sqliteStore(t, `CREATE TABLE plantas_medicinais (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nome TEXT NOT NULL CHECK (length(nome) < 10),
		funcao TEXT NOT NULL DEFAULT ''
	)`)

	f := new(mockFetcher)
	f.On("Fetch", mock.Anything, mock.Anything).
		Return(doc(t, listPage("Boldo", "Guaco", "Espinheira-santa: gastrite")), nil)

	report, err := runOnce(t, cfg, f)
	require.Error(t, err)
	assert.Equal(t, StagePersist, report.Stage)
	assert.Len(t, report.Pending, 3)
	assert.Zero(t, report.Inserted)

	assert.Zero(t, countRows(t, db))
}

func TestRun_FetchFailureNeverOpensStore(t *testing.T) {
	cfg := config.Default().Store
	cfg.Driver = "sqlite"
	cfg.Database = filepath.Join(t.TempDir(), "never", "created.db")

	f := new(mockFetcher)
	f.On("Fetch", mock.Anything, mock.Anything).Return(nil, &scraper.FetchError{URL: "https://example.org", Err: context.DeadlineExceeded})

	report, err := runOnce(t, cfg, f)
	require.Error(t, err)
	assert.Equal(t, StageFetch, report.Stage)
	assert.NoDirExists(t, filepath.Dir(cfg.Database))
}
