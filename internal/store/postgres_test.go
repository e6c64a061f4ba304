package store

import (
	"context"
	"os"
	"testing"

	"extract-catalog/internal/catalog"
	"extract-catalog/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPostgres(t *testing.T) (config.Store, *pgx.Conn) {
	t.Helper()
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("Skipping test: TEST_PG_DSN not set")
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		t.Skipf("Skipping test: cannot connect to test database: %v", err)
	}
	t.Cleanup(func() { conn.Close(context.Background()) })

	_, err = conn.Exec(ctx, `
		DROP TABLE IF EXISTS plantas_medicinais_test;
		CREATE TABLE plantas_medicinais_test (
			id SERIAL PRIMARY KEY,
			nome TEXT NOT NULL UNIQUE,
			funcao TEXT NOT NULL DEFAULT ''
		)`)
	require.NoError(t, err)

	cfg := config.Default().Store
	cfg.Driver = "postgres"
	cfg.DSN = dsn
	cfg.Table = "plantas_medicinais_test"
	return cfg, conn
}

func TestPostgres_InsertAndExists(t *testing.T) {
	cfg, _ := setupPostgres(t)
	ctx := testCtx(t)

	s, err := NewSession(cfg)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.InsertBatch(ctx, []catalog.Entry{{Key: "Aloe vera", Description: "Used for burns"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ok, err := s.Exists(ctx, "Aloe vera")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPostgres_InsertBatchRollsBack(t *testing.T) {
	cfg, conn := setupPostgres(t)
	ctx := testCtx(t)

	s, err := NewSession(cfg)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.InsertBatch(ctx, []catalog.Entry{{Key: "Arnica"}, {Key: "Arnica"}})
	require.Error(t, err)

	var count int
	require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(*) FROM plantas_medicinais_test`).Scan(&count))
	assert.Zero(t, count)
}
