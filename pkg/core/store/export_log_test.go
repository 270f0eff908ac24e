package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportLogFileBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	log := NewExportLog(nil, dir)
	assert.Equal(t, "file", log.Backend())

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, ticker := range []string{"f", "AAPL", "F"} {
		rec := &ExportRecord{
			Ticker:    ticker,
			URL:       "https://www.sec.gov/Archives/edgar/data/37996/x/R2.htm",
			Path:      "exports/out.xlsx",
			Category:  "statement",
			Tables:    i + 1,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, log.Record(ctx, rec))
		_, err := uuid.Parse(rec.ID)
		require.NoError(t, err)
	}

	all, err := log.Recent(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 3, all[0].Tables)
	assert.Equal(t, 1, all[2].Tables)

	ford, err := log.Recent(ctx, "f", 10)
	require.NoError(t, err)
	require.Len(t, ford, 2)
	for _, rec := range ford {
		assert.Equal(t, "F", rec.Ticker)
	}

	latest, err := log.Recent(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, 3, latest[0].Tables)
}

func TestExportLogFileMissingIsEmpty(t *testing.T) {
	log := NewExportLog(nil, t.TempDir())
	records, err := log.Recent(context.Background(), "", 10)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestExportLogSkipsCorruptLines(t *testing.T) {
	dir := t.TempDir()
	log := NewExportLog(nil, dir)
	require.NoError(t, log.Record(context.Background(), &ExportRecord{Ticker: "F", Category: "statement"}))

	f, err := os.OpenFile(filepath.Join(dir, ExportLogFile), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"id":"trunc`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	records, err := log.Recent(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestExportLogConcurrentAppends(t *testing.T) {
	log := NewExportLog(nil, t.TempDir())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, log.Record(context.Background(), &ExportRecord{Ticker: "F", Category: "statement"}))
		}()
	}
	wg.Wait()

	records, err := log.Recent(context.Background(), "F", 100)
	require.NoError(t, err)
	assert.Len(t, records, 20)
}

func TestExportLogPostgres(t *testing.T) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := Connect(ctx, dbURL)
	require.NoError(t, err)
	defer pool.Close()

	log := NewExportLog(pool, "")
	assert.Equal(t, "postgres", log.Backend())

	ticker := "T" + uuid.NewString()[:8]
	rec := &ExportRecord{Ticker: ticker, URL: "u", Path: "p", Category: "disclosure", Tables: 2}
	require.NoError(t, log.Record(ctx, rec))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM export_log WHERE ticker = $1`, rec.Ticker)
	})

	records, err := log.Recent(ctx, ticker, 5)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, rec.ID, records[0].ID)
	assert.Equal(t, 2, records[0].Tables)
	assert.Equal(t, "disclosure", records[0].Category)
}

func TestConnectRequiresURL(t *testing.T) {
	_, err := Connect(context.Background(), "")
	assert.Error(t, err)
}
