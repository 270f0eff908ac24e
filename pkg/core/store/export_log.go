package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool used by the export log.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ExportRecord describes one written workbook.
type ExportRecord struct {
	ID         string    `json:"id" db:"id"`
	Ticker     string    `json:"ticker" db:"ticker"`
	URL        string    `json:"url" db:"url"`
	Path       string    `json:"path" db:"path"`
	Category   string    `json:"category" db:"category"`
	ReportName string    `json:"report_name" db:"report_name"`
	FilingDate string    `json:"filing_date" db:"filing_date"`
	Form       string    `json:"form" db:"form"`
	Tables     int       `json:"tables" db:"table_count"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ExportLogFile is the JSON lines file used when no database is configured.
const ExportLogFile = "export_log.jsonl"

// ExportLog records exports in Postgres, or in a JSON lines file when db is nil.
type ExportLog struct {
	db      DB
	fileDir string

	mu sync.Mutex // serializes appends to the file
}

// NewExportLog creates an export log. With a nil db, records go to dir/export_log.jsonl
// (dir defaults to .cache/edgar_export).
func NewExportLog(db DB, dir string) *ExportLog {
	if db == nil && dir == "" {
		dir = filepath.Join(".cache", "edgar_export")
	}
	return &ExportLog{db: db, fileDir: dir}
}

// Backend names where records are kept ("postgres" or "file").
func (l *ExportLog) Backend() string {
	if l.db != nil {
		return "postgres"
	}
	return "file"
}

// Record stores rec, filling in ID and CreatedAt when unset.
func (l *ExportLog) Record(ctx context.Context, rec *ExportRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.Ticker = strings.ToUpper(rec.Ticker)

	if l.db != nil {
		query := `
			INSERT INTO export_log (
				id, ticker, url, path, category,
				report_name, filing_date, form, table_count, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`
		_, err := l.db.Exec(ctx, query,
			rec.ID, rec.Ticker, rec.URL, rec.Path, rec.Category,
			rec.ReportName, rec.FilingDate, rec.Form, rec.Tables, rec.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save export record: %w", err)
		}
		return nil
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal export record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.fileDir, 0o755); err != nil {
		return fmt.Errorf("failed to create export log dir: %w", err)
	}
	f, err := os.OpenFile(l.filePath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open export log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append export record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first. An empty ticker matches all.
func (l *ExportLog) Recent(ctx context.Context, ticker string, limit int) ([]ExportRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	if l.db != nil {
		query := `
			SELECT id, ticker, url, path, category, report_name, filing_date, form, table_count, created_at
			FROM export_log
			WHERE $1 = '' OR ticker = $1
			ORDER BY created_at DESC
			LIMIT $2
		`
		rows, err := l.db.Query(ctx, query, ticker, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to query export log: %w", err)
		}
		records, err := pgx.CollectRows(rows, pgx.RowToStructByName[ExportRecord])
		if err != nil {
			return nil, fmt.Errorf("failed to read export log: %w", err)
		}
		return records, nil
	}

	return l.recentFromFile(ticker, limit)
}

func (l *ExportLog) filePath() string {
	return filepath.Join(l.fileDir, ExportLogFile)
}

func (l *ExportLog) recentFromFile(ticker string, limit int) ([]ExportRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records := make([]ExportRecord, 0)

	f, err := os.Open(l.filePath())
	if errors.Is(err, os.ErrNotExist) {
		return records, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open export log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var rec ExportRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			// Skip partial lines from interrupted writes.
			continue
		}
		if ticker != "" && rec.Ticker != ticker {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read export log: %w", err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
