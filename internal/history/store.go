package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tubescribe/internal/batch"
	"tubescribe/internal/config"
)

// Store manages the run ledger backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	// timeLayout is fixed-width so stored timestamps sort lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// Run is one recorded batch invocation.
type Run struct {
	ID         string
	Input      string
	StartedAt  time.Time
	FinishedAt time.Time
	Counts     batch.Counts
}

// Item is one recorded work item outcome.
type Item struct {
	RunID        string
	Index        int
	Reference    string
	Kind         string
	Title        string
	Status       batch.Status
	Category     string
	Detail       string
	Chunks       int
	FailedChunks int
	Elapsed      time.Duration
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open initializes or connects to the history database at cfg.History.Path.
func Open(cfg *config.Config) (*Store, error) {
	dbPath := cfg.History.Path
	if strings.TrimSpace(dbPath) == "" {
		return nil, errors.New("history path is not configured")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun stores a finished run and all of its outcomes in one transaction.
func (s *Store) RecordRun(ctx context.Context, result batch.Result) error {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(result.RunID) == "" {
		return errors.New("run id is required")
	}
	counts := result.Counts()
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin run tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO runs (id, input, started_at, finished_at, succeeded, degraded, skipped, failed)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			result.RunID, result.Input,
			formatTime(result.StartedAt), formatTime(result.FinishedAt),
			counts.Succeeded, counts.Degraded, counts.Skipped, counts.Failed,
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		for _, o := range result.Outcomes {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO items (run_id, item_index, reference, kind, title, status, category, detail, chunks, failed_chunks, elapsed_ms)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				result.RunID, o.Item.Index, o.Item.Reference, o.Item.Kind.String(), o.Title,
				string(o.Status), o.Category, o.Detail, o.Chunks, o.FailedChunks, o.Elapsed.Milliseconds(),
			); err != nil {
				return fmt.Errorf("insert item %d: %w", o.Item.Index, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit run: %w", err)
		}
		return nil
	})
}

// ListRuns returns the most recent runs, newest first. A limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	query := `SELECT id, input, started_at, finished_at, succeeded, degraded, skipped, failed
		FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run               Run
			started, finished string
		)
		if err := rows.Scan(&run.ID, &run.Input, &started, &finished,
			&run.Counts.Succeeded, &run.Counts.Degraded, &run.Counts.Skipped, &run.Counts.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunItems returns the outcomes recorded for runID in input order. A run ID
// prefix is accepted when it matches exactly one run.
func (s *Store) RunItems(ctx context.Context, runID string) ([]Item, error) {
	ctx = ensureContext(ctx)
	id, err := s.resolveRunID(ctx, runID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, item_index, reference, kind, title, status, category, detail, chunks, failed_chunks, elapsed_ms
		 FROM items WHERE run_id = ? ORDER BY item_index`, id)
	if err != nil {
		return nil, fmt.Errorf("list run items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			item      Item
			status    string
			elapsedMS int64
		)
		if err := rows.Scan(&item.RunID, &item.Index, &item.Reference, &item.Kind, &item.Title,
			&status, &item.Category, &item.Detail, &item.Chunks, &item.FailedChunks, &elapsedMS); err != nil {
			return nil, fmt.Errorf("scan run item: %w", err)
		}
		item.Status = batch.Status(status)
		item.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		items = append(items, item)
	}
	return items, rows.Err()
}

// ErrRunNotFound is returned when no run matches the requested identifier.
var ErrRunNotFound = errors.New("run not found")

func (s *Store) resolveRunID(ctx context.Context, runID string) (string, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return "", ErrRunNotFound
	}
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM runs WHERE id LIKE ? || '%' LIMIT 2", runID)
	if err != nil {
		return "", fmt.Errorf("resolve run id: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("run id prefix %q is ambiguous", runID)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
