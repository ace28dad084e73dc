package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/mail-triage/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serializes
	// writers.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// StartRun inserts a new run. Generates a UUID if ID is empty and stamps
// StartedAt when it is zero.
func (s *SQLiteStore) StartRun(ctx context.Context, run model.Run) (model.Run, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, provider, account, started_at)
		VALUES (?, ?, ?, ?)`,
		run.ID, run.Provider, run.Account, run.StartedAt.UTC(),
	)
	if err != nil {
		return model.Run{}, fmt.Errorf("starting run: %w", err)
	}
	return run, nil
}

// FinishRun records the counters and completion time of a run.
func (s *SQLiteStore) FinishRun(ctx context.Context, run model.Run) error {
	finished := time.Now().UTC()
	if run.FinishedAt != nil {
		finished = run.FinishedAt.UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE runs SET
			finished_at = ?, total = ?, processed = ?, routed = ?, error = ?
		WHERE id = ?`,
		finished, run.Total, run.Processed, run.Routed, run.Error, run.ID,
	)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", run.ID, err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("run %s not found", run.ID)
	}
	return nil
}

// GetRuns returns the most recent runs, newest first.
func (s *SQLiteStore) GetRuns(ctx context.Context, limit int) ([]model.Run, error) {
	query := `
		SELECT id, provider, account, started_at, finished_at,
			total, processed, routed, error
		FROM runs ORDER BY started_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var (
			run      model.Run
			finished sql.NullTime
		)
		err := rows.Scan(
			&run.ID, &run.Provider, &run.Account, &run.StartedAt, &finished,
			&run.Total, &run.Processed, &run.Routed, &run.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// SaveResult inserts the outcome for one message.
func (s *SQLiteStore) SaveResult(ctx context.Context, r model.TriageResult) error {
	if r.RunID == "" {
		return fmt.Errorf("result for message %s has no run id", r.MessageID)
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.ProcessedAt.IsZero() {
		r.ProcessedAt = time.Now().UTC()
	}

	var received sql.NullTime
	if r.ReceivedAt != nil {
		received = sql.NullTime{Time: r.ReceivedAt.UTC(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO results (
			id, run_id, provider, message_id,
			subject, sender, received_at, label,
			logged_locally, saved_remotely, error, processed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.RunID, r.Provider, r.MessageID,
		r.Subject, r.Sender, received, r.Label.String(),
		r.LoggedLocally, r.SavedRemotely, r.Error, r.ProcessedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving result for message %s: %w", r.MessageID, err)
	}
	return nil
}

// GetResults retrieves results matching the provided filter, newest first.
func (s *SQLiteStore) GetResults(
	ctx context.Context,
	opts ResultFilter,
) ([]model.TriageResult, error) {
	var conditions []string
	var args []interface{}

	if opts.Label != nil {
		conditions = append(conditions, "label = ?")
		args = append(args, opts.Label.String())
	}
	if opts.RunID != nil {
		conditions = append(conditions, "run_id = ?")
		args = append(args, *opts.RunID)
	}
	if opts.Provider != nil {
		conditions = append(conditions, "provider = ?")
		args = append(args, *opts.Provider)
	}

	query := `
		SELECT id, run_id, provider, message_id,
			subject, sender, received_at, label,
			logged_locally, saved_remotely, error, processed_at
		FROM results`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY processed_at DESC, rowid DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	if opts.Offset > 0 {
		if opts.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += fmt.Sprintf(" OFFSET %d", opts.Offset)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var results []model.TriageResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// CountByLabel tallies the results of one run per label.
func (s *SQLiteStore) CountByLabel(ctx context.Context, runID string) (map[model.Label]int, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT label, COUNT(*) FROM results WHERE run_id = ? GROUP BY label", runID)
	if err != nil {
		return nil, fmt.Errorf("counting results for run %s: %w", runID, err)
	}
	defer rows.Close()

	counts := make(map[model.Label]int)
	for rows.Next() {
		var (
			label string
			n     int
		)
		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("scanning label count: %w", err)
		}
		counts[model.LabelFromString(label)] += n
	}

	return counts, rows.Err()
}

// scanResult scans a result row from a sqlx.Rows result set.
func scanResult(rows *sqlx.Rows) (model.TriageResult, error) {
	var (
		r        model.TriageResult
		received sql.NullTime
		label    string
	)

	err := rows.Scan(
		&r.ID, &r.RunID, &r.Provider, &r.MessageID,
		&r.Subject, &r.Sender, &received, &label,
		&r.LoggedLocally, &r.SavedRemotely, &r.Error, &r.ProcessedAt,
	)
	if err != nil {
		return model.TriageResult{}, fmt.Errorf("scanning result row: %w", err)
	}

	r.Label = model.LabelFromString(label)
	if received.Valid {
		t := received.Time
		r.ReceivedAt = &t
	}

	return r, nil
}
