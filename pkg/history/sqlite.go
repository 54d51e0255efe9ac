package history

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/beemind-ai/beemind/pkg/core"
	"github.com/beemind-ai/beemind/pkg/errors"
)

// SQLiteArchive persists generation events to a SQLite database. It
// implements core.AuditSink for callers who need history beyond the
// in-memory ring's retention.
type SQLiteArchive struct {
	db *sql.DB
}

// NewSQLiteArchive opens (creating if needed) the archive database at path.
func NewSQLiteArchive(path string) (*SQLiteArchive, error) {
	if path == "" {
		path = "beemind_history.db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "failed to open history archive")
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	archive := &SQLiteArchive{db: db}
	if err := archive.initDB(); err != nil {
		db.Close()
		return nil, err
	}

	// WAL keeps concurrent readers cheap while the run appends.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.Unknown, "failed to enable WAL mode")
	}

	return archive, nil
}

func (a *SQLiteArchive) initDB() error {
	schema := `
	CREATE TABLE IF NOT EXISTS generation_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		generation INTEGER NOT NULL,
		best_primary REAL NOT NULL,
		best_family TEXT NOT NULL,
		recorded_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_generation_events_run
		ON generation_events(run_id, generation);
	`
	if _, err := a.db.Exec(schema); err != nil {
		return errors.Wrap(err, errors.Unknown, "failed to initialize archive schema")
	}
	return nil
}

// RecordGeneration appends one generation event.
func (a *SQLiteArchive) RecordGeneration(ctx context.Context, event core.GenerationEvent) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO generation_events (run_id, generation, best_primary, best_family, recorded_at)
		 VALUES (?, ?, ?, ?, ?)`,
		event.RunID, event.Generation, event.BestPrimary, event.BestFamily, event.Timestamp)
	if err != nil {
		return errors.Wrap(err, errors.Unknown, "failed to record generation event")
	}
	return nil
}

// Events returns the archived events for a run, ordered by generation.
func (a *SQLiteArchive) Events(ctx context.Context, runID string) ([]core.GenerationEvent, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT run_id, generation, best_primary, best_family, recorded_at
		 FROM generation_events WHERE run_id = ? ORDER BY generation`,
		runID)
	if err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "failed to query generation events")
	}
	defer rows.Close()

	var events []core.GenerationEvent
	for rows.Next() {
		var event core.GenerationEvent
		if err := rows.Scan(&event.RunID, &event.Generation, &event.BestPrimary,
			&event.BestFamily, &event.Timestamp); err != nil {
			return nil, errors.Wrap(err, errors.Unknown, "failed to scan generation event")
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Close releases the underlying database handle.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}
