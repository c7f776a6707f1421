package reportstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	_ "modernc.org/sqlite"          // pure-Go SQLite driver

	"github.com/0xcro3dile/conllu-pipeline/internal/domain/entities"
)

// DBFile is the database file name inside the data directory.
const DBFile = "reports.db"

// SQLiteStore implements ports.ReportStore with SQLite persistence.
type SQLiteStore struct {
	mu       sync.RWMutex
	db       *sql.DB
	dataPath string
}

// Registered database/sql driver names.
const (
	driverCGO  = "sqlite3"
	driverPure = "sqlite"
)

// NewSQLiteStore opens (or creates) the history database under dataPath.
func NewSQLiteStore(dataPath string) (*SQLiteStore, error) {
	return openSQLite(driverCGO, dataPath)
}

// NewPureSQLiteStore is NewSQLiteStore on the CGO-free driver. Both open the
// same file format.
func NewPureSQLiteStore(dataPath string) (*SQLiteStore, error) {
	return openSQLite(driverPure, dataPath)
}

func openSQLite(driver, dataPath string) (*SQLiteStore, error) {
	if dataPath == "" {
		dataPath = "./data"
	}

	// Ensure data directory exists
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open(driver, filepath.Join(dataPath, DBFile))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &SQLiteStore{
		db:       db,
		dataPath: dataPath,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return store, nil
}

// initSchema creates the necessary tables.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS validation_runs (
		id TEXT PRIMARY KEY,
		artifact TEXT NOT NULL,
		checked_at INTEGER NOT NULL,
		sentences INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		warnings INTEGER NOT NULL,
		pass INTEGER NOT NULL,
		rule_counts TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_checked_at ON validation_runs(checked_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save records a run. Saving the same id again replaces it.
func (s *SQLiteStore) Save(ctx context.Context, run entities.ValidationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := run.RuleCounts
	if counts == nil {
		counts = map[entities.Rule]int{}
	}
	countsJSON, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("encoding rule counts: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO validation_runs
			(id, artifact, checked_at, sentences, errors, warnings, pass, rule_counts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Artifact,
		run.CheckedAt.UnixNano(),
		run.Sentences,
		run.Errors,
		run.Warnings,
		run.Pass,
		string(countsJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// List returns the newest runs first; limit <= 0 returns all of them.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]entities.ValidationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, artifact, checked_at, sentences, errors, warnings, pass, rule_counts
		FROM validation_runs
		ORDER BY checked_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []entities.ValidationRun
	for rows.Next() {
		var (
			run        entities.ValidationRun
			checkedAt  int64
			countsJSON string
		)
		err := rows.Scan(&run.ID, &run.Artifact, &checkedAt, &run.Sentences,
			&run.Errors, &run.Warnings, &run.Pass, &countsJSON)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if err := json.Unmarshal([]byte(countsJSON), &run.RuleCounts); err != nil {
			return nil, fmt.Errorf("decoding rule counts of run %s: %w", run.ID, err)
		}
		run.CheckedAt = time.Unix(0, checkedAt).UTC()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
