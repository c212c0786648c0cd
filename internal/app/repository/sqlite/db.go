package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "github.com/MyButtermilk/Scriber-sub000/internal/app/errors"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	transcript_id TEXT NOT NULL,
	type TEXT NOT NULL,
	status TEXT NOT NULL,
	payload TEXT,
	attempts INTEGER NOT NULL DEFAULT 0,
	next_retry_at TEXT,
	last_error TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_status_created_at ON jobs(status, created_at);
CREATE INDEX IF NOT EXISTS idx_jobs_transcript_id ON jobs(transcript_id);
`

// JobStore is the SQLite-backed job ledger. SQLite does not tolerate
// unserialized concurrent writers on a shared connection, so every operation
// takes the store mutex.
type JobStore struct {
	mu  sync.Mutex
	db  *sql.DB
	now func() time.Time
}

// NewJobStore opens (creating if needed) the ledger database at dbPath and
// bootstraps the schema. Missing parent directories are created, the default
// location lives under the user's home directory.
func NewJobStore(dbPath string) (*JobStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create ledger directory %s: %v", apperrors.ErrDatabaseConnection, dir, err)
		}
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?cache=shared&mode=rwc&_busy_timeout=5000", dbPath))
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", apperrors.ErrDatabaseConnection, dbPath, err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create jobs table: %v", apperrors.ErrDatabaseConnection, err)
	}

	return &JobStore{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *JobStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
