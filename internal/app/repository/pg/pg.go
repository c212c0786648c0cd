package pg

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

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

// JobStore is the PostgreSQL-backed job ledger. The underlying connection
// pool serializes concurrent access on its own.
type JobStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewJobStore connects to PostgreSQL and bootstraps the jobs schema.
func NewJobStore(connectionString string) (*JobStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", apperrors.ErrDatabaseConnection, err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create jobs table: %v", apperrors.ErrDatabaseConnection, err)
	}
	return &JobStore{db: db, now: time.Now}, nil
}

// NewJobStoreWithDB wraps an existing connection without running migrations.
// Used by tests with a mocked driver.
func NewJobStoreWithDB(db *sql.DB) *JobStore {
	return &JobStore{db: db, now: time.Now}
}

// Close closes the underlying database connection.
func (s *JobStore) Close() error {
	return s.db.Close()
}
