// Package repository defines the persistence contract for the durable job
// ledger. Implementations live in the sqlite and pg subpackages.
package repository

import (
	"time"

	"github.com/MyButtermilk/Scriber-sub000/internal/app/model"
)

// JobDAO is the durable, crash-recoverable job ledger. All mutating
// operations are transactional, safe for concurrent callers within one
// process, and idempotent with respect to re-applying the same logical
// transition: status guards prevent any transition out of a terminal state.
//
// "No such job" is an expected race in a crash-recovery system, so lookups
// report it as a nil record or a false result instead of an error.
type JobDAO interface {
	// Enqueue inserts a queued job with zero attempts. When jobID is empty a
	// fresh ID is assigned; when it is supplied and already exists the row is
	// replaced in place (idempotent re-creation during resume), keeping its
	// original creation time.
	Enqueue(transcriptID string, jobType model.JobType, payload map[string]string, jobID string) (*model.Job, error)

	// Get returns the job with the given ID, or nil when unknown.
	Get(id string) (*model.Job, error)

	// GetByTranscriptID returns the most recently created job for a
	// transcript, or nil when none exists.
	GetByTranscriptID(transcriptID string) (*model.Job, error)

	// ListPending returns up to limit queued or running jobs whose retry due
	// time is absent or has passed, oldest created first.
	ListPending(limit int) ([]model.Job, error)

	// NextRetryDelay returns the smallest positive delay until a queued job
	// with a future due time becomes eligible. The second result is false
	// when no such job exists.
	NextRetryDelay() (time.Duration, bool, error)

	// MarkRunning transitions a queued job to running, increments its attempt
	// count and clears its retry due time and last error. It returns false
	// when no queued row matched (unknown ID or already consumed).
	MarkRunning(id string) (bool, error)

	// MarkCompleted, MarkFailed and MarkCanceled are terminal transitions.
	// Each clears the retry due time; re-applying one to an already terminal
	// job is a no-op.
	MarkCompleted(id string) error
	MarkFailed(id string, lastError string) error
	MarkCanceled(id string, lastError string) error

	// SetRetry moves a job back to queued with the supplied future due time.
	// The backoff policy that computes retryAt lives in the orchestrator; the
	// ledger only records the decision.
	SetRetry(id string, retryAt time.Time, lastError string) error

	// ResetRunningToQueued is the crash-recovery sweep: every job stuck in
	// running is moved back to queued, eligible immediately. It must run once
	// at process startup before any ListPending call. Returns the number of
	// rows swept.
	ResetRunningToQueued() (int, error)

	Close() error
}
