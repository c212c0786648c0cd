package pg

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MyButtermilk/Scriber-sub000/internal/app/model"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/repository"
)

// Ensure JobStore implements JobDAO
var _ repository.JobDAO = (*JobStore)(nil)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

const jobColumns = `id, transcript_id, type, status, payload, attempts, next_retry_at, last_error, created_at, updated_at`

var terminalStatuses = []interface{}{
	string(model.JobStatusCompleted),
	string(model.JobStatusFailed),
	string(model.JobStatusCanceled),
}

func (s *JobStore) Enqueue(transcriptID string, jobType model.JobType, payload map[string]string, jobID string) (*model.Job, error) {
	if jobID == "" {
		jobID = uuid.New().String()
	}

	payloadJSON := ""
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		payloadJSON = string(b)
	}

	now := s.now().UTC().Format(timeLayout)
	insertSQL := `
		INSERT INTO jobs (id, transcript_id, type, status, payload, attempts, next_retry_at, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, NULL, '', $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			transcript_id = excluded.transcript_id,
			type = excluded.type,
			status = excluded.status,
			payload = excluded.payload,
			attempts = 0,
			next_retry_at = NULL,
			last_error = '',
			updated_at = excluded.updated_at`

	_, err := s.db.Exec(insertSQL, jobID, transcriptID, string(jobType), string(model.JobStatusQueued), payloadJSON, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert job: %w", err)
	}

	return s.Get(jobID)
}

func (s *JobStore) Get(id string) (*model.Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE id = $1`, jobColumns)
	job, err := scanJob(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return job, nil
}

func (s *JobStore) GetByTranscriptID(transcriptID string) (*model.Job, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM jobs
		WHERE transcript_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, jobColumns)

	job, err := scanJob(s.db.QueryRow(query, transcriptID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return job, nil
}

func (s *JobStore) ListPending(limit int) ([]model.Job, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM jobs
		WHERE status IN ($1, $2)
			AND (next_retry_at IS NULL OR next_retry_at = '' OR next_retry_at <= $3)
		ORDER BY created_at ASC
		LIMIT $4`, jobColumns)

	now := s.now().UTC().Format(timeLayout)
	rows, err := s.db.Query(query, string(model.JobStatusQueued), string(model.JobStatusRunning), now, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return jobs, nil
}

func (s *JobStore) NextRetryDelay() (time.Duration, bool, error) {
	now := s.now()
	query := `
		SELECT MIN(next_retry_at) FROM jobs
		WHERE status = $1
			AND next_retry_at IS NOT NULL
			AND next_retry_at > $2`

	var earliest sql.NullString
	err := s.db.QueryRow(query, string(model.JobStatusQueued), now.UTC().Format(timeLayout)).Scan(&earliest)
	if err != nil {
		return 0, false, fmt.Errorf("query failed: %w", err)
	}
	if !earliest.Valid || earliest.String == "" {
		return 0, false, nil
	}

	due, err := time.Parse(timeLayout, earliest.String)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse next_retry_at %q: %w", earliest.String, err)
	}
	delay := due.Sub(now)
	if delay <= 0 {
		return 0, false, nil
	}
	return delay, true, nil
}

func (s *JobStore) MarkRunning(id string) (bool, error) {
	updateSQL := `
		UPDATE jobs
		SET status = $1, attempts = attempts + 1, next_retry_at = NULL, last_error = '', updated_at = $2
		WHERE id = $3 AND status = $4`

	result, err := s.db.Exec(updateSQL, string(model.JobStatusRunning), s.now().UTC().Format(timeLayout), id, string(model.JobStatusQueued))
	if err != nil {
		return false, fmt.Errorf("failed to mark running: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

func (s *JobStore) MarkCompleted(id string) error {
	return s.markTerminal(id, model.JobStatusCompleted, "")
}

func (s *JobStore) MarkFailed(id string, lastError string) error {
	return s.markTerminal(id, model.JobStatusFailed, lastError)
}

func (s *JobStore) MarkCanceled(id string, lastError string) error {
	return s.markTerminal(id, model.JobStatusCanceled, lastError)
}

func (s *JobStore) markTerminal(id string, status model.JobStatus, lastError string) error {
	updateSQL := `
		UPDATE jobs
		SET status = $1, next_retry_at = NULL, last_error = $2, updated_at = $3
		WHERE id = $4 AND status NOT IN ($5, $6, $7)`

	args := append([]interface{}{string(status), lastError, s.now().UTC().Format(timeLayout), id}, terminalStatuses...)
	if _, err := s.db.Exec(updateSQL, args...); err != nil {
		return fmt.Errorf("failed to mark %s: %w", status, err)
	}
	return nil
}

func (s *JobStore) SetRetry(id string, retryAt time.Time, lastError string) error {
	updateSQL := `
		UPDATE jobs
		SET status = $1, next_retry_at = $2, last_error = $3, updated_at = $4
		WHERE id = $5 AND status NOT IN ($6, $7, $8)`

	args := append([]interface{}{
		string(model.JobStatusQueued), retryAt.UTC().Format(timeLayout), lastError,
		s.now().UTC().Format(timeLayout), id,
	}, terminalStatuses...)
	if _, err := s.db.Exec(updateSQL, args...); err != nil {
		return fmt.Errorf("failed to set retry: %w", err)
	}
	return nil
}

func (s *JobStore) ResetRunningToQueued() (int, error) {
	updateSQL := `
		UPDATE jobs
		SET status = $1, next_retry_at = NULL, updated_at = $2
		WHERE status = $3`

	result, err := s.db.Exec(updateSQL, string(model.JobStatusQueued), s.now().UTC().Format(timeLayout), string(model.JobStatusRunning))
	if err != nil {
		return 0, fmt.Errorf("failed to reset running jobs: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(affected), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*model.Job, error) {
	var job model.Job
	var jobType, status string
	var payload, nextRetryAt, lastError sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&job.ID, &job.TranscriptID, &jobType, &status, &payload,
		&job.Attempts, &nextRetryAt, &lastError, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	job.Type = model.JobType(jobType)
	job.Status = model.JobStatus(status)

	if payload.Valid && payload.String != "" {
		var m map[string]string
		if err := json.Unmarshal([]byte(payload.String), &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
		job.Payload = m
	}
	if nextRetryAt.Valid && nextRetryAt.String != "" {
		t, err := time.Parse(timeLayout, nextRetryAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse next_retry_at: %w", err)
		}
		job.NextRetryAt = &t
	}
	if lastError.Valid {
		job.LastError = lastError.String
	}
	if t, err := time.Parse(timeLayout, createdAt); err == nil {
		job.CreatedAt = t
	}
	if t, err := time.Parse(timeLayout, updatedAt); err == nil {
		job.UpdatedAt = t
	}

	return &job, nil
}
