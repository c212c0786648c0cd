package model

import "time"

// JobStatus is the lifecycle state of a transcription job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCanceled  JobStatus = "canceled"
)

// Terminal reports whether the status can never transition again.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCanceled:
		return true
	default:
		return false
	}
}

// JobType identifies the kind of media source a job works on.
type JobType string

const (
	JobTypeYouTube JobType = "youtube"
	JobTypeFile    JobType = "file"
)

// Job is the durable unit of background transcription work.
// The store persists Payload verbatim and never interprets its contents;
// NextRetryAt is only meaningful while Status == queued (nil means eligible
// immediately).
type Job struct {
	ID           string            `json:"id"`
	TranscriptID string            `json:"transcript_id"`
	Type         JobType           `json:"type"`
	Status       JobStatus         `json:"status"`
	Payload      map[string]string `json:"payload,omitempty"`
	Attempts     int               `json:"attempts"`
	NextRetryAt  *time.Time        `json:"next_retry_at,omitempty"`
	LastError    string            `json:"last_error,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}
