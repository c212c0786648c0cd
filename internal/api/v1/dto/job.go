package dto

import (
	"time"

	apperrors "github.com/MyButtermilk/Scriber-sub000/internal/app/errors"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/model"
)

// CreateJobRequest enqueues a transcription job. Enqueueing the same job ID
// twice resets the existing row instead of creating a duplicate.
type CreateJobRequest struct {
	TranscriptID string            `json:"transcript_id" binding:"required"`
	Type         string            `json:"type" binding:"required,oneof=youtube file"`
	Payload      map[string]string `json:"payload"`
	JobID        string            `json:"job_id"`
}

// Validate applies the domain rules struct tags cannot express.
func (r *CreateJobRequest) Validate() error {
	switch model.JobType(r.Type) {
	case model.JobTypeFile:
		if r.Payload["file_path"] == "" {
			return apperrors.New("payload.file_path is required for file jobs")
		}
	case model.JobTypeYouTube:
		if r.Payload["url"] == "" {
			return apperrors.New("payload.url is required for youtube jobs")
		}
	}
	return nil
}

// JobResponse is the wire shape of a job.
type JobResponse struct {
	ID           string            `json:"id"`
	TranscriptID string            `json:"transcript_id"`
	Type         string            `json:"type"`
	Status       string            `json:"status"`
	Payload      map[string]string `json:"payload,omitempty"`
	Attempts     int               `json:"attempts"`
	NextRetryAt  *time.Time        `json:"next_retry_at,omitempty"`
	LastError    string            `json:"last_error,omitempty"`
	UserMessage  string            `json:"user_message,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// FromJob converts a ledger row into its API shape. Failed jobs carry the
// operator-facing explanation derived from the recorded error.
func FromJob(job *model.Job) JobResponse {
	resp := JobResponse{
		ID:           job.ID,
		TranscriptID: job.TranscriptID,
		Type:         string(job.Type),
		Status:       string(job.Status),
		Payload:      job.Payload,
		Attempts:     job.Attempts,
		NextRetryAt:  job.NextRetryAt,
		LastError:    job.LastError,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
	}
	if job.Status == model.JobStatusFailed && job.LastError != "" {
		resp.UserMessage = apperrors.UserMessage(apperrors.Classify(job.LastError))
	}
	return resp
}

// FromJobs maps a batch of ledger rows.
func FromJobs(jobs []model.Job) []JobResponse {
	out := make([]JobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, FromJob(&jobs[i]))
	}
	return out
}
