package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MyButtermilk/Scriber-sub000/internal/api/middleware"
	"github.com/MyButtermilk/Scriber-sub000/internal/api/v1/dto"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/model"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/repository"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/worker"
)

const defaultListLimit = 50

// JobHandler serves the job lifecycle endpoints.
type JobHandler struct {
	orchestrator *worker.Orchestrator
	ledger       repository.JobDAO
	logger       *zap.Logger
}

func NewJobHandler(orchestrator *worker.Orchestrator, ledger repository.JobDAO, logger *zap.Logger) *JobHandler {
	return &JobHandler{orchestrator: orchestrator, ledger: ledger, logger: logger}
}

// Create enqueues a new transcription job.
func (h *JobHandler) Create(c *gin.Context) {
	var req dto.CreateJobRequest
	if err := middleware.BindAndValidate(c, &req); err != nil {
		var vErr *middleware.ValidationError
		details := map[string]string(nil)
		if errors.As(err, &vErr) {
			details = vErr.Fields
		}
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:      http.StatusBadRequest,
			Message:   "invalid request",
			Details:   details,
			RequestID: c.GetString("request_id"),
		})
		return
	}

	job, err := h.orchestrator.Enqueue(req.TranscriptID, model.JobType(req.Type), req.Payload, req.JobID)
	if err != nil {
		h.logger.Error("enqueue failed", zap.Error(err), zap.String("transcript_id", req.TranscriptID))
		h.internalError(c, "enqueue failed")
		return
	}

	c.JSON(http.StatusCreated, dto.SuccessResponse{Code: 0, Data: dto.FromJob(job)})
}

// Get returns a single job by ID.
func (h *JobHandler) Get(c *gin.Context) {
	job, err := h.ledger.Get(c.Param("id"))
	if err != nil {
		h.logger.Error("get job failed", zap.Error(err))
		h.internalError(c, "lookup failed")
		return
	}
	if job == nil {
		h.notFound(c)
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Code: 0, Data: dto.FromJob(job)})
}

// GetByTranscript returns the most recent job for a transcript.
func (h *JobHandler) GetByTranscript(c *gin.Context) {
	job, err := h.ledger.GetByTranscriptID(c.Param("transcript_id"))
	if err != nil {
		h.logger.Error("get job by transcript failed", zap.Error(err))
		h.internalError(c, "lookup failed")
		return
	}
	if job == nil {
		h.notFound(c)
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Code: 0, Data: dto.FromJob(job)})
}

// List returns pending jobs, queued or running, oldest first.
func (h *JobHandler) List(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Code:    http.StatusBadRequest,
				Message: "limit must be a positive integer",
			})
			return
		}
		limit = parsed
	}

	jobs, err := h.ledger.ListPending(limit)
	if err != nil {
		h.logger.Error("list pending failed", zap.Error(err))
		h.internalError(c, "list failed")
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Code: 0, Data: dto.FromJobs(jobs)})
}

// Cancel marks a job canceled. Terminal jobs cannot be canceled; an attempt
// already in flight finishes, its outcome lands on the canceled row as a
// no-op.
func (h *JobHandler) Cancel(c *gin.Context) {
	id := c.Param("id")
	job, err := h.ledger.Get(id)
	if err != nil {
		h.logger.Error("get job failed", zap.Error(err))
		h.internalError(c, "lookup failed")
		return
	}
	if job == nil {
		h.notFound(c)
		return
	}
	if job.Status.Terminal() {
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Code:    http.StatusConflict,
			Message: "job is already " + string(job.Status),
		})
		return
	}

	if err := h.ledger.MarkCanceled(id, "canceled via api"); err != nil {
		h.logger.Error("cancel failed", zap.Error(err), zap.String("job_id", id))
		h.internalError(c, "cancel failed")
		return
	}
	job, err = h.ledger.Get(id)
	if err != nil || job == nil {
		h.internalError(c, "lookup after cancel failed")
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Code: 0, Data: dto.FromJob(job)})
}

func (h *JobHandler) notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, dto.ErrorResponse{
		Code:      http.StatusNotFound,
		Message:   "job not found",
		RequestID: c.GetString("request_id"),
	})
}

func (h *JobHandler) internalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Code:      http.StatusInternalServerError,
		Message:   message,
		RequestID: c.GetString("request_id"),
	})
}
