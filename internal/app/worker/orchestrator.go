package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/MyButtermilk/Scriber-sub000/internal/app/api"
	apperrors "github.com/MyButtermilk/Scriber-sub000/internal/app/errors"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/model"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/provider"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/repository"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/resilience"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/scheduler"
)

// Config tunes the orchestrator loop. Zero values fall back to defaults.
type Config struct {
	RetryPolicy  resilience.RetryPolicy
	Concurrency  int
	PollInterval time.Duration
	BatchSize    int
}

const (
	defaultConcurrency  = 4
	defaultPollInterval = 15 * time.Second
	defaultBatchSize    = 16
)

// ResultHandler receives the transcription text after a job completes.
// Handler errors are logged, they do not fail the job.
type ResultHandler func(ctx context.Context, job *model.Job, text string) error

// Orchestrator drains queued jobs from the ledger, runs transcription
// attempts through the provider router and records the outcome. A single
// Orchestrator owns the job table; concurrent processes are not supported.
type Orchestrator struct {
	ledger   repository.JobDAO
	router   *provider.Router
	registry *api.Registry
	policy   resilience.RetryPolicy
	logger   *zap.Logger
	onResult ResultHandler

	concurrency  int
	pollInterval time.Duration
	batchSize    int

	retries *scheduler.RetryScheduler
	wake    chan struct{}
	sem     chan struct{}
	now     func() time.Time
}

func NewOrchestrator(ledger repository.JobDAO, router *provider.Router, registry *api.Registry, logger *zap.Logger, cfg Config) *Orchestrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.RetryPolicy == (resilience.RetryPolicy{}) {
		cfg.RetryPolicy = resilience.DefaultRetryPolicy()
	}
	o := &Orchestrator{
		ledger:       ledger,
		router:       router,
		registry:     registry,
		policy:       cfg.RetryPolicy,
		logger:       logger,
		concurrency:  cfg.Concurrency,
		pollInterval: cfg.PollInterval,
		batchSize:    cfg.BatchSize,
		wake:         make(chan struct{}, 1),
		sem:          make(chan struct{}, cfg.Concurrency),
		now:          time.Now,
	}
	o.retries = scheduler.NewRetryScheduler(o.Notify)
	return o
}

// SetResultHandler installs a callback invoked with the transcript text of
// every completed job. Must be called before Run.
func (o *Orchestrator) SetResultHandler(h ResultHandler) {
	o.onResult = h
}

// Enqueue persists a new job and wakes the dispatch loop.
func (o *Orchestrator) Enqueue(transcriptID string, jobType model.JobType, payload map[string]string, jobID string) (*model.Job, error) {
	job, err := o.ledger.Enqueue(transcriptID, jobType, payload, jobID)
	if err != nil {
		return nil, err
	}
	o.logger.Info("job enqueued",
		zap.String("job_id", job.ID),
		zap.String("transcript_id", job.TranscriptID),
		zap.String("type", string(job.Type)))
	o.Notify()
	return job, nil
}

// Notify wakes the dispatch loop without blocking. Safe from any goroutine.
func (o *Orchestrator) Notify() {
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// Run recovers jobs interrupted by a previous crash, then dispatches due
// jobs until ctx is canceled. Blocks for the lifetime of the process.
func (o *Orchestrator) Run(ctx context.Context) error {
	swept, err := o.ledger.ResetRunningToQueued()
	if err != nil {
		return apperrors.Wrap(err, "recover interrupted jobs")
	}
	if swept > 0 {
		o.logger.Info("requeued interrupted jobs", zap.Int("count", swept))
	}

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()
	defer o.retries.Cancel()

	for {
		o.dispatchDue(ctx)
		o.armRetryTimer()

		select {
		case <-ctx.Done():
			o.drain()
			return ctx.Err()
		case <-o.wake:
		case <-ticker.C:
		}
	}
}

// drain waits for in-flight attempts to finish.
func (o *Orchestrator) drain() {
	for i := 0; i < o.concurrency; i++ {
		o.sem <- struct{}{}
	}
}

func (o *Orchestrator) dispatchDue(ctx context.Context) {
	jobs, err := o.ledger.ListPending(o.batchSize)
	if err != nil {
		o.logger.Error("list pending jobs failed", zap.Error(err))
		return
	}
	for i := range jobs {
		job := jobs[i]
		if job.Status != model.JobStatusQueued {
			continue
		}
		select {
		case o.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}
		go func(job *model.Job) {
			defer func() { <-o.sem }()
			o.runJob(ctx, job)
		}(&job)
	}
}

// armRetryTimer keeps the wake-up timer pointed at the earliest scheduled
// retry. Called after every dispatch round so completed retries re-arm for
// the next one.
func (o *Orchestrator) armRetryTimer() {
	delay, ok, err := o.ledger.NextRetryDelay()
	if err != nil {
		o.logger.Error("query next retry failed", zap.Error(err))
		return
	}
	if ok {
		o.retries.ScheduleIn(delay)
	}
}

func (o *Orchestrator) runJob(ctx context.Context, job *model.Job) {
	claimed, err := o.ledger.MarkRunning(job.ID)
	if err != nil {
		o.logger.Error("claim job failed", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	if !claimed {
		// Already picked up or no longer queued.
		return
	}
	attempt := job.Attempts + 1

	providerName, err := o.router.Select()
	if err != nil {
		// Every provider circuit is open. Back off and retry once a
		// circuit has had a chance to cool down.
		o.rescheduleOrFail(job, attempt, "", err.Error(), apperrors.CategoryTransientProvider)
		return
	}

	log := o.logger.With(
		zap.String("job_id", job.ID),
		zap.String("transcript_id", job.TranscriptID),
		zap.String("provider", providerName),
		zap.Int("attempt", attempt))

	transcriber, err := o.registry.Resolve(providerName)
	if err != nil {
		log.Error("no executor for provider", zap.Error(err))
		o.failJob(job, err.Error(), apperrors.CategoryConfigInvalid)
		return
	}

	log.Info("attempt started")
	start := o.now()
	text, err := transcriber.Transcribe(ctx, job)
	elapsed := o.now().Sub(start)

	if err != nil {
		category := o.router.RecordFailure(providerName, err.Error())
		log.Warn("attempt failed",
			zap.Duration("elapsed", elapsed),
			zap.String("category", string(category)),
			zap.Error(err))
		if apperrors.IsRetryable(category) {
			o.rescheduleOrFail(job, attempt, providerName, err.Error(), category)
		} else {
			o.failJob(job, err.Error(), category)
		}
		return
	}

	o.router.RecordSuccess(providerName)
	if markErr := o.ledger.MarkCompleted(job.ID); markErr != nil {
		log.Error("mark completed failed", zap.Error(markErr))
		return
	}
	log.Info("attempt succeeded", zap.Duration("elapsed", elapsed), zap.Int("chars", len(text)))
	if o.onResult != nil {
		if hErr := o.onResult(ctx, job, text); hErr != nil {
			log.Error("result handler failed", zap.Error(hErr))
		}
	}
}

// rescheduleOrFail applies the retry ladder: schedule another attempt when
// the budget allows, otherwise mark the job failed for good.
func (o *Orchestrator) rescheduleOrFail(job *model.Job, attempt int, providerName, lastError string, category apperrors.Category) {
	if o.policy.Exhausted(attempt) {
		o.logger.Warn("retry budget exhausted",
			zap.String("job_id", job.ID),
			zap.Int("attempts", attempt))
		o.failJob(job, lastError, category)
		return
	}
	delay := o.policy.BackoffFor(attempt)
	retryAt := o.now().Add(delay)
	if err := o.ledger.SetRetry(job.ID, retryAt, lastError); err != nil {
		o.logger.Error("schedule retry failed", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	o.logger.Info("retry scheduled",
		zap.String("job_id", job.ID),
		zap.String("provider", providerName),
		zap.Int("attempt", attempt),
		zap.Duration("delay", delay),
		zap.Time("retry_at", retryAt))
	o.retries.ScheduleIn(delay)
}

func (o *Orchestrator) failJob(job *model.Job, lastError string, category apperrors.Category) {
	if err := o.ledger.MarkFailed(job.ID, lastError); err != nil {
		o.logger.Error("mark failed failed", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	o.logger.Warn("job failed",
		zap.String("job_id", job.ID),
		zap.String("category", string(category)),
		zap.String("user_message", apperrors.UserMessage(category)))
}
