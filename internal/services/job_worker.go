package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/pagetone/pagetone-backend/internal/logger"
	"github.com/pagetone/pagetone-backend/internal/repos"
	"github.com/pagetone/pagetone-backend/internal/types"
)

// JobHandler executes one claimed job. The returned map is stored as the
// job's result on success.
type JobHandler func(ctx context.Context, job *types.JobRun) (map[string]interface{}, error)

// JobWorker polls the job_run table and executes claimed jobs with a pool
// of goroutines. Claims use row locks, so several processes can run workers
// against the same database.
type JobWorker struct {
	log      *logger.Logger
	jobRepo  repos.JobRunRepo
	handlers map[string]JobHandler

	workerCount       int
	maxAttempts       int
	pollInterval      time.Duration
	retryDelay        time.Duration
	staleRunning      time.Duration
	heartbeatInterval time.Duration
}

func NewJobWorker(log *logger.Logger, jobRepo repos.JobRunRepo, workerCount int, maxAttempts int) *JobWorker {
	if workerCount <= 0 {
		workerCount = 1
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &JobWorker{
		log:               log.With("service", "JobWorker"),
		jobRepo:           jobRepo,
		handlers:          map[string]JobHandler{},
		workerCount:       workerCount,
		maxAttempts:       maxAttempts,
		pollInterval:      2 * time.Second,
		retryDelay:        30 * time.Second,
		staleRunning:      5 * time.Minute,
		heartbeatInterval: 30 * time.Second,
	}
}

// Register binds a handler to a job type. Must be called before Start.
func (w *JobWorker) Register(jobType string, handler JobHandler) {
	w.handlers[jobType] = handler
}

// Start runs the pool until ctx is canceled.
func (w *JobWorker) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.workerCount; i++ {
		worker := i
		g.Go(func() error {
			return w.runLoop(ctx, worker)
		})
	}
	return g.Wait()
}

func (w *JobWorker) runLoop(ctx context.Context, worker int) error {
	log := w.log.With("worker", worker)
	log.Info("Worker started")
	for {
		select {
		case <-ctx.Done():
			log.Info("Worker stopping")
			return ctx.Err()
		default:
		}

		job, err := w.jobRepo.ClaimNextRunnable(ctx, nil, w.maxAttempts, w.retryDelay, w.staleRunning)
		if err != nil {
			log.Error("Failed to claim job", "error", err)
			if !sleepCtx(ctx, w.pollInterval) {
				return ctx.Err()
			}
			continue
		}
		if job == nil {
			if !sleepCtx(ctx, w.pollInterval) {
				return ctx.Err()
			}
			continue
		}

		w.execute(ctx, log, job)
	}
}

func (w *JobWorker) execute(ctx context.Context, log *logger.Logger, job *types.JobRun) {
	log = log.With("job_id", job.ID, "job_type", job.JobType)

	handler, ok := w.handlers[job.JobType]
	if !ok {
		log.Error("No handler registered for job type")
		w.finishFailed(ctx, log, job, fmt.Errorf("no handler for job type %s", job.JobType))
		return
	}

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go w.heartbeatLoop(hbCtx, job)

	log.Info("Job started", "attempts", job.Attempts+1)
	result, err := handler(ctx, job)
	stopHeartbeat()
	if err != nil {
		log.Error("Job failed", "error", err)
		w.finishFailed(ctx, log, job, err)
		return
	}

	updates := map[string]interface{}{
		"status":   types.JobStatusSucceeded,
		"progress": 100,
		"error":    "",
	}
	if result != nil {
		if raw, mErr := json.Marshal(result); mErr == nil {
			updates["result"] = datatypes.JSON(raw)
		}
	}
	if uErr := w.jobRepo.UpdateFields(ctx, nil, job.ID, updates); uErr != nil {
		log.Error("Failed to mark job succeeded", "error", uErr)
		return
	}
	log.Info("Job succeeded")
}

func (w *JobWorker) finishFailed(ctx context.Context, log *logger.Logger, job *types.JobRun, jobErr error) {
	now := time.Now()
	if uErr := w.jobRepo.UpdateFields(ctx, nil, job.ID, map[string]interface{}{
		"status":        types.JobStatusFailed,
		"error":         jobErr.Error(),
		"last_error_at": now,
	}); uErr != nil {
		log.Error("Failed to mark job failed", "error", uErr)
	}
}

func (w *JobWorker) heartbeatLoop(ctx context.Context, job *types.JobRun) {
	ticker := time.NewTicker(w.heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.jobRepo.Heartbeat(ctx, nil, job.ID); err != nil {
				w.log.Warn("Heartbeat failed", "job_id", job.ID, "error", err)
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
