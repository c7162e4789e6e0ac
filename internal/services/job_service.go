package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/pagetone/pagetone-backend/internal/logger"
	"github.com/pagetone/pagetone-backend/internal/repos"
	"github.com/pagetone/pagetone-backend/internal/types"
)

// JobService enqueues background work as job_run rows and reads them back
// for status polling. Execution happens in the worker pool.
type JobService interface {
	Enqueue(ctx context.Context, jobType string, entityID uuid.UUID, payload map[string]interface{}) (*types.JobRun, error)
	Get(ctx context.Context, id uuid.UUID) (*types.JobRun, error)
}

type jobService struct {
	log     *logger.Logger
	jobRepo repos.JobRunRepo
}

func NewJobService(log *logger.Logger, jobRepo repos.JobRunRepo) JobService {
	return &jobService{
		log:     log.With("service", "JobService"),
		jobRepo: jobRepo,
	}
}

func (s *jobService) Enqueue(ctx context.Context, jobType string, entityID uuid.UUID, payload map[string]interface{}) (*types.JobRun, error) {
	var payloadJSON datatypes.JSON
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal job payload: %w", err)
		}
		payloadJSON = datatypes.JSON(raw)
	}

	job, err := s.jobRepo.Create(ctx, nil, &types.JobRun{
		ID:       uuid.New(),
		JobType:  jobType,
		EntityID: entityID,
		Status:   types.JobStatusQueued,
		Payload:  payloadJSON,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Job enqueued", "job_id", job.ID, "job_type", jobType, "entity_id", entityID)
	return job, nil
}

func (s *jobService) Get(ctx context.Context, id uuid.UUID) (*types.JobRun, error) {
	return s.jobRepo.GetByID(ctx, nil, id)
}
