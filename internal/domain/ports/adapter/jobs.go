package adapter

import (
	"context"

	"recipegen-client/internal/domain/model"
)

// JobService is the port for the remote recipe-generation backend.
// Implementations are pure request/response wrappers: no retries, no
// backoff, no state. Polling policy lives in the usecase layer.
type JobService interface {
	// StartGeneration submits a new generation job.
	StartGeneration(ctx context.Context, req *model.GenerationRequest) (*model.JobHandle, error)

	// StartModification submits a rework of an existing recipe.
	StartModification(ctx context.Context, req *model.ModificationRequest) (*model.JobHandle, error)

	// Status samples the job's current state. A "failed" job status is a
	// valid payload, not an error; only network failures and non-2xx
	// responses produce a domain.ErrTransport error.
	Status(ctx context.Context, jobID string) (*model.StatusReport, error)

	// Result fetches the payload of a completed job. Calling it before the
	// job completes is a transport-level failure.
	Result(ctx context.Context, jobID string) (*model.JobResult, error)

	// Cancel asks the backend to abandon a pending or processing job.
	Cancel(ctx context.Context, jobID string) error
}
