package queries

import (
	"context"

	"partnerdispatch/internal/core/domain/model/job"
	"partnerdispatch/internal/core/ports"
)

type GetJobQueryHandler struct {
	jobs ports.JobRepository
}

func NewGetJobQueryHandler(jobs ports.JobRepository) GetJobQueryHandler {
	return GetJobQueryHandler{jobs: jobs}
}

func (h GetJobQueryHandler) Handle(ctx context.Context, query GetJobQuery) (job.Snapshot, error) {
	if err := query.Validate(); err != nil {
		return job.Snapshot{}, err
	}

	j, err := h.jobs.Get(ctx, query.JobID())
	if err != nil {
		return job.Snapshot{}, err
	}
	return j.Snapshot(), nil
}
