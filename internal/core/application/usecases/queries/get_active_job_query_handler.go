package queries

import (
	"context"

	"partnerdispatch/internal/core/domain/model/job"
	"partnerdispatch/internal/core/ports"
)

type GetActiveJobQueryHandler struct {
	jobs ports.JobRepository
}

func NewGetActiveJobQueryHandler(jobs ports.JobRepository) GetActiveJobQueryHandler {
	return GetActiveJobQueryHandler{jobs: jobs}
}

// Handle returns errs.ErrObjectNotFound when the partner is idle.
func (h GetActiveJobQueryHandler) Handle(ctx context.Context, query GetActiveJobQuery) (job.Snapshot, error) {
	if err := query.Validate(); err != nil {
		return job.Snapshot{}, err
	}

	j, err := h.jobs.GetActiveByPartner(ctx, query.PartnerID())
	if err != nil {
		return job.Snapshot{}, err
	}

	return j.Snapshot(), nil
}
