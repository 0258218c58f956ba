package queries

import (
	"context"

	"partnerdispatch/internal/core/ports"
)

type GetUnclaimedJobsQueryHandler struct {
	jobs ports.JobRepository
}

func NewGetUnclaimedJobsQueryHandler(jobs ports.JobRepository) GetUnclaimedJobsQueryHandler {
	return GetUnclaimedJobsQueryHandler{jobs: jobs}
}

// Handle returns an empty, non-nil slice when nothing is open.
func (h GetUnclaimedJobsQueryHandler) Handle(
	ctx context.Context,
	query GetUnclaimedJobsQuery,
) ([]GetUnclaimedJobsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	jobs, err := h.jobs.ListUnclaimed(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]GetUnclaimedJobsQueryResponse, 0, len(jobs))
	for _, j := range jobs {
		result = append(result, GetUnclaimedJobsQueryResponse{
			ID:           j.ID(),
			Pickup:       j.Pickup(),
			Drop:         j.Drop(),
			Price:        j.Price(),
			ClaimVersion: j.ClaimVersion(),
			CreatedAt:    j.CreatedAt(),
		})
	}

	return result, nil
}
