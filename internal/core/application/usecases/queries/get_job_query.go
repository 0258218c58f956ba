package queries

import (
	"errors"

	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/pkg/guard"
)

var ErrGetJobQueryIsNotConstructed = errors.New("GetJobQuery must be created via NewGetJobQuery constructor")

// GetJobQuery reads one job for the dispatch back office.
type GetJobQuery struct {
	jobID kernel.UUID
	guard guard.ConstructorGuard
}

func NewGetJobQuery(jobID kernel.UUID) (GetJobQuery, error) {
	if err := jobID.Validate(); err != nil {
		return GetJobQuery{}, err
	}
	return GetJobQuery{jobID: jobID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetJobQuery) Validate() error {
	return q.guard.Validate(ErrGetJobQueryIsNotConstructed)
}

func (q GetJobQuery) JobID() kernel.UUID {
	return q.jobID
}
