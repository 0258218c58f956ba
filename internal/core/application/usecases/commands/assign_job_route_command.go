package commands

import (
	"errors"

	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/pkg/guard"
)

var ErrAssignJobRouteCommandIsNotConstructed = errors.New(
	"AssignJobRouteCommand must be created via NewAssignJobRouteCommand constructor",
)

// AssignJobRouteCommand computes and stores the route of a claimed job. It is
// issued right after a claim (prefetch) and by the route retry job.
type AssignJobRouteCommand struct {
	jobID kernel.UUID
	guard guard.ConstructorGuard
}

func NewAssignJobRouteCommand(jobID kernel.UUID) (AssignJobRouteCommand, error) {
	if err := jobID.Validate(); err != nil {
		return AssignJobRouteCommand{}, err
	}
	return AssignJobRouteCommand{jobID: jobID, guard: guard.NewConstructorGuard()}, nil
}

func (c AssignJobRouteCommand) Validate() error {
	return c.guard.Validate(ErrAssignJobRouteCommandIsNotConstructed)
}

func (c AssignJobRouteCommand) JobID() kernel.UUID {
	return c.jobID
}
