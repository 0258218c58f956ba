package commands

import (
	"errors"

	"partnerdispatch/internal/core/domain/model/job"
	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/pkg/guard"
)

var ErrUpdateJobStatusCommandIsNotConstructed = errors.New(
	"UpdateJobStatusCommand must be created via NewUpdateJobStatusCommand constructor",
)

// UpdateJobStatusCommand asks to move a job to target on behalf of actor.
type UpdateJobStatusCommand struct { //nolint:recvcheck //using for validation
	jobID  kernel.UUID
	actor  job.Actor
	target job.Status

	guard guard.ConstructorGuard
}

func NewUpdateJobStatusCommand(jobID kernel.UUID, actor job.Actor, target job.Status) (UpdateJobStatusCommand, error) {
	c := UpdateJobStatusCommand{
		actor: actor,
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(c.setJobID(jobID), c.setTarget(target)); err != nil {
		return UpdateJobStatusCommand{}, err
	}

	return c, nil
}

func (c UpdateJobStatusCommand) Validate() error {
	return c.guard.Validate(ErrUpdateJobStatusCommandIsNotConstructed)
}

func (c UpdateJobStatusCommand) JobID() kernel.UUID {
	return c.jobID
}

func (c UpdateJobStatusCommand) Actor() job.Actor {
	return c.actor
}

func (c UpdateJobStatusCommand) Target() job.Status {
	return c.target
}

func (c *UpdateJobStatusCommand) setJobID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.jobID = id
	return nil
}

func (c *UpdateJobStatusCommand) setTarget(target job.Status) error {
	if err := target.Validate(); err != nil {
		return err
	}
	c.target = target
	return nil
}
