package commands

import (
	"context"
	"time"

	"partnerdispatch/internal/core/domain/model/job"
)

// CreateJobCommandHandler persists new unclaimed jobs.
type CreateJobCommandHandler struct {
	uowFactory JobUoWFactory
	now        func() time.Time
}

func NewCreateJobCommandHandler(uowFactory JobUoWFactory) CreateJobCommandHandler {
	return CreateJobCommandHandler{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

func (h CreateJobCommandHandler) Handle(ctx context.Context, cmd CreateJobCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	j, err := job.NewJob(cmd.JobID(), cmd.Pickup(), cmd.Drop(), cmd.Price(), h.now())
	if err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.JobRepository().Add(ctx, j); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
