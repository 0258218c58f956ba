package jobs

import (
	"context"
	"errors"
	"log/slog"

	"partnerdispatch/internal/core/application/usecases/commands"
	"partnerdispatch/internal/core/domain/model/job"
	"partnerdispatch/internal/pkg/errs"

	"github.com/robfig/cron/v3"
)

const routeRetryBatch = 50

// AwaitingRouteLister returns claimed jobs still without a route.
type AwaitingRouteLister interface {
	ListAwaitingRoute(ctx context.Context, limit int) ([]*job.Job, error)
}

type RouteAssigner interface {
	Handle(ctx context.Context, cmd commands.AssignJobRouteCommand) error
}

// RouteRetryJob retries route computation for claimed jobs whose route could
// not be resolved when they were accepted.
type RouteRetryJob struct {
	jobs    AwaitingRouteLister
	handler RouteAssigner
	spec    string
	cron    *cron.Cron
	logger  *slog.Logger
}

func NewRouteRetryJob(jobs AwaitingRouteLister, handler RouteAssigner, spec string, logger *slog.Logger) *RouteRetryJob {
	return &RouteRetryJob{
		jobs:    jobs,
		handler: handler,
		spec:    spec,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger.With("component", "route_retry_job"),
	}
}

func (j *RouteRetryJob) Start() error {
	if _, err := j.cron.AddFunc(j.spec, func() { j.run(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Route retry job started", "schedule", j.spec)
	return nil
}

func (j *RouteRetryJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Route retry job stopped")
}

// run returns the number of jobs that got a route.
func (j *RouteRetryJob) run(ctx context.Context) int {
	pending, err := j.jobs.ListAwaitingRoute(ctx, routeRetryBatch)
	if err != nil {
		j.logger.ErrorContext(ctx, "Route retry job failed to list jobs", "error", err)
		return 0
	}

	assigned := 0
	for _, pj := range pending {
		cmd, err := commands.NewAssignJobRouteCommand(pj.ID())
		if err != nil {
			j.logger.ErrorContext(ctx, "Route retry job skipped job", "job_id", pj.ID().String(), "error", err)
			continue
		}
		err = j.handler.Handle(ctx, cmd)
		switch {
		case err == nil:
			assigned++
		case errors.Is(err, errs.ErrRouteUnavailable):
			// still down; next tick tries again
			j.logger.WarnContext(ctx, "Route still unavailable", "job_id", pj.ID().String())
		default:
			j.logger.ErrorContext(ctx, "Route retry job failed", "job_id", pj.ID().String(), "error", err)
		}
	}
	return assigned
}
