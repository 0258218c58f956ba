package commands

import (
	"context"
	"errors"
	"time"

	"partnerdispatch/internal/core/domain/model/job"
	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/core/ports"
	"partnerdispatch/internal/pkg/errs"
)

// UpdateJobStatusCommandHandler drives the status state machine.
//
// Status, partner and route are written in one conditional update, and
// observers run only after the commit. Entering InTransit without a route
// computes it first, outside of any transaction; when the provider fails the
// status is left unchanged and RouteUnavailable is returned.
type UpdateJobStatusCommandHandler struct {
	uowFactory JobUoWFactory
	routes     ports.RouteProvider
	observers  []StatusObserver
	now        func() time.Time
}

func NewUpdateJobStatusCommandHandler(
	uowFactory JobUoWFactory,
	routes ports.RouteProvider,
	observers ...StatusObserver,
) UpdateJobStatusCommandHandler {
	return UpdateJobStatusCommandHandler{
		uowFactory: uowFactory,
		routes:     routes,
		observers:  observers,
		now:        time.Now,
	}
}

// Handle returns the job as stored after the call. An idempotent request
// returns the unchanged job and notifies nobody.
func (h UpdateJobStatusCommandHandler) Handle(ctx context.Context, cmd UpdateJobStatusCommand) (job.Snapshot, error) {
	if err := cmd.Validate(); err != nil {
		return job.Snapshot{}, err
	}

	var route kernel.Path
	for attempt := 0; attempt < maxWriteAttempts; {
		res, err := h.attempt(ctx, cmd, route)

		var needRoute *routeNeeded
		switch {
		case errors.As(err, &needRoute):
			if route, err = resolveRoute(ctx, h.routes, needRoute.job); err != nil {
				return job.Snapshot{}, err
			}
			continue
		case errors.Is(err, errs.ErrStaleObject):
			attempt++
			continue
		case err != nil:
			return job.Snapshot{}, err
		}

		if res.changed {
			notify(ctx, h.observers, res.job, res.event)
		}
		return res.job.Snapshot(), nil
	}

	return job.Snapshot{}, errs.NewStaleObjectError("job", cmd.JobID())
}

type statusResult struct {
	job     *job.Job
	changed bool
	event   job.StatusChanged
}

// routeNeeded asks Handle to compute the route of job and try again.
type routeNeeded struct {
	job *job.Job
}

func (e *routeNeeded) Error() string {
	return "route needed for " + e.job.ID().String()
}

func (h UpdateJobStatusCommandHandler) attempt(
	ctx context.Context,
	cmd UpdateJobStatusCommand,
	route kernel.Path,
) (statusResult, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return statusResult{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.JobRepository()
	j, err := repo.Get(ctx, cmd.JobID())
	if err != nil {
		return statusResult{}, err
	}

	changed, err := j.CheckTransition(cmd.Actor(), cmd.Target())
	if err != nil {
		return statusResult{}, err
	}
	if !changed {
		return statusResult{job: j}, nil
	}

	if cmd.Target() == job.InTransit && !j.HasRoute() {
		if route.IsEmpty() {
			return statusResult{}, &routeNeeded{job: j}
		}
		if err = j.AssignRoute(route); err != nil {
			return statusResult{}, err
		}
	}

	from := j.Status()
	if _, err = j.TransitionTo(cmd.Actor(), cmd.Target()); err != nil {
		return statusResult{}, err
	}

	if err = repo.Update(ctx, j); err != nil {
		return statusResult{}, err
	}
	if err = uow.Commit(ctx); err != nil {
		return statusResult{}, err
	}

	return statusResult{
		job:     j,
		changed: true,
		event:   job.NewStatusChanged(j, from, cmd.Actor(), h.now().UTC()),
	}, nil
}

// resolveRoute calls the provider and normalizes failures to RouteUnavailable.
func resolveRoute(ctx context.Context, routes ports.RouteProvider, j *job.Job) (kernel.Path, error) {
	path, err := routes.ComputeRoute(ctx, j.Pickup(), j.Drop())
	if err != nil {
		if errors.Is(err, errs.ErrRouteUnavailable) {
			return kernel.Path{}, err
		}
		return kernel.Path{}, errs.NewRouteUnavailableErrorWithCause(j.ID(), err)
	}
	if path.IsEmpty() {
		return kernel.Path{}, errs.NewRouteUnavailableError(j.ID())
	}
	return path, nil
}
