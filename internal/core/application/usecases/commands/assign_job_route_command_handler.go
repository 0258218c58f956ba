package commands

import (
	"context"
	"errors"

	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/core/ports"
	"partnerdispatch/internal/pkg/errs"
)

// AssignJobRouteCommandHandler resolves a job's route once. Jobs that already
// have a route, are unclaimed or are terminal are left alone. A provider
// failure leaves the job as it was; the route retry job picks it up later.
type AssignJobRouteCommandHandler struct {
	uowFactory JobUoWFactory
	routes     ports.RouteProvider
}

func NewAssignJobRouteCommandHandler(uowFactory JobUoWFactory, routes ports.RouteProvider) AssignJobRouteCommandHandler {
	return AssignJobRouteCommandHandler{uowFactory: uowFactory, routes: routes}
}

func (h AssignJobRouteCommandHandler) Handle(ctx context.Context, cmd AssignJobRouteCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	var route kernel.Path
	for attempt := 0; attempt < maxWriteAttempts; {
		err := h.attempt(ctx, cmd.JobID(), route)

		var needRoute *routeNeeded
		switch {
		case errors.As(err, &needRoute):
			if route, err = resolveRoute(ctx, h.routes, needRoute.job); err != nil {
				return err
			}
			continue
		case errors.Is(err, errs.ErrStaleObject):
			attempt++
			continue
		default:
			return err
		}
	}

	return errs.NewStaleObjectError("job", cmd.JobID())
}

func (h AssignJobRouteCommandHandler) attempt(ctx context.Context, id kernel.UUID, route kernel.Path) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.JobRepository()
	j, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !j.NeedsRoute() {
		return nil
	}
	if route.IsEmpty() {
		return &routeNeeded{job: j}
	}

	if err = j.AssignRoute(route); err != nil {
		return err
	}
	if err = repo.Update(ctx, j); err != nil {
		return err
	}
	return uow.Commit(ctx)
}
