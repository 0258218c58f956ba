package commands

import (
	"context"
	"errors"
	"time"

	"partnerdispatch/internal/core/domain/model/job"
	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/core/domain/services"
	"partnerdispatch/internal/pkg/errs"
)

// ClaimJobCommandResponse is returned to the winning partner. InitialPosition
// is the pickup point; it is delivered here rather than through the feed.
type ClaimJobCommandResponse struct {
	Job             job.Snapshot
	InitialPosition kernel.GeoPoint
}

// ClaimJobCommandHandler arbitrates concurrent claims. The write is conditional
// on the storage revision read in the same attempt, so the first commit wins
// regardless of request order. A lost write is retried from a fresh read,
// which reclassifies the failure as AlreadyClaimed or Conflict. When every
// attempt loses its write the last errs.StaleObjectError is returned as is.
//
// Example:
//
//	cmd, _ := NewClaimJobCommand(jobID, partnerID, listedVersion)
//	resp, err := handler.Handle(ctx, cmd)
//	switch {
//	case errors.Is(err, errs.ErrAlreadyClaimed):
//	    // someone else got it, refresh the listing
//	case errors.Is(err, errs.ErrVersionConflict):
//	    // listing was stale
//	}
type ClaimJobCommandHandler struct {
	uowFactory UoWFactory
	arbitrator services.ClaimArbitrator
	observers  []StatusObserver
	now        func() time.Time
}

func NewClaimJobCommandHandler(uowFactory UoWFactory, observers ...StatusObserver) ClaimJobCommandHandler {
	return ClaimJobCommandHandler{
		uowFactory: uowFactory,
		arbitrator: services.NewClaimArbitrator(),
		observers:  observers,
		now:        time.Now,
	}
}

func (h ClaimJobCommandHandler) Handle(ctx context.Context, cmd ClaimJobCommand) (ClaimJobCommandResponse, error) {
	if err := cmd.Validate(); err != nil {
		return ClaimJobCommandResponse{}, err
	}

	var lastErr error
	for range maxWriteAttempts {
		j, err := h.attempt(ctx, cmd)
		if errors.Is(err, errs.ErrStaleObject) {
			lastErr = err
			continue
		}
		if err != nil {
			return ClaimJobCommandResponse{}, err
		}

		event := job.NewStatusChanged(j, job.Unclaimed, job.PartnerActor(cmd.PartnerID()), h.now().UTC())
		notify(ctx, h.observers, j, event)

		return ClaimJobCommandResponse{
			Job:             j.Snapshot(),
			InitialPosition: j.Pickup(),
		}, nil
	}

	return ClaimJobCommandResponse{}, lastErr
}

func (h ClaimJobCommandHandler) attempt(ctx context.Context, cmd ClaimJobCommand) (*job.Job, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	p, err := uow.PartnerRepository().Get(ctx, cmd.PartnerID())
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil, errs.NewForbiddenError("claim", "unknown partner")
	}
	if err != nil {
		return nil, err
	}

	jobRepo := uow.JobRepository()
	j, err := jobRepo.Get(ctx, cmd.JobID())
	if err != nil {
		return nil, err
	}

	if err = h.arbitrator.TryClaim(j, p, cmd.ObservedVersion()); err != nil {
		return nil, err
	}

	if err = jobRepo.Update(ctx, j); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return j, nil
}
