// Package ports defines the contracts between the dispatch core and its
// infrastructure: repositories, the unit of work, identity, routing and
// event publishing.
package ports

import (
	"context"

	"partnerdispatch/internal/core/domain/model/job"
	"partnerdispatch/internal/core/domain/model/kernel"
)

// JobRepository persists job aggregates.
type JobRepository interface {
	// Add persists a new job. The id must not exist yet.
	Add(ctx context.Context, aggregate *job.Job) error

	// Update writes every mutable field of the job, conditional on the storage
	// revision the aggregate was read at. A lost race yields errs.ErrStaleObject
	// and an unknown id errs.ErrObjectNotFound. On success the aggregate's
	// revision is advanced.
	Update(ctx context.Context, aggregate *job.Job) error

	// Get returns errs.ErrObjectNotFound for an unknown id.
	Get(ctx context.Context, id kernel.UUID) (*job.Job, error)

	// ListUnclaimed returns unclaimed jobs, oldest first.
	ListUnclaimed(ctx context.Context) ([]*job.Job, error)

	// GetActiveByPartner returns the partner's non-terminal job or
	// errs.ErrObjectNotFound when the partner is idle.
	GetActiveByPartner(ctx context.Context, partnerID kernel.UUID) (*job.Job, error)

	// ListAwaitingRoute returns claimed, non-terminal jobs without a route,
	// at most limit of them, oldest first.
	ListAwaitingRoute(ctx context.Context, limit int) ([]*job.Job, error)

	// ListInProgress returns every claimed, non-terminal job, oldest first.
	ListInProgress(ctx context.Context) ([]*job.Job, error)
}
