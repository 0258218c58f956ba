package memory

import (
	"context"

	"partnerdispatch/internal/core/domain/model/job"
	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/pkg/errs"

	"github.com/google/uuid"
)

type JobRepository struct {
	uow *UnitOfWork
}

func (r *JobRepository) Add(_ context.Context, aggregate *job.Job) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	return r.uow.stageJob(jobWrite{snapshot: aggregate.Snapshot(), isNew: true})
}

func (r *JobRepository) Update(_ context.Context, aggregate *job.Job) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	current, ok := r.visible(aggregate.ID().Google())
	if !ok {
		return errs.NewObjectNotFoundError("job", aggregate.ID())
	}
	if current.Revision != aggregate.Revision() {
		return errs.NewStaleObjectError("job", aggregate.ID())
	}

	expected := aggregate.Revision()
	aggregate.MarkPersisted()
	if err := r.uow.stageJob(jobWrite{snapshot: aggregate.Snapshot(), expected: expected}); err != nil {
		return err
	}
	return nil
}

func (r *JobRepository) Get(_ context.Context, id kernel.UUID) (*job.Job, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	snap, ok := r.visible(id.Google())
	if !ok {
		return nil, errs.NewObjectNotFoundError("job", id)
	}
	return job.RestoreJob(snap)
}

func (r *JobRepository) ListUnclaimed(_ context.Context) ([]*job.Job, error) {
	return r.list(0, func(s job.Snapshot) bool {
		return s.Status == job.Unclaimed
	})
}

func (r *JobRepository) GetActiveByPartner(_ context.Context, partnerID kernel.UUID) (*job.Job, error) {
	if err := partnerID.Validate(); err != nil {
		return nil, err
	}
	jobs, err := r.list(1, func(s job.Snapshot) bool {
		return s.PartnerID != nil && s.PartnerID.IsEqual(partnerID) && !s.Status.IsTerminal()
	})
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, errs.NewObjectNotFoundError("active job of partner", partnerID)
	}
	return jobs[0], nil
}

func (r *JobRepository) ListAwaitingRoute(_ context.Context, limit int) ([]*job.Job, error) {
	return r.list(limit, func(s job.Snapshot) bool {
		return s.Route.IsEmpty() && s.Status.HasPartner() && !s.Status.IsTerminal()
	})
}

func (r *JobRepository) ListInProgress(_ context.Context) ([]*job.Job, error) {
	return r.list(0, func(s job.Snapshot) bool {
		return s.Status.HasPartner() && !s.Status.IsTerminal()
	})
}

func (r *JobRepository) visible(id uuid.UUID) (job.Snapshot, bool) {
	if w, ok := r.uow.pendingJob(id); ok {
		return w.snapshot, true
	}
	return r.uow.store.job(id)
}

func (r *JobRepository) list(limit int, match func(job.Snapshot) bool) ([]*job.Job, error) {
	all := r.uow.store.allJobs()
	for _, w := range r.uow.pendingJobs() {
		all[w.snapshot.ID.Google()] = w.snapshot
	}

	snaps := make([]job.Snapshot, 0)
	for _, s := range all {
		if match(s) {
			snaps = append(snaps, s)
		}
	}
	sortJobs(snaps)
	if limit > 0 && len(snaps) > limit {
		snaps = snaps[:limit]
	}

	jobs := make([]*job.Job, 0, len(snaps))
	for _, s := range snaps {
		j, err := job.RestoreJob(s)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}
