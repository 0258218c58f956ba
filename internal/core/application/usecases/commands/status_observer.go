package commands

import (
	"context"

	"partnerdispatch/internal/core/domain/model/job"
)

// StatusObserver is notified after a status change was committed. snapshot is
// a copy of the job as written; observers must not block for long.
type StatusObserver interface {
	HandleStatusChanged(ctx context.Context, snapshot job.Snapshot, event job.StatusChanged)
}

// StatusObserverFunc adapts a function to StatusObserver.
type StatusObserverFunc func(ctx context.Context, snapshot job.Snapshot, event job.StatusChanged)

func (f StatusObserverFunc) HandleStatusChanged(ctx context.Context, snapshot job.Snapshot, event job.StatusChanged) {
	f(ctx, snapshot, event)
}

func notify(ctx context.Context, observers []StatusObserver, j *job.Job, event job.StatusChanged) {
	snapshot := j.Snapshot()
	for _, o := range observers {
		o.HandleStatusChanged(ctx, snapshot, event)
	}
}
