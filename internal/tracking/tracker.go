// Package tracking connects job status changes to live position channels.
//
// Tracker is registered as a status observer on the command handlers:
//
//	accepted    open the job's channel, prefetch the route in the background
//	in_transit  bind the partner as publisher, start the feed
//	delivered   close the channel, then stop the feed and wait for it
//	cancelled   same as delivered
//
// Closing before cancelling means no sample can be published once a job is
// terminal, even when a tick is already in flight.
//
// Channels and feeds live in memory only. After a restart, Resume rebuilds
// them from the stored jobs:
//
//	tr := tracking.NewTracker(hub, routes, sources, logger)
//	if _, err := tr.Resume(ctx, jobRepository); err != nil {
//		return err
//	}
//
// A resumed feed starts over from the beginning of the route with a fresh
// sequence; subscribers never see samples from before the restart.
package tracking

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"partnerdispatch/internal/broadcast"
	"partnerdispatch/internal/core/application/usecases/commands"
	"partnerdispatch/internal/core/domain/model/job"
	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/feed"
	"partnerdispatch/internal/pkg/errs"
)

const prefetchTimeout = 30 * time.Second

// RouteAssigner is satisfied by commands.AssignJobRouteCommandHandler.
type RouteAssigner interface {
	Handle(ctx context.Context, cmd commands.AssignJobRouteCommand) error
}

// InProgressLister is satisfied by ports.JobRepository.
type InProgressLister interface {
	ListInProgress(ctx context.Context) ([]*job.Job, error)
}

// SourceFactory builds the feed of a job entering in_transit. The snapshot
// always carries a partner and a route.
type SourceFactory func(snapshot job.Snapshot) (feed.Source, error)

// SimulatedSources walks each job's route with a fresh feed.Simulator.
func SimulatedSources(opts ...feed.Option) SourceFactory {
	return func(snapshot job.Snapshot) (feed.Source, error) {
		return feed.NewSimulator(snapshot.ID, *snapshot.PartnerID, snapshot.Route, opts...)
	}
}

type Tracker struct {
	hub       *broadcast.Hub
	routes    RouteAssigner
	newSource SourceFactory
	logger    *slog.Logger

	baseCtx context.Context
	stopAll context.CancelFunc
	wg      sync.WaitGroup

	mu    sync.Mutex
	feeds map[kernel.UUID]*run
}

type run struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTracker wires the hub to the route prefetcher and the feed factory. A nil
// routes disables prefetching; a nil newSource leaves publishing to the
// partner's device.
func NewTracker(hub *broadcast.Hub, routes RouteAssigner, newSource SourceFactory, logger *slog.Logger) *Tracker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		hub:       hub,
		routes:    routes,
		newSource: newSource,
		logger:    logger.With("component", "tracker"),
		baseCtx:   ctx,
		stopAll:   cancel,
		feeds:     make(map[kernel.UUID]*run),
	}
}

var _ commands.StatusObserver = (*Tracker)(nil)

func (t *Tracker) HandleStatusChanged(ctx context.Context, snapshot job.Snapshot, event job.StatusChanged) {
	switch {
	case event.To == job.Accepted:
		t.open(ctx, snapshot)
	case event.To == job.InTransit:
		t.start(ctx, snapshot)
	case event.To.IsTerminal():
		t.stop(snapshot.ID)
	}
}

// Resume opens the channel of every claimed, non-terminal job and starts the
// feeds of those in transit, as if each had just reached its status. It
// returns the number of jobs resumed.
func (t *Tracker) Resume(ctx context.Context, jobs InProgressLister) (int, error) {
	inProgress, err := jobs.ListInProgress(ctx)
	if err != nil {
		return 0, err
	}

	for _, j := range inProgress {
		snapshot := j.Snapshot()
		if snapshot.Status == job.InTransit {
			t.start(ctx, snapshot)
		} else {
			t.open(ctx, snapshot)
		}
	}

	t.logger.InfoContext(ctx, "Tracking resumed", "jobs", len(inProgress), "feeds", t.ActiveFeeds())
	return len(inProgress), nil
}

// ActiveFeeds is the number of running feed goroutines.
func (t *Tracker) ActiveFeeds() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.feeds)
}

// Shutdown stops every feed and prefetch and waits for them, or for ctx.
// Channels are left open; the jobs are still in progress.
func (t *Tracker) Shutdown(ctx context.Context) error {
	t.stopAll()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.InfoContext(ctx, "Tracker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Tracker) open(ctx context.Context, snapshot job.Snapshot) {
	if _, err := t.hub.Open(snapshot.ID); err != nil {
		t.logger.WarnContext(ctx, "Channel not opened", "job_id", snapshot.ID.String(), "error", err)
		return
	}
	if t.routes == nil || !snapshot.Route.IsEmpty() {
		return
	}

	cmd, err := commands.NewAssignJobRouteCommand(snapshot.ID)
	if err != nil {
		return
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		pctx, cancel := context.WithTimeout(t.baseCtx, prefetchTimeout)
		defer cancel()

		if err := t.routes.Handle(pctx, cmd); err != nil {
			t.logger.WarnContext(pctx, "Route prefetch failed", "job_id", snapshot.ID.String(), "error", err)
		}
	}()
}

func (t *Tracker) start(ctx context.Context, snapshot job.Snapshot) {
	if snapshot.PartnerID == nil {
		return
	}
	partnerID := *snapshot.PartnerID
	logger := t.logger.With("job_id", snapshot.ID.String())

	c, err := t.hub.Open(snapshot.ID)
	if errors.Is(err, errs.ErrChannelClosed) {
		return
	}
	if err != nil {
		logger.ErrorContext(ctx, "Channel not opened", "error", err)
		return
	}
	if err = c.Bind(partnerID); err != nil {
		logger.ErrorContext(ctx, "Publisher not bound", "error", err)
		return
	}
	if t.newSource == nil {
		return
	}

	src, err := t.newSource(snapshot)
	if err != nil {
		logger.ErrorContext(ctx, "Feed not created", "error", err)
		return
	}

	t.mu.Lock()
	if _, running := t.feeds[snapshot.ID]; running {
		t.mu.Unlock()
		return
	}
	fctx, cancel := context.WithCancel(t.baseCtx)
	r := &run{cancel: cancel, done: make(chan struct{})}
	t.feeds[snapshot.ID] = r
	t.wg.Add(1)
	t.mu.Unlock()

	go t.pump(fctx, snapshot.ID, partnerID, c, src, r, logger)
	logger.InfoContext(ctx, "Feed started", "points", snapshot.Route.Len())
}

func (t *Tracker) pump(
	ctx context.Context,
	jobID, partnerID kernel.UUID,
	c *broadcast.Channel,
	src feed.Source,
	r *run,
	logger *slog.Logger,
) {
	defer t.wg.Done()
	defer close(r.done)
	defer func() {
		t.mu.Lock()
		if t.feeds[jobID] == r {
			delete(t.feeds, jobID)
		}
		t.mu.Unlock()
		r.cancel()
	}()

	for sample := range src.Samples(ctx) {
		err := c.Publish(partnerID, sample)
		if errors.Is(err, errs.ErrChannelClosed) {
			return
		}
		if err != nil {
			logger.WarnContext(ctx, "Sample skipped", "sequence", sample.Sequence, "error", err)
		}
	}
	logger.DebugContext(ctx, "Feed exhausted")
}

func (t *Tracker) stop(jobID kernel.UUID) {
	t.hub.Close(jobID)

	t.mu.Lock()
	r := t.feeds[jobID]
	delete(t.feeds, jobID)
	t.mu.Unlock()

	if r != nil {
		r.cancel()
		<-r.done
	}
}
