package tracking_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"partnerdispatch/internal/broadcast"
	"partnerdispatch/internal/core/application/usecases/commands"
	"partnerdispatch/internal/core/domain/model/job"
	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/feed"
	"partnerdispatch/internal/tracking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRouteAssigner struct {
	mock.Mock
}

func (m *MockRouteAssigner) Handle(ctx context.Context, cmd commands.AssignJobRouteCommand) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}

type manualTicker struct {
	ticks chan time.Time
}

func (m *manualTicker) C() <-chan time.Time {
	return m.ticks
}

func (m *manualTicker) Stop() {}

func (m *manualTicker) tick() {
	m.ticks <- time.Now()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func path(t *testing.T, n int) kernel.Path {
	t.Helper()
	points := make([]kernel.GeoPoint, n)
	for i := range points {
		points[i] = kernel.MustGeoPoint(12.90+float64(i)*0.01, 77.50+float64(i)*0.01)
	}
	p, err := kernel.NewPath(points)
	require.NoError(t, err)
	return p
}

func snapshotOf(status job.Status, partnerID kernel.UUID, route kernel.Path) job.Snapshot {
	return job.Snapshot{
		ID:        kernel.NewUUID(),
		Status:    status,
		PartnerID: &partnerID,
		Route:     route,
	}
}

func changed(s job.Snapshot, from job.Status) job.StatusChanged {
	return job.StatusChanged{
		JobID:     s.ID,
		PartnerID: s.PartnerID,
		From:      from,
		To:        s.Status,
		Actor:     job.PartnerActor(*s.PartnerID),
		At:        time.Now(),
	}
}

func transition(ctx context.Context, tr *tracking.Tracker, s job.Snapshot, from, to job.Status) job.Snapshot {
	s.Status = to
	tr.HandleStatusChanged(ctx, s, changed(s, from))
	return s
}

func next(t *testing.T, sub *broadcast.Subscription) uint64 {
	t.Helper()
	select {
	case s, ok := <-sub.C():
		require.True(t, ok, "stream ended")
		return s.Sequence
	case <-time.After(2 * time.Second):
		t.Fatal("no sample")
		return 0
	}
}

func TestTracker_LateSubscriberSeesOnlyLaterSamples(t *testing.T) {
	ctx := t.Context()
	hub := broadcast.NewHub(8)
	ticker := &manualTicker{ticks: make(chan time.Time)}
	tr := tracking.NewTracker(hub, nil, tracking.SimulatedSources(
		feed.WithTicker(func(time.Duration) feed.Ticker { return ticker }),
	), discardLogger())

	route := path(t, 5)
	s := snapshotOf(job.Unclaimed, kernel.NewUUID(), route)
	s = transition(ctx, tr, s, job.Unclaimed, job.Accepted)
	s = transition(ctx, tr, s, job.Accepted, job.PickedUp)

	c, err := hub.Get(s.ID)
	require.NoError(t, err)
	early, err := c.Subscribe()
	require.NoError(t, err)

	s = transition(ctx, tr, s, job.PickedUp, job.InTransit)
	assert.Equal(t, 1, tr.ActiveFeeds())

	ticker.tick()
	assert.Equal(t, uint64(0), next(t, early))
	ticker.tick()
	assert.Equal(t, uint64(1), next(t, early))

	late, err := c.Subscribe()
	require.NoError(t, err)

	ticker.tick()
	ticker.tick()
	assert.Equal(t, uint64(2), next(t, late))
	assert.Equal(t, uint64(3), next(t, late))
	assert.Equal(t, uint64(2), next(t, early))
	assert.Equal(t, uint64(3), next(t, early))

	assert.Eventually(t, func() bool { return tr.ActiveFeeds() == 0 }, time.Second, 5*time.Millisecond,
		"feed stops after the last point")

	transition(ctx, tr, s, job.InTransit, job.Delivered)
	_, open := <-late.C()
	assert.False(t, open)
	assert.True(t, c.IsClosed())
}

func TestTracker_CancelStopsFeed(t *testing.T) {
	ctx := t.Context()
	hub := broadcast.NewHub(8)
	ticker := &manualTicker{ticks: make(chan time.Time)}
	tr := tracking.NewTracker(hub, nil, tracking.SimulatedSources(
		feed.WithTicker(func(time.Duration) feed.Ticker { return ticker }),
	), discardLogger())

	s := snapshotOf(job.PickedUp, kernel.NewUUID(), path(t, 50))
	s = transition(ctx, tr, s, job.PickedUp, job.InTransit)

	c, err := hub.Get(s.ID)
	require.NoError(t, err)
	sub, err := c.Subscribe()
	require.NoError(t, err)

	ticker.tick()
	assert.Equal(t, uint64(0), next(t, sub))

	transition(ctx, tr, s, job.InTransit, job.Cancelled)

	assert.Zero(t, tr.ActiveFeeds(), "stop waits for the feed")
	_, open := <-sub.C()
	assert.False(t, open)

	select {
	case ticker.ticks <- time.Now():
		t.Fatal("feed still pulling ticks")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestTracker_TerminalBeforeStart(t *testing.T) {
	ctx := t.Context()
	hub := broadcast.NewHub(8)
	sources := 0
	tr := tracking.NewTracker(hub, nil, func(job.Snapshot) (feed.Source, error) {
		sources++
		return nil, errors.New("must not be called")
	}, discardLogger())

	s := snapshotOf(job.Accepted, kernel.NewUUID(), path(t, 3))
	transition(ctx, tr, s, job.Accepted, job.Cancelled)
	transition(ctx, tr, s, job.PickedUp, job.InTransit)

	assert.Zero(t, sources)
	assert.Zero(t, tr.ActiveFeeds())
}

func TestTracker_DeviceMode(t *testing.T) {
	ctx := t.Context()
	hub := broadcast.NewHub(8)
	tr := tracking.NewTracker(hub, nil, nil, discardLogger())
	partnerID := kernel.NewUUID()

	s := snapshotOf(job.PickedUp, partnerID, path(t, 3))
	transition(ctx, tr, s, job.PickedUp, job.InTransit)

	c, err := hub.Get(s.ID)
	require.NoError(t, err)
	assert.Zero(t, tr.ActiveFeeds())
	assert.NoError(t, c.Bind(partnerID), "partner is already the bound publisher")
}

func TestTracker_PrefetchesRouteOnClaim(t *testing.T) {
	hub := broadcast.NewHub(8)
	routes := new(MockRouteAssigner)
	called := make(chan commands.AssignJobRouteCommand, 1)
	routes.On("Handle", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { called <- args.Get(1).(commands.AssignJobRouteCommand) }).
		Return(errors.New("route service down")).Once()

	tr := tracking.NewTracker(hub, routes, nil, discardLogger())
	s := snapshotOf(job.Unclaimed, kernel.NewUUID(), kernel.Path{})
	transition(t.Context(), tr, s, job.Unclaimed, job.Accepted)

	select {
	case cmd := <-called:
		assert.True(t, cmd.JobID().IsEqual(s.ID))
	case <-time.After(time.Second):
		t.Fatal("route not prefetched")
	}
	require.NoError(t, tr.Shutdown(t.Context()))
	routes.AssertExpectations(t)

	_, err := hub.Get(s.ID)
	require.NoError(t, err, "claim opens the channel")

	t.Run("route already known", func(t *testing.T) {
		idle := new(MockRouteAssigner)
		tr := tracking.NewTracker(hub, idle, nil, discardLogger())
		s := snapshotOf(job.Unclaimed, kernel.NewUUID(), path(t, 2))

		transition(t.Context(), tr, s, job.Unclaimed, job.Accepted)

		require.NoError(t, tr.Shutdown(t.Context()))
		idle.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	})
}

func TestTracker_Shutdown(t *testing.T) {
	hub := broadcast.NewHub(8)
	ticker := &manualTicker{ticks: make(chan time.Time)}
	tr := tracking.NewTracker(hub, nil, tracking.SimulatedSources(
		feed.WithTicker(func(time.Duration) feed.Ticker { return ticker }),
	), discardLogger())

	s := snapshotOf(job.PickedUp, kernel.NewUUID(), path(t, 10))
	transition(t.Context(), tr, s, job.PickedUp, job.InTransit)
	require.Equal(t, 1, tr.ActiveFeeds())

	require.NoError(t, tr.Shutdown(t.Context()))

	assert.Zero(t, tr.ActiveFeeds())
	c, err := hub.Get(s.ID)
	require.NoError(t, err)
	assert.False(t, c.IsClosed())
}

type MockInProgressLister struct {
	mock.Mock
}

func (m *MockInProgressLister) ListInProgress(ctx context.Context) ([]*job.Job, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*job.Job), args.Error(1)
}

func claimedJob(t *testing.T, partnerID kernel.UUID, route kernel.Path, statuses ...job.Status) *job.Job {
	t.Helper()
	j, err := job.NewJob(kernel.NewUUID(), route.At(0), route.At(route.Len()-1), 5000, time.Now())
	require.NoError(t, err)
	require.NoError(t, j.Claim(partnerID, 0))
	require.NoError(t, j.AssignRoute(route))
	for _, s := range statuses {
		_, err = j.TransitionTo(job.PartnerActor(partnerID), s)
		require.NoError(t, err)
	}
	return j
}

func TestTracker_Resume(t *testing.T) {
	ctx := t.Context()
	hub := broadcast.NewHub(8)
	ticker := &manualTicker{ticks: make(chan time.Time)}
	tr := tracking.NewTracker(hub, nil, tracking.SimulatedSources(
		feed.WithTicker(func(time.Duration) feed.Ticker { return ticker }),
	), discardLogger())
	t.Cleanup(func() { _ = tr.Shutdown(context.Background()) })

	partnerID := kernel.NewUUID()
	route := path(t, 4)
	accepted := claimedJob(t, kernel.NewUUID(), route)
	moving := claimedJob(t, partnerID, route, job.PickedUp, job.InTransit)

	jobs := new(MockInProgressLister)
	jobs.On("ListInProgress", ctx).Return([]*job.Job{accepted, moving}, nil).Once()

	n, err := tr.Resume(ctx, jobs)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, tr.ActiveFeeds())

	_, err = hub.Get(accepted.ID())
	require.NoError(t, err, "accepted job gets its channel back")

	c, err := hub.Get(moving.ID())
	require.NoError(t, err)
	sub, err := c.Subscribe()
	require.NoError(t, err)

	ticker.tick()
	assert.Equal(t, uint64(0), next(t, sub), "resumed feed starts a fresh sequence")
	ticker.tick()
	assert.Equal(t, uint64(1), next(t, sub))
	jobs.AssertExpectations(t)

	t.Run("list failure", func(t *testing.T) {
		failing := new(MockInProgressLister)
		failing.On("ListInProgress", mock.Anything).Return(nil, errors.New("db down")).Once()

		_, err := tracking.NewTracker(hub, nil, nil, discardLogger()).Resume(t.Context(), failing)

		require.Error(t, err)
		failing.AssertExpectations(t)
	})
}
