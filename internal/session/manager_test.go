package session_test

import (
	"context"
	"io"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"partnerdispatch/internal/adapters/out/identity"
	"partnerdispatch/internal/adapters/out/memory"
	"partnerdispatch/internal/adapters/out/routing"
	"partnerdispatch/internal/broadcast"
	"partnerdispatch/internal/core/application/usecases/commands"
	"partnerdispatch/internal/core/application/usecases/queries"
	"partnerdispatch/internal/core/domain/model/job"
	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/core/domain/model/partner"
	"partnerdispatch/internal/core/ports"
	"partnerdispatch/internal/pkg/errs"
	"partnerdispatch/internal/session"
	"partnerdispatch/internal/tracking"

	"github.com/gorilla/securecookie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const password = "correct-horse"

type uowFactory struct{ f *memory.UnitOfWorkFactory }

func (u uowFactory) Create() commands.UoW { return u.f.Create() }

type jobUoWFactory struct{ f *memory.UnitOfWorkFactory }

func (u jobUoWFactory) Create() commands.JobUoW { return u.f.Create() }

// world is the session manager wired to the in-memory store, the real
// identity provider and a device-mode tracker.
type world struct {
	factory  *memory.UnitOfWorkFactory
	hub      *broadcast.Hub
	manager  *session.Manager
	statuses commands.UpdateJobStatusCommandHandler
}

func newWorld(t *testing.T, opts ...session.Option) world {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := memory.NewUnitOfWorkFactory(memory.NewStore())
	repos := factory.Create()

	provider := identity.NewProvider(repos.PartnerRepository(), identity.NewBcryptHasher(bcrypt.MinCost),
		securecookie.GenerateRandomKey(32), securecookie.GenerateRandomKey(32), time.Hour)

	hub := broadcast.NewHub(8)
	tracker := tracking.NewTracker(hub, nil, nil, logger)
	t.Cleanup(func() { _ = tracker.Shutdown(context.Background()) })

	var manager *session.Manager
	sessions := commands.StatusObserverFunc(func(ctx context.Context, s job.Snapshot, e job.StatusChanged) {
		manager.HandleStatusChanged(ctx, s, e)
	})

	claims := commands.NewClaimJobCommandHandler(uowFactory{factory}, tracker, sessions)
	statuses := commands.NewUpdateJobStatusCommandHandler(jobUoWFactory{factory}, routing.NewStraightLine(5), tracker, sessions)
	manager = session.NewManager(provider, claims, statuses,
		queries.NewGetUnclaimedJobsQueryHandler(repos.JobRepository()),
		queries.NewGetActiveJobQueryHandler(repos.JobRepository()),
		hub, logger, opts...)

	return world{factory: factory, hub: hub, manager: manager, statuses: statuses}
}

func (w world) addPartner(t *testing.T, login string, verified bool) *partner.Partner {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	p, err := partner.NewPartner(kernel.NewUUID(), "Partner "+login, login, string(hash), time.Now())
	require.NoError(t, err)
	if verified {
		p.Verify()
	}
	require.NoError(t, w.factory.Create().PartnerRepository().Add(t.Context(), p))
	return p
}

func (w world) addJob(t *testing.T) *job.Job {
	t.Helper()
	j, err := job.NewJob(kernel.NewUUID(), kernel.MustGeoPoint(12.9716, 77.5946), kernel.MustGeoPoint(12.9352, 77.6245), 15000, time.Now())
	require.NoError(t, err)
	require.NoError(t, w.factory.Create().JobRepository().Add(t.Context(), j))
	return j
}

func (w world) job(t *testing.T, id kernel.UUID) *job.Job {
	t.Helper()
	j, err := w.factory.Create().JobRepository().Get(t.Context(), id)
	require.NoError(t, err)
	return j
}

func (w world) login(t *testing.T, login string) (*session.Session, session.LoginResult) {
	t.Helper()
	result, err := w.manager.Login(t.Context(), ports.Credentials{Login: login, Password: password})
	require.NoError(t, err)
	s, err := w.manager.Authenticate(t.Context(), result.Identity.Token)
	require.NoError(t, err)
	return s, result
}

func TestManager_JobLifecycle(t *testing.T) {
	ctx := t.Context()
	w := newWorld(t)
	w.addPartner(t, "asha", true)
	first, second := w.addJob(t), w.addJob(t)

	s, result := w.login(t, "asha")
	assert.Nil(t, result.ActiveJob)

	listed, err := w.manager.ListUnclaimed(ctx, s)
	require.NoError(t, err)
	require.Len(t, listed, 2)

	resp, err := w.manager.Claim(ctx, s, first.ID(), listed[0].ClaimVersion)
	require.NoError(t, err)
	assert.Equal(t, job.Accepted, resp.Job.Status)
	assert.True(t, resp.InitialPosition.IsEqual(first.Pickup()))

	bound, ok := s.ActiveJob()
	require.True(t, ok)
	assert.True(t, bound.IsEqual(first.ID()))

	t.Run("busy partner cannot list or claim", func(t *testing.T) {
		_, err := w.manager.ListUnclaimed(ctx, s)
		require.ErrorIs(t, err, errs.ErrForbidden)

		_, err = w.manager.Claim(ctx, s, second.ID(), 0)
		require.ErrorIs(t, err, errs.ErrForbidden)
		assert.Equal(t, job.Unclaimed, w.job(t, second.ID()).Status())

		_, err = w.manager.UpdateStatus(ctx, s, second.ID(), job.Cancelled)
		require.ErrorIs(t, err, errs.ErrForbidden)
	})

	active, err := w.manager.ActiveJob(ctx, s)
	require.NoError(t, err)
	assert.True(t, active.ID.IsEqual(first.ID()))

	for _, target := range []job.Status{job.PickedUp, job.InTransit, job.Delivered} {
		got, err := w.manager.UpdateStatus(ctx, s, first.ID(), target)
		require.NoError(t, err, target.String())
		assert.Equal(t, target, got.Status)
	}

	_, ok = s.ActiveJob()
	assert.False(t, ok, "terminal job releases the binding")
	_, err = w.manager.ActiveJob(ctx, s)
	require.ErrorIs(t, err, errs.ErrObjectNotFound)

	c, err := w.hub.Get(first.ID())
	require.NoError(t, err)
	assert.True(t, c.IsClosed())

	listed, err = w.manager.ListUnclaimed(ctx, s)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.True(t, listed[0].ID.IsEqual(second.ID()))
}

func TestManager_UnverifiedPartner(t *testing.T) {
	ctx := t.Context()
	w := newWorld(t)
	w.addPartner(t, "ravi", false)
	j := w.addJob(t)
	s, _ := w.login(t, "ravi")

	_, err := w.manager.Claim(ctx, s, j.ID(), 0)
	require.ErrorIs(t, err, errs.ErrForbidden)
	assert.Equal(t, job.Unclaimed, w.job(t, j.ID()).Status())

	_, err = w.manager.ListUnclaimed(ctx, s)
	require.ErrorIs(t, err, errs.ErrForbidden)

	_, err = w.manager.Claim(ctx, s, kernel.NewUUID(), 0)
	require.ErrorIs(t, err, errs.ErrForbidden, "checked before any job lookup")

	_, err = w.manager.UpdateStatus(ctx, s, kernel.NewUUID(), job.PickedUp)
	require.ErrorIs(t, err, errs.ErrForbidden)

	_, err = w.manager.Claim(ctx, nil, j.ID(), 0)
	require.ErrorIs(t, err, errs.ErrForbidden)
}

func TestManager_TwoPartnersRace(t *testing.T) {
	ctx := t.Context()
	w := newWorld(t)
	w.addPartner(t, "a", true)
	w.addPartner(t, "b", true)
	j := w.addJob(t)
	a, _ := w.login(t, "a")
	b, _ := w.login(t, "b")

	var (
		wg   sync.WaitGroup
		errA error
		errB error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errA = w.manager.Claim(ctx, a, j.ID(), 0)
	}()
	go func() {
		defer wg.Done()
		_, errB = w.manager.Claim(ctx, b, j.ID(), 0)
	}()
	wg.Wait()

	if errA == nil {
		require.ErrorIs(t, errB, errs.ErrAlreadyClaimed)
		assert.True(t, w.job(t, j.ID()).IsAssignedTo(a.PartnerID()))
	} else {
		require.NoError(t, errB)
		require.ErrorIs(t, errA, errs.ErrAlreadyClaimed)
		assert.True(t, w.job(t, j.ID()).IsAssignedTo(b.PartnerID()))
	}
	assert.Equal(t, job.Accepted, w.job(t, j.ID()).Status())

	loser := a
	if errA == nil {
		loser = b
	}
	_, bound := loser.ActiveJob()
	assert.False(t, bound)
}

type MockClaimHandler struct {
	mock.Mock
}

func (m *MockClaimHandler) Handle(ctx context.Context, cmd commands.ClaimJobCommand) (commands.ClaimJobCommandResponse, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.ClaimJobCommandResponse), args.Error(1)
}

// verifiedIdentity accepts any credentials for one partner. With issued set,
// every login gets a new token.
type verifiedIdentity struct {
	ports.IdentityProvider
	partnerID kernel.UUID
	issued    *atomic.Int32
}

func (v verifiedIdentity) Authenticate(context.Context, ports.Credentials) (ports.Identity, error) {
	token := "token"
	if v.issued != nil {
		token = fmt.Sprintf("token-%d", v.issued.Add(1))
	}
	return ports.Identity{PartnerID: v.partnerID, Token: token}, nil
}

func (v verifiedIdentity) Resolve(context.Context, string) (kernel.UUID, error) {
	return v.partnerID, nil
}

func (v verifiedIdentity) IsVerified(context.Context, kernel.UUID) (bool, error) {
	return true, nil
}

type idle struct{}

func (idle) Handle(context.Context, queries.GetActiveJobQuery) (job.Snapshot, error) {
	return job.Snapshot{}, errs.NewObjectNotFoundError("activeJob", nil)
}

func TestManager_ClaimSlotIsReserved(t *testing.T) {
	ctx := t.Context()
	partnerID := kernel.NewUUID()
	firstJob := kernel.NewUUID()

	entered := make(chan struct{})
	release := make(chan struct{})
	claims := new(MockClaimHandler)
	claims.On("Handle", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(commands.ClaimJobCommandResponse{Job: job.Snapshot{ID: firstJob, Status: job.Accepted}}, nil).
		Once()

	manager := session.NewManager(verifiedIdentity{partnerID: partnerID}, claims, nil, nil, idle{},
		broadcast.NewHub(8), slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := manager.Login(ctx, ports.Credentials{})
	require.NoError(t, err)
	s, err := manager.Authenticate(ctx, "token")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := manager.Claim(ctx, s, firstJob, 0)
		done <- err
	}()
	<-entered

	_, err = manager.Claim(ctx, s, kernel.NewUUID(), 0)
	require.ErrorIs(t, err, errs.ErrForbidden, "second claim while the first is in flight")

	close(release)
	require.NoError(t, <-done)

	bound, ok := s.ActiveJob()
	require.True(t, ok)
	assert.True(t, bound.IsEqual(firstJob))
	claims.AssertExpectations(t)
}

// gatedClaim blocks the first claim until release is closed.
func gatedClaim(claims *MockClaimHandler, jobID kernel.UUID) (entered, release chan struct{}) {
	entered, release = make(chan struct{}), make(chan struct{})
	claims.On("Handle", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(commands.ClaimJobCommandResponse{Job: job.Snapshot{ID: jobID, Status: job.Accepted}}, nil).
		Once()
	return entered, release
}

func TestManager_LoginDuringClaimKeepsSlot(t *testing.T) {
	ctx := t.Context()
	partnerID := kernel.NewUUID()
	firstJob := kernel.NewUUID()

	claims := new(MockClaimHandler)
	entered, release := gatedClaim(claims, firstJob)

	manager := session.NewManager(verifiedIdentity{partnerID: partnerID, issued: new(atomic.Int32)}, claims, nil, nil, idle{},
		broadcast.NewHub(8), slog.New(slog.NewTextHandler(io.Discard, nil)))
	first, err := manager.Login(ctx, ports.Credentials{})
	require.NoError(t, err)
	s, err := manager.Authenticate(ctx, first.Identity.Token)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := manager.Claim(ctx, s, firstJob, 0)
		done <- err
	}()
	<-entered

	second, err := manager.Login(ctx, ports.Credentials{})
	require.NoError(t, err)
	require.NotEqual(t, first.Identity.Token, second.Identity.Token)
	assert.Nil(t, second.ActiveJob, "the first claim has not committed yet")

	again, err := manager.Authenticate(ctx, second.Identity.Token)
	require.NoError(t, err)
	assert.Same(t, s, again)

	_, err = manager.Authenticate(ctx, first.Identity.Token)
	require.ErrorIs(t, err, errs.ErrForbidden, "old token is replaced")

	_, err = manager.ListUnclaimed(ctx, again)
	require.ErrorIs(t, err, errs.ErrForbidden)
	_, err = manager.Claim(ctx, again, kernel.NewUUID(), 0)
	require.ErrorIs(t, err, errs.ErrForbidden, "second job while the first claim is in flight")

	close(release)
	require.NoError(t, <-done)

	bound, ok := again.ActiveJob()
	require.True(t, ok)
	assert.True(t, bound.IsEqual(firstJob))
	assert.Equal(t, 1, manager.Len())
	claims.AssertExpectations(t)
}

func TestManager_LogoutDuringClaimKeepsSlot(t *testing.T) {
	ctx := t.Context()
	partnerID := kernel.NewUUID()
	firstJob := kernel.NewUUID()

	claims := new(MockClaimHandler)
	entered, release := gatedClaim(claims, firstJob)

	manager := session.NewManager(verifiedIdentity{partnerID: partnerID, issued: new(atomic.Int32)}, claims, nil, nil, idle{},
		broadcast.NewHub(8), slog.New(slog.NewTextHandler(io.Discard, nil)))
	first, err := manager.Login(ctx, ports.Credentials{})
	require.NoError(t, err)
	s, err := manager.Authenticate(ctx, first.Identity.Token)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := manager.Claim(ctx, s, firstJob, 0)
		done <- err
	}()
	<-entered

	require.NoError(t, manager.Logout(ctx, first.Identity.Token))
	_, err = manager.Authenticate(ctx, first.Identity.Token)
	require.ErrorIs(t, err, errs.ErrForbidden)

	second, err := manager.Login(ctx, ports.Credentials{})
	require.NoError(t, err)
	again, err := manager.Authenticate(ctx, second.Identity.Token)
	require.NoError(t, err)

	_, err = manager.Claim(ctx, again, kernel.NewUUID(), 0)
	require.ErrorIs(t, err, errs.ErrForbidden)

	close(release)
	require.NoError(t, <-done)
	claims.AssertExpectations(t)
}

func TestManager_LoginRecoversActiveJob(t *testing.T) {
	ctx := t.Context()
	w := newWorld(t)
	w.addPartner(t, "meera", true)
	j := w.addJob(t)

	s, _ := w.login(t, "meera")
	_, err := w.manager.Claim(ctx, s, j.ID(), 0)
	require.NoError(t, err)

	again, result := w.login(t, "meera")

	require.NotNil(t, result.ActiveJob)
	assert.True(t, result.ActiveJob.ID.IsEqual(j.ID()))
	bound, ok := again.ActiveJob()
	require.True(t, ok)
	assert.True(t, bound.IsEqual(j.ID()))
}

func TestManager_Logout(t *testing.T) {
	ctx := t.Context()
	w := newWorld(t)
	w.addPartner(t, "kiran", true)
	_, result := w.login(t, "kiran")

	require.NoError(t, w.manager.Logout(ctx, result.Identity.Token))
	require.NoError(t, w.manager.Logout(ctx, result.Identity.Token), "second logout is a no-op")

	_, err := w.manager.Authenticate(ctx, result.Identity.Token)
	require.ErrorIs(t, err, errs.ErrForbidden)
	assert.Zero(t, w.manager.Len())

	_, err = w.manager.Authenticate(ctx, "garbage")
	require.ErrorIs(t, err, errs.ErrForbidden)

	t.Run("new login replaces the old token", func(t *testing.T) {
		_, old := w.login(t, "kiran")
		_, current := w.login(t, "kiran")

		_, err := w.manager.Authenticate(ctx, old.Identity.Token)
		if old.Identity.Token != current.Identity.Token {
			require.ErrorIs(t, err, errs.ErrForbidden)
		}
		_, err = w.manager.Authenticate(ctx, current.Identity.Token)
		require.NoError(t, err)
	})
}

func TestManager_DispatcherCancelReleasesBinding(t *testing.T) {
	ctx := t.Context()
	w := newWorld(t)
	w.addPartner(t, "leela", true)
	j := w.addJob(t)
	s, _ := w.login(t, "leela")

	_, err := w.manager.Claim(ctx, s, j.ID(), 0)
	require.NoError(t, err)

	cmd, err := commands.NewUpdateJobStatusCommand(j.ID(), job.DispatcherActor(), job.Cancelled)
	require.NoError(t, err)
	_, err = w.statuses.Handle(ctx, cmd)
	require.NoError(t, err)

	_, bound := s.ActiveJob()
	assert.False(t, bound)
	_, err = w.manager.ListUnclaimed(ctx, s)
	require.NoError(t, err)
}

func TestManager_DevicePublish(t *testing.T) {
	ctx := t.Context()
	w := newWorld(t)
	w.addPartner(t, "device", true)
	j := w.addJob(t)
	s, _ := w.login(t, "device")
	point := kernel.MustGeoPoint(12.95, 77.60)

	err := w.manager.Publish(ctx, s, j.ID(), point, 0, time.Time{})
	require.ErrorIs(t, err, errs.ErrForbidden, "not the partner's job")

	_, err = w.manager.Claim(ctx, s, j.ID(), 0)
	require.NoError(t, err)

	err = w.manager.Publish(ctx, s, j.ID(), point, 0, time.Time{})
	require.ErrorIs(t, err, errs.ErrForbidden, "publisher is bound on in_transit")

	_, err = w.manager.UpdateStatus(ctx, s, j.ID(), job.PickedUp)
	require.NoError(t, err)
	_, err = w.manager.UpdateStatus(ctx, s, j.ID(), job.InTransit)
	require.NoError(t, err)

	c, err := w.hub.Get(j.ID())
	require.NoError(t, err)
	sub, err := c.Subscribe()
	require.NoError(t, err)

	require.NoError(t, w.manager.Publish(ctx, s, j.ID(), point, 0, time.Time{}))
	require.ErrorIs(t, w.manager.Publish(ctx, s, j.ID(), point, 0, time.Time{}), errs.ErrValueIsOutOfRange)

	got := <-sub.C()
	assert.True(t, got.Point.IsEqual(point))
	assert.False(t, got.Timestamp.IsZero())

	_, err = w.manager.UpdateStatus(ctx, s, j.ID(), job.Delivered)
	require.NoError(t, err)

	err = w.manager.Publish(ctx, s, j.ID(), point, 1, time.Time{})
	require.ErrorIs(t, err, errs.ErrForbidden, "binding released with the terminal status")
}

func TestManager_Sweep(t *testing.T) {
	now := time.Now()
	w := newWorld(t, session.WithClock(func() time.Time { return now }))
	w.addPartner(t, "idle", true)
	w.login(t, "idle")

	assert.Zero(t, w.manager.Sweep(time.Minute))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, w.manager.Sweep(time.Minute))
	assert.Zero(t, w.manager.Len())
}
