// Package session owns the logged-in partners and routes their requests to
// the claim arbitration, the status state machine and the live channels.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"partnerdispatch/internal/broadcast"
	"partnerdispatch/internal/core/application/usecases/commands"
	"partnerdispatch/internal/core/application/usecases/queries"
	"partnerdispatch/internal/core/domain/model/job"
	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/core/domain/model/position"
	"partnerdispatch/internal/core/ports"
	"partnerdispatch/internal/pkg/errs"
)

type ClaimHandler interface {
	Handle(ctx context.Context, cmd commands.ClaimJobCommand) (commands.ClaimJobCommandResponse, error)
}

type StatusHandler interface {
	Handle(ctx context.Context, cmd commands.UpdateJobStatusCommand) (job.Snapshot, error)
}

type UnclaimedJobsHandler interface {
	Handle(ctx context.Context, query queries.GetUnclaimedJobsQuery) ([]queries.GetUnclaimedJobsQueryResponse, error)
}

type ActiveJobHandler interface {
	Handle(ctx context.Context, query queries.GetActiveJobQuery) (job.Snapshot, error)
}

// LoginResult carries the recovered job when the partner was mid-job.
type LoginResult struct {
	Identity  ports.Identity
	ActiveJob *job.Snapshot
}

// Manager keeps one session per partner. A new login replaces the token of
// the partner's session; the previous token stops working.
//
// A session is bound to at most one job that is not terminal yet. Listing and
// claiming are open only to verified partners whose session is idle, and a
// claim reserves the session before arbitration, so a partner cannot win two
// jobs at once under any number of tokens or requests. The binding is
// released when the job ends, whoever ended it.
//
// Typical request flow:
//
//	result, err := manager.Login(ctx, ports.Credentials{Login: login, Password: password})
//	if err != nil {
//		return err // errs.ErrForbidden for bad credentials
//	}
//	s, err := manager.Authenticate(ctx, result.Identity.Token)
//	if err != nil {
//		return err
//	}
//	jobs, err := manager.ListUnclaimed(ctx, s)
//	...
//	resp, err := manager.Claim(ctx, s, jobs[0].ID, jobs[0].ClaimVersion)
//	...
//	_, err = manager.UpdateStatus(ctx, s, resp.Job.ID, job.PickedUp)
type Manager struct {
	identity  ports.IdentityProvider
	claims    ClaimHandler
	statuses  StatusHandler
	unclaimed UnclaimedJobsHandler
	active    ActiveJobHandler
	hub       *broadcast.Hub
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[kernel.UUID]*Session
}

func NewManager(
	identity ports.IdentityProvider,
	claims ClaimHandler,
	statuses StatusHandler,
	unclaimed UnclaimedJobsHandler,
	active ActiveJobHandler,
	hub *broadcast.Hub,
	logger *slog.Logger,
	opts ...Option,
) *Manager {
	m := &Manager{
		identity:  identity,
		claims:    claims,
		statuses:  statuses,
		unclaimed: unclaimed,
		active:    active,
		hub:       hub,
		logger:    logger.With("component", "session_manager"),
		now:       time.Now,
		sessions:  make(map[kernel.UUID]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type Option func(*Manager)

// WithClock replaces time.Now for activity tracking.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// Login authenticates the partner and rebinds a job left in progress.
//
// A partner already logged in keeps its session: only the token and expiry
// are replaced, so a claim still in flight under the old token holds the
// claim slot and the new token cannot take a second job meanwhile.
func (m *Manager) Login(ctx context.Context, credentials ports.Credentials) (LoginResult, error) {
	identity, err := m.identity.Authenticate(ctx, credentials)
	if err != nil {
		return LoginResult{}, err
	}

	active, err := m.lookupActive(ctx, identity.PartnerID)
	if err != nil {
		return LoginResult{}, err
	}

	now := m.now()
	m.mu.Lock()
	s, resumed := m.sessions[identity.PartnerID]
	if resumed {
		s.rotate(identity.Token, identity.ExpiresAt, now)
	} else {
		s = newSession(identity.PartnerID, identity.Token, identity.ExpiresAt, now)
		m.sessions[identity.PartnerID] = s
	}
	m.mu.Unlock()

	result := LoginResult{Identity: identity}
	if active != nil {
		s.bindIfIdle(active.ID)
		result.ActiveJob = active
	}

	m.logger.InfoContext(ctx, "Partner logged in",
		"partner_id", identity.PartnerID.String(), "session_reused", resumed, "resumed_job", active != nil)
	return result, nil
}

// Logout ends the session of token. Unknown or already ended sessions are
// ignored. A session with a claim in flight loses its token but stays until
// the sweep, so a login right after still finds the claim slot taken.
func (m *Manager) Logout(ctx context.Context, token string) error {
	partnerID, err := m.identity.Resolve(ctx, token)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[partnerID]; ok && s.hasToken(token) {
		if !s.revoke() {
			delete(m.sessions, partnerID)
		}
	}
	return nil
}

// Authenticate maps a bearer token to its live session. A token that is
// still cryptographically valid but was logged out is Forbidden.
func (m *Manager) Authenticate(ctx context.Context, token string) (*Session, error) {
	partnerID, err := m.identity.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	s, ok := m.sessions[partnerID]
	m.mu.RUnlock()
	if !ok || !s.hasToken(token) {
		return nil, errs.NewForbiddenError("authenticate", "session ended")
	}

	s.touch(m.now())
	return s, nil
}

// ListUnclaimed is only open to verified partners without an active job.
func (m *Manager) ListUnclaimed(ctx context.Context, s *Session) ([]queries.GetUnclaimedJobsQueryResponse, error) {
	if err := m.requireVerified(ctx, s, "list jobs"); err != nil {
		return nil, err
	}
	if !s.isIdle() {
		return nil, errs.NewForbiddenError("list jobs", "partner has an active job")
	}
	return m.unclaimed.Handle(ctx, queries.NewGetUnclaimedJobsQuery())
}

// Claim reserves the session's claim slot, then arbitrates. The slot is
// released whatever the outcome; a win binds the job.
func (m *Manager) Claim(ctx context.Context, s *Session, jobID kernel.UUID, observedVersion uint64) (commands.ClaimJobCommandResponse, error) {
	if err := m.requireVerified(ctx, s, "claim"); err != nil {
		return commands.ClaimJobCommandResponse{}, err
	}

	cmd, err := commands.NewClaimJobCommand(jobID, s.PartnerID(), observedVersion)
	if err != nil {
		return commands.ClaimJobCommandResponse{}, err
	}

	if !s.reserveClaim() {
		return commands.ClaimJobCommandResponse{}, errs.NewForbiddenError("claim", "partner has an active job or a claim in flight")
	}

	resp, err := m.claims.Handle(ctx, cmd)
	if err != nil {
		s.finishClaim(nil)
		return commands.ClaimJobCommandResponse{}, err
	}
	s.finishClaim(&resp.Job.ID)

	m.logger.InfoContext(ctx, "Job claimed", "partner_id", s.PartnerID().String(), "job_id", jobID.String())
	return resp, nil
}

// UpdateStatus moves the partner's job through the state machine.
func (m *Manager) UpdateStatus(ctx context.Context, s *Session, jobID kernel.UUID, target job.Status) (job.Snapshot, error) {
	if err := m.requireVerified(ctx, s, "update status"); err != nil {
		return job.Snapshot{}, err
	}
	if !s.mayActOn(jobID) {
		return job.Snapshot{}, errs.NewForbiddenError("update status", "partner is bound to another job")
	}

	cmd, err := commands.NewUpdateJobStatusCommand(jobID, job.PartnerActor(s.PartnerID()), target)
	if err != nil {
		return job.Snapshot{}, err
	}

	snapshot, err := m.statuses.Handle(ctx, cmd)
	if err != nil {
		return job.Snapshot{}, err
	}
	if snapshot.Status.IsTerminal() {
		s.release(jobID)
	}
	return snapshot, nil
}

// ActiveJob returns the bound job as currently stored, or ObjectNotFound.
// A binding whose job turned terminal in the meantime is dropped.
func (m *Manager) ActiveJob(ctx context.Context, s *Session) (job.Snapshot, error) {
	boundID, bound := s.ActiveJob()

	active, err := m.lookupActive(ctx, s.PartnerID())
	if err != nil {
		return job.Snapshot{}, err
	}
	if active == nil {
		if bound {
			s.release(boundID)
		}
		return job.Snapshot{}, errs.NewObjectNotFoundError("activeJob", s.PartnerID())
	}

	if !bound {
		s.bind(active.ID)
	}
	return *active, nil
}

// Publish forwards a device position report into the job's channel.
func (m *Manager) Publish(ctx context.Context, s *Session, jobID kernel.UUID, point kernel.GeoPoint, seq uint64, at time.Time) error {
	boundID, bound := s.ActiveJob()
	if !bound || !boundID.IsEqual(jobID) {
		return errs.NewForbiddenError("publish", "job is not the partner's active job")
	}

	c, err := m.hub.Get(jobID)
	if err != nil {
		return err
	}
	if at.IsZero() {
		at = m.now()
	}
	sample, err := position.NewSample(jobID, s.PartnerID(), point, seq, at)
	if err != nil {
		return err
	}
	if err = c.Publish(s.PartnerID(), sample); err != nil {
		m.logger.DebugContext(ctx, "Device sample rejected", "job_id", jobID.String(), "error", err)
		return err
	}
	return nil
}

// Sweep ends sessions idle for longer than ttl or past their token expiry.
func (m *Manager) Sweep(ttl time.Duration) int {
	now := m.now()
	cutoff := now.Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) || s.expired(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

var _ commands.StatusObserver = (*Manager)(nil)

// HandleStatusChanged releases bindings of jobs that turned terminal, which
// covers dispatcher cancellations the partner never saw.
func (m *Manager) HandleStatusChanged(_ context.Context, _ job.Snapshot, event job.StatusChanged) {
	if event.PartnerID == nil {
		return
	}

	m.mu.RLock()
	s, ok := m.sessions[*event.PartnerID]
	m.mu.RUnlock()
	if !ok {
		return
	}

	if event.To.IsTerminal() {
		s.release(event.JobID)
	}
}

func (m *Manager) requireVerified(ctx context.Context, s *Session, action string) error {
	if s == nil {
		return errs.NewForbiddenError(action, "not authenticated")
	}
	verified, err := m.identity.IsVerified(ctx, s.PartnerID())
	if errors.Is(err, errs.ErrObjectNotFound) {
		return errs.NewForbiddenError(action, "unknown partner")
	}
	if err != nil {
		return err
	}
	if !verified {
		return errs.NewForbiddenError(action, "partner is not verified")
	}
	return nil
}

func (m *Manager) lookupActive(ctx context.Context, partnerID kernel.UUID) (*job.Snapshot, error) {
	query, err := queries.NewGetActiveJobQuery(partnerID)
	if err != nil {
		return nil, err
	}
	active, err := m.active.Handle(ctx, query)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil, nil //nolint:nilnil // idle partner
	}
	if err != nil {
		return nil, err
	}
	return &active, nil
}
