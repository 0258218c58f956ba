package session

import (
	"sync"
	"time"

	"partnerdispatch/internal/core/domain/model/kernel"
)

// Session is one logged-in partner. It is bound to at most one job that is
// not terminal yet; the claim slot is reserved before arbitration starts so
// that two concurrent claims of one partner cannot both win.
//
// The token and its expiry change when the partner logs in again; the binding
// and the claim slot stay with the session.
type Session struct {
	partnerID kernel.UUID

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	activeJob *kernel.UUID
	claiming  bool
	lastSeen  time.Time
}

func newSession(partnerID kernel.UUID, token string, expiresAt, now time.Time) *Session {
	return &Session{
		partnerID: partnerID,
		token:     token,
		expiresAt: expiresAt,
		lastSeen:  now,
	}
}

func (s *Session) PartnerID() kernel.UUID {
	return s.partnerID
}

func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

func (s *Session) hasToken(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != "" && s.token == token
}

// rotate installs the token of a new login.
func (s *Session) rotate(token string, expiresAt, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.expiresAt = expiresAt
	s.lastSeen = now
}

// revoke ends the token while keeping the session for a claim in flight.
// It reports whether a claim was in flight.
func (s *Session) revoke() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return s.claiming
}

func (s *Session) expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.expiresAt.IsZero() && now.After(s.expiresAt)
}

// ActiveJob reports the bound job, if any.
func (s *Session) ActiveJob() (kernel.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeJob == nil {
		return kernel.UUID{}, false
	}
	return *s.activeJob, true
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// isIdle reports whether the session may take a new job.
func (s *Session) isIdle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeJob == nil && !s.claiming
}

func (s *Session) reserveClaim() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeJob != nil || s.claiming {
		return false
	}
	s.claiming = true
	return true
}

// finishClaim releases the reservation and binds jobID when the claim won.
func (s *Session) finishClaim(jobID *kernel.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claiming = false
	if jobID != nil {
		id := *jobID
		s.activeJob = &id
	}
}

func (s *Session) bind(jobID kernel.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeJob = &jobID
}

// bindIfIdle binds jobID unless a job is bound or a claim is in flight. A
// claim in flight binds its own job when it finishes.
func (s *Session) bindIfIdle(jobID kernel.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeJob == nil && !s.claiming {
		s.activeJob = &jobID
	}
}

// release drops the binding if it still points at jobID.
func (s *Session) release(jobID kernel.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeJob != nil && s.activeJob.IsEqual(jobID) {
		s.activeJob = nil
	}
}

// mayActOn is true for the bound job, and for any job when nothing is bound.
func (s *Session) mayActOn(jobID kernel.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeJob == nil || s.activeJob.IsEqual(jobID)
}
