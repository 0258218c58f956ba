// Package memory is an in-process implementation of the unit of work and the
// job and partner repositories. It backs STORE_DRIVER=memory and the
// concurrency tests of the application layer.
//
// Writes are staged in the unit of work and applied at Commit under one lock.
// Job updates are checked against the revision they were read at, so a lost
// race surfaces as errs.ErrStaleObject exactly like the postgres adapter.
package memory

import (
	"cmp"
	"slices"
	"sync"

	"partnerdispatch/internal/core/domain/model/job"
	"partnerdispatch/internal/pkg/errs"

	"github.com/google/uuid"
)

type partnerRecord struct {
	id           uuid.UUID
	name         string
	login        string
	passwordHash string
	verified     bool
	createdAt    int64
}

type jobWrite struct {
	snapshot job.Snapshot
	expected uint64
	isNew    bool
}

type partnerWrite struct {
	record partnerRecord
	isNew  bool
}

// Store holds committed state shared by all units of work.
type Store struct {
	mu       sync.RWMutex
	jobs     map[uuid.UUID]job.Snapshot
	partners map[uuid.UUID]partnerRecord
	logins   map[string]uuid.UUID
}

func NewStore() *Store {
	return &Store{
		jobs:     make(map[uuid.UUID]job.Snapshot),
		partners: make(map[uuid.UUID]partnerRecord),
		logins:   make(map[string]uuid.UUID),
	}
}

func (s *Store) job(id uuid.UUID) (job.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.jobs[id]
	return snap, ok
}

func (s *Store) allJobs() map[uuid.UUID]job.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]job.Snapshot, len(s.jobs))
	for id, snap := range s.jobs {
		out[id] = snap
	}
	return out
}

func (s *Store) partner(id uuid.UUID) (partnerRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.partners[id]
	return rec, ok
}

func (s *Store) partnerByLogin(login string) (partnerRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.logins[login]
	if !ok {
		return partnerRecord{}, false
	}
	rec, ok := s.partners[id]
	return rec, ok
}

// apply validates every write against committed state and then applies all of
// them, or none.
func (s *Store) apply(jobWrites []jobWrite, partnerWrites []partnerWrite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	revisions := make(map[uuid.UUID]uint64, len(jobWrites))
	for _, w := range jobWrites {
		id := w.snapshot.ID.Google()
		current, exists := revisions[id]
		if !exists {
			var snap job.Snapshot
			snap, exists = s.jobs[id]
			current = snap.Revision
		}
		switch {
		case w.isNew && exists:
			return errs.NewValueIsInvalidErrorWithCause("job", errDuplicateID)
		case !w.isNew && !exists:
			return errs.NewObjectNotFoundError("job", id)
		case !w.isNew && current != w.expected:
			return errs.NewStaleObjectError("job", id)
		}
		revisions[id] = w.snapshot.Revision
	}

	logins := make(map[string]uuid.UUID, len(partnerWrites))
	added := make(map[uuid.UUID]bool, len(partnerWrites))
	for _, w := range partnerWrites {
		if !w.isNew {
			if _, ok := s.partners[w.record.id]; !ok && !added[w.record.id] {
				return errs.NewObjectNotFoundError("partner", w.record.id)
			}
			continue
		}
		if _, ok := s.partners[w.record.id]; ok {
			return errs.NewValueIsInvalidErrorWithCause("partner", errDuplicateID)
		}
		if _, ok := s.logins[w.record.login]; ok {
			return errs.NewValueIsInvalidErrorWithCause("login", errLoginTaken)
		}
		if _, ok := logins[w.record.login]; ok {
			return errs.NewValueIsInvalidErrorWithCause("login", errLoginTaken)
		}
		logins[w.record.login] = w.record.id
		added[w.record.id] = true
	}

	for _, w := range jobWrites {
		s.jobs[w.snapshot.ID.Google()] = w.snapshot
	}
	for _, w := range partnerWrites {
		s.partners[w.record.id] = w.record
		s.logins[w.record.login] = w.record.id
	}
	return nil
}

func sortJobs(snaps []job.Snapshot) {
	slices.SortFunc(snaps, func(a, b job.Snapshot) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
}
