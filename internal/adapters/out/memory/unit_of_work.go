package memory

import (
	"context"
	"errors"
	"sync"

	"partnerdispatch/internal/core/ports"

	"github.com/google/uuid"
)

var (
	// ErrNoTransaction is returned by Commit and Rollback outside Begin.
	ErrNoTransaction = errors.New("no active transaction")

	errDuplicateID = errors.New("id already exists")
	errLoginTaken  = errors.New("login is already registered")
)

type UnitOfWorkFactory struct {
	store *Store
}

func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// UnitOfWork stages writes until Commit. Outside Begin every write is applied
// immediately.
type UnitOfWork struct {
	store *Store

	mu            sync.Mutex
	active        bool
	jobWrites     []jobWrite
	partnerWrites []partnerWrite
}

func (u *UnitOfWork) Begin(_ context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.active = true
	return nil
}

func (u *UnitOfWork) Commit(_ context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.active {
		return ErrNoTransaction
	}
	err := u.store.apply(u.jobWrites, u.partnerWrites)
	u.reset()
	return err
}

func (u *UnitOfWork) Rollback(_ context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.active {
		return ErrNoTransaction
	}
	u.reset()
	return nil
}

func (u *UnitOfWork) JobRepository() ports.JobRepository {
	return &JobRepository{uow: u}
}

func (u *UnitOfWork) PartnerRepository() ports.PartnerRepository {
	return &PartnerRepository{uow: u}
}

func (u *UnitOfWork) reset() {
	u.active = false
	u.jobWrites = nil
	u.partnerWrites = nil
}

func (u *UnitOfWork) stageJob(w jobWrite) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.active {
		return u.store.apply([]jobWrite{w}, nil)
	}
	u.jobWrites = append(u.jobWrites, w)
	return nil
}

func (u *UnitOfWork) stagePartner(w partnerWrite) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.active {
		return u.store.apply(nil, []partnerWrite{w})
	}
	u.partnerWrites = append(u.partnerWrites, w)
	return nil
}

// pendingJob returns the latest staged version of a job, if any.
func (u *UnitOfWork) pendingJob(id uuid.UUID) (jobWrite, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for i := len(u.jobWrites) - 1; i >= 0; i-- {
		if u.jobWrites[i].snapshot.ID.Google() == id {
			return u.jobWrites[i], true
		}
	}
	return jobWrite{}, false
}

func (u *UnitOfWork) pendingPartner(match func(partnerRecord) bool) (partnerRecord, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for i := len(u.partnerWrites) - 1; i >= 0; i-- {
		if match(u.partnerWrites[i].record) {
			return u.partnerWrites[i].record, true
		}
	}
	return partnerRecord{}, false
}

func (u *UnitOfWork) pendingJobs() []jobWrite {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]jobWrite, len(u.jobWrites))
	copy(out, u.jobWrites)
	return out
}
