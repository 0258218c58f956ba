package commands_test

import (
	"context"
	"sync"

	"partnerdispatch/internal/adapters/out/memory"
	"partnerdispatch/internal/core/application/usecases/commands"
	"partnerdispatch/internal/core/domain/model/job"
	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/core/domain/model/partner"
	"partnerdispatch/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type MockJobRepository struct{ mock.Mock }

func (m *MockJobRepository) Add(ctx context.Context, j *job.Job) error {
	return m.Called(ctx, j).Error(0)
}

func (m *MockJobRepository) Update(ctx context.Context, j *job.Job) error {
	return m.Called(ctx, j).Error(0)
}

func (m *MockJobRepository) Get(ctx context.Context, id kernel.UUID) (*job.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.Job), args.Error(1)
}

func (m *MockJobRepository) ListUnclaimed(ctx context.Context) ([]*job.Job, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*job.Job), args.Error(1)
}

func (m *MockJobRepository) GetActiveByPartner(ctx context.Context, partnerID kernel.UUID) (*job.Job, error) {
	args := m.Called(ctx, partnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.Job), args.Error(1)
}

func (m *MockJobRepository) ListAwaitingRoute(ctx context.Context, limit int) ([]*job.Job, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*job.Job), args.Error(1)
}

func (m *MockJobRepository) ListInProgress(ctx context.Context) ([]*job.Job, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*job.Job), args.Error(1)
}

type MockPartnerRepository struct{ mock.Mock }

func (m *MockPartnerRepository) Add(ctx context.Context, p *partner.Partner) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPartnerRepository) Update(ctx context.Context, p *partner.Partner) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPartnerRepository) Get(ctx context.Context, id kernel.UUID) (*partner.Partner, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Partner), args.Error(1)
}

func (m *MockPartnerRepository) GetByLogin(ctx context.Context, login string) (*partner.Partner, error) {
	args := m.Called(ctx, login)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Partner), args.Error(1)
}

// MockUoW satisfies every unit of work flavour used by the handlers.
type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockUoW) JobRepository() ports.JobRepository {
	return m.Called().Get(0).(ports.JobRepository)
}

func (m *MockUoW) PartnerRepository() ports.PartnerRepository {
	return m.Called().Get(0).(ports.PartnerRepository)
}

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	return m.Called().Get(0).(commands.UoW)
}

type MockJobUoWFactory struct{ mock.Mock }

func (m *MockJobUoWFactory) Create() commands.JobUoW {
	return m.Called().Get(0).(commands.JobUoW)
}

type MockPartnerUoWFactory struct{ mock.Mock }

func (m *MockPartnerUoWFactory) Create() commands.PartnerUoW {
	return m.Called().Get(0).(commands.PartnerUoW)
}

type MockRouteProvider struct{ mock.Mock }

func (m *MockRouteProvider) ComputeRoute(ctx context.Context, pickup, drop kernel.GeoPoint) (kernel.Path, error) {
	args := m.Called(ctx, pickup, drop)
	return args.Get(0).(kernel.Path), args.Error(1)
}

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

// recordingObserver keeps every event it receives.
type recordingObserver struct {
	mu     sync.Mutex
	events []job.StatusChanged
}

func (o *recordingObserver) HandleStatusChanged(_ context.Context, _ job.Snapshot, event job.StatusChanged) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func (o *recordingObserver) Events() []job.StatusChanged {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]job.StatusChanged, len(o.events))
	copy(out, o.events)
	return out
}

// memory-backed factories, wired the same way as the composition root.

type memoryUoWFactory struct{ f *memory.UnitOfWorkFactory }

func (m memoryUoWFactory) Create() commands.UoW { return m.f.Create() }

type memoryJobUoWFactory struct{ f *memory.UnitOfWorkFactory }

func (m memoryJobUoWFactory) Create() commands.JobUoW { return m.f.Create() }

type memoryPartnerUoWFactory struct{ f *memory.UnitOfWorkFactory }

func (m memoryPartnerUoWFactory) Create() commands.PartnerUoW { return m.f.Create() }
