package commands_test

import (
	"testing"
	"time"

	"partnerdispatch/internal/adapters/out/memory"
	"partnerdispatch/internal/core/domain/model/job"
	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/core/domain/model/partner"

	"github.com/stretchr/testify/require"
)

var (
	now    = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	pickup = kernel.MustGeoPoint(12.9716, 77.5946)
	drop   = kernel.MustGeoPoint(12.9352, 77.6245)
)

func newJob(t *testing.T) *job.Job {
	t.Helper()
	j, err := job.NewJob(kernel.NewUUID(), pickup, drop, 15000, now)
	require.NoError(t, err)
	return j
}

func newPartner(t *testing.T, verified bool) *partner.Partner {
	t.Helper()
	id := kernel.NewUUID()
	p, err := partner.RestorePartner(id, "Partner", "p-"+id.String(), "hash", verified, now)
	require.NoError(t, err)
	return p
}

func route(t *testing.T, n int) kernel.Path {
	t.Helper()
	points := make([]kernel.GeoPoint, 0, n)
	for i := range n {
		points = append(points, pickup.Interpolate(drop, float64(i)/float64(max(n-1, 1))))
	}
	p, err := kernel.NewPath(points)
	require.NoError(t, err)
	return p
}

// memoryWorld is a store seeded with partners and jobs.
type memoryWorld struct {
	factory *memory.UnitOfWorkFactory
}

func newMemoryWorld() memoryWorld {
	return memoryWorld{factory: memory.NewUnitOfWorkFactory(memory.NewStore())}
}

func (w memoryWorld) addJob(t *testing.T, j *job.Job) {
	t.Helper()
	require.NoError(t, w.factory.Create().JobRepository().Add(t.Context(), j))
}

func (w memoryWorld) addPartner(t *testing.T, p *partner.Partner) {
	t.Helper()
	require.NoError(t, w.factory.Create().PartnerRepository().Add(t.Context(), p))
}

func (w memoryWorld) job(t *testing.T, id kernel.UUID) *job.Job {
	t.Helper()
	j, err := w.factory.Create().JobRepository().Get(t.Context(), id)
	require.NoError(t, err)
	return j
}

func (w memoryWorld) uow() memoryUoWFactory {
	return memoryUoWFactory{f: w.factory}
}

func (w memoryWorld) jobUoW() memoryJobUoWFactory {
	return memoryJobUoWFactory{f: w.factory}
}

func (w memoryWorld) partnerUoW() memoryPartnerUoWFactory {
	return memoryPartnerUoWFactory{f: w.factory}
}
