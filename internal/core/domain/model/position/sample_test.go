package position_test

import (
	"testing"
	"time"

	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/core/domain/model/position"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSample(t *testing.T) {
	jobID, partnerID := kernel.NewUUID(), kernel.NewUUID()
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.FixedZone("IST", 19800))

	t.Run("valid sample", func(t *testing.T) {
		s, err := position.NewSample(jobID, partnerID, kernel.MustGeoPoint(12.9, 77.6), 4, ts)

		require.NoError(t, err)
		assert.Equal(t, uint64(4), s.Sequence)
		assert.InDelta(t, 12.9, s.Lat(), 1e-9)
		assert.InDelta(t, 77.6, s.Lng(), 1e-9)
		assert.Equal(t, time.UTC, s.Timestamp.Location())
	})

	t.Run("missing point", func(t *testing.T) {
		_, err := position.NewSample(jobID, partnerID, kernel.GeoPoint{}, 0, ts)

		require.Error(t, err)
	})
}
