package cmd

import (
	"strings"
	"testing"

	"partnerdispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJobFixtures(t *testing.T) {
	doc := `
jobs:
  - id: 9b2f6f0e-6c1d-4c55-8f5e-2f1d3c4b5a69
    pickup: {lat: 12.9716, lng: 77.5946}
    drop: {lat: 12.9352, lng: 77.6245}
    price: 15000
  - pickup: {lat: 28.6139, lng: 77.2090}
    drop: {lat: 28.5355, lng: 77.3910}
    price: 900
`
	creates, err := parseJobFixtures(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, creates, 2)

	assert.Equal(t, "9b2f6f0e-6c1d-4c55-8f5e-2f1d3c4b5a69", creates[0].JobID().String())
	assert.InDelta(t, 12.9716, creates[0].Pickup().Lat(), 1e-9)
	assert.Equal(t, int64(15000), creates[0].Price())
	assert.NotEqual(t, creates[0].JobID(), creates[1].JobID())
}

func TestParseJobFixtures_Invalid(t *testing.T) {
	t.Run("bad entries are all reported", func(t *testing.T) {
		doc := `
jobs:
  - pickup: {lat: 95, lng: 0}
    drop: {lat: 1, lng: 1}
    price: 100
  - id: not-a-uuid
    pickup: {lat: 1, lng: 1}
    drop: {lat: 2, lng: 2}
    price: 100
`
		_, err := parseJobFixtures(strings.NewReader(doc))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jobs[0]")
		assert.Contains(t, err.Error(), "jobs[1]")
		assert.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := parseJobFixtures(strings.NewReader("jobs:\n  - cost: 3\n"))
		require.Error(t, err)
	})

	t.Run("empty document", func(t *testing.T) {
		creates, err := parseJobFixtures(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, creates)
	})
}
