package partner_test

import (
	"testing"
	"time"

	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/core/domain/model/partner"
	"partnerdispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func TestNewPartner(t *testing.T) {
	t.Run("creates unverified partner", func(t *testing.T) {
		id := kernel.NewUUID()

		p, err := partner.NewPartner(id, " Asha ", "Asha@Example.com", "$2a$hash", now)

		require.NoError(t, err)
		require.NoError(t, p.Validate())
		assert.True(t, p.ID().IsEqual(id))
		assert.Equal(t, "Asha", p.Name())
		assert.Equal(t, "asha@example.com", p.Login())
		assert.False(t, p.IsVerified())
	})

	t.Run("collects all missing fields", func(t *testing.T) {
		p, err := partner.NewPartner(kernel.NewUUID(), "", " ", "", now)

		require.Error(t, err)
		assert.Nil(t, p)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
		assert.Contains(t, err.Error(), "name")
		assert.Contains(t, err.Error(), "login")
		assert.Contains(t, err.Error(), "passwordHash")
	})
}

func TestPartner_Verify(t *testing.T) {
	p, err := partner.NewPartner(kernel.NewUUID(), "Ravi", "ravi", "hash", now)
	require.NoError(t, err)

	p.Verify()
	p.Verify()
	assert.True(t, p.IsVerified())

	p.Revoke()
	assert.False(t, p.IsVerified())
}

func TestRestorePartner(t *testing.T) {
	id := kernel.NewUUID()

	p, err := partner.RestorePartner(id, "Ravi", "ravi", "hash", true, now)

	require.NoError(t, err)
	assert.True(t, p.IsVerified())
	assert.Equal(t, now, p.CreatedAt())
}

func TestPartner_ZeroValue(t *testing.T) {
	var p *partner.Partner

	require.ErrorIs(t, p.Validate(), partner.ErrPartnerIsNotConstructed)
}
