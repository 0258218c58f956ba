package commands_test

import (
	"math"
	"testing"

	"partnerdispatch/internal/core/application/usecases/commands"
	"partnerdispatch/internal/core/domain/model/job"
	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreateJobCommand(t *testing.T) {
	id := kernel.NewUUID()

	tests := []struct {
		name    string
		id      kernel.UUID
		pickup  kernel.GeoPoint
		price   int64
		wantErr error
	}{
		{name: "valid", id: id, pickup: pickup, price: 100},
		{name: "free job", id: id, pickup: pickup, price: 0},
		{name: "zero id", id: kernel.UUID{}, pickup: pickup, price: 100, wantErr: errs.ErrValueIsRequired},
		{name: "zero pickup", id: id, pickup: kernel.GeoPoint{}, price: 100, wantErr: errs.ErrValueIsRequired},
		{name: "negative price", id: id, pickup: pickup, price: -1, wantErr: errs.ErrValueIsInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := commands.NewCreateJobCommand(tt.id, tt.pickup, drop, tt.price)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Error(t, cmd.Validate())
				return
			}
			require.NoError(t, err)
			require.NoError(t, cmd.Validate())
			assert.True(t, cmd.JobID().IsEqual(tt.id))
			assert.Equal(t, tt.price, cmd.Price())
		})
	}
}

func TestNewClaimJobCommand(t *testing.T) {
	jobID, partnerID := kernel.NewUUID(), kernel.NewUUID()

	cmd, err := commands.NewClaimJobCommand(jobID, partnerID, 3)
	require.NoError(t, err)
	assert.True(t, cmd.JobID().IsEqual(jobID))
	assert.True(t, cmd.PartnerID().IsEqual(partnerID))
	assert.Equal(t, uint64(3), cmd.ObservedVersion())

	_, err = commands.NewClaimJobCommand(kernel.UUID{}, kernel.UUID{}, 0)
	require.ErrorIs(t, err, errs.ErrValueIsRequired)

	require.ErrorIs(t, commands.ClaimJobCommand{}.Validate(), commands.ErrClaimJobCommandIsNotConstructed)
}

func TestNewUpdateJobStatusCommand(t *testing.T) {
	actor := job.PartnerActor(kernel.NewUUID())

	cmd, err := commands.NewUpdateJobStatusCommand(kernel.NewUUID(), actor, job.PickedUp)
	require.NoError(t, err)
	assert.Equal(t, job.PickedUp, cmd.Target())
	assert.Equal(t, actor, cmd.Actor())

	_, err = commands.NewUpdateJobStatusCommand(kernel.NewUUID(), actor, job.Status(math.MaxInt8))
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)

	require.ErrorIs(t, commands.UpdateJobStatusCommand{}.Validate(), commands.ErrUpdateJobStatusCommandIsNotConstructed)
}

func TestNewRegisterPartnerCommand(t *testing.T) {
	id := kernel.NewUUID()

	t.Run("valid", func(t *testing.T) {
		cmd, err := commands.NewRegisterPartnerCommand(id, "Asha", "asha", "s3cret-pass")

		require.NoError(t, err)
		assert.Equal(t, "asha", cmd.Login())
		assert.Equal(t, "s3cret-pass", cmd.Password())
	})

	t.Run("short password", func(t *testing.T) {
		_, err := commands.NewRegisterPartnerCommand(id, "Asha", "asha", "short")

		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})

	t.Run("all fields missing", func(t *testing.T) {
		_, err := commands.NewRegisterPartnerCommand(kernel.UUID{}, " ", "", "")

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})
}

func TestNewVerifyPartnerCommand(t *testing.T) {
	cmd, err := commands.NewVerifyPartnerCommand(kernel.NewUUID(), true)
	require.NoError(t, err)
	assert.True(t, cmd.Verified())

	_, err = commands.NewVerifyPartnerCommand(kernel.UUID{}, true)
	require.ErrorIs(t, err, errs.ErrValueIsRequired)
}

func TestNewAssignJobRouteCommand(t *testing.T) {
	_, err := commands.NewAssignJobRouteCommand(kernel.UUID{})
	require.ErrorIs(t, err, errs.ErrValueIsRequired)

	require.ErrorIs(t, commands.AssignJobRouteCommand{}.Validate(), commands.ErrAssignJobRouteCommandIsNotConstructed)
}
