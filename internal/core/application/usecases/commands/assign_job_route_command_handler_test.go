package commands_test

import (
	"errors"
	"testing"

	"partnerdispatch/internal/core/application/usecases/commands"
	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAssignJobRouteCommandHandler_Handle(t *testing.T) {
	t.Run("stores computed route", func(t *testing.T) {
		w := newMemoryWorld()
		j := claimedJob(t, w, kernel.NewUUID())

		routes := new(MockRouteProvider)
		routes.On("ComputeRoute", mock.Anything, mock.Anything, mock.Anything).Return(route(t, 4), nil).Once()

		cmd, _ := commands.NewAssignJobRouteCommand(j.ID())
		err := commands.NewAssignJobRouteCommandHandler(w.jobUoW(), routes).Handle(t.Context(), cmd)

		require.NoError(t, err)
		assert.Equal(t, 4, w.job(t, j.ID()).Route().Len())
		routes.AssertExpectations(t)
	})

	t.Run("unclaimed job is skipped", func(t *testing.T) {
		w := newMemoryWorld()
		j := newJob(t)
		w.addJob(t, j)

		routes := new(MockRouteProvider)
		cmd, _ := commands.NewAssignJobRouteCommand(j.ID())
		err := commands.NewAssignJobRouteCommandHandler(w.jobUoW(), routes).Handle(t.Context(), cmd)

		require.NoError(t, err)
		assert.False(t, w.job(t, j.ID()).HasRoute())
		routes.AssertNotCalled(t, "ComputeRoute", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("provider failure", func(t *testing.T) {
		w := newMemoryWorld()
		j := claimedJob(t, w, kernel.NewUUID())

		routes := new(MockRouteProvider)
		routes.On("ComputeRoute", mock.Anything, mock.Anything, mock.Anything).
			Return(kernel.Path{}, errors.New("timeout")).Once()

		cmd, _ := commands.NewAssignJobRouteCommand(j.ID())
		err := commands.NewAssignJobRouteCommandHandler(w.jobUoW(), routes).Handle(t.Context(), cmd)

		var unavailable *errs.RouteUnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, j.ID(), unavailable.ID)
		assert.True(t, w.job(t, j.ID()).NeedsRoute())
	})

	t.Run("unknown job", func(t *testing.T) {
		w := newMemoryWorld()

		cmd, _ := commands.NewAssignJobRouteCommand(kernel.NewUUID())
		err := commands.NewAssignJobRouteCommandHandler(w.jobUoW(), new(MockRouteProvider)).Handle(t.Context(), cmd)

		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})
}
