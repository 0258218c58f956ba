package commands_test

import (
	"errors"
	"testing"

	"partnerdispatch/internal/core/application/usecases/commands"
	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/core/domain/model/partner"
	"partnerdispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type failingHasher struct{}

func (failingHasher) Hash(string) (string, error) {
	return "", errors.New("hash failed")
}

func TestRegisterPartnerCommandHandler_Handle(t *testing.T) {
	ctx := t.Context()
	w := newMemoryWorld()
	h := commands.NewRegisterPartnerCommandHandler(w.partnerUoW(), plainHasher{})
	id := kernel.NewUUID()

	cmd, err := commands.NewRegisterPartnerCommand(id, " Ravi ", "Ravi", "correct-horse")
	require.NoError(t, err)
	require.NoError(t, h.Handle(ctx, cmd))

	got, err := w.factory.Create().PartnerRepository().GetByLogin(ctx, "ravi")
	require.NoError(t, err)
	assert.True(t, got.ID().IsEqual(id))
	assert.Equal(t, "Ravi", got.Name())
	assert.Equal(t, "hashed:correct-horse", got.PasswordHash())
	assert.False(t, got.IsVerified())

	t.Run("login taken", func(t *testing.T) {
		dup, err := commands.NewRegisterPartnerCommand(kernel.NewUUID(), "Other", "RAVI", "correct-horse")
		require.NoError(t, err)

		require.ErrorIs(t, h.Handle(ctx, dup), errs.ErrValueIsInvalid)
	})
}

func TestRegisterPartnerCommandHandler_Handle_HashError(t *testing.T) {
	factory := new(MockPartnerUoWFactory)
	h := commands.NewRegisterPartnerCommandHandler(factory, failingHasher{})
	cmd, _ := commands.NewRegisterPartnerCommand(kernel.NewUUID(), "Ravi", "ravi", "correct-horse")

	require.Error(t, h.Handle(t.Context(), cmd))
	factory.AssertNotCalled(t, "Create")
}

func TestVerifyPartnerCommandHandler_Handle(t *testing.T) {
	ctx := t.Context()
	p := newPartner(t, false)

	repo := new(MockPartnerRepository)
	uow := new(MockUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("PartnerRepository").Return(repo).Once(),
		repo.On("Get", ctx, p.ID()).Return(p, nil).Once(),
		repo.On("Update", ctx, mock.MatchedBy(func(got *partner.Partner) bool {
			return got.IsVerified()
		})).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)
	factory := new(MockPartnerUoWFactory)
	factory.On("Create").Return(uow).Once()

	cmd, _ := commands.NewVerifyPartnerCommand(p.ID(), true)
	require.NoError(t, commands.NewVerifyPartnerCommandHandler(factory).Handle(ctx, cmd))

	repo.AssertExpectations(t)
	uow.AssertExpectations(t)
}

func TestVerifyPartnerCommandHandler_Revoke(t *testing.T) {
	w := newMemoryWorld()
	p := newPartner(t, true)
	w.addPartner(t, p)

	cmd, _ := commands.NewVerifyPartnerCommand(p.ID(), false)
	require.NoError(t, commands.NewVerifyPartnerCommandHandler(w.partnerUoW()).Handle(t.Context(), cmd))

	got, err := w.factory.Create().PartnerRepository().Get(t.Context(), p.ID())
	require.NoError(t, err)
	assert.False(t, got.IsVerified())

	t.Run("unknown partner", func(t *testing.T) {
		cmd, _ := commands.NewVerifyPartnerCommand(kernel.NewUUID(), true)

		err := commands.NewVerifyPartnerCommandHandler(w.partnerUoW()).Handle(t.Context(), cmd)

		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})
}
