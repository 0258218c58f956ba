package commands

import (
	"context"
	"time"

	"partnerdispatch/internal/core/domain/model/partner"
)

// PasswordHasher turns a plain password into the stored hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

type RegisterPartnerCommandHandler struct {
	uowFactory PartnerUoWFactory
	hasher     PasswordHasher
	now        func() time.Time
}

func NewRegisterPartnerCommandHandler(uowFactory PartnerUoWFactory, hasher PasswordHasher) RegisterPartnerCommandHandler {
	return RegisterPartnerCommandHandler{
		uowFactory: uowFactory,
		hasher:     hasher,
		now:        time.Now,
	}
}

// Handle stores the new partner. A taken login fails with errs.ErrValueIsInvalid.
func (h RegisterPartnerCommandHandler) Handle(ctx context.Context, cmd RegisterPartnerCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	hash, err := h.hasher.Hash(cmd.Password())
	if err != nil {
		return err
	}

	p, err := partner.NewPartner(cmd.PartnerID(), cmd.Name(), cmd.Login(), hash, h.now())
	if err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.PartnerRepository().Add(ctx, p); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
