package commands

import (
	"context"
)

type VerifyPartnerCommandHandler struct {
	uowFactory PartnerUoWFactory
}

func NewVerifyPartnerCommandHandler(uowFactory PartnerUoWFactory) VerifyPartnerCommandHandler {
	return VerifyPartnerCommandHandler{uowFactory: uowFactory}
}

func (h VerifyPartnerCommandHandler) Handle(ctx context.Context, cmd VerifyPartnerCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.PartnerRepository()
	p, err := repo.Get(ctx, cmd.PartnerID())
	if err != nil {
		return err
	}

	if cmd.Verified() {
		p.Verify()
	} else {
		p.Revoke()
	}

	if err = repo.Update(ctx, p); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
