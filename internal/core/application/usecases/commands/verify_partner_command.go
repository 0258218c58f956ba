package commands

import (
	"errors"

	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/pkg/guard"
)

var ErrVerifyPartnerCommandIsNotConstructed = errors.New(
	"VerifyPartnerCommand must be created via NewVerifyPartnerCommand constructor",
)

// VerifyPartnerCommand records the outcome of the external document review.
type VerifyPartnerCommand struct {
	partnerID kernel.UUID
	verified  bool
	guard     guard.ConstructorGuard
}

func NewVerifyPartnerCommand(partnerID kernel.UUID, verified bool) (VerifyPartnerCommand, error) {
	if err := partnerID.Validate(); err != nil {
		return VerifyPartnerCommand{}, err
	}
	return VerifyPartnerCommand{
		partnerID: partnerID,
		verified:  verified,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c VerifyPartnerCommand) Validate() error {
	return c.guard.Validate(ErrVerifyPartnerCommandIsNotConstructed)
}

func (c VerifyPartnerCommand) PartnerID() kernel.UUID {
	return c.partnerID
}

func (c VerifyPartnerCommand) Verified() bool {
	return c.verified
}
