package ports

import (
	"context"

	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/core/domain/model/partner"
)

// PartnerRepository persists partner accounts.
type PartnerRepository interface {
	// Add fails with errs.ErrValueIsInvalid when the login is taken.
	Add(ctx context.Context, aggregate *partner.Partner) error
	Update(ctx context.Context, aggregate *partner.Partner) error
	Get(ctx context.Context, id kernel.UUID) (*partner.Partner, error)
	// GetByLogin matches the normalized (lower case) login.
	GetByLogin(ctx context.Context, login string) (*partner.Partner, error)
}
