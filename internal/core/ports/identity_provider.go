package ports

import (
	"context"
	"time"

	"partnerdispatch/internal/core/domain/model/kernel"
)

// Credentials are what a partner presents at login.
type Credentials struct {
	Login    string
	Password string
}

// Identity is the outcome of a successful authentication.
type Identity struct {
	PartnerID kernel.UUID
	Token     string
	ExpiresAt time.Time
}

// IdentityProvider authenticates partners and reports verification status.
// Document review itself is out of scope; IsVerified only reads its outcome.
type IdentityProvider interface {
	// Authenticate returns errs.ErrForbidden for unknown logins and wrong passwords alike.
	Authenticate(ctx context.Context, credentials Credentials) (Identity, error)

	// Resolve maps a bearer token to a partner id or returns errs.ErrForbidden.
	Resolve(ctx context.Context, token string) (kernel.UUID, error)

	IsVerified(ctx context.Context, partnerID kernel.UUID) (bool, error)
}
