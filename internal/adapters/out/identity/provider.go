package identity

import (
	"context"
	"errors"
	"time"

	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/core/ports"
	"partnerdispatch/internal/pkg/errs"

	"github.com/gorilla/securecookie"
)

const tokenName = "partner_token"

type tokenPayload struct {
	PartnerID string
	IssuedAt  int64
}

// Provider implements ports.IdentityProvider.
type Provider struct {
	partners ports.PartnerRepository
	hasher   BcryptHasher
	sc       *securecookie.SecureCookie
	ttl      time.Duration
	now      func() time.Time
}

// NewProvider expects a 32 or 64 byte hashKey and a 16, 24 or 32 byte
// blockKey (or nil to sign without encrypting).
func NewProvider(partners ports.PartnerRepository, hasher BcryptHasher, hashKey, blockKey []byte, ttl time.Duration) *Provider {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(ttl.Seconds()))
	return &Provider{
		partners: partners,
		hasher:   hasher,
		sc:       sc,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (p *Provider) Authenticate(ctx context.Context, credentials ports.Credentials) (ports.Identity, error) {
	partner, err := p.partners.GetByLogin(ctx, credentials.Login)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return ports.Identity{}, errs.NewForbiddenError("login", "invalid credentials")
	}
	if err != nil {
		return ports.Identity{}, err
	}
	if !p.hasher.Matches(partner.PasswordHash(), credentials.Password) {
		return ports.Identity{}, errs.NewForbiddenError("login", "invalid credentials")
	}

	now := p.now()
	token, err := p.sc.Encode(tokenName, tokenPayload{
		PartnerID: partner.ID().String(),
		IssuedAt:  now.Unix(),
	})
	if err != nil {
		return ports.Identity{}, err
	}

	return ports.Identity{
		PartnerID: partner.ID(),
		Token:     token,
		ExpiresAt: now.Add(p.ttl).UTC(),
	}, nil
}

// Resolve rejects tampered, foreign and expired tokens alike.
func (p *Provider) Resolve(_ context.Context, token string) (kernel.UUID, error) {
	if token == "" {
		return kernel.UUID{}, errs.NewForbiddenError("resolve token", "missing token")
	}

	var payload tokenPayload
	if err := p.sc.Decode(tokenName, token, &payload); err != nil {
		return kernel.UUID{}, errs.NewForbiddenError("resolve token", "invalid or expired token")
	}

	id, err := kernel.UUIDFromString(payload.PartnerID)
	if err != nil {
		return kernel.UUID{}, errs.NewForbiddenError("resolve token", "invalid token subject")
	}
	return id, nil
}

func (p *Provider) IsVerified(ctx context.Context, partnerID kernel.UUID) (bool, error) {
	partner, err := p.partners.Get(ctx, partnerID)
	if err != nil {
		return false, err
	}
	return partner.IsVerified(), nil
}
