package partner

import (
	"errors"
	"strings"
	"time"

	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/pkg/errs"
	"partnerdispatch/internal/pkg/guard"
)

var (
	ErrNameIsRequired         = errs.NewValueIsRequiredError("name")
	ErrLoginIsRequired        = errs.NewValueIsRequiredError("login")
	ErrPasswordHashIsRequired = errs.NewValueIsRequiredError("passwordHash")
	// ErrPartnerIsNotConstructed is returned when a Partner was not built via NewPartner or RestorePartner.
	ErrPartnerIsNotConstructed = errors.New("Partner must be created via NewPartner or RestorePartner")
)

// Partner is a field partner account. A partner must be verified before
// listing or claiming jobs.
type Partner struct {
	id           kernel.UUID
	name         string
	login        string
	passwordHash string
	verified     bool
	createdAt    time.Time
	guard        guard.ConstructorGuard
}

// NewPartner registers an unverified partner. login is normalized to lower case.
func NewPartner(id kernel.UUID, name, login, passwordHash string, createdAt time.Time) (*Partner, error) {
	p := &Partner{
		createdAt: createdAt.UTC(),
		guard:     guard.NewConstructorGuard(),
	}
	if err := errors.Join(
		p.setID(id),
		p.setName(name),
		p.setLogin(login),
		p.setPasswordHash(passwordHash),
	); err != nil {
		return nil, err
	}
	return p, nil
}

// RestorePartner rebuilds a partner loaded from storage.
func RestorePartner(
	id kernel.UUID,
	name, login, passwordHash string,
	verified bool,
	createdAt time.Time,
) (*Partner, error) {
	p, err := NewPartner(id, name, login, passwordHash, createdAt)
	if err != nil {
		return nil, err
	}
	p.verified = verified
	return p, nil
}

func (p *Partner) Validate() error {
	if p == nil {
		return ErrPartnerIsNotConstructed
	}
	return p.guard.Validate(ErrPartnerIsNotConstructed)
}

func (p *Partner) ID() kernel.UUID {
	return p.id
}

func (p *Partner) Name() string {
	return p.name
}

func (p *Partner) Login() string {
	return p.login
}

func (p *Partner) PasswordHash() string {
	return p.passwordHash
}

func (p *Partner) IsVerified() bool {
	return p.verified
}

func (p *Partner) CreatedAt() time.Time {
	return p.createdAt
}

// Verify records a positive document review. Verifying twice is a no-op.
func (p *Partner) Verify() {
	p.verified = true
}

// Revoke withdraws verification, e.g. after a document expired.
func (p *Partner) Revoke() {
	p.verified = false
}

func (p *Partner) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	p.id = id
	return nil
}

func (p *Partner) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameIsRequired
	}
	p.name = name
	return nil
}

func (p *Partner) setLogin(login string) error {
	login = strings.ToLower(strings.TrimSpace(login))
	if login == "" {
		return ErrLoginIsRequired
	}
	p.login = login
	return nil
}

func (p *Partner) setPasswordHash(hash string) error {
	if hash == "" {
		return ErrPasswordHashIsRequired
	}
	p.passwordHash = hash
	return nil
}
