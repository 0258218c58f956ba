package commands

import (
	"errors"
	"strings"

	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/pkg/errs"
	"partnerdispatch/internal/pkg/guard"
)

const minPasswordLength = 8

var ErrRegisterPartnerCommandIsNotConstructed = errors.New(
	"RegisterPartnerCommand must be created via NewRegisterPartnerCommand constructor",
)

// RegisterPartnerCommand creates an unverified partner account.
type RegisterPartnerCommand struct { //nolint:recvcheck //using for validation
	partnerID kernel.UUID
	name      string
	login     string
	password  string

	guard guard.ConstructorGuard
}

func NewRegisterPartnerCommand(partnerID kernel.UUID, name, login, password string) (RegisterPartnerCommand, error) {
	c := RegisterPartnerCommand{guard: guard.NewConstructorGuard()}

	if err := errors.Join(
		c.setPartnerID(partnerID),
		c.setName(name),
		c.setLogin(login),
		c.setPassword(password),
	); err != nil {
		return RegisterPartnerCommand{}, err
	}

	return c, nil
}

func (c RegisterPartnerCommand) Validate() error {
	return c.guard.Validate(ErrRegisterPartnerCommandIsNotConstructed)
}

func (c RegisterPartnerCommand) PartnerID() kernel.UUID {
	return c.partnerID
}

func (c RegisterPartnerCommand) Name() string {
	return c.name
}

func (c RegisterPartnerCommand) Login() string {
	return c.login
}

func (c RegisterPartnerCommand) Password() string {
	return c.password
}

func (c *RegisterPartnerCommand) setPartnerID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.partnerID = id
	return nil
}

func (c *RegisterPartnerCommand) setName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errs.NewValueIsRequiredError("name")
	}
	c.name = name
	return nil
}

func (c *RegisterPartnerCommand) setLogin(login string) error {
	if strings.TrimSpace(login) == "" {
		return errs.NewValueIsRequiredError("login")
	}
	c.login = login
	return nil
}

func (c *RegisterPartnerCommand) setPassword(password string) error {
	if len(password) < minPasswordLength {
		return errs.NewValueIsOutOfRangeError("password length", len(password), minPasswordLength, "unbounded")
	}
	c.password = password
	return nil
}
