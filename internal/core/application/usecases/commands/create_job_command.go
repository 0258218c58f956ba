package commands

import (
	"errors"
	"fmt"

	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/pkg/errs"
	"partnerdispatch/internal/pkg/guard"
)

var ErrCreateJobCommandIsNotConstructed = errors.New(
	"CreateJobCommand must be created via NewCreateJobCommand constructor",
)

// CreateJobCommand publishes a new unclaimed job. The id is chosen by the
// caller so that retried dispatcher requests stay idempotent.
//
// Example:
//
//	cmd, err := NewCreateJobCommand(kernel.NewUUID(), pickup, drop, 24900)
//	if err != nil {
//	    return err
//	}
//	err = handler.Handle(ctx, cmd)
type CreateJobCommand struct { //nolint:recvcheck //using for validation
	jobID  kernel.UUID
	pickup kernel.GeoPoint
	drop   kernel.GeoPoint
	price  int64

	guard guard.ConstructorGuard
}

func NewCreateJobCommand(jobID kernel.UUID, pickup, drop kernel.GeoPoint, price int64) (CreateJobCommand, error) {
	c := CreateJobCommand{guard: guard.NewConstructorGuard()}

	if err := errors.Join(
		c.setJobID(jobID),
		c.setPickup(pickup),
		c.setDrop(drop),
		c.setPrice(price),
	); err != nil {
		return CreateJobCommand{}, err
	}

	return c, nil
}

func (c CreateJobCommand) Validate() error {
	return c.guard.Validate(ErrCreateJobCommandIsNotConstructed)
}

func (c CreateJobCommand) JobID() kernel.UUID {
	return c.jobID
}

func (c CreateJobCommand) Pickup() kernel.GeoPoint {
	return c.pickup
}

func (c CreateJobCommand) Drop() kernel.GeoPoint {
	return c.drop
}

// Price is in minor currency units.
func (c CreateJobCommand) Price() int64 {
	return c.price
}

func (c *CreateJobCommand) setJobID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.jobID = id
	return nil
}

func (c *CreateJobCommand) setPickup(p kernel.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("pickup", err)
	}
	c.pickup = p
	return nil
}

func (c *CreateJobCommand) setDrop(p kernel.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("drop", err)
	}
	c.drop = p
	return nil
}

func (c *CreateJobCommand) setPrice(price int64) error {
	if price < 0 {
		return errs.NewValueIsInvalidErrorWithCause("price", fmt.Errorf("%d is negative", price))
	}
	c.price = price
	return nil
}
