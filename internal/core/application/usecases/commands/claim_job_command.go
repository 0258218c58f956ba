package commands

import (
	"errors"

	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/pkg/guard"
)

var ErrClaimJobCommandIsNotConstructed = errors.New(
	"ClaimJobCommand must be created via NewClaimJobCommand constructor",
)

// ClaimJobCommand is one claim attempt: a partner asks to bind a job at the
// claim version it observed in the unclaimed listing.
type ClaimJobCommand struct { //nolint:recvcheck //using for validation
	jobID           kernel.UUID
	partnerID       kernel.UUID
	observedVersion uint64

	guard guard.ConstructorGuard
}

func NewClaimJobCommand(jobID, partnerID kernel.UUID, observedVersion uint64) (ClaimJobCommand, error) {
	c := ClaimJobCommand{
		observedVersion: observedVersion,
		guard:           guard.NewConstructorGuard(),
	}

	if err := errors.Join(c.setJobID(jobID), c.setPartnerID(partnerID)); err != nil {
		return ClaimJobCommand{}, err
	}

	return c, nil
}

func (c ClaimJobCommand) Validate() error {
	return c.guard.Validate(ErrClaimJobCommandIsNotConstructed)
}

func (c ClaimJobCommand) JobID() kernel.UUID {
	return c.jobID
}

func (c ClaimJobCommand) PartnerID() kernel.UUID {
	return c.partnerID
}

func (c ClaimJobCommand) ObservedVersion() uint64 {
	return c.observedVersion
}

func (c *ClaimJobCommand) setJobID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.jobID = id
	return nil
}

func (c *ClaimJobCommand) setPartnerID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.partnerID = id
	return nil
}
