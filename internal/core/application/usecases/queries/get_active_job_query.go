package queries

import (
	"errors"

	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/pkg/guard"
)

var ErrGetActiveJobQueryIsNotConstructed = errors.New(
	"GetActiveJobQuery must be created via NewGetActiveJobQuery constructor",
)

// GetActiveJobQuery finds the non-terminal job bound to a partner. It backs
// the polling fallback and the session recovery on login.
type GetActiveJobQuery struct {
	partnerID kernel.UUID
	guard     guard.ConstructorGuard
}

func NewGetActiveJobQuery(partnerID kernel.UUID) (GetActiveJobQuery, error) {
	if err := partnerID.Validate(); err != nil {
		return GetActiveJobQuery{}, err
	}
	return GetActiveJobQuery{partnerID: partnerID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetActiveJobQuery) Validate() error {
	return q.guard.Validate(ErrGetActiveJobQueryIsNotConstructed)
}

func (q GetActiveJobQuery) PartnerID() kernel.UUID {
	return q.partnerID
}
