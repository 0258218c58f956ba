// Package queries contains the read operations of the dispatch service. They
// read through the repository ports and never open a unit of work.
package queries

import (
	"errors"
	"time"

	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/pkg/guard"
)

var ErrGetUnclaimedJobsQueryIsNotConstructed = errors.New(
	"GetUnclaimedJobsQuery must be created via NewGetUnclaimedJobsQuery constructor",
)

// GetUnclaimedJobsQuery lists the jobs a partner may claim, oldest first.
//
// Example:
//
//	query := NewGetUnclaimedJobsQuery()
//	jobs, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return err
//	}
//	for _, j := range jobs {
//	    fmt.Printf("%s v%d %d\n", j.ID, j.ClaimVersion, j.Price)
//	}
type GetUnclaimedJobsQuery struct {
	guard guard.ConstructorGuard
}

func NewGetUnclaimedJobsQuery() GetUnclaimedJobsQuery {
	return GetUnclaimedJobsQuery{guard: guard.NewConstructorGuard()}
}

func (q GetUnclaimedJobsQuery) Validate() error {
	return q.guard.Validate(ErrGetUnclaimedJobsQueryIsNotConstructed)
}

// GetUnclaimedJobsQueryResponse carries the claim version a partner has to
// echo back when claiming.
type GetUnclaimedJobsQueryResponse struct {
	ID           kernel.UUID
	Pickup       kernel.GeoPoint
	Drop         kernel.GeoPoint
	Price        int64
	ClaimVersion uint64
	CreatedAt    time.Time
}
