package job

import (
	"errors"
	"fmt"
	"time"

	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/pkg/errs"
	"partnerdispatch/internal/pkg/guard"
)

// ErrJobIsNotConstructed is returned when a Job was not created via NewJob or RestoreJob.
var ErrJobIsNotConstructed = errors.New("Job must be created via NewJob or RestoreJob")

// Job is the aggregate root of a dispatch assignment.
//
// Invariants:
//   - status and partner change together, only through Claim and TransitionTo
//   - a job has at most one assigned partner and never loses it
//   - the route, once assigned, is never replaced
//   - claimVersion grows by exactly one per successful claim
//
// revision is the storage revision used by repositories for conditional
// writes. It is unrelated to claimVersion, which callers observe.
type Job struct {
	id           kernel.UUID
	pickup       kernel.GeoPoint
	drop         kernel.GeoPoint
	price        int64
	status       Status
	partnerID    *kernel.UUID
	claimVersion uint64
	route        kernel.Path
	createdAt    time.Time
	revision     uint64
	guard        guard.ConstructorGuard
}

// Snapshot is the flat form of a Job used by storage adapters and RestoreJob.
type Snapshot struct {
	ID           kernel.UUID
	Pickup       kernel.GeoPoint
	Drop         kernel.GeoPoint
	Price        int64
	Status       Status
	PartnerID    *kernel.UUID
	ClaimVersion uint64
	Route        kernel.Path
	CreatedAt    time.Time
	Revision     uint64
}

// NewJob creates an unclaimed job. price is in minor currency units.
func NewJob(id kernel.UUID, pickup, drop kernel.GeoPoint, price int64, createdAt time.Time) (*Job, error) {
	j := &Job{
		status:    Unclaimed,
		createdAt: createdAt.UTC(),
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		j.setID(id),
		j.setPickup(pickup),
		j.setDrop(drop),
		j.setPrice(price),
	); err != nil {
		return nil, err
	}

	return j, nil
}

// RestoreJob rebuilds a job from storage and checks the status/partner invariant.
func RestoreJob(s Snapshot) (*Job, error) {
	j := &Job{
		partnerID:    s.PartnerID,
		claimVersion: s.ClaimVersion,
		route:        s.Route,
		createdAt:    s.CreatedAt.UTC(),
		revision:     s.Revision,
		guard:        guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		j.setID(s.ID),
		j.setPickup(s.Pickup),
		j.setDrop(s.Drop),
		j.setPrice(s.Price),
		s.Status.Validate(),
	); err != nil {
		return nil, err
	}
	j.status = s.Status

	if s.Status.HasPartner() != (s.PartnerID != nil) {
		return nil, errs.NewValueIsInvalidErrorWithCause("partner",
			fmt.Errorf("job in status %s with partner set=%t", s.Status, s.PartnerID != nil))
	}

	return j, nil
}

func (j *Job) Validate() error {
	if j == nil {
		return ErrJobIsNotConstructed
	}
	return j.guard.Validate(ErrJobIsNotConstructed)
}

func (j *Job) ID() kernel.UUID {
	return j.id
}

func (j *Job) Pickup() kernel.GeoPoint {
	return j.pickup
}

func (j *Job) Drop() kernel.GeoPoint {
	return j.drop
}

func (j *Job) Price() int64 {
	return j.price
}

func (j *Job) Status() Status {
	return j.status
}

func (j *Job) ClaimVersion() uint64 {
	return j.claimVersion
}

func (j *Job) Route() kernel.Path {
	return j.route
}

func (j *Job) HasRoute() bool {
	return !j.route.IsEmpty()
}

func (j *Job) CreatedAt() time.Time {
	return j.createdAt
}

func (j *Job) Revision() uint64 {
	return j.revision
}

func (j *Job) IsTerminal() bool {
	return j.status.IsTerminal()
}

func (j *Job) IsEqual(other *Job) bool {
	return other != nil && j.id.IsEqual(other.id)
}

func (j *Job) Partner() *kernel.UUID {
	return j.partnerID
}

// IsAssignedTo reports whether partnerID is the bound partner.
func (j *Job) IsAssignedTo(partnerID kernel.UUID) bool {
	return j.partnerID != nil && j.partnerID.IsEqual(partnerID)
}

// Snapshot returns a copy of the job state.
func (j *Job) Snapshot() Snapshot {
	var partnerID *kernel.UUID
	if j.partnerID != nil {
		id := *j.partnerID
		partnerID = &id
	}
	return Snapshot{
		ID:           j.id,
		Pickup:       j.pickup,
		Drop:         j.drop,
		Price:        j.price,
		Status:       j.status,
		PartnerID:    partnerID,
		ClaimVersion: j.claimVersion,
		Route:        j.route,
		CreatedAt:    j.createdAt,
		Revision:     j.revision,
	}
}

// Claim binds partnerID if the job is still unclaimed and observedVersion
// equals the current claim version. AlreadyClaimed is reported before
// Conflict, so a caller holding a stale version on a taken job learns that
// the job is gone rather than that it should retry.
func (j *Job) Claim(partnerID kernel.UUID, observedVersion uint64) error {
	if err := partnerID.Validate(); err != nil {
		return err
	}
	if j.status != Unclaimed {
		return errs.NewAlreadyClaimedError(j.id, j.status.String())
	}
	if observedVersion != j.claimVersion {
		return errs.NewVersionConflictError("claimVersion", observedVersion, j.claimVersion)
	}

	next, err := j.status.Claim()
	if err != nil {
		return err
	}

	j.status = next
	j.partnerID = &partnerID
	j.claimVersion++
	return nil
}

// CheckTransition runs the TransitionTo checks without changing the job. It
// returns false with a nil error for an idempotent request. The route check
// is left to TransitionTo so callers can resolve a route in between.
func (j *Job) CheckTransition(actor Actor, target Status) (bool, error) {
	if err := target.Validate(); err != nil {
		return false, err
	}
	if err := j.authorize(actor, target); err != nil {
		return false, err
	}
	if target == j.status {
		return false, nil
	}
	if _, err := j.status.TransitionTo(target); err != nil {
		return false, err
	}
	return true, nil
}

// TransitionTo applies a status change requested by actor. It returns false
// when the job already is in target. Checks run in this order: caller
// (Forbidden), idempotency, legality (InvalidTransition), route presence for
// InTransit (RouteUnavailable). On error the job is unchanged.
func (j *Job) TransitionTo(actor Actor, target Status) (bool, error) {
	changed, err := j.CheckTransition(actor, target)
	if err != nil || !changed {
		return false, err
	}
	if target == InTransit && !j.HasRoute() {
		return false, errs.NewRouteUnavailableError(j.id)
	}

	j.status = target
	return true, nil
}

// AssignRoute sets the route once. Assigning an equal route again is a no-op;
// replacing an existing route is rejected.
func (j *Job) AssignRoute(route kernel.Path) error {
	if route.Len() < 1 {
		return errs.NewValueIsRequiredError("route")
	}
	if j.HasRoute() {
		if j.route.IsEqual(route) {
			return nil
		}
		return errs.NewValueIsInvalidErrorWithCause("route", errors.New("route is already assigned"))
	}
	j.route = route
	return nil
}

// NeedsRoute reports whether the job is claimed, unfinished and still without a route.
func (j *Job) NeedsRoute() bool {
	return !j.HasRoute() && j.status.HasPartner() && !j.status.IsTerminal()
}

// MarkPersisted advances the storage revision after a successful conditional write.
func (j *Job) MarkPersisted() {
	j.revision++
}

func (j *Job) authorize(actor Actor, target Status) error {
	switch actor.Role() {
	case RoleDispatcher:
		if target != Cancelled {
			return errs.NewForbiddenError("update status", "dispatcher may only cancel")
		}
		return nil
	case RolePartner:
		if !j.IsAssignedTo(actor.PartnerID()) {
			return errs.NewForbiddenError("update status", "caller is not the assigned partner")
		}
		return nil
	default:
		return errs.NewForbiddenError("update status", "unknown caller")
	}
}

func (j *Job) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	j.id = id
	return nil
}

func (j *Job) setPickup(p kernel.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("pickup", err)
	}
	j.pickup = p
	return nil
}

func (j *Job) setDrop(p kernel.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("drop", err)
	}
	j.drop = p
	return nil
}

func (j *Job) setPrice(price int64) error {
	if price < 0 {
		return errs.NewValueIsInvalidErrorWithCause("price", fmt.Errorf("%d is negative", price))
	}
	j.price = price
	return nil
}
