package job

import (
	"fmt"

	"partnerdispatch/internal/pkg/errs"
)

// Status is the lifecycle state of a job.
type Status int

const (
	// Unknown catches uninitialized values.
	Unknown Status = iota
	Unclaimed
	Accepted
	PickedUp
	InTransit
	Delivered
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:   "unknown",
		Unclaimed: "unclaimed",
		Accepted:  "accepted",
		PickedUp:  "picked_up",
		InTransit: "in_transit",
		Delivered: "delivered",
		Cancelled: "cancelled",
	}
}

// getTransitions lists the legal targets of TransitionTo per source status.
// Unclaimed -> Accepted is absent on purpose: only Claim performs it.
func getTransitions() map[Status][]Status {
	//nolint:exhaustive // terminal and unknown statuses have no outgoing edges
	return map[Status][]Status{
		Unclaimed: {Cancelled},
		Accepted:  {PickedUp, Cancelled},
		PickedUp:  {InTransit, Cancelled},
		InTransit: {Delivered, Cancelled},
	}
}

// ParseStatus maps the wire name (e.g. "picked_up") to a Status.
func ParseStatus(s string) (Status, error) {
	for st, name := range getStatusStrings() {
		if st != Unknown && name == s {
			return st, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

func (s Status) Validate() error {
	if s <= Unknown || s > Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// HasPartner reports whether a job in this status must have an assigned partner.
func (s Status) HasPartner() bool {
	return s != Unclaimed && s != Unknown
}

// CanTransitionTo reports whether target is a legal next status. It does not
// cover Unclaimed -> Accepted.
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range getTransitions()[s] {
		if next == target {
			return true
		}
	}
	return false
}

// TransitionTo returns target if the move is legal, InvalidTransition otherwise.
func (s Status) TransitionTo(target Status) (Status, error) {
	if !s.CanTransitionTo(target) {
		return Unknown, errs.NewInvalidTransitionError(s.String(), target.String())
	}
	return target, nil
}

// Claim moves Unclaimed to Accepted.
func (s Status) Claim() (Status, error) {
	if s != Unclaimed {
		return Unknown, errs.NewInvalidTransitionError(s.String(), Accepted.String())
	}
	return Accepted, nil
}
