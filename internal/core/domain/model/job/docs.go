// Package job implements the Job aggregate: a single deliverable assignment from
// pickup to drop, together with the status state machine that governs it.
//
// Status transitions:
//
//	Unclaimed ──> Accepted ──> PickedUp ──> InTransit ──> Delivered
//	    │             │            │            │
//	    └─────────────┴────────────┴────────────┴──────> Cancelled
//
// Unclaimed -> Accepted happens only through Claim (compare-and-increment on
// the claim version). Every other move goes through TransitionTo, which checks
// the caller first, then idempotency, then legality.
package job
