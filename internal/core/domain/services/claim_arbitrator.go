package services

import (
	"partnerdispatch/internal/core/domain/model/job"
	"partnerdispatch/internal/core/domain/model/partner"
	"partnerdispatch/internal/pkg/errs"
)

// ClaimArbitrator applies the claim rules to an in-memory job. The caller
// persists the result with a write conditional on the revision it read; when
// that write loses, the caller re-reads the job and calls TryClaim again, which
// then reports why the claim can no longer succeed.
//
// Outcomes:
//   - nil: the job is accepted and bound to the partner
//   - Forbidden: the partner is not verified
//   - AlreadyClaimed: the job left the unclaimed state
//   - Conflict: the observed claim version is stale
//
// Example:
//
//	arbitrator := services.NewClaimArbitrator()
//	if err := arbitrator.TryClaim(j, p, observed); err != nil {
//	    return err
//	}
//	// write j conditionally, then commit
type ClaimArbitrator struct{}

func NewClaimArbitrator() ClaimArbitrator {
	return ClaimArbitrator{}
}

// TryClaim binds p to j when p is verified and j is unclaimed at observedVersion.
func (a ClaimArbitrator) TryClaim(j *job.Job, p *partner.Partner, observedVersion uint64) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if !p.IsVerified() {
		return errs.NewForbiddenError("claim", "partner is not verified")
	}
	if err := j.Validate(); err != nil {
		return err
	}
	return j.Claim(p.ID(), observedVersion)
}
