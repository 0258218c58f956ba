package job

import (
	"time"

	"partnerdispatch/internal/core/domain/model/kernel"
)

// StatusChanged describes a committed status change. It is handed to status
// observers after the write succeeded.
type StatusChanged struct {
	JobID     kernel.UUID
	PartnerID *kernel.UUID
	From      Status
	To        Status
	Actor     Actor
	At        time.Time
}

// NewStatusChanged captures the transition of j from the given status.
func NewStatusChanged(j *Job, from Status, actor Actor, at time.Time) StatusChanged {
	var partnerID *kernel.UUID
	if p := j.Partner(); p != nil {
		id := *p
		partnerID = &id
	}
	return StatusChanged{
		JobID:     j.ID(),
		PartnerID: partnerID,
		From:      from,
		To:        j.Status(),
		Actor:     actor,
		At:        at,
	}
}
