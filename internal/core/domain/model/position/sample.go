package position

import (
	"errors"
	"time"

	"partnerdispatch/internal/core/domain/model/kernel"
)

// Sample is one position report of a partner working a job. Sequence numbers
// strictly increase within one feed run and start at 0.
type Sample struct {
	JobID     kernel.UUID
	PartnerID kernel.UUID
	Point     kernel.GeoPoint
	Sequence  uint64
	Timestamp time.Time
}

// NewSample validates identifiers and the point.
func NewSample(jobID, partnerID kernel.UUID, point kernel.GeoPoint, seq uint64, ts time.Time) (Sample, error) {
	if err := errors.Join(jobID.Validate(), partnerID.Validate(), point.Validate()); err != nil {
		return Sample{}, err
	}
	return Sample{
		JobID:     jobID,
		PartnerID: partnerID,
		Point:     point,
		Sequence:  seq,
		Timestamp: ts.UTC(),
	}, nil
}

func (s Sample) Lat() float64 {
	return s.Point.Lat()
}

func (s Sample) Lng() float64 {
	return s.Point.Lng()
}
