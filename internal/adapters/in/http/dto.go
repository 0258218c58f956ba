package http

import (
	"time"

	"partnerdispatch/internal/core/application/usecases/queries"
	"partnerdispatch/internal/core/domain/model/job"
	"partnerdispatch/internal/core/domain/model/kernel"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Request and response bodies of api/openapi.yaml.

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Job struct {
	ID           openapi_types.UUID  `json:"id"`
	Pickup       Location            `json:"pickup"`
	Drop         Location            `json:"drop"`
	Price        int64               `json:"price"`
	Status       string              `json:"status"`
	PartnerID    *openapi_types.UUID `json:"partnerId,omitempty"`
	ClaimVersion uint64              `json:"claimVersion"`
	Route        []Location          `json:"route,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
}

type JobResponse struct {
	Job Job `json:"job"`
}

type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string             `json:"token"`
	PartnerID openapi_types.UUID `json:"partnerId"`
	ExpiresAt time.Time          `json:"expiresAt"`
	ActiveJob *Job               `json:"activeJob,omitempty"`
}

type ClaimRequest struct {
	Version uint64 `json:"version"`
}

type ClaimResponse struct {
	Accepted        bool     `json:"accepted"`
	Job             Job      `json:"job"`
	InitialPosition Location `json:"initialPosition"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type PositionRequest struct {
	Lat       float64    `json:"lat"`
	Lng       float64    `json:"lng"`
	Sequence  uint64     `json:"sequence"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type NewJob struct {
	ID     *openapi_types.UUID `json:"id,omitempty"`
	Pickup Location            `json:"pickup"`
	Drop   Location            `json:"drop"`
	Price  int64               `json:"price"`
}

// Position is the payload of a "position" stream event.
type Position struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Sequence  uint64    `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
}

type StreamState struct {
	JobID        openapi_types.UUID `json:"jobId"`
	LastSampleAt *time.Time         `json:"lastSampleAt,omitempty"`
}

func toLocation(p kernel.GeoPoint) Location {
	return Location{Lat: p.Lat(), Lng: p.Lng()}
}

func toJob(s job.Snapshot) Job {
	out := Job{
		ID:           s.ID.Google(),
		Pickup:       toLocation(s.Pickup),
		Drop:         toLocation(s.Drop),
		Price:        s.Price,
		Status:       s.Status.String(),
		ClaimVersion: s.ClaimVersion,
		CreatedAt:    s.CreatedAt,
	}
	if s.PartnerID != nil {
		id := s.PartnerID.Google()
		out.PartnerID = &id
	}
	for _, p := range s.Route.All() {
		out.Route = append(out.Route, toLocation(p))
	}
	return out
}

func toJobSummaries(list []queries.GetUnclaimedJobsQueryResponse) []Job {
	out := make([]Job, 0, len(list))
	for _, j := range list {
		out = append(out, Job{
			ID:           j.ID.Google(),
			Pickup:       toLocation(j.Pickup),
			Drop:         toLocation(j.Drop),
			Price:        j.Price,
			Status:       job.Unclaimed.String(),
			ClaimVersion: j.ClaimVersion,
			CreatedAt:    j.CreatedAt,
		})
	}
	return out
}
