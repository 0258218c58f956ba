// Package jobrepo maps job aggregates to the jobs table.
package jobrepo

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"partnerdispatch/internal/core/domain/model/job"
	"partnerdispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// JobDTO is the row layout of the jobs table. Revision guards every update.
type JobDTO struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey"`
	PartnerID    *uuid.UUID  `gorm:"type:uuid;index"`
	Pickup       GeoPointDTO `gorm:"embedded;embeddedPrefix:pickup_"`
	Drop         GeoPointDTO `gorm:"embedded;embeddedPrefix:drop_"`
	Price        int64       `gorm:"not null"`
	Status       int         `gorm:"not null;index"`
	ClaimVersion uint64      `gorm:"not null"`
	Route        RouteDTO    `gorm:"type:jsonb"`
	CreatedAt    time.Time   `gorm:"not null;index"`
	Revision     uint64      `gorm:"not null"`
}

func (JobDTO) TableName() string {
	return "jobs"
}

type GeoPointDTO struct {
	Lat float64 `gorm:"type:double precision;not null"`
	Lng float64 `gorm:"type:double precision;not null"`
}

// RouteDTO stores a path as [[lat, lng], ...]. A nil route is stored as NULL.
type RouteDTO [][2]float64

func (r RouteDTO) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal([][2]float64(r))
}

func (r *RouteDTO) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*r = nil
		return nil
	case []byte:
		return json.Unmarshal(v, (*[][2]float64)(r))
	case string:
		return json.Unmarshal([]byte(v), (*[][2]float64)(r))
	default:
		return fmt.Errorf("unsupported route column type %T", src)
	}
}

func fromDomain(j *job.Job) JobDTO {
	var partnerID *uuid.UUID
	if id := j.Partner(); id != nil {
		raw := id.Google()
		partnerID = &raw
	}

	var route RouteDTO
	if j.HasRoute() {
		route = make(RouteDTO, 0, j.Route().Len())
		for _, p := range j.Route().All() {
			route = append(route, [2]float64{p.Lat(), p.Lng()})
		}
	}

	return JobDTO{
		ID:           j.ID().Google(),
		PartnerID:    partnerID,
		Pickup:       GeoPointDTO{Lat: j.Pickup().Lat(), Lng: j.Pickup().Lng()},
		Drop:         GeoPointDTO{Lat: j.Drop().Lat(), Lng: j.Drop().Lng()},
		Price:        j.Price(),
		Status:       int(j.Status()),
		ClaimVersion: j.ClaimVersion(),
		Route:        route,
		CreatedAt:    j.CreatedAt().UTC(),
		Revision:     j.Revision(),
	}
}

func toDomain(dto JobDTO) (*job.Job, error) {
	id, err := kernel.UUIDFromGoogle(dto.ID)
	if err != nil {
		return nil, err
	}

	var partnerID *kernel.UUID
	if dto.PartnerID != nil {
		pID, pErr := kernel.UUIDFromGoogle(*dto.PartnerID)
		if pErr != nil {
			return nil, pErr
		}
		partnerID = &pID
	}

	pickup, err := kernel.NewGeoPoint(dto.Pickup.Lat, dto.Pickup.Lng)
	if err != nil {
		return nil, err
	}
	drop, err := kernel.NewGeoPoint(dto.Drop.Lat, dto.Drop.Lng)
	if err != nil {
		return nil, err
	}

	var route kernel.Path
	if len(dto.Route) > 0 {
		points := make([]kernel.GeoPoint, 0, len(dto.Route))
		for _, raw := range dto.Route {
			p, pErr := kernel.NewGeoPoint(raw[0], raw[1])
			if pErr != nil {
				return nil, pErr
			}
			points = append(points, p)
		}
		if route, err = kernel.NewPath(points); err != nil {
			return nil, err
		}
	}

	return job.RestoreJob(job.Snapshot{
		ID:           id,
		Pickup:       pickup,
		Drop:         drop,
		Price:        dto.Price,
		Status:       job.Status(dto.Status),
		PartnerID:    partnerID,
		ClaimVersion: dto.ClaimVersion,
		Route:        route,
		CreatedAt:    dto.CreatedAt.UTC(),
		Revision:     dto.Revision,
	})
}
