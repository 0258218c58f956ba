package kernel

import (
	"errors"
	"fmt"
	"math"

	"partnerdispatch/internal/pkg/errs"
	"partnerdispatch/internal/pkg/guard"
)

const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0

	earthRadiusMeters = 6371000.0
)

// ErrGeoPointIsNotConstructed is returned when a GeoPoint was not built by NewGeoPoint.
var ErrGeoPointIsNotConstructed = errs.NewValueIsRequiredError("geo point must be created via NewGeoPoint")

// GeoPoint is a WGS84 coordinate in decimal degrees.
type GeoPoint struct { //nolint:recvcheck // setters use pointer receivers during construction
	lat   float64
	lng   float64
	guard guard.ConstructorGuard
}

// NewGeoPoint validates latitude in [-90, 90] and longitude in [-180, 180].
func NewGeoPoint(lat, lng float64) (GeoPoint, error) {
	p := GeoPoint{guard: guard.NewConstructorGuard()}
	if err := errors.Join(p.setLat(lat), p.setLng(lng)); err != nil {
		return GeoPoint{}, err
	}
	return p, nil
}

// MustGeoPoint is NewGeoPoint for literals known to be valid.
func MustGeoPoint(lat, lng float64) GeoPoint {
	p, err := NewGeoPoint(lat, lng)
	if err != nil {
		panic(err)
	}
	return p
}

func (p GeoPoint) Validate() error {
	return p.guard.Validate(ErrGeoPointIsNotConstructed)
}

func (p GeoPoint) Lat() float64 {
	return p.lat
}

func (p GeoPoint) Lng() float64 {
	return p.lng
}

func (p GeoPoint) IsEqual(other GeoPoint) bool {
	return p.lat == other.lat && p.lng == other.lng
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("GeoPoint(%.6f,%.6f)", p.lat, p.lng)
}

// DistanceMeters is the haversine great-circle distance between two points.
func (p GeoPoint) DistanceMeters(other GeoPoint) float64 {
	lat1, lat2 := radians(p.lat), radians(other.lat)
	dLat := lat2 - lat1
	dLng := radians(other.lng - p.lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Interpolate returns the point at fraction t in [0, 1] of the straight
// segment from p to other.
func (p GeoPoint) Interpolate(other GeoPoint, t float64) GeoPoint {
	t = math.Max(0, math.Min(1, t))
	switch t {
	case 0:
		return p
	case 1:
		return other
	}
	return GeoPoint{
		lat:   p.lat + (other.lat-p.lat)*t,
		lng:   p.lng + (other.lng-p.lng)*t,
		guard: guard.NewConstructorGuard(),
	}
}

func (p *GeoPoint) setLat(lat float64) error {
	if math.IsNaN(lat) || lat < MinLatitude || lat > MaxLatitude {
		return errs.NewValueIsOutOfRangeError("lat", lat, MinLatitude, MaxLatitude)
	}
	p.lat = lat
	return nil
}

func (p *GeoPoint) setLng(lng float64) error {
	if math.IsNaN(lng) || lng < MinLongitude || lng > MaxLongitude {
		return errs.NewValueIsOutOfRangeError("lng", lng, MinLongitude, MaxLongitude)
	}
	p.lng = lng
	return nil
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
