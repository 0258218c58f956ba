// Package routing implements ports.RouteProvider: an OSRM HTTP client and a
// straight-line interpolator for offline and test setups.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/pkg/errs"
)

const osrmOK = "Ok"

// OSRMClient asks an OSRM server for the driving route between two points.
//
// Example:
//
//	routes := NewOSRMClient("https://router.project-osrm.org", 5*time.Second)
//	path, err := routes.ComputeRoute(ctx, pickup, drop)
type OSRMClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewOSRMClient(baseURL string, timeout time.Duration) *OSRMClient {
	return &OSRMClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Geometry struct {
			// GeoJSON order: [lng, lat]
			Coordinates [][2]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// ComputeRoute returns the first route's geometry framed by the exact pickup
// and drop points. Every failure is reported as errs.ErrRouteUnavailable.
func (c *OSRMClient) ComputeRoute(ctx context.Context, pickup, drop kernel.GeoPoint) (kernel.Path, error) {
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=geojson",
		c.baseURL, pickup.Lng(), pickup.Lat(), drop.Lng(), drop.Lat())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return kernel.Path{}, unavailable(pickup, drop, fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return kernel.Path{}, unavailable(pickup, drop, fmt.Errorf("failed to call osrm: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return kernel.Path{}, unavailable(pickup, drop,
			fmt.Errorf("osrm failed with status %d: %s", resp.StatusCode, string(body)))
	}

	var decoded osrmResponse
	if err = json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return kernel.Path{}, unavailable(pickup, drop, fmt.Errorf("failed to decode response: %w", err))
	}
	if decoded.Code != osrmOK || len(decoded.Routes) == 0 {
		return kernel.Path{}, unavailable(pickup, drop, fmt.Errorf("osrm returned %q: %s", decoded.Code, decoded.Message))
	}

	coords := decoded.Routes[0].Geometry.Coordinates
	points := make([]kernel.GeoPoint, 0, len(coords)+2)
	points = append(points, pickup)
	for _, c := range coords {
		p, pErr := kernel.NewGeoPoint(c[1], c[0])
		if pErr != nil {
			return kernel.Path{}, unavailable(pickup, drop, pErr)
		}
		if !p.IsEqual(points[len(points)-1]) {
			points = append(points, p)
		}
	}
	if !drop.IsEqual(points[len(points)-1]) {
		points = append(points, drop)
	}

	return kernel.NewPath(points)
}

func unavailable(pickup, drop kernel.GeoPoint, cause error) error {
	return errs.NewRouteUnavailableErrorWithCause(pickup.String()+" -> "+drop.String(), cause)
}
