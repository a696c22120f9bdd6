package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/example/sharego/internal/models"
)

// ErrRoutingUnavailable means no routed distance could be produced. Callers
// must surface it; silently substituting straight-line distance is not
// allowed, the fare depends on the road network.
var ErrRoutingUnavailable = errors.New("routing unavailable")

// Router resolves road-network distance between two coordinates.
type Router interface {
	DistanceKm(ctx context.Context, from, to models.Coord, vehicle models.VehicleType) (float64, error)
}

// ORSClient performs directions lookups against an openrouteservice-style
// HTTP API. The vehicle type picks the routing profile.
type ORSClient struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

func NewORSClient(endpoint, apiKey string) *ORSClient {
	return &ORSClient{Endpoint: endpoint, APIKey: apiKey, Client: &http.Client{Timeout: 3 * time.Second}}
}

func profileFor(v models.VehicleType) string {
	if v == models.VehicleBike {
		return "cycling-regular"
	}
	return "driving-car"
}

func (o *ORSClient) DistanceKm(ctx context.Context, from, to models.Coord, vehicle models.VehicleType) (float64, error) {
	q := url.Values{}
	q.Set("api_key", o.APIKey)
	q.Set("start", fmt.Sprintf("%.6f,%.6f", from.Lon, from.Lat))
	q.Set("end", fmt.Sprintf("%.6f,%.6f", to.Lon, to.Lat))
	u := fmt.Sprintf("%s/v2/directions/%s?%s", o.Endpoint, profileFor(vehicle), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}
	resp, err := o.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRoutingUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d", ErrRoutingUnavailable, resp.StatusCode)
	}
	var out struct {
		Features []struct {
			Properties struct {
				Segments []struct {
					Distance float64 `json:"distance"` // meters
				} `json:"segments"`
			} `json:"properties"`
		} `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRoutingUnavailable, err)
	}
	if len(out.Features) == 0 || len(out.Features[0].Properties.Segments) == 0 {
		return 0, fmt.Errorf("%w: no route", ErrRoutingUnavailable)
	}
	return out.Features[0].Properties.Segments[0].Distance / 1000, nil
}
