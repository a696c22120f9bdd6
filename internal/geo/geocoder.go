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

// ErrNotFound means the geocoder had no result for the place text. It is a
// user-facing condition, not an outage.
var ErrNotFound = errors.New("geocode: no results")

// Geocoder resolves free-text place names to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, place string) (models.Coord, error)
}

// OpenCageClient queries an OpenCage-compatible forward geocoding API.
type OpenCageClient struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

func NewOpenCageClient(endpoint, apiKey string) *OpenCageClient {
	return &OpenCageClient{Endpoint: endpoint, APIKey: apiKey, Client: &http.Client{Timeout: 3 * time.Second}}
}

func (o *OpenCageClient) Geocode(ctx context.Context, place string) (models.Coord, error) {
	q := url.Values{}
	q.Set("q", place)
	q.Set("key", o.APIKey)
	q.Set("limit", "1")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return models.Coord{}, err
	}
	resp, err := o.Client.Do(req)
	if err != nil {
		return models.Coord{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.Coord{}, fmt.Errorf("geocode status %d", resp.StatusCode)
	}
	var out struct {
		Results []struct {
			Geometry struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.Coord{}, err
	}
	if len(out.Results) == 0 {
		return models.Coord{}, fmt.Errorf("%w for %q", ErrNotFound, place)
	}
	g := out.Results[0].Geometry
	return models.Coord{Lat: g.Lat, Lon: g.Lng}, nil
}
