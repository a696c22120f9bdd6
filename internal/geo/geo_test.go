package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/sharego/internal/models"
)

func TestGeocodeParsesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "DHA Phase 5" {
			t.Errorf("unexpected query %q", r.URL.Query().Get("q"))
		}
		w.Write([]byte(`{"results":[{"geometry":{"lat":31.46,"lng":74.38}}]}`))
	}))
	defer srv.Close()

	g := NewOpenCageClient(srv.URL, "key")
	c, err := g.Geocode(context.Background(), "DHA Phase 5")
	if err != nil {
		t.Fatalf("geocode: %v", err)
	}
	if c.Lat != 31.46 || c.Lon != 74.38 {
		t.Fatalf("unexpected coord %+v", c)
	}
}

func TestGeocodeNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	g := NewOpenCageClient(srv.URL, "key")
	if _, err := g.Geocode(context.Background(), "Nowhere"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCachedGeocoderMemoizes(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"results":[{"geometry":{"lat":1,"lng":2}}]}`))
	}))
	defer srv.Close()

	g := NewCachedGeocoder(NewOpenCageClient(srv.URL, "key"), time.Minute)
	for i := 0; i < 3; i++ {
		if _, err := g.Geocode(context.Background(), "  DHA  "); err != nil {
			t.Fatalf("geocode: %v", err)
		}
	}
	if _, err := g.Geocode(context.Background(), "dha"); err != nil {
		t.Fatalf("geocode: %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected 1 upstream hit, got %d", n)
	}
}

func TestRouterDistanceKm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"features":[{"properties":{"segments":[{"distance":10500}]}}]}`))
	}))
	defer srv.Close()

	o := NewORSClient(srv.URL, "key")
	km, err := o.DistanceKm(context.Background(), models.Coord{Lat: 1, Lon: 2}, models.Coord{Lat: 3, Lon: 4}, models.VehicleCar)
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if km != 10.5 {
		t.Fatalf("expected 10.5 km, got %g", km)
	}
}

func TestRouterProfileByVehicle(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"features":[{"properties":{"segments":[{"distance":1000}]}}]}`))
	}))
	defer srv.Close()

	o := NewORSClient(srv.URL, "key")
	if _, err := o.DistanceKm(context.Background(), models.Coord{}, models.Coord{}, models.VehicleBike); err != nil {
		t.Fatalf("route: %v", err)
	}
	if gotPath != "/v2/directions/cycling-regular" {
		t.Fatalf("expected cycling profile, got %q", gotPath)
	}
}

func TestRouterFailureIsRoutingUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no route", 500)
	}))
	defer srv.Close()

	o := NewORSClient(srv.URL, "key")
	if _, err := o.DistanceKm(context.Background(), models.Coord{}, models.Coord{}, models.VehicleCar); !errors.Is(err, ErrRoutingUnavailable) {
		t.Fatalf("expected ErrRoutingUnavailable, got %v", err)
	}

	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"features":[]}`))
	}))
	defer srv2.Close()

	o = NewORSClient(srv2.URL, "key")
	if _, err := o.DistanceKm(context.Background(), models.Coord{}, models.Coord{}, models.VehicleCar); !errors.Is(err, ErrRoutingUnavailable) {
		t.Fatalf("expected ErrRoutingUnavailable on empty route, got %v", err)
	}
}

func TestLocationIndex(t *testing.T) {
	idx := NewLocationIndex()
	if _, ok := idx.Lookup("d1"); ok {
		t.Fatal("expected miss for unknown party")
	}
	idx.Upsert(models.LocationUpdate{PartyID: "d1", Loc: models.Coord{Lat: 1, Lon: 2}})
	u, ok := idx.Lookup("d1")
	if !ok || u.Loc.Lat != 1 || u.Updated.IsZero() {
		t.Fatalf("unexpected lookup %+v ok=%v", u, ok)
	}
}
