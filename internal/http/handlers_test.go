package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/sharego/internal/fare"
	"github.com/example/sharego/internal/geo"
	"github.com/example/sharego/internal/models"
	"github.com/example/sharego/internal/rides"
	"github.com/example/sharego/internal/storage"
	"github.com/example/sharego/internal/track"
)

type fixedPrice struct{ v float64 }

func (f fixedPrice) FuelPricePerLiter(ctx context.Context) (float64, error) { return f.v, nil }

type stubRouter struct{ km float64 }

func (s stubRouter) DistanceKm(ctx context.Context, from, to models.Coord, v models.VehicleType) (float64, error) {
	return s.km, nil
}

type stubGeocoder struct{}

func (stubGeocoder) Geocode(ctx context.Context, place string) (models.Coord, error) {
	return models.Coord{Lat: 31.5, Lon: 74.3}, nil
}

func newTestServer(t *testing.T) (*Server, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	calc := fare.NewCalculator(fare.DefaultRates(), fixedPrice{255})
	locations := geo.NewLocationIndex()
	wsreg := track.NewWSRegistry()

	s := &Server{
		Rides: &rides.Service{
			Store:    store,
			Fare:     calc,
			Geocoder: stubGeocoder{},
			Router:   stubRouter{km: 10},
		},
		Fare:      calc,
		Locations: locations,
		WSReg:     wsreg,
		Tracker:   track.NewPublisher(locations, wsreg, 50*time.Millisecond),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		mux:       mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s, store
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var b errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &b); err != nil {
		t.Fatalf("bad error body %q: %v", w.Body.String(), err)
	}
	return b.Error
}

func TestFareQuoteEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, "POST", "/api/v1/fare-quote", `{"distance_km":10,"vehicle_type":"car"}`)
	if w.Code != 200 {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var q models.FareQuote
	if err := json.Unmarshal(w.Body.Bytes(), &q); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if q.TotalFare != 326 {
		t.Fatalf("expected 326, got %g", q.TotalFare)
	}

	w = do(t, s, "POST", "/api/v1/fare-quote", `{"distance_km":10,"vehicle_type":"boat"}`)
	if w.Code != 400 || errCode(t, w) != "invalid_vehicle_type" {
		t.Fatalf("status %d code %s", w.Code, w.Body.String())
	}

	w = do(t, s, "POST", "/api/v1/fare-quote", `{"distance_km":-1,"vehicle_type":"car"}`)
	if w.Code != 400 || errCode(t, w) != "invalid_distance" {
		t.Fatalf("status %d code %s", w.Code, w.Body.String())
	}
}

func TestSearchEndpoint(t *testing.T) {
	s, store := newTestServer(t)
	seed(t, store, "a", "DHA Phase 5", models.RoleDriverOffer)
	seed(t, store, "b", "Gulberg", models.RoleDriverOffer)

	w := do(t, s, "GET", "/api/v1/rides?role=rider-request", "")
	if w.Code != 400 || errCode(t, w) != "missing_search_criteria" {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}

	w = do(t, s, "GET", "/api/v1/rides?role=rider-request&pickup=dha", "")
	if w.Code != 200 {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var out struct {
		Rides []models.RidePost `json:"rides"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Rides) != 1 || out.Rides[0].ID != "a" {
		t.Fatalf("unexpected rides %+v", out.Rides)
	}
}

func TestBookEndpoint(t *testing.T) {
	s, store := newTestServer(t)
	seed(t, store, "x", "DHA", models.RoleRiderRequest)

	// driver booking a rider request without vehicle details
	w := do(t, s, "PATCH", "/api/v1/rides/x/book", `{"id":"d1","name":"Driver","contact":"0300"}`)
	if w.Code != 422 || errCode(t, w) != "incomplete_counterparty_profile" {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}

	full := `{"id":"d1","name":"Driver","contact":"0300","vehicle_number":"LEB-1234","vehicle_color":"white","vehicle_model":"Corolla"}`
	w = do(t, s, "PATCH", "/api/v1/rides/x/book", full)
	if w.Code != 200 {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var p models.RidePost
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !p.Booked || p.Counterparty == nil || p.Counterparty.VehicleNumber != "LEB-1234" {
		t.Fatalf("unexpected post %+v", p)
	}

	w = do(t, s, "PATCH", "/api/v1/rides/x/book", full)
	if w.Code != 409 || errCode(t, w) != "already_booked" {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}

	w = do(t, s, "PATCH", "/api/v1/rides/missing/book", full)
	if w.Code != 404 {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
}

func TestCreateAndCancelEndpoints(t *testing.T) {
	s, _ := newTestServer(t)
	body := `{"role":"driver-offer","poster_id":"d9","pickup":"DHA Phase 5","dropoff":"Gulberg","vehicle_type":"car","scheduled_at":"` +
		time.Now().Add(time.Hour).Format(time.RFC3339) + `"}`
	w := do(t, s, "POST", "/api/v1/rides", body)
	if w.Code != 201 {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var p models.RidePost
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Fare != 326 || p.Booked {
		t.Fatalf("unexpected post %+v", p)
	}

	w = do(t, s, "GET", "/api/v1/rides/"+p.ID, "")
	if w.Code != 200 {
		t.Fatalf("get status %d", w.Code)
	}

	w = do(t, s, "DELETE", "/api/v1/rides/"+p.ID, "")
	if w.Code != 204 {
		t.Fatalf("delete status %d: %s", w.Code, w.Body.String())
	}
	w = do(t, s, "DELETE", "/api/v1/rides/"+p.ID, "")
	if w.Code != 404 {
		t.Fatalf("second delete status %d", w.Code)
	}
}

func TestLocationIngestEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, "POST", "/internal/locations", `{"party_id":"d1","loc":{"lat":31.5,"lon":74.3}}`)
	if w.Code != 204 {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	u, ok := s.Locations.Lookup("d1")
	if !ok || u.Loc.Lat != 31.5 {
		t.Fatalf("location not stored: %+v ok=%v", u, ok)
	}
}

func seed(t *testing.T, store *storage.MemoryStore, id, pickup string, role models.Role) {
	t.Helper()
	err := store.Create(context.Background(), &models.RidePost{
		ID: id, Role: role, PosterID: "p-" + id,
		PickupText: pickup, DropoffText: "Airport",
		VehicleType: models.VehicleCar, DistanceKm: 10, Fare: 326, Commission: 29.6,
		ScheduledAt: time.Now().Add(time.Hour), CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}
