package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/example/sharego/internal/config"
	"github.com/example/sharego/internal/fare"
	"github.com/example/sharego/internal/geo"
	"github.com/example/sharego/internal/ingest"
	"github.com/example/sharego/internal/models"
	"github.com/example/sharego/internal/observability"
	"github.com/example/sharego/internal/payments"
	"github.com/example/sharego/internal/rides"
	"github.com/example/sharego/internal/storage"
	"github.com/example/sharego/internal/track"
)

type Server struct {
	Rides     *rides.Service
	Fare      *fare.Calculator
	Locations geo.Locations
	Kafka     *ingest.KafkaProducer
	WSReg     *track.WSRegistry
	Tracker   *track.Publisher

	logger *slog.Logger
	mux    *mux.Router
}

// NewServer wires the engine from config. Redis, Kafka, Postgres and Stripe
// are all optional; absent ones degrade to in-process fallbacks so the
// binary runs locally with no infrastructure.
func NewServer(cfg config.ServerConfig, logger *slog.Logger) (*Server, error) {
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	}

	var prices fare.PriceSource
	switch {
	case cfg.FuelFeedURL == "":
		prices = fare.NoSource{}
	case rdb != nil:
		prices = fare.NewCachedSource(fare.NewFeedClient(cfg.FuelFeedURL), rdb, cfg.FuelPriceKey, cfg.FuelPriceTTL)
	default:
		prices = fare.NewFeedClient(cfg.FuelFeedURL)
	}

	calc := fare.NewCalculator(fare.Rates{
		BikeBase:       cfg.BikeBaseFare,
		CarBase:        cfg.CarBaseFare,
		BikeKmPerLiter: cfg.BikeKmPerLiter,
		CarKmPerLiter:  cfg.CarKmPerLiter,
		BikeCommission: cfg.CommissionRate,
		CarCommission:  cfg.CommissionRate,
	}, prices)

	var store storage.RideStore
	if cfg.PGDSN != "" {
		ps, err := storage.NewPostgresStore(cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		store = ps
	} else {
		store = storage.NewMemoryStore()
	}

	var locations geo.Locations
	if cfg.RedisAddr != "" {
		locations = geo.NewRedisLocations(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisGeoKey)
	} else {
		locations = geo.NewLocationIndex()
	}

	var kp *ingest.KafkaProducer
	if len(cfg.KafkaBrokers) > 0 {
		kp = ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.LocationTopic, cfg.RideTopic)
	}

	var geocoder geo.Geocoder
	if cfg.GeocodeURL != "" {
		geocoder = geo.NewCachedGeocoder(geo.NewOpenCageClient(cfg.GeocodeURL, cfg.GeocodeAPIKey), time.Hour)
	}
	var router geo.Router
	if cfg.RouteURL != "" {
		router = geo.NewORSClient(cfg.RouteURL, cfg.RouteAPIKey)
	}

	svc := &rides.Service{
		Store:    store,
		Fare:     calc,
		Geocoder: geocoder,
		Router:   router,
		Logger:   logger,
	}
	if kp != nil {
		svc.Events = kp
	}
	if cfg.StripeEnabled {
		svc.Payments = payments.NewStripeClient()
	}

	wsreg := track.NewWSRegistry()
	tracker := track.NewPublisher(locations, wsreg, cfg.TrackInterval)

	s := &Server{
		Rides:     svc,
		Fare:      calc,
		Locations: locations,
		Kafka:     kp,
		WSReg:     wsreg,
		Tracker:   tracker,
		logger:    logger,
		mux:       mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	api := s.mux.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/fare-quote", s.handleFareQuote).Methods("POST")
	api.HandleFunc("/rides", s.handleCreatePost).Methods("POST")
	api.HandleFunc("/rides", s.handleSearch).Methods("GET")
	api.HandleFunc("/rides/{id}", s.handleGetPost).Methods("GET")
	api.HandleFunc("/rides/{id}/book", s.handleBook).Methods("PATCH")
	api.HandleFunc("/rides/{id}", s.handleCancel).Methods("DELETE")

	s.mux.HandleFunc("/internal/locations", s.handleLocation).Methods("POST")
	s.mux.HandleFunc("/ws/{party_id}", s.handleWS)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

type fareQuoteRequest struct {
	DistanceKm  float64            `json:"distance_km"`
	VehicleType models.VehicleType `json:"vehicle_type"`
}

func (s *Server) handleFareQuote(w http.ResponseWriter, r *http.Request) {
	var req fareQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	quote, err := s.Fare.Quote(r.Context(), req.DistanceKm, req.VehicleType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var in rides.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	post, err := s.Rides.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	posts, err := s.Rides.Search(r.Context(), models.Role(q.Get("role")), q.Get("pickup"), q.Get("dropoff"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rides": posts})
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.Rides.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	var cp models.Counterparty
	if err := json.NewDecoder(r.Body).Decode(&cp); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	post, err := s.Rides.Book(r.Context(), mux.Vars(r)["id"], cp)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.Rides.Cancel(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	var u models.LocationUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.Kafka != nil {
		if err := s.Kafka.PublishLocation(u); err != nil {
			s.logger.Warn("location publish failed", "party_id", u.PartyID, "error", err)
		}
	}
	s.Locations.Upsert(u)
	observability.LocationUpdates.Inc()
	w.WriteHeader(http.StatusNoContent)
}

var upgrader = websocket.Upgrader{}

// handleWS subscribes a party to its counterparty's live position. The watch
// starts on connect and stops when the connection drops.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	partyID := mux.Vars(r)["party_id"]
	watch := r.URL.Query().Get("watch")
	if watch == "" {
		http.Error(w, "watch query parameter required", http.StatusBadRequest)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}
	s.WSReg.Add(partyID, conn)
	s.Tracker.Watch(partyID, watch)

	go func() {
		defer func() {
			s.Tracker.Stop(partyID)
			s.WSReg.Remove(partyID)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func newID() string { b := make([]byte, 8); _, _ = rand.Read(b); return hex.EncodeToString(b) }
