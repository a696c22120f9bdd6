package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig captures all tunable parameters for the HTTP API process.
// Values are loaded from environment variables with defaults chosen so the
// binary can run locally without excessive setup.
type ServerConfig struct {
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisGeoKey   string
	FuelPriceKey  string
	FuelPriceTTL  time.Duration
	FuelFeedURL   string

	KafkaBrokers  []string
	LocationTopic string
	RideTopic     string

	PGDSN string

	GeocodeURL    string
	GeocodeAPIKey string
	RouteURL      string
	RouteAPIKey   string

	BikeBaseFare   float64
	CarBaseFare    float64
	BikeKmPerLiter float64
	CarKmPerLiter  float64
	CommissionRate float64

	TrackInterval time.Duration

	StripeEnabled bool

	LogLevel      string
	RunMigrations bool
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPAddr:        ":8080",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RedisGeoKey:     "parties_geo",
		FuelPriceKey:    "fuel:price_per_liter",
		FuelPriceTTL:    10 * time.Minute,
		LocationTopic:   "party-locations",
		RideTopic:       "ride-events",
		BikeBaseFare:    50,
		CarBaseFare:     100,
		BikeKmPerLiter:  40,
		CarKmPerLiter:   13,
		CommissionRate:  0.10,
		TrackInterval:   5 * time.Second,
		LogLevel:        "info",
	}
}

func LoadServerConfig() (ServerConfig, error) {
	cfg := defaultServerConfig()
	var errs []error

	setStringFromEnv(&cfg.HTTPAddr, "HTTP_ADDR")
	setDurationFromEnv(&cfg.ReadTimeout, "HTTP_READ_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.WriteTimeout, "HTTP_WRITE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.IdleTimeout, "HTTP_IDLE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT", &errs)

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	setStringFromEnv(&cfg.RedisGeoKey, "REDIS_GEO_KEY")
	setStringFromEnv(&cfg.FuelPriceKey, "FUEL_PRICE_KEY")
	setDurationFromEnv(&cfg.FuelPriceTTL, "FUEL_PRICE_TTL", &errs)
	cfg.FuelFeedURL = strings.TrimSpace(os.Getenv("FUEL_FEED_URL"))

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.LocationTopic, "KAFKA_LOCATION_TOPIC")
	setStringFromEnv(&cfg.RideTopic, "KAFKA_RIDE_TOPIC")

	cfg.PGDSN = os.Getenv("PG_DSN")

	cfg.GeocodeURL = strings.TrimSpace(os.Getenv("GEOCODE_URL"))
	cfg.GeocodeAPIKey = os.Getenv("GEOCODE_API_KEY")
	cfg.RouteURL = strings.TrimSpace(os.Getenv("ROUTE_URL"))
	cfg.RouteAPIKey = os.Getenv("ROUTE_API_KEY")

	setFloatFromEnv(&cfg.BikeBaseFare, "FARE_BIKE_BASE", &errs)
	setFloatFromEnv(&cfg.CarBaseFare, "FARE_CAR_BASE", &errs)
	setFloatFromEnv(&cfg.BikeKmPerLiter, "FARE_BIKE_KM_PER_LITER", &errs)
	setFloatFromEnv(&cfg.CarKmPerLiter, "FARE_CAR_KM_PER_LITER", &errs)
	setFloatFromEnv(&cfg.CommissionRate, "FARE_COMMISSION_RATE", &errs)

	setDurationFromEnv(&cfg.TrackInterval, "TRACK_INTERVAL", &errs)

	cfg.StripeEnabled = strings.EqualFold(os.Getenv("STRIPE_ENABLED"), "true")

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	cfg.RunMigrations = strings.EqualFold(os.Getenv("MIGRATE"), "true")

	if cfg.BikeKmPerLiter <= 0 || cfg.CarKmPerLiter <= 0 {
		errs = append(errs, fmt.Errorf("vehicle consumption must be > 0"))
	}
	if cfg.CommissionRate < 0 || cfg.CommissionRate >= 1 {
		errs = append(errs, fmt.Errorf("FARE_COMMISSION_RATE must be in [0,1)"))
	}
	if cfg.TrackInterval <= 0 {
		errs = append(errs, fmt.Errorf("TRACK_INTERVAL must be > 0"))
	}

	return cfg, errors.Join(errs...)
}

func setDurationFromEnv(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setFloatFromEnv(target *float64, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = f
	}
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
