package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FareQuotesTotal  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "sharego", Name: "fare_quotes_total", Help: "Total fare quotes computed"})
	SearchesTotal    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "sharego", Name: "ride_searches_total", Help: "Total ride searches served"})
	PostsCreated     = promauto.NewCounter(prometheus.CounterOpts{Namespace: "sharego", Name: "ride_posts_created_total", Help: "Total ride posts created"})
	BookingsTotal    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "sharego", Name: "bookings_total", Help: "Total successful bookings"})
	BookingConflicts = promauto.NewCounter(prometheus.CounterOpts{Namespace: "sharego", Name: "booking_conflicts_total", Help: "Booking attempts lost to an already-booked post"})
	LocationUpdates  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "sharego", Name: "location_updates_total", Help: "Live location updates ingested"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "sharego", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sharego",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
