package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "verkstad",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status.",
		},
		[]string{"endpoint", "status"},
	)

	offersCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "verkstad",
			Name:      "offers_created_total",
			Help:      "Offers accepted into bidding.",
		},
	)

	offersRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "verkstad",
			Name:      "offers_rejected_total",
			Help:      "Offer submissions rejected by business rules.",
		},
		[]string{"reason"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "verkstad",
			Name:      "bookings_created_total",
			Help:      "Bookings created from accepted offers.",
		},
	)

	requestsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "verkstad",
			Name:      "requests_expired_total",
			Help:      "Requests closed by the expiry sweep.",
		},
	)

	rankingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "verkstad",
			Name:      "offer_ranking_duration_seconds",
			Help:      "Time spent assembling and ranking an offer listing.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			offersCreated,
			offersRejected,
			bookingsCreated,
			requestsExpired,
			rankingDuration,
		)
	})
}

// IncHTTP increments the request counter for an endpoint/status pair.
func IncHTTP(endpoint, status string) {
	httpRequests.WithLabelValues(endpoint, status).Inc()
}

func IncOffersCreated() {
	offersCreated.Inc()
}

func IncOffersRejected(reason string) {
	offersRejected.WithLabelValues(reason).Inc()
}

func IncBookingsCreated() {
	bookingsCreated.Inc()
}

func AddRequestsExpired(n int) {
	requestsExpired.Add(float64(n))
}

func ObserveRankingDuration(d time.Duration) {
	rankingDuration.Observe(d.Seconds())
}
