package metric

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request handling time in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	wsActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	roomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rooms_active",
			Help: "Number of rooms currently registered",
		},
	)

	chatMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Total number of chat messages relayed",
		},
	)

	signalsRelayedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signals_relayed_total",
			Help: "Total number of signaling messages relayed by type",
		},
		[]string{"type"},
	)

	guardDenialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guard_denials_total",
			Help: "Total number of requests denied by the abuse guard",
		},
		[]string{"reason"},
	)
)

// RecordHTTPMetrics records metrics for one handled HTTP request.
func RecordHTTPMetrics(method, endpoint string, status int, duration time.Duration) {
	strStatus := strconv.Itoa(status)

	httpRequestsTotal.WithLabelValues(method, endpoint, strStatus).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, strStatus).Observe(duration.Seconds())
}

func IncrementWSActiveConnections() {
	wsActiveConnections.Inc()
}

func DecrementWSActiveConnections() {
	wsActiveConnections.Dec()
}

func SetRoomsActive(count int) {
	roomsActive.Set(float64(count))
}

func IncrementChatMessages() {
	chatMessagesTotal.Inc()
}

func IncrementSignalsRelayed(signalType string) {
	signalsRelayedTotal.WithLabelValues(signalType).Inc()
}

func IncrementGuardDenials(reason string) {
	guardDenialsTotal.WithLabelValues(reason).Inc()
}
