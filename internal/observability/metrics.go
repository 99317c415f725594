package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "floodaura"

// Metrics holds the Prometheus counters, histograms, and gauges for the sync agent.
type Metrics struct {
	// Backend API calls.
	APIRequests        *prometheus.CounterVec   // labels: op, outcome={success,error}
	APIRequestDuration *prometheus.HistogramVec // labels: op

	// View-model refreshes.
	Refreshes *prometheus.CounterVec // labels: view, resource, outcome={ready,degraded,superseded}
	Connected *prometheus.GaugeVec   // labels: view

	// Real-time channel.
	RealtimeState      prometheus.Gauge
	RealtimeMessages   prometheus.Counter
	RealtimeDropped    prometheus.Counter
	RealtimeReconnects prometheus.Counter

	// Kafka forwarding.
	EventsPublished prometheus.Counter
	PublishErrors   prometheus.Counter

	// Form submissions.
	Subscriptions *prometheus.CounterVec // labels: outcome={success,failed}
	ChatMessages  *prometheus.CounterVec // labels: outcome={success,failed}

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={forward,reverse}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method={forward,reverse}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={forward,reverse}
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all agent metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.APIRequests,
		m.APIRequestDuration,
		m.Refreshes,
		m.Connected,
		m.RealtimeState,
		m.RealtimeMessages,
		m.RealtimeDropped,
		m.RealtimeReconnects,
		m.EventsPublished,
		m.PublishErrors,
		m.Subscriptions,
		m.ChatMessages,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Backend API calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		APIRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Backend API call duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"op"}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_refreshes_total",
			Help:      "View-model refreshes by view, resource and outcome.",
		}, []string{"view", "resource", "outcome"}),
		Connected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "view_connected",
			Help:      "1 when the view's most recent refresh succeeded, 0 otherwise.",
		}, []string{"view"}),
		RealtimeState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "realtime_state",
			Help:      "Real-time channel state: 0 idle, 1 connecting, 2 open, 3 reconnecting, 4 closed.",
		}),
		RealtimeMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_messages_total",
			Help:      "Real-time messages delivered to the handler.",
		}),
		RealtimeDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_dropped_total",
			Help:      "Real-time frames dropped because they were not JSON objects.",
		}),
		RealtimeReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_reconnects_total",
			Help:      "Real-time reconnection attempts.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Real-time messages forwarded to Kafka.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failures forwarding real-time messages to Kafka.",
		}),
		Subscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriptions_total",
			Help:      "Alert subscription submissions by outcome.",
		}, []string{"outcome"}),
		ChatMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_messages_total",
			Help:      "Assistant chat exchanges by outcome.",
		}, []string{"outcome"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when geocoding of subscription locations is enabled, 0 otherwise.",
		}),
	}
}
