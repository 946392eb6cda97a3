// Package metrics exports storefront telemetry as Prometheus series.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Telemetry counts storefront events. It satisfies the Telemetry interfaces
// of the storefront core, commands and transports.
type Telemetry struct {
	gatherer prometheus.Gatherer

	events          *prometheus.CounterVec
	errors          *prometheus.CounterVec
	mutations       *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	collectionLoads *prometheus.CounterVec
}

// New registers the storefront collectors on reg. A nil reg uses a fresh
// registry.
func New(reg *prometheus.Registry) *Telemetry {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Telemetry{
		gatherer: reg,
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Storefront telemetry events by name.",
		}, []string{"event"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Storefront events that carried an error.",
		}, []string{"event"}),
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Admin writes by resource and reason.",
		}, []string{"resource", "reason"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		collectionLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collection_loads_total",
			Help:      "Collection reads by resource and outcome.",
		}, []string{"resource", "outcome"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.gatherer, promhttp.HandlerOpts{})
}

// Record updates the counters for one event.
func (t *Telemetry) Record(_ context.Context, event string, payload map[string]any) {
	t.events.WithLabelValues(event).Inc()
	if _, failed := payload["error"]; failed {
		t.errors.WithLabelValues(event).Inc()
	}
	switch event {
	case "storefront.mutation":
		t.mutations.WithLabelValues(label(payload, "resource"), label(payload, "reason")).Inc()
	case "storefront.collection.load":
		t.collectionLoads.WithLabelValues(label(payload, "resource"), "ok").Inc()
	case "storefront.collection.load_error":
		t.collectionLoads.WithLabelValues(label(payload, "resource"), "error").Inc()
	case "storefront.http.request":
		method := label(payload, "method")
		t.httpRequests.WithLabelValues(method, label(payload, "status")).Inc()
		if ms, ok := payload["duration_ms"].(int64); ok {
			t.httpDuration.WithLabelValues(method).Observe((time.Duration(ms) * time.Millisecond).Seconds())
		}
	}
}

func label(payload map[string]any, key string) string {
	switch v := payload[key].(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case nil:
		return ""
	default:
		if s, ok := v.(interface{ String() string }); ok {
			return s.String()
		}
		return "other"
	}
}
