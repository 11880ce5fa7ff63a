package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "boxes"

var (
	// Registry holds the service's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by entry kind and result (hit, miss, error, disabled).",
		},
		[]string{"kind", "result"},
	)

	cacheWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "writes_total",
			Help:      "Cache writes and deletes by entry kind and result.",
		},
		[]string{"kind", "op", "result"},
	)

	assemblyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "assembler",
			Name:      "duration_seconds",
			Help:      "Time to assemble a contest snapshot from chain reads.",
			Buckets:   prometheus.ExponentialBuckets(0.025, 2, 10), // 25ms to ~13s
		},
		[]string{"result"},
	)

	watcherEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "events_total",
			Help:      "Contest events observed on chain.",
		},
		[]string{"type"},
	)

	claims = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "claims",
			Name:      "outcomes_total",
			Help:      "Tracked claim transactions by final status.",
		},
		[]string{"status"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)
)

func init() {
	Registry.MustRegister(
		cacheLookups,
		cacheWrites,
		assemblyDuration,
		watcherEvents,
		claims,
		httpRequests,
		httpDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registered collectors
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordCacheLookup counts a cache read
func RecordCacheLookup(kind, result string) {
	cacheLookups.WithLabelValues(kind, result).Inc()
}

// RecordCacheWrite counts a cache set or delete
func RecordCacheWrite(kind, op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	cacheWrites.WithLabelValues(kind, op, result).Inc()
}

// RecordAssembly observes one contest assembly
func RecordAssembly(duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	assemblyDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// RecordWatcherEvent counts an observed contest event
func RecordWatcherEvent(eventType string) {
	watcherEvents.WithLabelValues(eventType).Inc()
}

// RecordClaim counts a claim transaction reaching a final status
func RecordClaim(status string) {
	claims.WithLabelValues(status).Inc()
}

// InstrumentHandler records request counts and latency by chi route pattern.
// Mount it with Router.Use so the route context exists when it runs.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets websocket upgrades pass through the recorder
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}
