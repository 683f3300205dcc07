package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hdgo_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hdgo_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	chartsComputedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hdgo_charts_computed_total",
			Help: "Total bodygraph computations by outcome.",
		},
		[]string{"outcome"},
	)

	chartDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hdgo_chart_duration_seconds",
			Help:    "Bodygraph computation duration in seconds.",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
	)

	solverIterations = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hdgo_solver_iterations",
			Help:    "Bisection iterations per design-time solve.",
			Buckets: []float64{10, 20, 30, 40, 50, 60},
		},
	)

	ephemerisQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hdgo_ephemeris_queries_total",
			Help: "Ephemeris longitude queries by result (ok, error).",
		},
		[]string{"result"},
	)

	geocodeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hdgo_geocode_requests_total",
			Help: "Geocoder lookups by result (cache_hit, ok, error).",
		},
		[]string{"result"},
	)

	cacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hdgo_chart_cache_hits_total",
		Help: "Chart cache hits.",
	})

	cacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hdgo_chart_cache_misses_total",
		Help: "Chart cache misses.",
	})

	cacheEvictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hdgo_chart_cache_evictions_total",
		Help: "Chart cache evictions.",
	})

	cacheEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hdgo_chart_cache_entries",
		Help: "Current chart cache entry count.",
	})
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		chartsComputedTotal,
		chartDurationSeconds,
		solverIterations,
		ephemerisQueriesTotal,
		geocodeRequestsTotal,
		cacheHitsTotal,
		cacheMissesTotal,
		cacheEvictionsTotal,
		cacheEntries,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordChart records one bodygraph computation.
func RecordChart(d time.Duration, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	chartsComputedTotal.WithLabelValues(outcome).Inc()
	if ok {
		chartDurationSeconds.Observe(d.Seconds())
	}
}

// ObserveSolverIterations records the iteration count of a solve.
func ObserveSolverIterations(n int) {
	solverIterations.Observe(float64(n))
}

// IncEphemerisQuery records one ephemeris longitude query.
func IncEphemerisQuery(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	ephemerisQueriesTotal.WithLabelValues(result).Inc()
}

// IncGeocode records a geocoder lookup result.
func IncGeocode(result string) {
	geocodeRequestsTotal.WithLabelValues(result).Inc()
}

// IncCacheHits increments the chart cache hit counter.
func IncCacheHits() { cacheHitsTotal.Inc() }

// IncCacheMisses increments the chart cache miss counter.
func IncCacheMisses() { cacheMissesTotal.Inc() }

// AddCacheEvictions adds to the chart cache eviction counter.
func AddCacheEvictions(n int) { cacheEvictionsTotal.Add(float64(n)) }

// SetCacheEntries publishes the current chart cache size.
func SetCacheEntries(n int) { cacheEntries.Set(float64(n)) }

// knownRoutes are the exact paths exposed by the API.
var knownRoutes = map[string]bool{
	"/":             true,
	"/healthz":      true,
	"/readyz":       true,
	"/metrics":      true,
	"/api/v1/chart": true,
	"/api/v1/wheel": true,
}

// normalizeRoute collapses request paths to a bounded label set so scanner
// traffic cannot blow up metric cardinality.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if strings.HasPrefix(path, "/api/v1/") {
		return "/api/v1/other"
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
