package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	journalPostings   prometheus.Counter
	journalReversals  prometheus.Counter
	paymentAllocation prometheus.Counter
	reportDuration    *prometheus.HistogramVec
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "umoja_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "umoja_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	postings := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "umoja_journal_postings_total",
		Help: "Journal entries posted.",
	})
	reversals := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "umoja_journal_reversals_total",
		Help: "Journal entries reversed.",
	})
	allocations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "umoja_payment_allocations_total",
		Help: "Loan payment allocations processed.",
	})
	reports := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "umoja_report_build_duration_seconds",
		Help:    "Time spent building ledger reports.",
		Buckets: prometheus.DefBuckets,
	}, []string{"report"})
	registry.MustRegister(requests, duration, postings, reversals, allocations, reports)
	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:     requests,
		requestDuration:   duration,
		journalPostings:   postings,
		journalReversals:  reversals,
		paymentAllocation: allocations,
		reportDuration:    reports,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// JournalPosted increments the posting counter.
func (m *Metrics) JournalPosted() {
	if m != nil {
		m.journalPostings.Inc()
	}
}

// JournalReversed increments the reversal counter.
func (m *Metrics) JournalReversed() {
	if m != nil {
		m.journalReversals.Inc()
	}
}

// PaymentAllocated increments the allocation counter.
func (m *Metrics) PaymentAllocated() {
	if m != nil {
		m.paymentAllocation.Inc()
	}
}

// ObserveReportBuild records the duration of a report build.
func (m *Metrics) ObserveReportBuild(report string, d time.Duration) {
	if m != nil {
		m.reportDuration.WithLabelValues(report).Observe(d.Seconds())
	}
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if ctx := chi.RouteContext(r.Context()); ctx != nil {
		if pattern := ctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
