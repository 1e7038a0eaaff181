// Package metrics exposes Prometheus counters for registrations, logins,
// catalog writes and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	LoginSuccess = "success"
	LoginFailure = "failure"
)

// Recorder is what the services and HTTP layer report to.
type Recorder interface {
	RecordShopRegistered()
	RecordIdentityCleanupFailure()
	RecordLogin(result string)
	RecordProductCreated()
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

type Collector struct {
	shopsRegistered prometheus.Counter
	cleanupFailures prometheus.Counter
	logins          *prometheus.CounterVec
	productsCreated prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		shopsRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shops_registered_total",
			Help: "Shops registered successfully.",
		}),
		cleanupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shops_identity_cleanup_failures_total",
			Help: "External identities left behind after a failed shop insert.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shops_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		productsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "products_created_total",
			Help: "Products created.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shops_api_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shops_api_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.shopsRegistered,
		c.cleanupFailures,
		c.logins,
		c.productsCreated,
		c.httpRequests,
		c.httpLatency,
	)

	return c
}

func (c *Collector) RecordShopRegistered() {
	c.shopsRegistered.Inc()
}

func (c *Collector) RecordIdentityCleanupFailure() {
	c.cleanupFailures.Inc()
}

func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

func (c *Collector) RecordProductCreated() {
	c.productsCreated.Inc()
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler serves the Prometheus scrape endpoint for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type Nop struct{}

func (Nop) RecordShopRegistered()                                {}
func (Nop) RecordIdentityCleanupFailure()                        {}
func (Nop) RecordLogin(string)                                   {}
func (Nop) RecordProductCreated()                                {}
func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
