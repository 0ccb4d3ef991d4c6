// Package metrics exposes carousel mutations and HTTP traffic as
// Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/simple-carousel/pkg/carousel"
)

const namespace = "carousel"

// Collector implements carousel.Recorder
type Collector struct {
	registry *prometheus.Registry

	itemsAdded         prometheus.Counter
	uploadFailures     prometheus.Counter
	itemsDeleted       prometheus.Counter
	fieldsUpdated      prometheus.Counter
	moves              *prometheus.CounterVec
	positionsRefreshed prometheus.Counter

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	responseBytes   *prometheus.CounterVec
}

// New creates a collector backed by its own registry
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		itemsAdded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_added_total",
			Help:      "Number of carousel items created from uploads",
		}),
		uploadFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_failures_total",
			Help:      "Number of uploaded files skipped because they could not be stored",
		}),
		itemsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_deleted_total",
			Help:      "Number of carousel items deleted",
		}),
		fieldsUpdated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fields_updated_total",
			Help:      "Number of item fields written by bulk updates",
		}),
		moves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "item_moves_total",
			Help:      "Number of single item moves",
		}, []string{"direction"}),
		positionsRefreshed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "positions_renumbered_total",
			Help:      "Number of item positions rewritten by renumbering",
		}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of requests",
		}, []string{"method", "route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		responseBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "response_bytes_total",
			Help:      "Bytes written in responses",
		}, []string{"method", "route"}),
	}
}

// Registry returns the registry the collector writes to
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ItemsAdded(n int) {
	c.itemsAdded.Add(float64(n))
}

func (c *Collector) UploadFailed() {
	c.uploadFailures.Inc()
}

func (c *Collector) ItemsDeleted(n int) {
	c.itemsDeleted.Add(float64(n))
}

func (c *Collector) FieldsUpdated(n int) {
	c.fieldsUpdated.Add(float64(n))
}

func (c *Collector) ItemMoved(direction carousel.Direction) {
	c.moves.WithLabelValues(direction.String()).Inc()
}

func (c *Collector) PositionsRefreshed(changed int) {
	c.positionsRefreshed.Add(float64(changed))
}

// RecordRequest records one served request. route should be the route
// pattern, not the raw path, to keep label cardinality bounded.
func (c *Collector) RecordRequest(method, route string, statusCode int, duration time.Duration, size int64) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	c.responseBytes.WithLabelValues(method, route).Add(float64(size))
}
