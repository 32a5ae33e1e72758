package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Kyz7/portfolio/internal/models"
	"github.com/Kyz7/portfolio/internal/registry"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so several apps can live in one process.
type Metrics struct {
	reg *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ResourcesCreated    *prometheus.CounterVec
	ResourceLikes       *prometheus.CounterVec
	StatusChanges       *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		ResourcesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_resources_created_total",
			Help: "Resources created per type.",
		}, []string{"type"}),
		ResourceLikes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_resource_likes_total",
			Help: "Likes per type.",
		}, []string{"type"}),
		StatusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_status_changes_total",
			Help: "Moderation status changes per type and target status.",
		}, []string{"type", "status"}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ResourcesCreated,
		m.ResourceLikes,
		m.StatusChanges,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) ResourceCreated(t registry.ResourceType) {
	m.ResourcesCreated.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) ResourceLiked(t registry.ResourceType) {
	m.ResourceLikes.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) StatusChanged(t registry.ResourceType, status models.ModerationStatus) {
	m.StatusChanges.WithLabelValues(string(t), string(status)).Inc()
}

// Middleware records count and latency per route pattern.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start).Seconds()

		path := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		m.HTTPRequestsTotal.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Method(), path).Observe(duration)

		return err
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
