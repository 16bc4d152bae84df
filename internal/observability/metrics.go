// Package observability exposes Prometheus metrics for the site.
package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ops-web/ops-web-backend/internal/sms"
	"ops-web/ops-web-backend/internal/tutorial"
	"ops-web/ops-web-backend/internal/variant"
)

const namespace = "ops_web"

// Metrics holds the collectors and the registry they live in
type Metrics struct {
	registry *prometheus.Registry

	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	variantAssignments *prometheus.CounterVec
	transitions        *prometheus.CounterVec
	backendRequests    *prometheus.CounterVec
	backendDuration    *prometheus.HistogramVec
	messages           *prometheus.CounterVec
}

// NewMetrics creates the collectors on a fresh registry, together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		variantAssignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "variant_assignments_total",
			Help:      "A/B variant decisions by variant and how they were made.",
		}, []string{"variant", "source"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tutorial_transitions_total",
			Help:      "Tutorial phase transitions by kind and phase left.",
		}, []string{"variant", "kind", "from"}),
		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Calls to the Bubble backend by workflow and status.",
		}, []string{"workflow", "status"}),
		backendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Bubble workflow latency.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"workflow"}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "SMS and email messages by channel and outcome.",
		}, []string{"channel", "outcome"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.variantAssignments,
		m.transitions,
		m.backendRequests,
		m.backendDuration,
		m.messages,
	)
	return m
}

// Registry returns the registry, for registering extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware counts requests per matched route. Unmatched paths share one
// label so 404 scans do not blow up cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveVariant matches variant.Options.OnAssign
func (m *Metrics) ObserveVariant(v string, source variant.Source) {
	m.variantAssignments.WithLabelValues(v, string(source)).Inc()
}

// TutorialObserver counts every transition of every session
func (m *Metrics) TutorialObserver() tutorial.Observer {
	return func(s *tutorial.Session, t tutorial.Transition) {
		m.transitions.WithLabelValues(t.Variant, string(t.Kind), string(t.From)).Inc()
	}
}

// ObserveBackend matches bubble.CallObserver
func (m *Metrics) ObserveBackend(workflow string, status int, err error, latency time.Duration) {
	label := strconv.Itoa(status)
	if status == 0 {
		label = "error"
	}
	m.backendRequests.WithLabelValues(workflow, label).Inc()
	m.backendDuration.WithLabelValues(workflow).Observe(latency.Seconds())
}

// ObserveMessage counts one outbound SMS or email
func (m *Metrics) ObserveMessage(channel string, err error) {
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.messages.WithLabelValues(channel, outcome).Inc()
}

// GaugeFunc registers a gauge read from fn at scrape time
func (m *Metrics) GaugeFunc(name, help string, fn func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

type instrumentedSender struct {
	next sms.Sender
	m    *Metrics
}

func (s instrumentedSender) Send(ctx context.Context, to, body string) (string, error) {
	id, err := s.next.Send(ctx, to, body)
	s.m.ObserveMessage("sms", err)
	return id, err
}

type instrumentedEmail struct {
	next sms.EmailSender
	m    *Metrics
}

func (s instrumentedEmail) SendEmail(ctx context.Context, email sms.Email) (string, error) {
	id, err := s.next.SendEmail(ctx, email)
	s.m.ObserveMessage("email", err)
	return id, err
}

// InstrumentSender counts the outcome of every SMS sent through next
func (m *Metrics) InstrumentSender(next sms.Sender) sms.Sender {
	return instrumentedSender{next: next, m: m}
}

// InstrumentEmail counts the outcome of every email sent through next
func (m *Metrics) InstrumentEmail(next sms.EmailSender) sms.EmailSender {
	return instrumentedEmail{next: next, m: m}
}
