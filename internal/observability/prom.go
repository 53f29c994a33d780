package observability

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "invoicepay"

// Prom holds the service's Prometheus collectors.
type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec

	// Auth
	AuthEvents *prometheus.CounterVec
	MailSends  *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		AuthEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "events_total",
				Help:      "Auth lifecycle events by kind and outcome.",
			},
			[]string{"event", "outcome"}, // event=register|login|verify_request|confirm
		),
		MailSends: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "mail",
				Name:      "sends_total",
				Help:      "Outbound email attempts by result.",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(p.RequestsTotal, p.RequestsDuration, p.InFlight, p.AuthEvents, p.MailSends)

	return p
}

// AuthEvent records one auth outcome. Safe on a nil receiver.
func (p *Prom) AuthEvent(event, outcome string) {
	if p == nil {
		return
	}
	p.AuthEvents.WithLabelValues(event, outcome).Inc()
}

// MailSend records one email attempt. Safe on a nil receiver.
func (p *Prom) MailSend(err error) {
	if p == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.MailSends.WithLabelValues(result).Inc()
}

// EchoMiddleware records request count, latency and in-flight gauges.
func (p *Prom) EchoMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			method := c.Request().Method
			p.InFlight.WithLabelValues(method, route).Inc()
			defer p.InFlight.WithLabelValues(method, route).Dec()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := strconv.Itoa(c.Response().Status)
			secs := time.Since(start).Seconds()

			p.RequestsTotal.WithLabelValues(method, route, status).Inc()
			p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
			return nil
		}
	}
}
