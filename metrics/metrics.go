// Package metrics exposes Prometheus counters for the static listener and the lifecycle.
package metrics

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"sihayifrontend/domain"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors registered on one registry.
type Metrics struct {
	registry      *prometheus.Registry
	requests      *prometheus.CounterVec
	responseBytes prometheus.Counter
	announced     prometheus.Gauge
	state         prometheus.Gauge
}

// New registers the frontend collectors plus Go and process collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "frontend_http_requests_total",
			Help: "Static file requests by method and status code.",
		}, []string{"method", "code"}),
		responseBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "frontend_http_response_bytes_total",
			Help: "Bytes written in static file responses.",
		}),
		announced: factory.NewGauge(prometheus.GaugeOpts{
			Name: "frontend_announced",
			Help: "1 while the mDNS service record is published.",
		}),
		state: factory.NewGauge(prometheus.GaugeOpts{
			Name: "frontend_lifecycle_state",
			Help: "Lifecycle state: 0 UNSTARTED, 1 ANNOUNCED, 2 LISTENING, 3 SHUTTING_DOWN, 4 STOPPED.",
		}),
	}
}

// Middleware counts every request after the error handler has set the status.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			res := c.Response()
			m.requests.WithLabelValues(c.Request().Method, strconv.Itoa(res.Status)).Inc()
			m.responseBytes.Add(float64(res.Size))
			return nil
		}
	}
}

// SetAnnounced flips the announcement gauge.
func (m *Metrics) SetAnnounced(on bool) {
	if on {
		m.announced.Set(1)
		return
	}
	m.announced.Set(0)
}

// SetState records the current lifecycle state.
func (m *Metrics) SetState(s domain.State) {
	m.state.Set(float64(s))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// NewEcho builds the separate metrics listener answering GET /metrics.
func (m *Metrics) NewEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/metrics", echo.WrapHandler(m.Handler()))
	return e
}

// ListenAndServe binds the metrics listener on port and serves it in the background.
// The returned func stops it. A nil Metrics serves nothing.
func (m *Metrics) ListenAndServe(port int, logger log.Logger) (func(), error) {
	if m == nil {
		return func() {}, nil
	}
	addr := fmt.Sprintf(":%d", port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("bind metrics %s: %w", addr, err)
	}
	return m.Serve(ln, logger), nil
}

// Serve answers GET /metrics on ln until the returned func is called.
func (m *Metrics) Serve(ln net.Listener, logger log.Logger) func() {
	logger = log.WithPrefix(logger, "component", "Metrics")
	e := m.NewEcho()
	e.Listener = ln
	go func() {
		level.Info(logger).Log("msg", "Starting metrics server", "addr", ln.Addr())
		if err := e.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			level.Error(logger).Log("msg", "Metrics server error", "err", err)
		}
	}()
	return func() {
		if err := e.Close(); err != nil {
			level.Error(logger).Log("msg", "Error during metrics server shutdown", "err", err)
		}
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			level.Error(logger).Log("msg", "Error closing metrics listener", "err", err)
		}
	}
}
