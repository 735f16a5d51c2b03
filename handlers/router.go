package handlers

import (
	"net/http"

	"sihayifrontend/metrics"
	"sihayifrontend/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/semaphore"
)

// RegisterHandlers binds GET and HEAD on every path to the static server.
// Other methods get 405 from the router.
func RegisterHandlers(e *echo.Echo, s *StaticServer) {
	e.GET("/*", s.ServeStatic)
	e.HEAD("/*", s.ServeStatic)
}

// Options tune the static listener.
type Options struct {
	// MaxInFlight caps concurrent requests; 0 means unlimited.
	MaxInFlight int
	// Metrics is optional.
	Metrics *metrics.Metrics
}

// NewEcho builds the echo instance serving s with error handling, request logging and optional limits.
func NewEcho(s *StaticServer, opts Options, logger log.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	service.RegisterErrorHandler(e, logger)

	if opts.Metrics != nil {
		e.Use(opts.Metrics.Middleware())
	}
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	if opts.MaxInFlight > 0 {
		e.Use(inFlightLimiter(opts.MaxInFlight))
	}

	RegisterHandlers(e, s)
	return e
}

func requestLogger(logger log.Logger) echo.MiddlewareFunc {
	logger = log.WithPrefix(logger, "component", "RequestLogger")
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		HandleError:     true,
		LogMethod:       true,
		LogURIPath:      true,
		LogStatus:       true,
		LogLatency:      true,
		LogResponseSize: true,
		LogRemoteIP:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logAt := level.Info
			if v.Status >= http.StatusInternalServerError {
				logAt = level.Warn
			}
			logAt(logger).Log(
				"msg", "request",
				"method", v.Method,
				"path", v.URIPath,
				"status", v.Status,
				"bytes", v.ResponseSize,
				"duration", v.Latency,
				"remote", v.RemoteIP,
			)
			return nil
		},
	})
}

// inFlightLimiter makes requests wait for a free slot; a client that gives up while waiting gets 503.
func inFlightLimiter(n int) echo.MiddlewareFunc {
	sem := semaphore.NewWeighted(int64(n))
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := sem.Acquire(c.Request().Context(), 1); err != nil {
				return echo.ErrServiceUnavailable.WithInternal(err)
			}
			defer sem.Release(1)
			return next(c)
		}
	}
}
