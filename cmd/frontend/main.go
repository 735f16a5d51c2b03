package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sihayifrontend/config"
	"sihayifrontend/domain"
	"sihayifrontend/handlers"
	"sihayifrontend/lifecycle"
	"sihayifrontend/logging"
	"sihayifrontend/metrics"

	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
)

func main() {
	cfg, err := config.LoadConfig(config.StaticDefaults())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel)
	level.Info(logger).Log(
		"msg", "Configuration loaded",
		"service_port_http", cfg.HTTPPort,
		"metrics_port", cfg.MetricsPort,
		"max_in_flight", cfg.MaxInFlight,
		"root", cfg.RootDirectory,
	)

	var m *metrics.Metrics
	if cfg.MetricsPort > 0 {
		m = metrics.New()
	}

	var e *echo.Echo
	{
		static, err := handlers.NewStaticServer(os.DirFS(cfg.RootDirectory), logger)
		if err != nil {
			level.Error(logger).Log("msg", "Failed to create static server", "err", err)
			os.Exit(1)
		}
		e = handlers.NewEcho(static, handlers.Options{MaxInFlight: cfg.MaxInFlight, Metrics: m}, logger)
	}

	opts := []lifecycle.Option{
		lifecycle.WithObserver(func(from, to domain.State) {
			if to == domain.StateListening {
				fmt.Printf("Serving frontend at http://%s (accessible on your LAN)\n", cfg.Listener().Addr())
				fmt.Println("Press Ctrl+C to stop.")
			}
		}),
	}
	if m != nil {
		opts = append(opts, lifecycle.WithObserver(func(_, to domain.State) { m.SetState(to) }))
	}
	runner := lifecycle.NewRunner(cfg.Listener(), e, cfg.ShutdownTimeout, logger, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stopMetrics, err := m.ListenAndServe(cfg.MetricsPort, logger)
	if err != nil {
		level.Error(logger).Log("msg", "Failed to start metrics server", "err", err)
		os.Exit(1)
	}
	err = runner.Run(ctx)
	stopMetrics()
	if err != nil {
		level.Error(logger).Log("msg", "Frontend server failed", "err", err)
		os.Exit(1)
	}
	fmt.Println("Server stopped.")
}
