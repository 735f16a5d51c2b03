package main

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"os/signal"
	"syscall"

	"sihayifrontend/adapters/zeroconfmdns"
	"sihayifrontend/announcer"
	"sihayifrontend/config"
	"sihayifrontend/domain"
	"sihayifrontend/handlers"
	"sihayifrontend/lifecycle"
	"sihayifrontend/logging"
	"sihayifrontend/metrics"
	"sihayifrontend/netprobe"

	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
	"github.com/mdp/qrterminal/v3"
)

func main() {
	cfg, err := config.LoadConfig(config.LANDefaults())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel)
	level.Info(logger).Log(
		"msg", "Configuration loaded",
		"service_port_http", cfg.HTTPPort,
		"metrics_port", cfg.MetricsPort,
		"instance", cfg.MDNS.InstanceName,
		"host", cfg.MDNS.HostAlias,
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

	var announcement lifecycle.Announcement
	{
		template := domain.NewServiceRecord(netip.Addr{}, cfg.HTTPPort)
		template.InstanceName = cfg.MDNS.InstanceName
		template.HostAlias = cfg.MDNS.HostAlias

		announcement = lifecycle.Announcement{
			Prober:    netprobe.NewProber(nil, logger),
			Announcer: announcer.New(zeroconfmdns.NewRegistry(nil), cfg.MDNS.ProbeTimeout, 0, logger),
			Template:  template,
		}
	}

	var runner *lifecycle.Runner
	opts := []lifecycle.Option{
		lifecycle.WithAnnouncement(announcement),
		lifecycle.WithObserver(func(_, to domain.State) {
			if to == domain.StateListening {
				printBanner(runner.Announced(), cfg.ShowQR)
			}
		}),
	}
	if m != nil {
		opts = append(opts, lifecycle.WithObserver(func(_, to domain.State) {
			m.SetState(to)
			switch to {
			case domain.StateAnnounced:
				m.SetAnnounced(true)
			case domain.StateShuttingDown:
				m.SetAnnounced(false)
			}
		}))
	}
	runner = lifecycle.NewRunner(cfg.Listener(), e, cfg.ShutdownTimeout, logger, opts...)

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
	fmt.Println("Service unregistered. Server stopped.")
}

func printBanner(record domain.ServiceRecord, showQR bool) {
	fmt.Printf("Serving frontend at %s (http://%s)\n", record.URL(), netip.AddrPortFrom(record.Address, uint16(record.Port)))
	fmt.Printf("Advertised as %q on %s\n", record.InstanceName, record.FQDN())
	if showQR {
		qrterminal.Generate(record.URL(), qrterminal.L, os.Stdout)
	}
	fmt.Println("Press Ctrl+C to stop.")
}
