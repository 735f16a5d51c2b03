// Package lifecycle runs the static listener and, for the LAN variant, the mDNS announcement
// through UNSTARTED -> ANNOUNCED -> LISTENING -> SHUTTING_DOWN -> STOPPED.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"sihayifrontend/domain"
	"sihayifrontend/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
)

// Announcer publishes and retracts the service record.
type Announcer interface {
	Announce(ctx context.Context, record domain.ServiceRecord) (domain.ServiceRecord, error)
	Withdraw()
}

// Announcement configures the LAN variant. The record address is filled from Prober.
type Announcement struct {
	Prober    interfaces.AddressProber
	Announcer Announcer
	Template  domain.ServiceRecord
}

// ListenFunc opens the listening socket.
type ListenFunc func(network, address string) (net.Listener, error)

// Observer is notified after every state change.
type Observer func(from, to domain.State)

// Runner owns the listener and the announcement for one process lifetime.
type Runner struct {
	listener        domain.ListenerState
	server          *echo.Echo
	announcement    *Announcement
	listen          ListenFunc
	shutdownTimeout time.Duration
	observers       []Observer
	logger          log.Logger

	mu        sync.Mutex
	state     domain.State
	addr      net.Addr
	announced domain.ServiceRecord
	ready     chan struct{}
	readyOnce sync.Once
}

// Option customizes a Runner.
type Option func(*Runner)

// WithAnnouncement enables the mDNS advertisement before the socket is bound.
func WithAnnouncement(a Announcement) Option {
	return func(r *Runner) { r.announcement = &a }
}

// WithListenFunc replaces net.Listen.
func WithListenFunc(listen ListenFunc) Option {
	return func(r *Runner) { r.listen = listen }
}

// WithObserver registers a state change callback.
func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observers = append(r.observers, o) }
}

// NewRunner creates a Runner in state UNSTARTED.
func NewRunner(listener domain.ListenerState, server *echo.Echo, shutdownTimeout time.Duration, logger log.Logger, opts ...Option) *Runner {
	r := &Runner{
		listener:        listener,
		server:          server,
		listen:          net.Listen,
		shutdownTimeout: shutdownTimeout,
		logger:          log.WithPrefix(logger, "component", "Runner"),
		state:           domain.StateUnstarted,
		ready:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current lifecycle state.
func (r *Runner) State() domain.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Addr returns the bound address once LISTENING, nil before.
func (r *Runner) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addr
}

// Announced returns the record actually published, zero for the plain variant.
func (r *Runner) Announced() domain.ServiceRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.announced
}

// Ready is closed once the runner is LISTENING or has given up starting.
func (r *Runner) Ready() <-chan struct{} {
	return r.ready
}

func (r *Runner) markReady() {
	r.readyOnce.Do(func() { close(r.ready) })
}

func (r *Runner) transition(to domain.State) error {
	r.mu.Lock()
	from := r.state
	if !from.CanTransition(to) {
		r.mu.Unlock()
		return fmt.Errorf("illegal lifecycle transition %s -> %s", from, to)
	}
	r.state = to
	r.mu.Unlock()

	level.Info(r.logger).Log("msg", "lifecycle transition", "from", from, "to", to)
	for _, o := range r.observers {
		o(from, to)
	}
	return nil
}

// Run announces (LAN variant), binds, serves until ctx is cancelled and then
// withdraws the record and closes the socket. A second call fails.
// It returns nil after a cancellation-driven shutdown and the startup or serve error otherwise.
func (r *Runner) Run(ctx context.Context) (err error) {
	defer r.markReady()
	if r.State() != domain.StateUnstarted {
		return fmt.Errorf("runner already started (state %s)", r.State())
	}

	// Whatever happens below, the record is retracted and the machine ends STOPPED.
	var ln net.Listener
	defer func() {
		stopErr := r.stop(ln)
		if err == nil {
			err = stopErr
		}
	}()

	if r.announcement != nil {
		if err := r.announce(ctx); err != nil {
			return err
		}
	}

	ln, err = r.listen("tcp", r.listener.Addr())
	if err != nil {
		return fmt.Errorf("bind %s: %w", r.listener.Addr(), err)
	}
	r.mu.Lock()
	r.addr = ln.Addr()
	r.mu.Unlock()
	if err := r.transition(domain.StateListening); err != nil {
		return err
	}
	level.Info(r.logger).Log(
		"msg", "serving frontend",
		"addr", ln.Addr(),
		"root", r.listener.RootDirectory,
	)
	r.markReady()

	serveErr := make(chan error, 1)
	r.server.Listener = ln
	go func() {
		serveErr <- r.server.Start("")
	}()

	select {
	case <-ctx.Done():
		level.Info(r.logger).Log("msg", "shutdown requested", "reason", context.Cause(ctx))
		return nil
	case err := <-serveErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	}
}

func (r *Runner) announce(ctx context.Context) error {
	a := r.announcement
	record := a.Template
	record.Address = a.Prober.DiscoverLocalAddress()
	record.Port = r.listener.Port

	published, err := a.Announcer.Announce(ctx, record)
	if err != nil {
		return fmt.Errorf("announce: %w", err)
	}
	r.mu.Lock()
	r.announced = published
	r.mu.Unlock()
	return r.transition(domain.StateAnnounced)
}

// stop runs once per Run: withdraw first so no stale record outlives the socket, then close it.
func (r *Runner) stop(ln net.Listener) error {
	if err := r.transition(domain.StateShuttingDown); err != nil {
		return err
	}

	if r.announcement != nil {
		r.announcement.Announcer.Withdraw()
	}

	var errs []error
	if ln != nil {
		ctx, cancel := context.WithTimeout(context.Background(), r.shutdownTimeout)
		defer cancel()
		if err := r.server.Shutdown(ctx); err != nil {
			level.Error(r.logger).Log("msg", "error during server shutdown", "err", err)
			errs = append(errs, fmt.Errorf("shutdown: %w", err))
		}
		// Shutdown only closes listeners the server already tracks.
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, fmt.Errorf("close listener: %w", err))
		}
	}

	if err := r.transition(domain.StateStopped); err != nil {
		errs = append(errs, err)
	}
	level.Info(r.logger).Log("msg", "server stopped")
	return errors.Join(errs...)
}
