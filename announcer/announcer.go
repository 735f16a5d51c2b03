// Package announcer advertises the frontend on the LAN and retracts the advertisement on shutdown.
package announcer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sihayifrontend/domain"
	"sihayifrontend/interfaces"
	"sihayifrontend/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

const (
	DefaultProbeTimeout        = 1500 * time.Millisecond
	DefaultMaxConflictAttempts = 8
)

var errAlreadyAnnounced = errors.New("a record is already announced")

// Announcer owns at most one live ServiceRecord.
type Announcer struct {
	registry     interfaces.ServiceRegistry
	probeTimeout time.Duration
	maxAttempts  int
	logger       log.Logger

	mu          sync.Mutex
	publication interfaces.Publication
	record      domain.ServiceRecord
}

// New creates an Announcer. Non-positive probeTimeout or maxAttempts select the defaults.
func New(registry interfaces.ServiceRegistry, probeTimeout time.Duration, maxAttempts int, logger log.Logger) *Announcer {
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxConflictAttempts
	}
	return &Announcer{
		registry:     registry,
		probeTimeout: probeTimeout,
		maxAttempts:  maxAttempts,
		logger:       log.WithPrefix(logger, "component", "Announcer"),
	}
}

// Announce publishes record, renaming it when another host already answers
// for the same instance name. It returns the record actually published.
func (a *Announcer) Announce(ctx context.Context, record domain.ServiceRecord) (domain.ServiceRecord, error) {
	if err := record.Validate(); err != nil {
		return domain.ServiceRecord{}, service.NewBadParameterError("invalid service record", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.publication != nil {
		return domain.ServiceRecord{}, service.NewBadParameterError("announce refused", errAlreadyAnnounced)
	}

	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return domain.ServiceRecord{}, fmt.Errorf("announce cancelled, err: %w", err)
		}

		candidate := record.WithConflictSuffix(attempt)
		if a.taken(ctx, candidate) {
			level.Warn(a.logger).Log(
				"msg", "mDNS name already in use",
				"instance", candidate.InstanceName,
				"host", candidate.HostAlias,
				"attempt", attempt,
			)
			continue
		}

		pub, err := a.registry.Publish(candidate)
		if err != nil {
			return domain.ServiceRecord{}, fmt.Errorf("announce failed to publish record, err: %w", err)
		}
		a.publication = pub
		a.record = candidate

		level.Info(a.logger).Log(
			"msg", "service announced",
			"instance", candidate.InstanceName,
			"service", candidate.ServiceType,
			"host", candidate.HostAlias,
			"addr", candidate.Address,
			"port", candidate.Port,
			"txt", fmt.Sprint(candidate.TXT()),
		)
		return candidate, nil
	}

	return domain.ServiceRecord{}, service.NewNameConflictError(
		fmt.Sprintf("instance name %q taken after %d attempts", record.InstanceName, a.maxAttempts), nil)
}

// taken probes the LAN for the instance name and then the host alias; a hit
// on either counts. A failed probe is logged and treated as free.
func (a *Announcer) taken(ctx context.Context, candidate domain.ServiceRecord) bool {
	probes := []struct {
		what  string
		exist func(context.Context, domain.ServiceRecord) (bool, error)
	}{
		{what: "instance", exist: a.registry.InstanceExists},
		{what: "host", exist: a.registry.HostExists},
	}
	for _, p := range probes {
		probeCtx, cancel := context.WithTimeout(ctx, a.probeTimeout)
		exists, err := p.exist(probeCtx, candidate)
		cancel()
		if err != nil {
			level.Warn(a.logger).Log("msg", "mDNS conflict probe failed", "probe", p.what, "instance", candidate.InstanceName, "host", candidate.HostAlias, "err", err)
			continue
		}
		if exists {
			level.Debug(a.logger).Log("msg", "mDNS name answered by another host", "probe", p.what, "instance", candidate.InstanceName, "host", candidate.HostAlias)
			return true
		}
	}
	return false
}

// Withdraw retracts the live record. Safe to call more than once.
func (a *Announcer) Withdraw() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.publication == nil {
		return
	}

	a.publication.Shutdown()
	level.Info(a.logger).Log("msg", "service withdrawn", "instance", a.record.InstanceName)
	a.publication = nil
	a.record = domain.ServiceRecord{}
}

// Current returns the live record, if any.
func (a *Announcer) Current() (domain.ServiceRecord, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.record, a.publication != nil
}
