// Package netstatus tracks whether the order store is reachable.
package netstatus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/ordersync/internal/client/client"
	"github.com/dmitrijs2005/ordersync/internal/logging"
)

type Mode string

const (
	ModeUnknown Mode = "unknown"
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

const DefaultProbeTimeout = 3 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type Monitor struct {
	pinger       Pinger
	log          logging.Logger
	probeTimeout time.Duration
	// retryAfter is how long an Offline verdict stands before Preflight
	// probes again.
	retryAfter time.Duration
	now        func() time.Time

	mu        sync.Mutex
	mode      Mode
	lastProbe time.Time
	onChange  func(Mode)
}

func NewMonitor(p Pinger, retryAfter time.Duration, log logging.Logger) *Monitor {
	return &Monitor{
		pinger:       p,
		log:          log.With("module", "netstatus"),
		probeTimeout: DefaultProbeTimeout,
		retryAfter:   retryAfter,
		now:          time.Now,
		mode:         ModeUnknown,
	}
}

// OnChange registers fn to be called after every mode switch.
func (m *Monitor) OnChange(fn func(Mode)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

func (m *Monitor) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Preflight is called before a remote operation. It fails fast with
// client.ErrUnavailable while a recent probe says the store is offline, and
// probes synchronously while the mode is still unknown or the offline
// verdict has aged out.
func (m *Monitor) Preflight(ctx context.Context) error {
	m.mu.Lock()
	mode, last := m.mode, m.lastProbe
	m.mu.Unlock()

	switch mode {
	case ModeOnline:
		return nil
	case ModeOffline:
		if m.now().Sub(last) < m.retryAfter {
			return fmt.Errorf("%w: offline since last probe", client.ErrUnavailable)
		}
	}

	if err := m.Probe(ctx); err != nil {
		return fmt.Errorf("%w: %v", client.ErrUnavailable, err)
	}
	return nil
}

// Probe pings the store once and records the result.
func (m *Monitor) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	err := m.pinger.Ping(ctx)
	m.mu.Lock()
	m.lastProbe = m.now()
	m.mu.Unlock()

	m.Observe(ctx, err)
	return err
}

// Observe feeds the outcome of a real call back into the monitor. Only
// unavailability flips it offline; a rejection still proves the store is up.
func (m *Monitor) Observe(ctx context.Context, err error) {
	var next Mode
	switch {
	case client.IsUnavailable(err):
		next = ModeOffline
	case err == nil, client.IsRejected(err):
		next = ModeOnline
	default:
		return
	}

	m.mu.Lock()
	if next == ModeOffline && m.mode != ModeOffline {
		m.lastProbe = m.now()
	}
	changed := m.mode != next
	m.mode = next
	fn := m.onChange
	m.mu.Unlock()

	if changed {
		m.log.Info(ctx, fmt.Sprintf("switched to %s mode", next))
		if fn != nil {
			fn(next)
		}
	}
}

// Run probes every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	_ = m.Probe(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = m.Probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}
