package watcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/ordersync/internal/client/services"
	"github.com/dmitrijs2005/ordersync/internal/logging"
	"github.com/dmitrijs2005/ordersync/internal/models"
)

const DefaultInterval = 10 * time.Second

var (
	// ErrDiscarded is returned by PollOnce when the detector was deactivated
	// (or reactivated) while the fetch was in flight.
	ErrDiscarded = errors.New("poll result discarded")
	ErrInactive  = errors.New("detector inactive")
	ErrBusy      = errors.New("poll already in flight")
)

type Fetcher interface {
	FetchOrders(ctx context.Context, opts services.FetchOptions) (services.FetchResult, error)
}

type Notification struct {
	NewOrders []models.Order
	Total     int
	At        time.Time
}

// Notifier receives notifications. It is called with the detector's lock
// held and must not call back into the detector.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Detector runs Step over periodic fetches of every order.
type Detector struct {
	fetcher  Fetcher
	notifier Notifier
	interval time.Duration
	log      logging.Logger
	now      func() time.Time

	mu         sync.Mutex
	state      State
	baseline   int
	generation uint64
	// inFlight is only meaningful for inFlightGen; a fetch left over from a
	// deactivated session does not block the next one.
	inFlight    bool
	inFlightGen uint64
	cancel      context.CancelFunc
}

// NewDetector builds an inactive detector. An interval of zero disables the
// background loop; polls then only happen through PollOnce.
func NewDetector(f Fetcher, n Notifier, interval time.Duration, log logging.Logger) *Detector {
	return &Detector{
		fetcher:  f,
		notifier: n,
		interval: interval,
		log:      log.With("module", "watcher"),
		now:      time.Now,
	}
}

func (d *Detector) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Activate starts a fresh session at BaselinePending. Activating an active
// detector restarts it.
func (d *Detector) Activate(ctx context.Context) {
	d.Deactivate()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.generation++
	d.state = BaselinePending
	d.baseline = 0

	if d.interval <= 0 {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	go d.loop(loopCtx, d.generation)
}

// Deactivate stops polling. Once it returns no notification fires and no
// baseline moves; a fetch still in flight may complete but its result is
// discarded.
func (d *Detector) Deactivate() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.state != Inactive {
		d.generation++
	}
	d.state = Inactive
}

func (d *Detector) loop(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.tick(ctx, gen)
	for {
		select {
		case <-ticker.C:
			d.tick(ctx, gen)
		case <-ctx.Done():
			return
		}
	}
}

func (d *Detector) tick(ctx context.Context, gen uint64) {
	err := d.poll(ctx, &gen)
	switch {
	case err == nil, errors.Is(err, ErrBusy), errors.Is(err, ErrDiscarded), errors.Is(err, ErrInactive):
	default:
		d.log.Warn(ctx, "poll failed", "error", err)
	}
}

// PollOnce runs one poll. Ticks never overlap: a poll arriving while another
// is in flight returns ErrBusy.
func (d *Detector) PollOnce(ctx context.Context) error {
	return d.poll(ctx, nil)
}

// poll runs one poll; a non-nil only restricts it to that generation.
func (d *Detector) poll(ctx context.Context, only *uint64) error {
	d.mu.Lock()
	if d.state == Inactive {
		d.mu.Unlock()
		return ErrInactive
	}
	if only != nil && *only != d.generation {
		d.mu.Unlock()
		return ErrDiscarded
	}
	if d.inFlight && d.inFlightGen == d.generation {
		d.mu.Unlock()
		return ErrBusy
	}
	gen := d.generation
	d.inFlight, d.inFlightGen = true, gen
	d.mu.Unlock()

	res, err := d.fetcher.FetchOrders(ctx, services.FetchOptions{All: true})

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inFlightGen == gen {
		d.inFlight = false
	}

	if gen != d.generation || d.state == Inactive {
		return ErrDiscarded
	}
	if err != nil {
		return err
	}
	if res.Degraded {
		d.log.Debug(ctx, "store unreachable, baseline kept", "warning", res.Warning)
		return nil
	}

	next, count, fresh := Step(d.state, d.baseline, res.Orders)
	d.state, d.baseline = next, count
	if len(fresh) > 0 && d.notifier != nil {
		d.notifier.Notify(ctx, Notification{NewOrders: fresh, Total: count, At: d.now()})
	}
	return nil
}
