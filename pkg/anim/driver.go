// Package anim drives a periodic body, such as a view tick, from a ticker.
package anim

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dd0wney/cluso-netview/pkg/logging"
)

// DefaultInterval is the tick period used when none is configured.
const DefaultInterval = 40 * time.Millisecond

// Config configures a Driver.
type Config struct {
	Interval time.Duration
	Logger   logging.Logger
}

// Driver runs a body every Interval while started. Start and Stop are
// idempotent. The running flag is checked at the top of every firing, so a
// firing that races with Stop does nothing. Bodies never overlap and are
// never interrupted.
type Driver struct {
	interval time.Duration
	body     func()
	logger   logging.Logger

	runningMu sync.Mutex
	running   atomic.Bool
	stopCh    chan struct{}
	wg        sync.WaitGroup

	bodyMu   sync.Mutex
	fired    atomic.Uint64
	lastFire atomic.Int64
}

// NewDriver creates a stopped driver for body.
func NewDriver(cfg Config, body func()) *Driver {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Driver{
		interval: interval,
		body:     body,
		logger:   logger.With(logging.Component("anim")),
	}
}

// Start begins periodic firing. It reports whether the driver was stopped.
func (d *Driver) Start() bool {
	d.runningMu.Lock()
	defer d.runningMu.Unlock()

	if d.running.Load() {
		return false
	}

	d.stopCh = make(chan struct{})
	d.running.Store(true)
	d.wg.Add(1)
	go d.loop(d.stopCh)

	d.logger.Info("animation started", logging.Duration("interval", d.interval))
	return true
}

// Stop halts periodic firing and waits for an in-flight body to return. It
// reports whether the driver was running. Stop must not be called from the
// body.
func (d *Driver) Stop() bool {
	d.runningMu.Lock()
	defer d.runningMu.Unlock()

	if !d.running.Load() {
		return false
	}

	d.running.Store(false)
	close(d.stopCh)
	d.wg.Wait()

	d.logger.Info("animation stopped", logging.Uint64("fired", d.fired.Load()))
	return true
}

// Running reports whether the driver is started.
func (d *Driver) Running() bool {
	return d.running.Load()
}

// Interval returns the firing period.
func (d *Driver) Interval() time.Duration {
	return d.interval
}

// Fired returns how many bodies have run, manual ones included.
func (d *Driver) Fired() uint64 {
	return d.fired.Load()
}

// LastFire returns when the last body started, or the zero time.
func (d *Driver) LastFire() time.Time {
	ns := d.lastFire.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Fire runs the body once on the calling goroutine, whether or not the
// driver is started.
func (d *Driver) Fire() {
	d.bodyMu.Lock()
	defer d.bodyMu.Unlock()
	d.run()
}

func (d *Driver) loop(stopCh chan struct{}) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			d.fire()
		}
	}
}

func (d *Driver) fire() {
	d.bodyMu.Lock()
	defer d.bodyMu.Unlock()

	if !d.running.Load() {
		return
	}
	d.run()
}

func (d *Driver) run() {
	d.lastFire.Store(time.Now().UnixNano())
	d.fired.Add(1)
	d.body()
}
