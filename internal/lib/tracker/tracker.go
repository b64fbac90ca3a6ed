// Package tracker maintains the live user position signal. It runs exactly
// one of two mutually exclusive modes: a live watch on an external
// positioning source, or a deterministic simulated walk used for testing and
// demos.
package tracker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ruamjai/ruamjai/internal/lib/geo"
)

// DefaultPosition is the documented reference point (Bangkok city center)
// used whenever no real position has ever been obtained.
var DefaultPosition = geo.Point{Latitude: 13.7563, Longitude: 100.5018}

const (
	// DefaultTickInterval is the simulated walk tick rate.
	DefaultTickInterval = time.Second
	// DefaultStepDelta is the per-tick advance on both axes, in degrees.
	// Roughly nine meters per second of diagonal walking.
	DefaultStepDelta = 0.00008
)

// PositionSource is the push-based positioning boundary. Watch starts
// delivering updates (a position or an error) and returns a stop function
// that fully releases the underlying watch.
type PositionSource interface {
	Watch(ctx context.Context, update func(geo.Point, error)) (stop func(), err error)
}

// Mode identifies the tracker's active mode.
type Mode string

const (
	ModeOff       Mode = "OFF"
	ModeLive      Mode = "LIVE"
	ModeSimulated Mode = "SIMULATED"
	ModeRoute     Mode = "ROUTE"
)

// Options configures a Tracker. Zero fields fall back to the defaults above.
type Options struct {
	TickInterval time.Duration
	StepDelta    float64
	Home         geo.Point
	// OnUpdate is invoked for every emitted position. It runs outside the
	// tracker's lock and must not block for long.
	OnUpdate func(geo.Point)
}

// Tracker owns the current position and the lifecycle of the active mode.
// Starting any mode tears the previous one down completely first; at no
// instant can two modes deliver updates. Mode transitions are serialized,
// so concurrent Start and Stop calls cannot leak a watch or ticker.
type Tracker struct {
	// startMu serializes Start*/Stop. mu guards the position state and is
	// never held while calling out to a source or a teardown.
	startMu  sync.Mutex
	mu       sync.Mutex
	mode     Mode
	current  geo.Point
	hasFix   bool
	teardown func()

	tickInterval time.Duration
	stepDelta    float64
	home         geo.Point
	onUpdate     func(geo.Point)
}

// New creates a stopped tracker.
func New(opts Options) *Tracker {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.StepDelta == 0 {
		opts.StepDelta = DefaultStepDelta
	}
	if !opts.Home.IsValid() || (opts.Home == geo.Point{}) {
		opts.Home = DefaultPosition
	}
	return &Tracker{
		mode:         ModeOff,
		tickInterval: opts.TickInterval,
		stepDelta:    opts.StepDelta,
		home:         opts.Home,
		onUpdate:     opts.OnUpdate,
	}
}

// Current returns the latest position. ok is false only before any mode has
// produced a value.
func (t *Tracker) Current() (geo.Point, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current, t.hasFix
}

// Mode returns the active mode.
func (t *Tracker) Mode() Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

// StartLive subscribes to the positioning source. A source error before any
// fix substitutes the home position so downstream consumers always have a
// usable value once the tracker has started. The update callback may be
// invoked synchronously from inside Watch; no tracker lock is held across
// the call.
func (t *Tracker) StartLive(src PositionSource) error {
	t.startMu.Lock()
	defer t.startMu.Unlock()
	t.stopActive()

	ctx, cancel := context.WithCancel(context.Background())
	stop, err := src.Watch(ctx, func(p geo.Point, srcErr error) {
		if srcErr != nil {
			log.Printf("Position source error: %v", srcErr)
			t.mu.Lock()
			if t.hasFix {
				t.mu.Unlock()
				return
			}
			t.current = t.home
			t.hasFix = true
			fallback := t.current
			t.mu.Unlock()
			t.emit(fallback)
			return
		}
		t.mu.Lock()
		t.current = p
		t.hasFix = true
		t.mu.Unlock()
		t.emit(p)
	})
	if err != nil {
		cancel()
		return err
	}

	t.mu.Lock()
	t.mode = ModeLive
	t.teardown = func() {
		cancel()
		stop()
	}
	t.mu.Unlock()
	return nil
}

// StartSimulation begins a deterministic walk: every tick the position
// advances by the step delta on both axes, starting from the last known
// position or the home position.
func (t *Tracker) StartSimulation() {
	t.startMu.Lock()
	defer t.startMu.Unlock()
	t.stopActive()

	t.mu.Lock()
	if !t.hasFix {
		t.current = t.home
		t.hasFix = true
	}

	stopChan := make(chan struct{})
	done := make(chan struct{})
	t.mode = ModeSimulated
	t.teardown = func() {
		close(stopChan)
		<-done
	}
	t.mu.Unlock()

	go t.walkLoop(stopChan, done)
}

// StartRoute begins a simulated walk along a decoded polyline, visiting one
// waypoint per tick and holding the final waypoint once the route is
// exhausted.
func (t *Tracker) StartRoute(encoded string) error {
	route, err := geo.DecodeRoute(encoded)
	if err != nil {
		return err
	}

	t.startMu.Lock()
	defer t.startMu.Unlock()
	t.stopActive()

	t.mu.Lock()
	stopChan := make(chan struct{})
	done := make(chan struct{})
	t.mode = ModeRoute
	t.teardown = func() {
		close(stopChan)
		<-done
	}
	t.mu.Unlock()

	go t.routeLoop(route, stopChan, done)
	return nil
}

// Stop tears down the active mode. The last known position survives.
func (t *Tracker) Stop() {
	t.startMu.Lock()
	defer t.startMu.Unlock()
	t.stopActive()
}

// stopActive releases the active mode's timer or watch handle and waits for
// its goroutine to exit. Callers must hold startMu; the teardown itself runs
// without mu so a draining goroutine can still read position state.
func (t *Tracker) stopActive() {
	t.mu.Lock()
	td := t.teardown
	t.teardown = nil
	t.mode = ModeOff
	t.mu.Unlock()

	if td != nil {
		td()
	}
}

func (t *Tracker) walkLoop(stopChan <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopChan:
			return
		case <-ticker.C:
			t.mu.Lock()
			t.current = geo.Offset(t.current, t.stepDelta, t.stepDelta)
			p := t.current
			t.mu.Unlock()
			t.emit(p)
		}
	}
}

func (t *Tracker) routeLoop(route []geo.Point, stopChan <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.tickInterval)
	defer ticker.Stop()

	next := 0
	for {
		select {
		case <-stopChan:
			return
		case <-ticker.C:
			if next >= len(route) {
				// Route exhausted; hold the final waypoint.
				continue
			}
			p := route[next]
			next++
			t.mu.Lock()
			t.current = p
			t.hasFix = true
			t.mu.Unlock()
			t.emit(p)
		}
	}
}

func (t *Tracker) emit(p geo.Point) {
	if t.onUpdate != nil {
		t.onUpdate(p)
	}
}
