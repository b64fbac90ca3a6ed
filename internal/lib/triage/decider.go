// Package triage decides whether a newly observed alert deserves an
// interrupting full-attention notification or stays a passive feed entry.
package triage

import (
	"sync"

	"github.com/ruamjai/ruamjai/internal/lib/alerts"
	"github.com/ruamjai/ruamjai/internal/lib/geo"
)

// InterruptRadiusKm is the maximum distance at which a new alert interrupts
// the user. The check runs once, at the instant the alert is introduced; the
// decider never re-applies it as the user moves. Whether movement should
// retroactively trigger a previously passive alert is an open product
// decision, deliberately left out of this core.
const InterruptRadiusKm = 5.0

// Phase is the tag of the decider's state variant.
type Phase string

const (
	PhaseIdle       Phase = "IDLE"
	PhasePresenting Phase = "PRESENTING"
)

// State is the externally visible decider state: either Idle, or Presenting
// exactly one alert. There is no presentation queue; this is a deliberate
// single-slot policy, and alerts that qualify while another is presenting
// remain in the passive feed.
type State struct {
	Phase  Phase         `json:"phase"`
	Active *alerts.Alert `json:"active,omitempty"`
}

// Decision reports the outcome of evaluating one alert.
type Decision struct {
	Interrupt  bool    `json:"interrupt"`
	DistanceKm float64 `json:"distance_km"`
}

// Decider is the interruption state machine: Idle -> Presenting -> Idle.
type Decider struct {
	mu     sync.Mutex
	active *alerts.Alert
}

// NewDecider creates a decider in the Idle state.
func NewDecider() *Decider {
	return &Decider{}
}

// Evaluate decides whether the alert interrupts the user right now. An alert
// interrupts iff its distance from the user is at most InterruptRadiusKm and
// nothing else is presenting. While the user position is unknown the
// distance counts as zero, so the alert presents; downstream views behave
// the same way.
func (d *Decider) Evaluate(a alerts.Alert, user geo.Point, known bool) Decision {
	distance := 0.0
	if known {
		distance = geo.DistanceKm(user, a.Position)
	}

	if distance > InterruptRadiusKm {
		return Decision{Interrupt: false, DistanceKm: distance}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active != nil {
		// Single-slot: the qualifying alert stays in the passive feed.
		return Decision{Interrupt: false, DistanceKm: distance}
	}

	presented := a
	d.active = &presented
	return Decision{Interrupt: true, DistanceKm: distance}
}

// State returns the current state variant. The returned alert is a copy.
func (d *Decider) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active == nil {
		return State{Phase: PhaseIdle}
	}
	active := *d.active
	return State{Phase: PhasePresenting, Active: &active}
}

// Dismiss returns the decider to Idle unconditionally.
func (d *Decider) Dismiss() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = nil
}

// Navigate hands off the presenting alert's position as a navigation
// destination and dismisses the interrupting state as a side effect. The
// second return value is false when nothing is presenting.
func (d *Decider) Navigate() (geo.Point, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active == nil {
		return geo.Point{}, false
	}
	dest := d.active.Position
	d.active = nil
	return dest, true
}
