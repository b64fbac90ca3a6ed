package proximity

import (
	"sort"

	"github.com/ruamjai/ruamjai/internal/lib/alerts"
	"github.com/ruamjai/ruamjai/internal/lib/geo"
)

// DefaultRadiusKm is the fixed radius for all "nearby" semantics used by
// triage and summary views.
const DefaultRadiusKm = 5.0

// UnknownPolicy selects how Nearby behaves while the user position is still
// unknown (tracker not yet started).
type UnknownPolicy int

const (
	// UnknownAll treats every alert as nearby. Used for the initial
	// "show everything" feed before the first position fix.
	UnknownAll UnknownPolicy = iota
	// UnknownNone treats no alert as nearby.
	UnknownNone
)

// AlertDistance pairs an alert with its computed distance from the user.
type AlertDistance struct {
	Alert      alerts.Alert `json:"alert"`
	DistanceKm float64      `json:"distance_km"`
}

// PositionFunc supplies the current user position; ok is false while the
// tracker has not produced a fix yet.
type PositionFunc func() (geo.Point, bool)

// Filter derives proximity views from an alert store and a live position.
type Filter struct {
	store    *alerts.Store
	position PositionFunc
}

// NewFilter creates a proximity filter over the given store and position
// supplier.
func NewFilter(store *alerts.Store, position PositionFunc) *Filter {
	return &Filter{store: store, position: position}
}

// Nearby returns the alerts strictly within radiusKm of the current user
// position, preserving store order. The policy decides what happens when the
// position is unknown.
func (f *Filter) Nearby(radiusKm float64, policy UnknownPolicy) []alerts.Alert {
	user, ok := f.position()
	if !ok {
		if policy == UnknownNone {
			return nil
		}
		return f.store.Snapshot()
	}

	var nearby []alerts.Alert
	for a := range f.store.All() {
		if geo.DistanceKm(user, a.Position) < radiusKm {
			nearby = append(nearby, a)
		}
	}
	return nearby
}

// WithDistance pairs every alert with its distance from the current user
// position, preserving store order. It never filters; distances are zero
// while the position is unknown.
func (f *Filter) WithDistance() []AlertDistance {
	user, ok := f.position()

	var out []AlertDistance
	for a := range f.store.All() {
		d := 0.0
		if ok {
			d = geo.DistanceKm(user, a.Position)
		}
		out = append(out, AlertDistance{Alert: a, DistanceKm: d})
	}
	return out
}

// SortedByDistance returns the WithDistance view ordered nearest first.
// Ties in distance keep the original store order.
func (f *Filter) SortedByDistance() []AlertDistance {
	out := f.WithDistance()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	return out
}
