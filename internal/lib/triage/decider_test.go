package triage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruamjai/ruamjai/internal/lib/alerts"
	"github.com/ruamjai/ruamjai/internal/lib/geo"
)

var bangkok = geo.Point{Latitude: 13.7563, Longitude: 100.5018}

func alertAt(id string, p geo.Point) alerts.Alert {
	return alerts.Alert{
		ID:        id,
		Category:  alerts.CategoryFire,
		Severity:  alerts.SeverityCritical,
		Position:  p,
		CreatedAt: time.Now(),
		Status:    alerts.StatusPending,
	}
}

func TestDecider_SameCoordinatesPresents(t *testing.T) {
	d := NewDecider()

	decision := d.Evaluate(alertAt("here", bangkok), bangkok, true)

	assert.True(t, decision.Interrupt)
	assert.Equal(t, 0.0, decision.DistanceKm)

	state := d.State()
	assert.Equal(t, PhasePresenting, state.Phase)
	require.NotNil(t, state.Active)
	assert.Equal(t, "here", state.Active.ID)
}

func TestDecider_BeyondRadiusStaysIdle(t *testing.T) {
	d := NewDecider()
	// ~0.055 degrees on one axis is a bit over 6 km.
	far := geo.Offset(bangkok, 0.055, 0)
	require.Greater(t, geo.DistanceKm(bangkok, far), 6.0)

	decision := d.Evaluate(alertAt("far", far), bangkok, true)

	assert.False(t, decision.Interrupt)
	assert.Equal(t, PhaseIdle, d.State().Phase)
}

func TestDecider_SingleSlotNoPreemption(t *testing.T) {
	d := NewDecider()

	first := d.Evaluate(alertAt("first", bangkok), bangkok, true)
	require.True(t, first.Interrupt)

	second := d.Evaluate(alertAt("second", bangkok), bangkok, true)
	assert.False(t, second.Interrupt, "a qualifying alert must not preempt the presenting one")

	state := d.State()
	require.NotNil(t, state.Active)
	assert.Equal(t, "first", state.Active.ID)
}

func TestDecider_DismissReturnsToIdle(t *testing.T) {
	d := NewDecider()
	d.Evaluate(alertAt("a", bangkok), bangkok, true)

	d.Dismiss()
	assert.Equal(t, PhaseIdle, d.State().Phase)

	// Dismiss is unconditional and idempotent.
	d.Dismiss()
	assert.Equal(t, PhaseIdle, d.State().Phase)
}

func TestDecider_NavigateDismissesAndHandsOffDestination(t *testing.T) {
	d := NewDecider()
	spot := geo.Offset(bangkok, 0.002, 0.002)
	d.Evaluate(alertAt("a", spot), bangkok, true)

	dest, ok := d.Navigate()
	require.True(t, ok)
	assert.Equal(t, spot, dest)
	assert.Equal(t, PhaseIdle, d.State().Phase, "navigate dismisses as a side effect")

	_, ok = d.Navigate()
	assert.False(t, ok, "nothing to navigate to once idle")
}

func TestDecider_UnknownPositionCountsAsZeroDistance(t *testing.T) {
	d := NewDecider()
	far := geo.Offset(bangkok, 1, 1)

	decision := d.Evaluate(alertAt("a", far), geo.Point{}, false)

	assert.True(t, decision.Interrupt)
	assert.Equal(t, 0.0, decision.DistanceKm)
}

func TestDecider_EvaluateAfterDismissCanPresentAgain(t *testing.T) {
	d := NewDecider()
	a := alertAt("a", bangkok)

	require.True(t, d.Evaluate(a, bangkok, true).Interrupt)
	d.Dismiss()

	// Explicit re-trigger is the only re-evaluation path; it succeeds once
	// the slot is free again.
	assert.True(t, d.Evaluate(a, bangkok, true).Interrupt)
}

func TestDecider_StateReturnsCopy(t *testing.T) {
	d := NewDecider()
	d.Evaluate(alertAt("a", bangkok), bangkok, true)

	state := d.State()
	state.Active.ID = "mutated"

	assert.Equal(t, "a", d.State().Active.ID, "callers must not be able to mutate decider state")
}
