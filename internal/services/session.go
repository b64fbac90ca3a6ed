// Package services hosts the session: the single logical thread of control
// that owns the tracker, the alert store, the proximity views, the triage
// decider, and the classification flow. All state mutations funnel through
// the session and are serialized, so position updates, feed events, and
// classification effects never race each other.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dpup/prefab/logging"
	"github.com/google/uuid"

	"github.com/ruamjai/ruamjai/internal/lib/alerts"
	"github.com/ruamjai/ruamjai/internal/lib/classify"
	"github.com/ruamjai/ruamjai/internal/lib/geo"
	"github.com/ruamjai/ruamjai/internal/lib/proximity"
	"github.com/ruamjai/ruamjai/internal/lib/tracker"
	"github.com/ruamjai/ruamjai/internal/lib/triage"
)

// ErrNoPosition signals that a report cannot be placed because the tracker
// has not produced a position yet.
var ErrNoPosition = errors.New("services: user position unknown")

// ErrUnknownDraft signals a confirmation for a draft that does not exist or
// was superseded.
var ErrUnknownDraft = errors.New("services: unknown classification draft")

// LocalReporterLabel is attached to alerts authored on this device.
const LocalReporterLabel = "ฉัน (Me)"

// Draft is a completed classification awaiting user confirmation.
type Draft struct {
	Token  string          `json:"token"`
	Text   string          `json:"text"`
	Result classify.Result `json:"result"`
}

// Options configures a Session.
type Options struct {
	Tracker    tracker.Options
	RadiusKm   float64
	Classifier classify.Classifier
	// OnInterrupt fires when a newly arrived alert wins triage; the UI
	// layer hooks sound and the full-screen overlay here.
	OnInterrupt func(alerts.Alert)
}

// Session wires the triage engine together and exposes the views consumed
// by presentation collaborators.
type Session struct {
	mu sync.Mutex

	store    *alerts.Store
	filter   *proximity.Filter
	decider  *triage.Decider
	tracker  *tracker.Tracker
	radiusKm float64

	destination *geo.Point

	classifier  classify.Classifier
	activeToken string
	drafts      map[string]Draft

	onInterrupt func(alerts.Alert)
}

// NewSession builds a session from the given options.
func NewSession(opts Options) *Session {
	s := &Session{
		store:       alerts.NewStore(),
		decider:     triage.NewDecider(),
		radiusKm:    opts.RadiusKm,
		classifier:  opts.Classifier,
		drafts:      make(map[string]Draft),
		onInterrupt: opts.OnInterrupt,
	}
	if s.radiusKm <= 0 {
		s.radiusKm = proximity.DefaultRadiusKm
	}
	if s.classifier == nil {
		s.classifier = classify.NewClassifier(classify.Config{})
	}

	s.tracker = tracker.New(opts.Tracker)
	s.filter = proximity.NewFilter(s.store, s.tracker.Current)
	return s
}

// Tracking modes. Each switch fully tears down the previous mode first.

// StartSimulatedWalk switches the tracker to the deterministic walk.
func (s *Session) StartSimulatedWalk() {
	s.tracker.StartSimulation()
}

// StartLiveTracking switches the tracker to the positioning source.
func (s *Session) StartLiveTracking(src tracker.PositionSource) error {
	return s.tracker.StartLive(src)
}

// StartRouteWalk switches the tracker to a simulated walk along an encoded
// route.
func (s *Session) StartRouteWalk(encoded string) error {
	return s.tracker.StartRoute(encoded)
}

// StopTracking tears down the active tracking mode.
func (s *Session) StopTracking() {
	s.tracker.Stop()
}

// Position returns the current user position; ok is false before the first
// fix.
func (s *Session) Position() (geo.Point, bool) {
	return s.tracker.Current()
}

// Views.

// NearbyAlerts returns alerts within the session radius, in store order.
// Before the first position fix every alert counts as nearby, matching the
// initial "show everything" feed.
func (s *Session) NearbyAlerts() []alerts.Alert {
	return s.filter.Nearby(s.radiusKm, proximity.UnknownAll)
}

// AlertsWithDistance returns every alert paired with its distance, in store
// order.
func (s *Session) AlertsWithDistance() []proximity.AlertDistance {
	return s.filter.WithDistance()
}

// AlertsSortedByDistance returns every alert paired with its distance,
// nearest first.
func (s *Session) AlertsSortedByDistance() []proximity.AlertDistance {
	return s.filter.SortedByDistance()
}

// TriageState returns the decider state for the overlay.
func (s *Session) TriageState() triage.State {
	return s.decider.State()
}

// Feed ingestion. The session is the feed producer's sink.

// Preload appends a backlog alert without running triage. Used for the
// seed feed a fresh client receives; backlog never interrupts.
func (s *Session) Preload(a alerts.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Append(a); err != nil {
		logging.Warnw(logging.EnsureLogger(context.Background()), "Dropping preloaded alert", "alert_id", a.ID, "error", err)
	}
}

// HandleIncoming appends an externally produced alert and runs triage
// against the position at this instant. Duplicate ids are rejected by the
// store and never re-triaged.
func (s *Session) HandleIncoming(a alerts.Alert) {
	s.mu.Lock()
	if err := s.store.Append(a); err != nil {
		s.mu.Unlock()
		logging.Warnw(logging.EnsureLogger(context.Background()), "Dropping feed alert", "alert_id", a.ID, "error", err)
		return
	}

	user, known := s.tracker.Current()
	decision := s.decider.Evaluate(a, user, known)
	s.mu.Unlock()

	// The hook runs outside the session lock so it may call back in.
	if decision.Interrupt && s.onInterrupt != nil {
		s.onInterrupt(a)
	}
}

// ApplyStatus merges an external status transition by id. Unknown ids are a
// silent no-op.
func (s *Session) ApplyStatus(id string, status alerts.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.UpsertStatus(id, status)
}

// Retrigger re-runs triage for an alert already in the store, the only
// re-evaluation path besides arrival.
func (s *Session) Retrigger(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.store.Get(id)
	if !ok {
		return false
	}
	user, known := s.tracker.Current()
	return s.decider.Evaluate(a, user, known).Interrupt
}

// Triage actions.

// DismissAlert closes the interrupting overlay unconditionally.
func (s *Session) DismissAlert() {
	s.decider.Dismiss()
}

// NavigateToAlert dismisses the overlay and records the presenting alert's
// position as the navigation destination for the map collaborator.
func (s *Session) NavigateToAlert() (geo.Point, bool) {
	dest, ok := s.decider.Navigate()
	if !ok {
		return geo.Point{}, false
	}

	s.mu.Lock()
	d := dest
	s.destination = &d
	s.mu.Unlock()
	return dest, true
}

// NavigateTo records an arbitrary destination, for feed entries that were
// never presented.
func (s *Session) NavigateTo(dest geo.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := dest
	s.destination = &d
}

// Destination returns the active navigation destination, if any.
func (s *Session) Destination() (geo.Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destination == nil {
		return geo.Point{}, false
	}
	return *s.destination, true
}

// CancelNavigation clears the navigation destination.
func (s *Session) CancelNavigation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destination = nil
}

// Classification flow. Each request carries a token; a result arriving
// after the user left the flow (or started a newer request) is discarded
// rather than aborted in transport, so a late response can never corrupt
// session state.

// StartClassification begins classifying the report text and returns the
// request token. The completed draft becomes available via Draft.
func (s *Session) StartClassification(ctx context.Context, text string) string {
	token := uuid.NewString()

	s.mu.Lock()
	s.activeToken = token
	s.mu.Unlock()

	go func() {
		result := s.classifier.Classify(ctx, text)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.activeToken != token {
			logging.Infow(logging.EnsureLogger(ctx), "Discarding stale classification result", "token", token)
			return
		}
		s.drafts[token] = Draft{Token: token, Text: text, Result: result}
	}()

	return token
}

// ClassifyNow classifies synchronously and stores the draft, for callers
// that prefer to block on the single round trip.
func (s *Session) ClassifyNow(ctx context.Context, text string) Draft {
	token := uuid.NewString()

	s.mu.Lock()
	s.activeToken = token
	s.mu.Unlock()

	result := s.classifier.Classify(ctx, text)
	draft := Draft{Token: token, Text: text, Result: result}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeToken == token {
		s.drafts[token] = draft
	}
	return draft
}

// Draft returns the completed draft for a token, if it exists and was not
// superseded.
func (s *Session) Draft(token string) (Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[token]
	return d, ok
}

// CancelClassification abandons the in-flight classification; its late
// result, if any, will be discarded.
func (s *Session) CancelClassification() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeToken = ""
}

// ConfirmReport turns a completed draft into a new pending alert at the
// user's current position. The user's own report never interrupts them.
func (s *Session) ConfirmReport(token string) (alerts.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, ok := s.drafts[token]
	if !ok {
		return alerts.Alert{}, ErrUnknownDraft
	}
	delete(s.drafts, token)
	if s.activeToken == token {
		s.activeToken = ""
	}

	return s.appendLocalReportLocked(draft.Result.Category, draft.Text, draft.Result.Severity)
}

// SubmitQuickReport files a report without classification, used by the
// one-tap category buttons.
func (s *Session) SubmitQuickReport(category alerts.Category, description string, severity alerts.Severity) (alerts.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocalReportLocked(category, description, severity)
}

func (s *Session) appendLocalReportLocked(category alerts.Category, description string, severity alerts.Severity) (alerts.Alert, error) {
	user, known := s.tracker.Current()
	if !known {
		return alerts.Alert{}, ErrNoPosition
	}

	a := alerts.Alert{
		ID:            alerts.NewID(),
		Category:      category,
		Severity:      severity,
		Description:   description,
		Position:      user,
		CreatedAt:     time.Now(),
		ReporterLabel: LocalReporterLabel,
		Status:        alerts.StatusPending,
	}
	if err := s.store.Append(a); err != nil {
		return alerts.Alert{}, err
	}
	return a, nil
}

// Store exposes the underlying alert store to the feed producer wiring.
func (s *Session) Store() *alerts.Store {
	return s.store
}

// Close tears down the tracker and abandons any in-flight classification.
func (s *Session) Close() {
	s.CancelClassification()
	s.tracker.Stop()
}
