package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruamjai/ruamjai/internal/feed"
	"github.com/ruamjai/ruamjai/internal/lib/alerts"
	"github.com/ruamjai/ruamjai/internal/lib/classify"
	"github.com/ruamjai/ruamjai/internal/lib/geo"
	"github.com/ruamjai/ruamjai/internal/lib/tracker"
	"github.com/ruamjai/ruamjai/internal/lib/triage"
)

// frozen tracker options: a simulated walk that never ticks, so the
// position stays wherever the mode seeded it for the whole test.
func frozenTracker() tracker.Options {
	return tracker.Options{TickInterval: time.Hour}
}

// blockingClassifier holds every Classify call until released.
type blockingClassifier struct {
	release chan struct{}
	result  classify.Result
}

func (b *blockingClassifier) Classify(ctx context.Context, text string) classify.Result {
	<-b.release
	return b.result
}

func incidentAt(id string, p geo.Point) alerts.Alert {
	return alerts.Alert{
		ID:          id,
		Category:    alerts.CategoryFire,
		Severity:    alerts.SeverityCritical,
		Description: "กลุ่มควันสีดำ",
		Position:    p,
		CreatedAt:   time.Now(),
		Status:      alerts.StatusPending,
	}
}

func TestSession_SeedBacklogNeverInterrupts(t *testing.T) {
	var interrupts []alerts.Alert
	s := NewSession(Options{
		Tracker:     frozenTracker(),
		OnInterrupt: func(a alerts.Alert) { interrupts = append(interrupts, a) },
	})
	defer s.Close()

	feed.NewProducer(s).Seed()

	assert.Empty(t, interrupts)
	assert.Equal(t, triage.PhaseIdle, s.TriageState().Phase)

	// Before the first fix every alert counts as nearby.
	nearby := s.NearbyAlerts()
	require.Len(t, nearby, 4)
	assert.Equal(t, "seed-1", nearby[0].ID)
}

func TestSession_IncomingNearbyAlertInterrupts(t *testing.T) {
	var interrupts []alerts.Alert
	s := NewSession(Options{
		Tracker:     frozenTracker(),
		OnInterrupt: func(a alerts.Alert) { interrupts = append(interrupts, a) },
	})
	defer s.Close()
	s.StartSimulatedWalk()

	user, ok := s.Position()
	require.True(t, ok)

	s.HandleIncoming(incidentAt("near-1", user))

	require.Len(t, interrupts, 1)
	assert.Equal(t, "near-1", interrupts[0].ID)

	state := s.TriageState()
	assert.Equal(t, triage.PhasePresenting, state.Phase)
	require.NotNil(t, state.Active)
	assert.Equal(t, "near-1", state.Active.ID)
}

func TestSession_FarAlertStoredButSilent(t *testing.T) {
	var interrupts []alerts.Alert
	s := NewSession(Options{
		Tracker:     frozenTracker(),
		OnInterrupt: func(a alerts.Alert) { interrupts = append(interrupts, a) },
	})
	defer s.Close()
	s.StartSimulatedWalk()

	user, _ := s.Position()
	far := geo.Offset(user, 0.1, 0.1) // well past the interrupt radius

	s.HandleIncoming(incidentAt("far-1", far))

	assert.Empty(t, interrupts)
	assert.Equal(t, triage.PhaseIdle, s.TriageState().Phase)

	// Still in the store, just filtered out of the nearby view.
	_, found := s.Store().Get("far-1")
	assert.True(t, found)
	assert.Empty(t, s.NearbyAlerts())
}

func TestSession_SingleSlotNoPreemption(t *testing.T) {
	var interrupts []alerts.Alert
	s := NewSession(Options{
		Tracker:     frozenTracker(),
		OnInterrupt: func(a alerts.Alert) { interrupts = append(interrupts, a) },
	})
	defer s.Close()
	s.StartSimulatedWalk()

	user, _ := s.Position()
	s.HandleIncoming(incidentAt("first", user))
	s.HandleIncoming(incidentAt("second", user))

	require.Len(t, interrupts, 1)
	assert.Equal(t, "first", s.TriageState().Active.ID)

	// After dismissal the second alert can be presented explicitly.
	s.DismissAlert()
	assert.True(t, s.Retrigger("second"))
	assert.Equal(t, "second", s.TriageState().Active.ID)
}

func TestSession_DuplicateIncomingDropped(t *testing.T) {
	s := NewSession(Options{Tracker: frozenTracker()})
	defer s.Close()
	s.StartSimulatedWalk()

	user, _ := s.Position()
	s.HandleIncoming(incidentAt("dup", user))
	s.DismissAlert()
	s.HandleIncoming(incidentAt("dup", user))

	assert.Equal(t, 1, s.Store().Len())
	assert.Equal(t, triage.PhaseIdle, s.TriageState().Phase, "a duplicate must not be re-triaged")
}

func TestSession_NavigateHandsOffDestination(t *testing.T) {
	s := NewSession(Options{Tracker: frozenTracker()})
	defer s.Close()
	s.StartSimulatedWalk()

	user, _ := s.Position()
	incident := incidentAt("nav-1", geo.Offset(user, 0.001, 0.001))
	s.HandleIncoming(incident)

	dest, ok := s.NavigateToAlert()
	require.True(t, ok)
	assert.Equal(t, incident.Position, dest)

	// Navigation dismisses the overlay and records the destination.
	assert.Equal(t, triage.PhaseIdle, s.TriageState().Phase)
	got, ok := s.Destination()
	require.True(t, ok)
	assert.Equal(t, incident.Position, got)

	s.CancelNavigation()
	_, ok = s.Destination()
	assert.False(t, ok)
}

func TestSession_NavigateWithoutPresentingAlert(t *testing.T) {
	s := NewSession(Options{Tracker: frozenTracker()})
	defer s.Close()

	_, ok := s.NavigateToAlert()
	assert.False(t, ok)
	_, ok = s.Destination()
	assert.False(t, ok)
}

func TestSession_ApplyStatusMergesById(t *testing.T) {
	s := NewSession(Options{Tracker: frozenTracker()})
	defer s.Close()
	feed.NewProducer(s).Seed()

	s.ApplyStatus("seed-1", alerts.StatusResolved)
	got, ok := s.Store().Get("seed-1")
	require.True(t, ok)
	assert.Equal(t, alerts.StatusResolved, got.Status)

	// Unknown ids are tolerated.
	s.ApplyStatus("no-such-id", alerts.StatusResolved)
	assert.Equal(t, 4, s.Store().Len())
}

func TestSession_ConfirmReportFilesPendingAlert(t *testing.T) {
	s := NewSession(Options{Tracker: frozenTracker()})
	defer s.Close()
	s.StartSimulatedWalk()

	draft := s.ClassifyNow(context.Background(), "ยางแตกกลางถนน ช่วยด้วย")
	require.NotEmpty(t, draft.Token)

	created, err := s.ConfirmReport(draft.Token)
	require.NoError(t, err)

	user, _ := s.Position()
	assert.Equal(t, user, created.Position)
	assert.Equal(t, LocalReporterLabel, created.ReporterLabel)
	assert.Equal(t, alerts.StatusPending, created.Status)
	assert.Equal(t, "ยางแตกกลางถนน ช่วยด้วย", created.Description)

	// The user's own report never interrupts them.
	assert.Equal(t, triage.PhaseIdle, s.TriageState().Phase)

	// A draft confirms exactly once.
	_, err = s.ConfirmReport(draft.Token)
	assert.ErrorIs(t, err, ErrUnknownDraft)
}

func TestSession_ReportWithoutPositionFails(t *testing.T) {
	s := NewSession(Options{Tracker: frozenTracker()})
	defer s.Close()

	_, err := s.SubmitQuickReport(alerts.CategoryPolice, "เห็นคนทะเลาะกัน", alerts.SeverityHigh)
	assert.ErrorIs(t, err, ErrNoPosition)
}

func TestSession_QuickReportUsesCurrentPosition(t *testing.T) {
	s := NewSession(Options{Tracker: frozenTracker()})
	defer s.Close()
	s.StartSimulatedWalk()

	created, err := s.SubmitQuickReport(alerts.CategoryMedical, "คนเป็นลม", alerts.SeverityHigh)
	require.NoError(t, err)
	assert.Equal(t, alerts.CategoryMedical, created.Category)
	assert.Equal(t, alerts.SeverityHigh, created.Severity)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 1, s.Store().Len())
}

func TestSession_StaleClassificationResultDiscarded(t *testing.T) {
	blocker := &blockingClassifier{
		release: make(chan struct{}),
		result: classify.Result{
			Category: alerts.CategoryFire,
			Severity: alerts.SeverityCritical,
			Advice:   "ออกจากอาคาร",
			Summary:  "ไฟไหม้",
		},
	}
	s := NewSession(Options{Tracker: frozenTracker(), Classifier: blocker})
	defer s.Close()
	s.StartSimulatedWalk()

	token := s.StartClassification(context.Background(), "ไฟไหม้")
	s.CancelClassification()
	close(blocker.release)

	// The late result must be discarded, never stored.
	assert.Eventually(t, func() bool {
		_, ok := s.Draft(token)
		return !ok
	}, time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	_, ok := s.Draft(token)
	assert.False(t, ok)
	_, err := s.ConfirmReport(token)
	assert.ErrorIs(t, err, ErrUnknownDraft)
}

func TestSession_NewerRequestSupersedesOlder(t *testing.T) {
	blocker := &blockingClassifier{
		release: make(chan struct{}),
		result:  classify.SafeDefault(),
	}
	s := NewSession(Options{Tracker: frozenTracker(), Classifier: blocker})
	defer s.Close()
	s.StartSimulatedWalk()

	first := s.StartClassification(context.Background(), "first report")
	second := s.StartClassification(context.Background(), "second report")
	close(blocker.release)

	assert.Eventually(t, func() bool {
		_, ok := s.Draft(second)
		return ok
	}, time.Second, 10*time.Millisecond)

	_, ok := s.Draft(first)
	assert.False(t, ok, "the superseded request's result must be discarded")
}

func TestSession_OfflineClassifierEchoesInput(t *testing.T) {
	s := NewSession(Options{Tracker: frozenTracker()})
	defer s.Close()

	draft := s.ClassifyNow(context.Background(), "help needed")
	assert.Equal(t, alerts.CategoryGeneral, draft.Result.Category)
	assert.Equal(t, "help needed", draft.Result.Summary)
	assert.False(t, draft.Result.Degraded)
}
