// Package feed is the external alert-feed boundary. The real transport is
// out of scope; this producer seeds the store with known alerts, fabricates
// incoming alerts near the user for demos, and replays external status
// transitions through the store's merge-by-id path.
package feed

import (
	"context"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ruamjai/ruamjai/internal/lib/alerts"
	"github.com/ruamjai/ruamjai/internal/lib/geo"
)

// SeedAlerts returns the built-in demo alerts around the Bangkok city
// center, oldest last, matching the feed a fresh client would receive.
func SeedAlerts() []alerts.Alert {
	now := time.Now()
	return []alerts.Alert{
		{
			ID:            "seed-1",
			Category:      alerts.CategoryCar,
			Severity:      alerts.SeverityMedium,
			Description:   "ยางแตก เปลี่ยนยางไม่เป็นครับ",
			Position:      geo.Point{Latitude: 13.7563, Longitude: 100.5018},
			CreatedAt:     now.Add(-15 * time.Minute),
			ReporterLabel: "สมชาย ใจดี",
			Status:        alerts.StatusPending,
		},
		{
			ID:            "seed-2",
			Category:      alerts.CategoryMedical,
			Severity:      alerts.SeverityHigh,
			Description:   "คนเป็นลม หน้ามืด",
			Position:      geo.Point{Latitude: 13.7600, Longitude: 100.5100},
			CreatedAt:     now.Add(-5 * time.Minute),
			ReporterLabel: "วิภาวี มีสุข",
			Status:        alerts.StatusAccepted,
		},
		{
			ID:            "seed-3",
			Category:      alerts.CategoryFire,
			Severity:      alerts.SeverityCritical,
			Description:   "กลุ่มควันสีดำหลังตลาด",
			Position:      geo.Point{Latitude: 13.7500, Longitude: 100.5050},
			CreatedAt:     now.Add(-2 * time.Minute),
			ReporterLabel: "ลุงพล ตลาดสด",
			Status:        alerts.StatusPending,
		},
		{
			ID:            "seed-4",
			Category:      alerts.CategoryPolice,
			Severity:      alerts.SeverityHigh,
			Description:   "พบคนเมาอาละวาด ขว้างปาขวด",
			Position:      geo.Point{Latitude: 13.7580, Longitude: 100.4950},
			CreatedAt:     now.Add(-30 * time.Minute),
			ReporterLabel: "ป้าน้อย ปากซอย 5",
			Status:        alerts.StatusPending,
		},
	}
}

// Sink is where the producer delivers feed events. Preload covers the
// initial backlog (append only, no triage), HandleIncoming covers new
// alerts (append plus triage), and status transitions go straight to the
// store's merge path.
type Sink interface {
	Preload(a alerts.Alert)
	HandleIncoming(a alerts.Alert)
	ApplyStatus(id string, status alerts.Status)
}

// Producer drives the mock feed. Run and Stop are safe to call from
// different goroutines.
type Producer struct {
	sink     Sink
	mu       sync.Mutex
	stopChan chan struct{}
	running  bool
}

// NewProducer creates a producer delivering into the given sink.
func NewProducer(sink Sink) *Producer {
	return &Producer{sink: sink}
}

// Seed preloads the built-in alerts in reverse so the first seed ends up
// at the front of the store. Preloaded alerts are backlog, not arrivals,
// and never trigger the interrupting overlay.
func (p *Producer) Seed() {
	seeds := SeedAlerts()
	for i := len(seeds) - 1; i >= 0; i-- {
		p.sink.Preload(seeds[i])
	}
}

// SimulatedIncident fabricates a new incoming alert within roughly 800
// meters of the given position, well inside the interruption radius.
func SimulatedIncident(near geo.Point) alerts.Alert {
	offsetLat := (rand.Float64() - 0.5) * 0.01
	offsetLng := (rand.Float64() - 0.5) * 0.01

	return alerts.Alert{
		ID:            "sim-" + uuid.NewString(),
		Category:      alerts.CategoryFire,
		Severity:      alerts.SeverityCritical,
		Description:   "ทดสอบแจ้งเตือนเหตุเพลิงไหม้ (Simulation)",
		Position:      geo.Offset(near, offsetLat, offsetLng),
		CreatedAt:     time.Now(),
		ReporterLabel: "ระบบทดสอบ",
		Status:        alerts.StatusPending,
	}
}

// EmitSimulated delivers a fabricated incident near the given position.
func (p *Producer) EmitSimulated(near geo.Point) alerts.Alert {
	a := SimulatedIncident(near)
	p.sink.HandleIncoming(a)
	return a
}

// Run replays external status transitions on the seeded alerts at the given
// interval until the context is cancelled or Stop is called: pending alerts
// get accepted, accepted ones get resolved. Unknown ids are tolerated by
// the store, so replays and reorderings are harmless.
func (p *Producer) Run(ctx context.Context, interval time.Duration) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	stopChan := make(chan struct{})
	p.stopChan = stopChan
	p.mu.Unlock()

	transitions := []struct {
		id     string
		status alerts.Status
	}{
		{"seed-3", alerts.StatusAccepted},
		{"seed-1", alerts.StatusAccepted},
		{"seed-2", alerts.StatusResolved},
		{"seed-3", alerts.StatusResolved},
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		next := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-stopChan:
				return
			case <-ticker.C:
				if next >= len(transitions) {
					return
				}
				tr := transitions[next]
				next++
				log.Printf("Feed: external status transition %s -> %s", tr.id, tr.status)
				p.sink.ApplyStatus(tr.id, tr.status)
			}
		}
	}()
}

// Stop halts the transition replay.
func (p *Producer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.running = false
	close(p.stopChan)
}
