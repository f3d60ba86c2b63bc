// Package spatial holds the per-event sliding window of location pings and
// the density grid computed from it.
package spatial

import (
	"sync"
	"time"

	"crowdwatch-go/internal/metrics"
	"crowdwatch-go/internal/models"
)

// compactEvery bounds how many appends an event window accepts before
// expired samples are swept, keeping Record amortized O(1).
const compactEvery = 1024

// Window retains each event's recent location pings for at most the
// configured TTL. Expiry is lazy: swept on insert, filtered on read.
// Each event has its own lock so independent events never contend.
type Window struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.RWMutex
	events map[string]*eventWindow
}

type eventWindow struct {
	mu           sync.RWMutex
	samples      []models.LocationPing
	sinceCompact int
}

// NewWindow creates a window with the given retention horizon
func NewWindow(ttl time.Duration) *Window {
	return NewWindowWithClock(ttl, time.Now)
}

// NewWindowWithClock creates a window with an injectable clock for tests
func NewWindowWithClock(ttl time.Duration, now func() time.Time) *Window {
	return &Window{
		ttl:    ttl,
		now:    now,
		events: make(map[string]*eventWindow),
	}
}

// Record inserts a ping into its event's window, amortized O(1)
func (w *Window) Record(ping models.LocationPing) {
	ew := w.eventFor(ping.EventID)

	ew.mu.Lock()
	defer ew.mu.Unlock()

	ew.samples = append(ew.samples, ping)
	ew.sinceCompact++
	if ew.sinceCompact >= compactEvery {
		ew.compact(ping.EventID, w.now(), w.ttl)
	}
}

// Query returns the pings for eventID captured within the trailing window
// and positioned inside box. The window boundary is inclusive, the TTL
// boundary exclusive. Readers see a consistent snapshot: the scan holds the
// event's read lock and returns a fresh slice.
func (w *Window) Query(eventID string, box BoundingBox, window time.Duration) ([]models.LocationPing, error) {
	if err := box.Validate(); err != nil {
		return nil, err
	}
	if window <= 0 || window > w.ttl {
		window = w.ttl
	}

	w.mu.RLock()
	ew, ok := w.events[eventID]
	w.mu.RUnlock()
	if !ok {
		return []models.LocationPing{}, nil
	}

	now := w.now()
	windowFloor := now.Add(-window)
	ttlFloor := now.Add(-w.ttl)

	ew.mu.RLock()
	defer ew.mu.RUnlock()

	out := make([]models.LocationPing, 0, len(ew.samples))
	for _, s := range ew.samples {
		if s.CapturedAt.Before(windowFloor) || !s.CapturedAt.After(ttlFloor) {
			continue
		}
		if !box.Contains(s.Lat, s.Lng) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// Drop discards all retained state for an event. Called on event teardown.
func (w *Window) Drop(eventID string) {
	w.mu.Lock()
	delete(w.events, eventID)
	w.mu.Unlock()
	metrics.WindowSamples.DeleteLabelValues(eventID)
}

func (w *Window) eventFor(eventID string) *eventWindow {
	w.mu.RLock()
	ew, ok := w.events[eventID]
	w.mu.RUnlock()
	if ok {
		return ew
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if ew, ok = w.events[eventID]; ok {
		return ew
	}
	ew = &eventWindow{}
	w.events[eventID] = ew
	return ew
}

// compact drops samples at or beyond the TTL horizon. Caller holds the
// event write lock.
func (ew *eventWindow) compact(eventID string, now time.Time, ttl time.Duration) {
	ttlFloor := now.Add(-ttl)
	kept := ew.samples[:0]
	for _, s := range ew.samples {
		if s.CapturedAt.After(ttlFloor) {
			kept = append(kept, s)
		}
	}
	ew.samples = kept
	ew.sinceCompact = 0
	metrics.WindowSamples.WithLabelValues(eventID).Set(float64(len(kept)))
}
