package spatial

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"crowdwatch-go/internal/apperr"
	"crowdwatch-go/internal/models"
)

var testBox = BoundingBox{MinLng: -10, MinLat: -10, MaxLng: 10, MaxLat: 10}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func ping(eventID string, lat, lng float64, at time.Time) models.LocationPing {
	return models.LocationPing{EventID: eventID, Lat: lat, Lng: lng, CapturedAt: at}
}

func TestWindow_QueryTimeBoundaries(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	w := NewWindowWithClock(900*time.Second, fixedClock(now))

	window := 300 * time.Second
	cases := []struct {
		name       string
		capturedAt time.Time
		want       bool
	}{
		{"exactly at window floor is included", now.Add(-window), true},
		{"just inside window", now.Add(-window + time.Second), true},
		{"just outside window", now.Add(-window - time.Second), false},
		{"current instant", now, true},
		{"exactly at ttl is excluded", now.Add(-900 * time.Second), false},
	}

	for i, c := range cases {
		w.Record(ping(fmt.Sprintf("ev-%d", i), 1, 1, c.capturedAt))
	}

	for i, c := range cases {
		got, err := w.Query(fmt.Sprintf("ev-%d", i), testBox, window)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.name, err)
		}
		if (len(got) == 1) != c.want {
			t.Errorf("%s: got %d samples, want included=%v", c.name, len(got), c.want)
		}
	}
}

func TestWindow_TTLBoundaryWithFullWindow(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	w := NewWindowWithClock(900*time.Second, fixedClock(now))

	// Window equal to TTL: the window floor is inclusive but the ttl
	// floor is exclusive, and the ttl check wins at the shared instant.
	w.Record(ping("ev", 1, 1, now.Add(-900*time.Second)))
	w.Record(ping("ev", 2, 2, now.Add(-899*time.Second)))

	got, err := w.Query("ev", testBox, 900*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Lat != 2 {
		t.Errorf("expected only the sample inside the ttl, got %+v", got)
	}
}

func TestWindow_InsertionOrderIrrelevant(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	times := []time.Duration{-10 * time.Second, -500 * time.Second, -60 * time.Second, -200 * time.Second}
	orders := [][]int{{0, 1, 2, 3}, {3, 2, 1, 0}, {2, 0, 3, 1}}

	var counts []int
	for _, order := range orders {
		w := NewWindowWithClock(900*time.Second, fixedClock(now))
		for _, i := range order {
			w.Record(ping("ev", 1, 1, now.Add(times[i])))
		}
		got, err := w.Query("ev", testBox, 300*time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		counts = append(counts, len(got))
	}

	for _, c := range counts {
		if c != counts[0] {
			t.Errorf("query result depends on insertion order: %v", counts)
		}
	}
	if counts[0] != 3 {
		t.Errorf("expected 3 samples within 300s window, got %d", counts[0])
	}
}

func TestWindow_BBoxFiltering(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	w := NewWindowWithClock(900*time.Second, fixedClock(now))

	w.Record(ping("ev", 5, 5, now))
	w.Record(ping("ev", 50, 5, now))  // lat outside
	w.Record(ping("ev", 5, 120, now)) // lng outside
	w.Record(ping("ev", 10, 10, now)) // on the edge, inclusive

	got, err := w.Query("ev", testBox, 300*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 samples inside the box, got %d", len(got))
	}
}

func TestWindow_EventIsolation(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	w := NewWindowWithClock(900*time.Second, fixedClock(now))

	w.Record(ping("ev-a", 1, 1, now))
	w.Record(ping("ev-b", 2, 2, now))

	got, err := w.Query("ev-a", testBox, 300*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].EventID != "ev-a" {
		t.Errorf("query leaked samples across events: %+v", got)
	}
}

func TestWindow_QueryUnknownEvent(t *testing.T) {
	w := NewWindow(900 * time.Second)
	got, err := w.Query("nope", testBox, 300*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result for unknown event, got %d", len(got))
	}
}

func TestWindow_InvalidBBox(t *testing.T) {
	w := NewWindow(900 * time.Second)

	bad := []BoundingBox{
		{MinLng: 10, MinLat: 10, MaxLng: 5, MaxLat: 5},
		{MinLng: -200, MinLat: 0, MaxLng: 10, MaxLat: 10},
		{MinLng: 0, MinLat: 0, MaxLng: 0, MaxLat: 1},
		{MinLng: 0, MinLat: -95, MaxLng: 1, MaxLat: 1},
	}
	for _, box := range bad {
		if _, err := w.Query("ev", box, time.Minute); apperr.CodeOf(err) != apperr.CodeInvalidBBox {
			t.Errorf("box %+v: expected INVALID_BBOX, got %v", box, err)
		}
	}

	ok := BoundingBox{MinLng: 0, MinLat: 0, MaxLng: 1, MaxLat: 1}
	if _, err := w.Query("ev", ok, time.Minute); err != nil {
		t.Errorf("box %+v: expected acceptance, got %v", ok, err)
	}
}

func TestWindow_CompactionDropsExpired(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	w := NewWindowWithClock(900*time.Second, fixedClock(now))

	// Force a compaction pass by exceeding the append budget with
	// already-expired samples, then verify fresh ones survive.
	for i := 0; i < compactEvery; i++ {
		w.Record(ping("ev", 1, 1, now.Add(-2000*time.Second)))
	}
	w.Record(ping("ev", 1, 1, now))

	w.mu.RLock()
	ew := w.events["ev"]
	w.mu.RUnlock()
	ew.mu.RLock()
	retained := len(ew.samples)
	ew.mu.RUnlock()

	if retained != 1 {
		t.Errorf("expected compaction to retain 1 sample, got %d", retained)
	}
}

func TestWindow_Drop(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	w := NewWindowWithClock(900*time.Second, fixedClock(now))

	w.Record(ping("ev", 1, 1, now))
	w.Drop("ev")

	got, err := w.Query("ev", testBox, 300*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no samples after Drop, got %d", len(got))
	}
}

func TestWindow_ConcurrentRecordAndQuery(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	w := NewWindowWithClock(900*time.Second, fixedClock(now))

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			event := fmt.Sprintf("ev-%d", g%2)
			for i := 0; i < 200; i++ {
				w.Record(ping(event, 1, 1, now))
				if _, err := w.Query(event, testBox, 300*time.Second); err != nil {
					t.Errorf("query failed: %v", err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	got, err := w.Query("ev-0", testBox, 300*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 800 {
		t.Errorf("expected 800 samples for ev-0, got %d", len(got))
	}
}
