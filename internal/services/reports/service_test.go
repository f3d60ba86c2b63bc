package reports

import (
	"sync"
	"testing"
	"time"

	"crowdwatch-go/internal/apperr"
	"crowdwatch-go/internal/models"
)

type recordingBroadcaster struct {
	mu       sync.Mutex
	channels []string
	payloads []interface{}
}

func (r *recordingBroadcaster) Publish(eventID, channel string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = append(r.channels, channel)
	r.payloads = append(r.payloads, payload)
}

func (r *recordingBroadcaster) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels)
}

func newTestService() (*Service, *recordingBroadcaster) {
	router := &recordingBroadcaster{}
	now := func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) }
	return NewServiceWithClock(router, now), router
}

func TestCreate_BroadcastsReportNew(t *testing.T) {
	svc, router := newTestService()

	report, err := svc.Create(Input{EventID: "ev", Message: "bottleneck at gate 4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Type != "other" {
		t.Errorf("type should default to other, got %q", report.Type)
	}
	if report.Attachments == nil {
		t.Error("attachments should serialize as an empty array, not null")
	}

	if router.count() != 1 || router.channels[0] != models.ChannelReportNew {
		t.Fatalf("expected one report:new broadcast, got %v", router.channels)
	}
}

func TestCreate_InvalidPayload(t *testing.T) {
	svc, router := newTestService()

	bad := []Input{
		{Message: "no event"},
		{EventID: "ev"},
		{},
	}
	for _, input := range bad {
		if _, err := svc.Create(input); apperr.CodeOf(err) != apperr.CodeInvalidPayload {
			t.Errorf("input %+v: expected INVALID_PAYLOAD, got %v", input, err)
		}
	}
	if router.count() != 0 {
		t.Errorf("rejected reports must not broadcast, got %d", router.count())
	}
}

func TestCreate_IdempotentRetry(t *testing.T) {
	svc, router := newTestService()

	first, err := svc.Create(Input{EventID: "ev", Message: "medic needed", IdempotencyKey: "retry-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Create(Input{EventID: "ev", Message: "medic needed", IdempotencyKey: "retry-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("retry returned a new report: %s vs %s", second.ID, first.ID)
	}
	if got := len(svc.List("ev")); got != 1 {
		t.Errorf("expected 1 stored report, got %d", got)
	}
	if router.count() != 1 {
		t.Errorf("retry must not re-broadcast, got %d messages", router.count())
	}
}

func TestCreate_DistinctKeysAreDistinctReports(t *testing.T) {
	svc, _ := newTestService()

	a, _ := svc.Create(Input{EventID: "ev", Message: "same text", IdempotencyKey: "key-a"})
	b, _ := svc.Create(Input{EventID: "ev", Message: "same text", IdempotencyKey: "key-b"})
	if a.ID == b.ID {
		t.Error("different keys must not dedupe")
	}

	c, _ := svc.Create(Input{EventID: "ev", Message: "same text"})
	d, _ := svc.Create(Input{EventID: "ev", Message: "same text"})
	if c.ID == d.ID {
		t.Error("keyless reports must never dedupe")
	}
}

func TestList_NewestFirst(t *testing.T) {
	svc, _ := newTestService()

	first, _ := svc.Create(Input{EventID: "ev", Message: "first"})
	second, _ := svc.Create(Input{EventID: "ev", Message: "second"})
	svc.Create(Input{EventID: "other", Message: "elsewhere"})

	got := svc.List("ev")
	if len(got) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(got))
	}
	if got[0].ID != second.ID || got[1].ID != first.ID {
		t.Error("reports should list newest first")
	}
}
