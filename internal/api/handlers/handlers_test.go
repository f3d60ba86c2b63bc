package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"crowdwatch-go/internal/config"
	"crowdwatch-go/internal/models"
	"crowdwatch-go/internal/services/actions"
	"crowdwatch-go/internal/services/alerting"
	"crowdwatch-go/internal/services/ingest"
	"crowdwatch-go/internal/services/prediction"
	"crowdwatch-go/internal/services/reports"
	"crowdwatch-go/internal/spatial"
)

type recordingBroadcaster struct {
	mu       sync.Mutex
	channels []string
}

func (r *recordingBroadcaster) Publish(eventID, channel string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = append(r.channels, channel)
}

func (r *recordingBroadcaster) seen(channel string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.channels {
		if c == channel {
			return true
		}
	}
	return false
}

func testConfig() *config.Config {
	return &config.Config{
		Version:                "test",
		WindowTTL:              900 * time.Second,
		DefaultWindowSec:       300,
		DensityCellDeg:         0.001,
		DetectionLowThreshold:  30,
		DetectionHighThreshold: 60,
		AlertCooldown:          60 * time.Second,
		InsightTimeout:         time.Second,
		PredictionTimeout:      time.Second,
		DefaultHorizonMin:      5,
		BreakerMaxFailures:     5,
		BreakerOpenFor:         15 * time.Second,
	}
}

// newTestRouter mirrors the server's route table over in-memory services
func newTestRouter(t *testing.T) (*gin.Engine, *recordingBroadcaster) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	broadcaster := &recordingBroadcaster{}
	window := spatial.NewWindow(cfg.WindowTTL)
	alertSvc := alerting.NewService(cfg, nil, nil)
	ingestSvc := ingest.NewService(cfg, window, alertSvc, broadcaster, nil, nil)

	ingestHandler := NewIngestHandler(ingestSvc)
	mapHandler := NewMapHandler(ingestSvc)
	alertHandler := NewAlertHandler(alertSvc, broadcaster)
	aiHandler := NewAIHandler(prediction.NewService(cfg), broadcaster)
	reportHandler := NewReportHandler(reports.NewService(broadcaster))
	actionHandler := NewActionHandler(actions.NewService(broadcaster))

	r := gin.New()
	api := r.Group("/api")
	api.POST("/pings", ingestHandler.IngestPing)
	api.POST("/cctv/objects", ingestHandler.IngestDetections)
	api.GET("/map", mapHandler.Snapshot)
	api.GET("/alerts", alertHandler.List)
	api.POST("/alerts/:id/resolve", alertHandler.Resolve)
	api.GET("/ai/insights", aiHandler.Insights)
	api.GET("/ai/predictions", aiHandler.Predictions)
	api.POST("/reports", reportHandler.Create)
	api.GET("/reports", reportHandler.List)
	api.POST("/actions", actionHandler.Create)
	api.GET("/actions", actionHandler.List)
	return r, broadcaster
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("malformed error envelope %q: %v", w.Body.String(), err)
	}
	return body.Error.Code
}

func TestIngestPing_Accepted(t *testing.T) {
	r, broadcaster := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/pings", `{"eventId":"ev","lat":51.5,"lng":-0.12}`, nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", w.Code, w.Body.String())
	}
	if !broadcaster.seen(models.ChannelMapUpdate) {
		t.Error("accepted ping should broadcast map:update")
	}
}

func TestIngestPing_Rejections(t *testing.T) {
	r, _ := newTestRouter(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing lat", `{"eventId":"ev","lng":-0.12}`},
		{"missing event", `{"lat":51.5,"lng":-0.12}`},
		{"malformed json", `{"eventId":`},
	}
	for _, tc := range cases {
		w := doJSON(t, r, http.MethodPost, "/api/pings", tc.body, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tc.name, w.Code)
		}
		if code := errorCode(t, w); code != "INVALID_PAYLOAD" {
			t.Errorf("%s: code = %q, want INVALID_PAYLOAD", tc.name, code)
		}
	}
}

func TestMapSnapshot_Endpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	for i := 0; i < 3; i++ {
		doJSON(t, r, http.MethodPost, "/api/pings", `{"eventId":"ev","lat":51.5001,"lng":-0.1201}`, nil)
	}

	w := doJSON(t, r, http.MethodGet, "/api/map?eventId=ev&bbox=-1,51,0,52", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var snap models.MapUpdate
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if len(snap.Points) != 3 || len(snap.Density) != 1 {
		t.Errorf("expected 3 points in 1 cell, got %d points %d cells", len(snap.Points), len(snap.Density))
	}
}

func TestMapSnapshot_ErrorCodes(t *testing.T) {
	r, _ := newTestRouter(t)

	cases := []struct {
		path string
		code string
	}{
		{"/api/map?bbox=0,0,1,1", "MISSING_EVENT"},
		{"/api/map?eventId=ev&bbox=10,10,5,5", "INVALID_BBOX"},
		{"/api/map?eventId=ev&bbox=-200,0,10,10", "INVALID_BBOX"},
		{"/api/map?eventId=ev&bbox=junk", "INVALID_BBOX"},
		{"/api/map?eventId=ev&bbox=0,0,1,1&windowSec=abc", "INVALID_PAYLOAD"},
	}
	for _, tc := range cases {
		w := doJSON(t, r, http.MethodGet, tc.path, "", nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tc.path, w.Code)
		}
		if code := errorCode(t, w); code != tc.code {
			t.Errorf("%s: code = %q, want %s", tc.path, code, tc.code)
		}
	}
}

func TestDetectionToResolveFlow(t *testing.T) {
	r, broadcaster := newTestRouter(t)

	objects := `[` + strings.Repeat(`{"label":"person"},`, 60) + `{"label":"person"}]`
	w := doJSON(t, r, http.MethodPost, "/api/cctv/objects", `{"eventId":"ev","cameraId":"cam-1","objects":`+objects+`}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("ingest status = %d: %s", w.Code, w.Body.String())
	}
	var result DetectionResultResponse
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil || result.AlertID == "" {
		t.Fatalf("expected an alertId in %s", w.Body.String())
	}
	if !broadcaster.seen(models.ChannelAlertNew) {
		t.Error("firing rule should broadcast alert:new")
	}

	w = doJSON(t, r, http.MethodGet, "/api/alerts?eventId=ev", "", nil)
	var list AlertListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || len(list.Alerts) != 1 {
		t.Fatalf("expected 1 alert, got %s", w.Body.String())
	}
	if list.Alerts[0].Severity != models.AlertSeverityHigh {
		t.Errorf("severity = %s, want high", list.Alerts[0].Severity)
	}

	w = doJSON(t, r, http.MethodPost, "/api/alerts/"+result.AlertID+"/resolve", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("resolve status = %d: %s", w.Code, w.Body.String())
	}
	if !broadcaster.seen(models.ChannelAlertUpdated) {
		t.Error("resolving should broadcast alert:updated")
	}

	// second resolve is a no-op, not an error
	w = doJSON(t, r, http.MethodPost, "/api/alerts/"+result.AlertID+"/resolve", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("repeat resolve status = %d, want 200", w.Code)
	}
}

func TestResolve_UnknownAlert(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/alerts/nope/resolve", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if code := errorCode(t, w); code != "NOT_FOUND" {
		t.Errorf("code = %q, want NOT_FOUND", code)
	}
}

func TestAlertList_RequiresEvent(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/alerts", "", nil)
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "MISSING_EVENT" {
		t.Errorf("expected 400 MISSING_EVENT, got %d %s", w.Code, w.Body.String())
	}
}

func TestReports_IdempotentRetry(t *testing.T) {
	r, _ := newTestRouter(t)

	headers := map[string]string{"Idempotency-Key": "retry-9"}
	w1 := doJSON(t, r, http.MethodPost, "/api/reports", `{"eventId":"ev","message":"crush risk at stage left"}`, headers)
	w2 := doJSON(t, r, http.MethodPost, "/api/reports", `{"eventId":"ev","message":"crush risk at stage left"}`, headers)
	if w1.Code != http.StatusAccepted || w2.Code != http.StatusAccepted {
		t.Fatalf("statuses = %d, %d, want 202", w1.Code, w2.Code)
	}

	var first, second models.Report
	json.Unmarshal(w1.Body.Bytes(), &first)
	json.Unmarshal(w2.Body.Bytes(), &second)
	if first.ID == "" || first.ID != second.ID {
		t.Errorf("retry should return the original report: %q vs %q", first.ID, second.ID)
	}
}

func TestActions_CreateAndList(t *testing.T) {
	r, broadcaster := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/actions", `{"eventId":"ev","command":"open_gate","zoneId":"north"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var action models.Action
	if err := json.Unmarshal(w.Body.Bytes(), &action); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if action.CreatedBy != "anonymous" {
		t.Errorf("createdBy = %q, want anonymous without auth", action.CreatedBy)
	}
	if !broadcaster.seen(models.ChannelActionCreated) {
		t.Error("creating should broadcast action:created")
	}

	w = doJSON(t, r, http.MethodGet, "/api/actions?eventId=ev", "", nil)
	var list ActionListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || len(list.Actions) != 1 {
		t.Fatalf("expected 1 action, got %s", w.Body.String())
	}
}

func TestInsights_NeverErrorsWithoutPredictor(t *testing.T) {
	r, broadcaster := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/ai/insights?eventId=ev", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even with no predictor", w.Code)
	}
	var insight models.Insight
	if err := json.Unmarshal(w.Body.Bytes(), &insight); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if insight.Freshness != models.FreshnessUnavailable {
		t.Errorf("freshness = %s, want unavailable", insight.Freshness)
	}
	if !broadcaster.seen(models.ChannelInsightUpdate) {
		t.Error("insight query should broadcast insight:update")
	}
}

func TestPredictions_RequiresEvent(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/ai/predictions", "", nil)
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "MISSING_EVENT" {
		t.Errorf("expected 400 MISSING_EVENT, got %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/ai/predictions?eventId=ev", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var result models.PredictionResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if result.HorizonMinutes != 5 {
		t.Errorf("horizon = %d, want default 5", result.HorizonMinutes)
	}
}
