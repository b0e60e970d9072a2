package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nooreldin2735/exams-console/internal/config"
	"github.com/nooreldin2735/exams-console/internal/handler"
	"github.com/nooreldin2735/exams-console/internal/model"
	"github.com/nooreldin2735/exams-console/internal/router"
	"github.com/nooreldin2735/exams-console/internal/service"
	"github.com/nooreldin2735/exams-console/internal/upstream"
	"github.com/nooreldin2735/exams-console/internal/validator"
)

const testToken = "integration-token"

type fixture struct {
	console *httptest.Server

	mu          sync.Mutex
	examPayload *model.CreateExamPayload
	seenAuth    string
}

// newFixture wires the full console router against a fake upstream API.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}

	mux := http.NewServeMux()
	mux.HandleFunc("/years", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.seenAuth = r.Header.Get("Authorization")
		f.mu.Unlock()
		w.Write([]byte(`[{"ID":1,"Name":"2026"}]`))
	})
	mux.HandleFunc("/lectures", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"ID":5,"Name":"Kinematics","Subject_id":3}]`))
	})
	mux.HandleFunc("/questions", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"ID":10,"text_url":"Pick: $0","type":"0","ans":"A","lecture_id":5}]`))
	})
	mux.HandleFunc("/exams/create", func(w http.ResponseWriter, r *http.Request) {
		var payload model.CreateExamPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode exam payload: %v", err)
		}
		f.mu.Lock()
		f.examPayload = &payload
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	})
	fakeUpstream := httptest.NewServer(mux)
	t.Cleanup(fakeUpstream.Close)

	cfg := &config.Config{
		GinMode:         "release",
		UpstreamBaseURL: fakeUpstream.URL,
		UpstreamTimeout: 2 * time.Second,
		CatalogCacheTTL: time.Minute,
		SessionTTL:      time.Hour,
	}

	validator.Setup()
	log := zerolog.Nop()
	api := upstream.NewClient(cfg, log)
	catalog := service.NewCatalogService(api, nil, cfg.CatalogCacheTTL, log)
	compose := service.NewComposeService(catalog, api, cfg.SessionTTL, log)

	handlers := &router.Handlers{
		Catalog: handler.NewCatalogHandler(catalog),
		Compose: handler.NewComposeHandler(compose),
		Text:    handler.NewTextHandler(),
		WS:      handler.NewWSHandler(compose, log, nil),
	}

	f.console = httptest.NewServer(router.SetupRouter(handlers, cfg))
	t.Cleanup(f.console.Close)
	return f
}

// call issues an authenticated JSON request and decodes the data envelope.
func (f *fixture) call(t *testing.T, method, path string, body any, wantStatus int) map[string]json.RawMessage {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, f.console.URL+path, reader)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+testToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: status %d, want %d, body %s", method, path, resp.StatusCode, wantStatus, raw)
	}

	var envelope struct {
		Data     map[string]json.RawMessage `json:"data"`
		Metadata struct {
			RequestID string `json:"request_id"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, raw)
	}
	if envelope.Metadata.RequestID == "" {
		t.Fatalf("missing request id in metadata: %s", raw)
	}
	return envelope.Data
}

type sessionView struct {
	SessionID   string `json:"session_id"`
	State       string `json:"state"`
	LectureID   *int64 `json:"lecture_id"`
	PoolSize    int    `json:"pool_size"`
	PickedCount int    `json:"picked_count"`
}

func decodeSession(t *testing.T, data map[string]json.RawMessage) sessionView {
	t.Helper()
	var s sessionView
	if err := json.Unmarshal(data["session"], &s); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return s
}

func TestHealthNeedsNoToken(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.console.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status %d", resp.StatusCode)
	}
}

func TestTokenRequired(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.console.URL + "/api/v1/years")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", resp.StatusCode)
	}
}

func TestCatalogForwardsToken(t *testing.T) {
	f := newFixture(t)
	data := f.call(t, http.MethodGet, "/api/v1/years", nil, http.StatusOK)

	var years []model.Year
	if err := json.Unmarshal(data["years"], &years); err != nil {
		t.Fatal(err)
	}
	if len(years) != 1 || years[0].Name != "2026" {
		t.Fatalf("years %+v", years)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seenAuth != "Bearer "+testToken {
		t.Fatalf("upstream saw auth %q", f.seenAuth)
	}
}

func TestComposeEndToEnd(t *testing.T) {
	f := newFixture(t)

	data := f.call(t, http.MethodPost, "/api/v1/compose", map[string]any{"subject_id": 3}, http.StatusCreated)
	sess := decodeSession(t, data)
	if sess.State != "pick_lecture" {
		t.Fatalf("initial state %s", sess.State)
	}
	base := "/api/v1/compose/" + sess.SessionID

	// Author one fresh question.
	f.call(t, http.MethodPost, base+"/skip-lecture", nil, http.StatusOK)
	f.call(t, http.MethodPost, base+"/action", map[string]any{"action": "create_new"}, http.StatusOK)
	data = f.call(t, http.MethodPost, base+"/questions", map[string]any{
		"question":     "Explain $0",
		"questionType": model.QuestionTypeWritten,
		"answers":      "inertia",
		"attachments":  []map[string]any{{"type": "img", "link": "https://img.test/x.png"}},
	}, http.StatusCreated)
	if sess = decodeSession(t, data); sess.PoolSize != 1 || sess.State != "pick_lecture" {
		t.Fatalf("after authoring: %+v", sess)
	}

	// Import the lecture's question.
	f.call(t, http.MethodPost, base+"/lecture", map[string]any{"lecture_id": 5}, http.StatusOK)
	f.call(t, http.MethodPost, base+"/action", map[string]any{"action": "pick_from_lecture"}, http.StatusOK)
	data = f.call(t, http.MethodGet, base+"/pickable", nil, http.StatusOK)
	var pickable []struct {
		ID       *int64 `json:"ID"`
		Selected bool   `json:"selected"`
	}
	if err := json.Unmarshal(data["questions"], &pickable); err != nil {
		t.Fatal(err)
	}
	if len(pickable) != 1 || pickable[0].Selected {
		t.Fatalf("pickable %+v", pickable)
	}

	data = f.call(t, http.MethodPost, base+"/bulk-toggle", nil, http.StatusOK)
	if sess = decodeSession(t, data); sess.PickedCount != 1 {
		t.Fatalf("picked %d", sess.PickedCount)
	}
	data = f.call(t, http.MethodPost, base+"/confirm", nil, http.StatusOK)
	if sess = decodeSession(t, data); sess.PoolSize != 2 || sess.State != "choose_action" {
		t.Fatalf("after confirm: %+v", sess)
	}

	// Submit and inspect what reached the upstream.
	f.call(t, http.MethodPost, base+"/submit", map[string]any{
		"title": "Unit 1 Quiz",
		"settings": map[string]any{
			"Duration_min": 45,
			"StartAt":      "2026-09-10T09:00",
			"EndAt":        "2026-09-10T10:00",
		},
	}, http.StatusCreated)

	f.mu.Lock()
	payload := f.examPayload
	f.mu.Unlock()
	if payload == nil {
		t.Fatal("no payload reached the upstream")
	}
	if payload.Title != "Unit 1 Quiz" || len(payload.Questions) != 2 {
		t.Fatalf("payload %+v", payload)
	}
	if payload.Settings.StartAt != "2026-09-10T09:00:00" {
		t.Fatalf("StartAt not padded: %s", payload.Settings.StartAt)
	}

	// One entry must be the bare reference id 10.
	foundRef := false
	for _, q := range payload.Questions {
		if n, ok := q.(float64); ok && n == 10 {
			foundRef = true
		}
	}
	if !foundRef {
		t.Fatalf("no bare-id reference entry in %v", payload.Questions)
	}

	// The session is gone after submit.
	resp, err := http.NewRequest(http.MethodGet, f.console.URL+base, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Header.Set("Authorization", "Bearer "+testToken)
	res, err := http.DefaultClient.Do(resp)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("submitted session still reachable: %d", res.StatusCode)
	}
}

func TestRenderQuestionText(t *testing.T) {
	f := newFixture(t)

	data := f.call(t, http.MethodPost, "/api/v1/questions/render", map[string]any{
		"text":        "Look at $0 and #$5",
		"attachments": []map[string]any{{"type": "img", "link": "https://img.test/a.png"}},
	}, http.StatusOK)

	var parts []struct {
		Kind string `json:"kind"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data["parts"], &parts); err != nil {
		t.Fatal(err)
	}
	if len(parts) != 3 {
		t.Fatalf("parts %+v", parts)
	}
	if parts[0].Kind != "text" || parts[1].Kind != "chip" || parts[2].Kind != "text" {
		t.Fatalf("part kinds %+v", parts)
	}
	if parts[2].Text != " and #$5" {
		t.Fatalf("escape not honored: %q", parts[2].Text)
	}
}

func TestWizardGuardsOverHTTP(t *testing.T) {
	f := newFixture(t)

	data := f.call(t, http.MethodPost, "/api/v1/compose", map[string]any{"subject_id": 3}, http.StatusCreated)
	sess := decodeSession(t, data)
	base := "/api/v1/compose/" + sess.SessionID

	// pick_from_lecture without lecture context is a 400.
	f.call(t, http.MethodPost, base+"/skip-lecture", nil, http.StatusOK)
	req, _ := json.Marshal(map[string]any{"action": "pick_from_lecture"})
	resp, err := http.Post(f.console.URL+base+"/action", "application/json", bytes.NewReader(req))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	// Without a token the request never reaches the wizard.
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("tokenless action status %d", resp.StatusCode)
	}

	hreq, err := http.NewRequest(http.MethodPost, f.console.URL+base+"/action", bytes.NewReader(req))
	if err != nil {
		t.Fatal(err)
	}
	hreq.Header.Set("Authorization", "Bearer "+testToken)
	hreq.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(hreq)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("lectureless pick status %d", res.StatusCode)
	}
}
