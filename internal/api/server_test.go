package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"macrorec/internal/config"
)

type engineStub struct {
	pauses int
	aborts int
	status Status
}

func (e *engineStub) hooks() Hooks {
	return Hooks{
		TogglePause: func() { e.pauses++ },
		Abort:       func() { e.aborts++ },
		Status:      func() Status { return e.status },
	}
}

func newTestServer(t *testing.T, token string) (*httptest.Server, *engineStub, *config.Manager) {
	t.Helper()

	mgr := config.NewManagerAt(filepath.Join(t.TempDir(), "config.json"))
	cfg := config.DefaultConfig()
	cfg.General.APIToken = token
	mgr.Set(cfg)

	engine := &engineStub{status: Status{Mode: "idle"}}
	s := NewServer(mgr, engine.hooks(), zerolog.Nop())
	s.token = token

	ts := httptest.NewServer(s.handler())
	t.Cleanup(ts.Close)
	return ts, engine, mgr
}

func TestStatusEndpoint(t *testing.T) {
	ts, engine, _ := newTestServer(t, "")
	engine.status = Status{Mode: "playing", Paused: true}

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET /api/status: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code = %d, want 200", resp.StatusCode)
	}

	var got Status
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if got.Mode != "playing" || !got.Paused {
		t.Errorf("status = %+v, want playing/paused", got)
	}
}

func TestPauseEndpointTogglesEngine(t *testing.T) {
	ts, engine, _ := newTestServer(t, "")

	resp, err := http.Post(ts.URL+"/api/pause", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /api/pause: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status code = %d, want 200", resp.StatusCode)
	}
	if engine.pauses != 1 {
		t.Errorf("pause toggles = %d, want 1", engine.pauses)
	}
}

func TestPauseEndpointRejectsGet(t *testing.T) {
	ts, engine, _ := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/api/pause")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status code = %d, want 405", resp.StatusCode)
	}
	if engine.pauses != 0 {
		t.Errorf("GET must not toggle pause")
	}
}

func TestAbortEndpoint(t *testing.T) {
	ts, engine, _ := newTestServer(t, "")

	resp, err := http.Post(ts.URL+"/api/abort", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status code = %d, want 200", resp.StatusCode)
	}
	if engine.aborts != 1 {
		t.Errorf("aborts = %d, want 1", engine.aborts)
	}
}

func TestAuthRequiredWhenTokenSet(t *testing.T) {
	ts, _, _ := newTestServer(t, "secret")

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token: status code = %d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("with token: status code = %d, want 200", resp.StatusCode)
	}

	// Health stays open for monitoring.
	resp, err = http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/health: status code = %d, want 200", resp.StatusCode)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	ts, _, mgr := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/api/config")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	var cfg config.Config
	if err := json.Unmarshal(body, &cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg.Playback.ScrollUnit != 120 {
		t.Errorf("scroll unit = %d, want default 120", cfg.Playback.ScrollUnit)
	}

	cfg.Playback.ScrollUnit = 40
	payload, _ := json.Marshal(cfg)
	resp, err = http.Post(ts.URL+"/api/config", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /api/config: status code = %d, want 200", resp.StatusCode)
	}

	if got := mgr.Get().Playback.ScrollUnit; got != 40 {
		t.Errorf("scroll unit after update = %d, want 40", got)
	}
}

func TestConfigRejectsInvalidJSON(t *testing.T) {
	ts, _, _ := newTestServer(t, "")

	resp, err := http.Post(ts.URL+"/api/config", "application/json", bytes.NewReader([]byte("{broken")))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status code = %d, want 400", resp.StatusCode)
	}
}
