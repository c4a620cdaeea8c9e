package livehttp

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/MJE43/roulette-desktop/internal/engine"
	"github.com/MJE43/roulette-desktop/internal/metrics"
	"github.com/MJE43/roulette-desktop/internal/rng"
	"github.com/MJE43/roulette-desktop/internal/roulette"
	"github.com/MJE43/roulette-desktop/internal/spinlog"
)

// stepScheduler records callbacks so tests can reveal spins on demand.
type stepScheduler struct {
	mu      sync.Mutex
	pending []func()
}

type noopTimer struct{}

func (noopTimer) Stop() bool { return true }

func (s *stepScheduler) AfterFunc(_ time.Duration, f func()) engine.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, f)
	return noopTimer{}
}

func (s *stepScheduler) reveal() {
	s.mu.Lock()
	fs := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, f := range fs {
		f()
	}
}

type fixture struct {
	srv   *httptest.Server
	eng   *engine.Engine
	sched *stepScheduler
	token string
}

func newFixture(t *testing.T, token string, outcomes ...int) *fixture {
	t.Helper()
	log := zaptest.NewLogger(t)

	store, err := spinlog.Open("")
	if err != nil {
		t.Fatalf("spinlog.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	rec := spinlog.NewRecorder(store, 10, log)
	m := metrics.New()

	sched := &stepScheduler{}
	eng, err := engine.New(engine.Options{
		StartingBalance: 100,
		Source:          rng.NewSequence(outcomes...),
		Scheduler:       sched,
		Recorders:       []engine.SpinRecorder{rec, m},
		Logger:          log,
	})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	t.Cleanup(func() { eng.Close() })

	s := New(Options{
		Token:   token,
		Game:    eng,
		Ledger:  store,
		Flusher: rec,
		Metrics: m.Handler(),
		Logger:  log,
	})
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, eng: eng, sched: sched, token: token}
}

func (f *fixture) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, rd)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if f.token != "" {
		req.Header.Set(TokenHeader, f.token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t, "secret")
	req, _ := http.NewRequest(http.MethodGet, f.srv.URL+"/health", nil)
	resp, err := f.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health without token = %d, want 200", resp.StatusCode)
	}
}

func TestTokenRequired(t *testing.T) {
	f := newFixture(t, "secret")
	f.token = "wrong"
	resp, body := f.do(t, http.MethodGet, "/api/v1/state", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	e := decode[EngineError](t, body)
	if e.Type != ErrTypeUnauthorized || e.RequestID == "" || e.Timestamp == "" {
		t.Errorf("error body = %+v", e)
	}
	if resp.Header.Get("X-Error-Category") != string(CategoryValidation) {
		t.Errorf("category header = %q", resp.Header.Get("X-Error-Category"))
	}
}

func TestBetAndReveal(t *testing.T) {
	f := newFixture(t, "", 17)

	resp, body := f.do(t, http.MethodPost, "/api/v1/bet", `{"kind":"number","selector":"17","amount":10}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d body = %s", resp.StatusCode, body)
	}
	snap := decode[engine.Snapshot](t, body)
	if snap.Status != engine.StatusSpinning || snap.Balance != 90 {
		t.Errorf("placed = %+v", snap)
	}

	resp, body = f.do(t, http.MethodPost, "/api/v1/spin", "")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("spin while spinning = %d, want 409", resp.StatusCode)
	}
	if e := decode[EngineError](t, body); e.Type != ErrTypeIllegalState {
		t.Errorf("error type = %s", e.Type)
	}

	f.sched.reveal()
	_, body = f.do(t, http.MethodGet, "/api/v1/state", "")
	snap = decode[engine.Snapshot](t, body)
	if snap.Balance != 450 || len(snap.History) != 2 || snap.LastOutcome == nil || snap.LastOutcome.Number != 17 {
		t.Errorf("resolved = %+v", snap)
	}
}

func TestInvalidBet(t *testing.T) {
	f := newFixture(t, "")
	tests := []struct {
		name   string
		body   string
		status int
		field  string
	}{
		{"stake over balance", `{"kind":"color","selector":"red","amount":101}`, http.StatusUnprocessableEntity, "amount"},
		{"zero stake", `{"kind":"color","selector":"red","amount":0}`, http.StatusUnprocessableEntity, "amount"},
		{"bad number", `{"kind":"number","selector":"99","amount":5}`, http.StatusUnprocessableEntity, "selector"},
		{"unknown field", `{"kind":"color","selector":"red","amount":5,"extra":1}`, http.StatusBadRequest, ""},
		{"not json", `nope`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := f.do(t, http.MethodPost, "/api/v1/bet", tt.body)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d (%s)", resp.StatusCode, tt.status, body)
			}
			e := decode[EngineError](t, body)
			if tt.field != "" && e.Context["field"] != tt.field {
				t.Errorf("field = %v, want %s", e.Context["field"], tt.field)
			}
		})
	}
	if s := f.eng.State(); s.Balance != 100 || s.Status != engine.StatusIdle {
		t.Errorf("rejected bets changed state: %+v", s)
	}
}

func TestPanel(t *testing.T) {
	f := newFixture(t, "")
	resp, body := f.do(t, http.MethodPost, "/api/v1/panel", `{"kind":"evenOdd","selector":"odd","stake":25}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d body = %s", resp.StatusCode, body)
	}
	snap := decode[engine.Snapshot](t, body)
	want := roulette.Bet{Kind: roulette.KindEvenOdd, Selector: "odd", Amount: 25}
	if snap.Bet != want {
		t.Errorf("bet = %+v, want %+v", snap.Bet, want)
	}

	resp, _ = f.do(t, http.MethodPost, "/api/v1/panel", `{"kind":"dozen"}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("unknown kind status = %d", resp.StatusCode)
	}
}

func TestPanelRejectedLeavesBetUnchanged(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"selector out of range for new kind", `{"kind":"number","selector":"99"}`, http.StatusUnprocessableEntity},
		{"selector wrong for new kind", `{"kind":"evenOdd","selector":"red","stake":50}`, http.StatusUnprocessableEntity},
		{"unknown kind with stake", `{"kind":"dozen","stake":50}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "")
			before := f.eng.Bet()
			resp, body := f.do(t, http.MethodPost, "/api/v1/panel", tt.body)
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d body = %s", resp.StatusCode, body)
			}
			if after := f.eng.Bet(); after != before {
				t.Errorf("bet changed from %+v to %+v", before, after)
			}
		})
	}
}

func TestPanelKindChangeWhileSpinningRejected(t *testing.T) {
	f := newFixture(t, "", 1)
	if resp, body := f.do(t, http.MethodPost, "/api/v1/spin", ""); resp.StatusCode != http.StatusAccepted {
		t.Fatalf("spin status = %d body = %s", resp.StatusCode, body)
	}
	before := f.eng.Bet()
	resp, _ := f.do(t, http.MethodPost, "/api/v1/panel", `{"kind":"number","stake":50}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	if after := f.eng.Bet(); after != before {
		t.Errorf("bet changed from %+v to %+v", before, after)
	}
	f.sched.reveal()
}

func TestSimulateAndLedger(t *testing.T) {
	f := newFixture(t, "", 1, 2)

	resp, body := f.do(t, http.MethodPost, "/api/v1/simulate", `{"rounds":4}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d body = %s", resp.StatusCode, body)
	}
	res := decode[simulateResponse](t, body)
	if res.Result.Played != 4 || res.State.Balance != 100 || len(res.State.History) != 5 {
		t.Errorf("simulate = %+v", res)
	}

	_, body = f.do(t, http.MethodGet, "/api/v1/spins?perPage=3", "")
	page := decode[spinlog.SpinsPage](t, body)
	if page.TotalCount != 4 || len(page.Spins) != 3 || page.Spins[0].Round != 4 {
		t.Errorf("spins page = %+v", page)
	}

	_, body = f.do(t, http.MethodGet, "/api/v1/sessions", "")
	if !bytes.Contains(body, []byte(f.eng.SessionID())) {
		t.Errorf("sessions = %s", body)
	}

	resp, body = f.do(t, http.MethodGet, "/metrics", "")
	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte(`roulette_spins_total{kind="color",simulated="true"} 4`)) {
		t.Errorf("metrics = %s", body)
	}
}

func TestSimulateDefaultRounds(t *testing.T) {
	f := newFixture(t, "", 1, 2)
	resp, body := f.do(t, http.MethodPost, "/api/v1/simulate", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d body = %s", resp.StatusCode, body)
	}
	if res := decode[simulateResponse](t, body); res.Result.Requested != engine.DefaultSimulationRounds {
		t.Errorf("requested = %d", res.Result.Requested)
	}
}

func TestChart(t *testing.T) {
	f := newFixture(t, "", 1)

	resp, _ := f.do(t, http.MethodGet, "/api/v1/chart.svg", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("chart before first spin = %d, want 204", resp.StatusCode)
	}

	f.do(t, http.MethodPost, "/api/v1/spin", "")
	f.sched.reveal()

	resp, body := f.do(t, http.MethodGet, "/api/v1/chart.svg", "")
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "image/svg+xml") {
		t.Fatalf("status = %d type = %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if !bytes.Contains(body, []byte("<polyline")) {
		t.Errorf("svg = %s", body)
	}

	resp, body = f.do(t, http.MethodGet, "/api/v1/chart", "")
	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte("Balance: $110")) {
		t.Errorf("chart page status = %d body = %s", resp.StatusCode, body)
	}
}

func TestReset(t *testing.T) {
	f := newFixture(t, "", 2)
	f.do(t, http.MethodPost, "/api/v1/spin", "")
	f.sched.reveal()

	resp, body := f.do(t, http.MethodPost, "/api/v1/reset", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if snap := decode[engine.Snapshot](t, body); snap.Balance != 100 || len(snap.History) != 1 {
		t.Errorf("reset = %+v", snap)
	}
}

func TestVerify(t *testing.T) {
	f := newFixture(t, "")
	resp, body := f.do(t, http.MethodGet, "/api/v1/verify?server_seed=s&client_seed=c&nonce=3", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d body = %s", resp.StatusCode, body)
	}
	v := decode[verifyResponse](t, body)
	if v.Pocket.Number != rng.Verify("s", "c", 3, roulette.PocketCount) || v.ServerSeedHash != rng.HashServerSeed("s") {
		t.Errorf("verify = %+v", v)
	}

	resp, _ = f.do(t, http.MethodGet, "/api/v1/verify?server_seed=s&nonce=0", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("nonce 0 status = %d", resp.StatusCode)
	}
}

func TestPockets(t *testing.T) {
	f := newFixture(t, "")
	_, body := f.do(t, http.MethodGet, "/api/v1/pockets", "")
	var out []struct {
		Number int     `json:"number"`
		Angle  float64 `json:"angle"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != roulette.PocketCount || out[0].Number != 0 || out[0].Angle != 0 {
		t.Errorf("pockets = %+v", out)
	}
}

func TestStartShutdown(t *testing.T) {
	eng, err := engine.New(engine.Options{Logger: zaptest.NewLogger(t)})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	defer eng.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	s := New(Options{Port: port, Game: eng, Logger: zaptest.NewLogger(t)})
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	resp, err := http.Get("http://" + s.Addr() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}
