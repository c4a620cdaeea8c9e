package livehttp

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/MJE43/roulette-desktop/internal/chart"
	"github.com/MJE43/roulette-desktop/internal/engine"
	"github.com/MJE43/roulette-desktop/internal/rng"
	"github.com/MJE43/roulette-desktop/internal/roulette"
)

type healthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	SessionID string `json:"sessionId"`
	Game      string `json:"game"`
}

// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.game.State()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		SessionID: snap.SessionID,
		Game:      string(snap.Status),
	})
}

// GET /api/v1/state
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.game.State())
}

type panelRequest struct {
	Kind     *string `json:"kind,omitempty"`
	Selector *string `json:"selector,omitempty"`
	Stake    *int64  `json:"stake,omitempty"`
}

// POST /api/v1/panel changes the configured bet without spinning. The
// request is applied as a whole or not at all.
func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	var req panelRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	u := engine.PanelUpdate{Selector: req.Selector, Stake: req.Stake}
	if req.Kind != nil {
		kind, err := roulette.ParseKind(*req.Kind)
		if err != nil {
			s.writeError(w, r, NewError(ErrTypeInvalidBet, err.Error()).WithContext("field", "kind").Build())
			return
		}
		u.Kind = &kind
	}
	snap, err := s.game.UpdatePanel(u)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// POST /api/v1/bet places an explicit bet. The outcome is revealed after the
// reveal delay; poll /state or listen for the desktop event.
func (s *Server) handleBet(w http.ResponseWriter, r *http.Request) {
	var bet roulette.Bet
	if err := decodeBody(r, &bet); err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.game.PlaceBet(bet)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, snap)
}

// POST /api/v1/spin places the configured bet.
func (s *Server) handleSpin(w http.ResponseWriter, r *http.Request) {
	snap, err := s.game.Spin()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, snap)
}

type simulateRequest struct {
	Rounds int `json:"rounds"`
}

type simulateResponse struct {
	Result engine.SimulationResult `json:"result"`
	State  engine.Snapshot         `json:"state"`
}

// POST /api/v1/simulate with an optional {"rounds": n} body.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	res, err := s.game.RunSimulation(req.Rounds)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, simulateResponse{Result: res, State: s.game.State()})
}

// POST /api/v1/reset
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	snap, err := s.game.Reset()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) chartView() (chart.View, bool, error) {
	snap := s.game.State()
	v, err := chart.Build(snap.History, snap.StartingBalance, s.chart)
	if errors.Is(err, chart.ErrTooShort) {
		return chart.View{}, false, nil
	}
	return v, err == nil, err
}

// GET /api/v1/chart renders the balance chart page. 204 until the first spin.
func (s *Server) handleChartHTML(w http.ResponseWriter, r *http.Request) {
	v, ok, err := s.chartView()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := chart.RenderHTML(w, v, "Roulette balance"); err != nil {
		s.log.Warn("render chart html", zap.Error(err))
	}
}

// GET /api/v1/chart.svg
func (s *Server) handleChartSVG(w http.ResponseWriter, r *http.Request) {
	v, ok, err := s.chartView()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	if err := chart.RenderSVG(w, v); err != nil {
		s.log.Warn("render chart svg", zap.Error(err))
	}
}

// GET /api/v1/spins?session=&page=&perPage=
func (s *Server) handleSpins(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		s.writeError(w, r, NewError(ErrTypeNotFound, "spin ledger disabled").Build())
		return
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	session := r.URL.Query().Get("session")
	if session == "" {
		session = s.game.State().SessionID
	}
	page := clampInt(qInt(r, "page", 1), 1, 1_000_000)
	perPage := clampInt(qInt(r, "perPage", 50), 1, 500)

	res, err := s.ledger.ListSpins(session, page, perPage)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /api/v1/sessions
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		s.writeError(w, r, NewError(ErrTypeNotFound, "spin ledger disabled").Build())
		return
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	items, err := s.ledger.Sessions()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": items,
		"count":    len(items),
	})
}

type verifyResponse struct {
	ServerSeedHash string              `json:"serverSeedHash"`
	ClientSeed     string              `json:"clientSeed"`
	Nonce          uint64              `json:"nonce"`
	Pocket         roulette.PocketInfo `json:"pocket"`
}

// GET /api/v1/verify?server_seed=&client_seed=&nonce= recomputes a seeded draw.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	server, client := q.Get("server_seed"), q.Get("client_seed")
	if server == "" {
		s.writeError(w, r, NewError(ErrTypeInvalidParams, "server_seed is required").WithContext("field", "server_seed").Build())
		return
	}
	nonce, err := strconv.ParseUint(q.Get("nonce"), 10, 64)
	if err != nil || nonce == 0 {
		s.writeError(w, r, NewError(ErrTypeInvalidParams, "nonce must be >= 1").WithContext("field", "nonce").Build())
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{
		ServerSeedHash: rng.HashServerSeed(server),
		ClientSeed:     client,
		Nonce:          nonce,
		Pocket:         roulette.Describe(rng.Verify(server, client, nonce, roulette.PocketCount)),
	})
}

// GET /api/v1/pockets lists every pocket in wheel order with its angle.
func (s *Server) handlePockets(w http.ResponseWriter, r *http.Request) {
	type pocket struct {
		roulette.PocketInfo
		Angle float64 `json:"angle"`
	}
	out := make([]pocket, 0, roulette.PocketCount)
	for _, n := range roulette.WheelOrder {
		a, _ := roulette.PocketAngle(n)
		out = append(out, pocket{PocketInfo: roulette.Describe(n), Angle: a})
	}
	writeJSON(w, http.StatusOK, out)
}
