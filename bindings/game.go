// Package bindings holds the structs bound to the Wails frontend.
package bindings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	wruntime "github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"github.com/MJE43/roulette-desktop/internal/chart"
	"github.com/MJE43/roulette-desktop/internal/config"
	"github.com/MJE43/roulette-desktop/internal/engine"
	"github.com/MJE43/roulette-desktop/internal/livehttp"
	"github.com/MJE43/roulette-desktop/internal/metrics"
	"github.com/MJE43/roulette-desktop/internal/rng"
	"github.com/MJE43/roulette-desktop/internal/roulette"
	"github.com/MJE43/roulette-desktop/internal/spinlog"
)

// StateEvent is emitted with an engine.Snapshot on every state change.
const StateEvent = "game:state"

// App owns the game session, its spin ledger and the optional local HTTP
// API. Only the GameModule returned by Game is bound to the frontend; the
// lifecycle methods stay on App so the UI cannot call them.
type App struct {
	mu sync.Mutex

	cfg      config.Config
	game     *GameModule
	emitter  *wailsGameEmitter
	store    *spinlog.Store
	recorder *spinlog.Recorder
	metrics  *metrics.Collector
	server   *livehttp.Server
	log      *zap.Logger
}

// GameModule holds the methods the frontend calls.
type GameModule struct {
	cfg      config.Config
	engine   *engine.Engine
	store    *spinlog.Store
	recorder *spinlog.Recorder
	seeded   *rng.Seeded
}

// wailsGameEmitter forwards engine snapshots as StateEvent. Snapshots older
// than the last one sent are dropped: a placed spin and its reveal are
// emitted from different goroutines and may reach here out of order.
type wailsGameEmitter struct {
	mu   sync.Mutex
	ctx  context.Context
	last uint64
	emit func(ctx context.Context, name string, data ...any)
}

func (e *wailsGameEmitter) setContext(ctx context.Context) {
	e.mu.Lock()
	e.ctx = ctx
	e.mu.Unlock()
}

func (e *wailsGameEmitter) EmitState(snap engine.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx == nil || snap.Version <= e.last {
		return
	}
	e.last = snap.Version
	e.emit(e.ctx, StateEvent, snap)
}

// ChartData is the frontend payload for the balance chart. Visible is false
// until the history has two points.
type ChartData struct {
	Visible bool       `json:"visible"`
	View    chart.View `json:"view"`
	SVG     string     `json:"svg"`
}

// Fairness describes the outcome source.
type Fairness struct {
	Mode           string `json:"mode"`
	ServerSeedHash string `json:"serverSeedHash,omitempty"`
	ClientSeed     string `json:"clientSeed,omitempty"`
	NextNonce      uint64 `json:"nextNonce,omitempty"`
}

// WheelPocket is a pocket in physical wheel order.
type WheelPocket struct {
	roulette.PocketInfo
	Angle float64 `json:"angle"`
}

// NewApp builds the session from cfg. Call Startup from the Wails OnStartup
// hook and Shutdown from OnBeforeClose.
func NewApp(cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{
		cfg:     cfg,
		emitter: &wailsGameEmitter{emit: wruntime.EventsEmit},
		log:     log.Named("game"),
	}

	bet, err := cfg.DefaultBet()
	if err != nil {
		return nil, err
	}

	game := &GameModule{cfg: cfg}
	var src rng.Source = rng.NewCrypto()
	if cfg.RNG.Mode == config.RNGSeeded {
		game.seeded = rng.NewSeeded(cfg.RNG.ServerSeed, cfg.RNG.ClientSeed, 1)
		src = game.seeded
	}

	store, err := spinlog.Open("")
	if err != nil {
		return nil, err
	}
	a.store = store
	a.recorder = spinlog.NewRecorder(store, cfg.SpinLog.FlushSize, a.log)
	a.metrics = metrics.New()

	eng, err := engine.New(engine.Options{
		StartingBalance:  cfg.Game.StartingBalance,
		DefaultBet:       bet,
		RevealDelay:      cfg.Game.RevealDelay,
		SimulationRounds: cfg.Game.SimulationRounds,
		Source:           src,
		Emitter:          a.emitter,
		Recorders:        []engine.SpinRecorder{a.recorder, a.metrics},
		Logger:           log.Named("engine"),
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	game.engine = eng
	game.store = store
	game.recorder = a.recorder
	a.game = game
	return a, nil
}

// Game returns the struct to bind to the frontend.
func (a *App) Game() *GameModule { return a.game }

// Startup stores the Wails context and starts the local HTTP API if enabled.
func (a *App) Startup(ctx context.Context) error {
	a.emitter.setContext(ctx)

	if !a.cfg.HTTP.Enabled {
		return nil
	}
	srv := livehttp.New(livehttp.Options{
		Port:    a.cfg.HTTP.Port,
		Token:   a.cfg.HTTP.Token,
		Game:    a.game.engine,
		Ledger:  a.store,
		Flusher: a.recorder,
		Metrics: a.metrics.Handler(),
		Chart:   a.cfg.Chart,
		Logger:  a.log,
	})
	if err := srv.Start(); err != nil {
		return fmt.Errorf("start local api on %s: %w", srv.Addr(), err)
	}
	a.mu.Lock()
	a.server = srv
	a.mu.Unlock()
	return nil
}

// Shutdown stops the HTTP API, closes the session and the ledger.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	srv := a.server
	a.server = nil
	a.mu.Unlock()
	a.emitter.setContext(nil)

	var errs []error
	if srv != nil {
		errs = append(errs, srv.Shutdown(ctx))
	}
	errs = append(errs, a.game.engine.Close(), a.store.Close())
	return errors.Join(errs...)
}

// ------------- Wails binding methods (UI calls) -------------

func (m *GameModule) GetState() engine.Snapshot {
	return m.engine.State()
}

// SetBetKind accepts "number", "color" or "evenOdd".
func (m *GameModule) SetBetKind(kind string) (engine.Snapshot, error) {
	k, err := roulette.ParseKind(kind)
	if err != nil {
		return engine.Snapshot{}, err
	}
	return m.engine.SetBetKind(k)
}

func (m *GameModule) SetSelector(selector string) (engine.Snapshot, error) {
	return m.engine.SetSelector(selector)
}

func (m *GameModule) SetStake(amount int64) (engine.Snapshot, error) {
	return m.engine.SetStake(amount)
}

// Spin places the configured bet. The outcome arrives later as a StateEvent.
func (m *GameModule) Spin() (engine.Snapshot, error) {
	return m.engine.Spin()
}

func (m *GameModule) PlaceBet(bet roulette.Bet) (engine.Snapshot, error) {
	return m.engine.PlaceBet(bet)
}

// Simulate runs the batch simulation; rounds <= 0 uses the configured default.
func (m *GameModule) Simulate(rounds int) (engine.SimulationResult, error) {
	return m.engine.RunSimulation(rounds)
}

func (m *GameModule) Reset() (engine.Snapshot, error) {
	return m.engine.Reset()
}

func (m *GameModule) GetChart() (ChartData, error) {
	snap := m.engine.State()
	v, err := chart.Build(snap.History, snap.StartingBalance, m.cfg.Chart)
	if errors.Is(err, chart.ErrTooShort) {
		return ChartData{}, nil
	}
	if err != nil {
		return ChartData{}, err
	}
	var svg strings.Builder
	if err := chart.RenderSVG(&svg, v); err != nil {
		return ChartData{}, err
	}
	return ChartData{Visible: true, View: v, SVG: svg.String()}, nil
}

// GetSpins returns a page of the current session's spins, newest first.
func (m *GameModule) GetSpins(page, perPage int) (*spinlog.SpinsPage, error) {
	m.recorder.Flush()
	return m.store.ListSpins(m.engine.SessionID(), page, perPage)
}

func (m *GameModule) GetSessions() ([]spinlog.SessionSummary, error) {
	m.recorder.Flush()
	return m.store.Sessions()
}

func (m *GameModule) GetWheel() []WheelPocket {
	out := make([]WheelPocket, 0, roulette.PocketCount)
	for _, n := range roulette.WheelOrder {
		a, _ := roulette.PocketAngle(n)
		out = append(out, WheelPocket{PocketInfo: roulette.Describe(n), Angle: a})
	}
	return out
}

func (m *GameModule) GetFairness() Fairness {
	if m.seeded == nil {
		return Fairness{Mode: config.RNGCrypto}
	}
	return Fairness{
		Mode:           config.RNGSeeded,
		ServerSeedHash: m.seeded.ServerSeedHash(),
		ClientSeed:     m.cfg.RNG.ClientSeed,
		NextNonce:      m.seeded.Nonce(),
	}
}

// VerifySpin recomputes the pocket a seeded session drew at nonce.
func (m *GameModule) VerifySpin(serverSeed, clientSeed string, nonce uint64) (roulette.PocketInfo, error) {
	if serverSeed == "" {
		return roulette.PocketInfo{}, fmt.Errorf("server seed is required")
	}
	if nonce == 0 {
		return roulette.PocketInfo{}, fmt.Errorf("nonce must be >= 1")
	}
	return roulette.Describe(rng.Verify(serverSeed, clientSeed, nonce, roulette.PocketCount)), nil
}
