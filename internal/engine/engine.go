// Package engine implements the roulette session state machine: bet
// validation, the delayed spin resolution and the batch simulation.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MJE43/roulette-desktop/internal/rng"
	"github.com/MJE43/roulette-desktop/internal/roulette"
)

const (
	DefaultStartingBalance  = 1000
	DefaultStake            = 10
	DefaultRevealDelay      = 3 * time.Second
	DefaultSimulationRounds = 100
)

// Options configures a new Engine. Zero values fall back to the defaults above.
type Options struct {
	StartingBalance  int64
	DefaultBet       roulette.Bet
	RevealDelay      time.Duration
	SimulationRounds int

	Source    rng.Source
	Scheduler Scheduler
	Emitter   EventEmitter
	Recorders []SpinRecorder
	Logger    *zap.Logger
}

type pendingSpin struct {
	id      uint64
	bet     roulette.Bet
	outcome int
	timer   Timer
}

// Engine owns a single player session. All methods are safe for concurrent
// use; the reveal timer resolves spins from its own goroutine.
type Engine struct {
	mu sync.Mutex

	sessionID   string
	startBal    int64
	balance     int64
	history     []int64
	status      Status
	lastOutcome *int
	bet         roulette.Bet
	stats       *Statistics

	pending *pendingSpin
	spinSeq uint64
	round   int
	closed  bool
	version uint64

	revealDelay time.Duration
	simRounds   int
	source      rng.Source
	scheduler   Scheduler
	emitter     EventEmitter
	recorders   []SpinRecorder
	log         *zap.Logger
}

// New creates an idle session.
func New(opts Options) (*Engine, error) {
	if opts.StartingBalance == 0 {
		opts.StartingBalance = DefaultStartingBalance
	}
	if opts.StartingBalance < 0 {
		return nil, fmt.Errorf("engine: starting balance must be >= 0, got %d", opts.StartingBalance)
	}
	if opts.RevealDelay < 0 {
		return nil, fmt.Errorf("engine: reveal delay must be >= 0, got %s", opts.RevealDelay)
	}
	if opts.RevealDelay == 0 {
		opts.RevealDelay = DefaultRevealDelay
	}
	if opts.SimulationRounds <= 0 {
		opts.SimulationRounds = DefaultSimulationRounds
	}

	bet := opts.DefaultBet
	if bet.Kind == "" {
		bet.Kind = roulette.KindColor
	}
	if bet.Selector == "" {
		bet.Selector = roulette.DefaultSelector(bet.Kind)
	}
	if bet.Amount == 0 {
		bet.Amount = DefaultStake
	}
	sel, err := roulette.NormalizeSelector(bet.Kind, bet.Selector)
	if err != nil {
		return nil, fmt.Errorf("engine: default bet: %w", err)
	}
	bet.Selector = sel

	if opts.Source == nil {
		opts.Source = rng.NewCrypto()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = wallClock{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	e := &Engine{
		startBal:    opts.StartingBalance,
		bet:         bet,
		revealDelay: opts.RevealDelay,
		simRounds:   opts.SimulationRounds,
		source:      opts.Source,
		scheduler:   opts.Scheduler,
		emitter:     opts.Emitter,
		log:         opts.Logger,
	}
	for _, r := range opts.Recorders {
		if r != nil {
			e.recorders = append(e.recorders, r)
		}
	}
	e.resetLocked()
	return e, nil
}

func (e *Engine) resetLocked() {
	e.sessionID = uuid.NewString()
	e.balance = e.startBal
	e.history = []int64{e.startBal}
	e.status = StatusIdle
	e.lastOutcome = nil
	e.stats = NewStatistics(e.startBal)
	e.round = 0
}

// SessionID returns the id of the current session.
func (e *Engine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionID
}

// State returns the current snapshot.
func (e *Engine) State() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Bet returns the bet currently configured on the panel.
func (e *Engine) Bet() roulette.Bet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bet
}

// PanelUpdate changes any of the bet panel fields at once. Nil fields are
// left as they are.
type PanelUpdate struct {
	Kind     *roulette.Kind
	Selector *string
	Stake    *int64
}

// UpdatePanel validates the whole update and then applies it, so a rejected
// update changes nothing. A kind change resets the selector to the kind's
// default unless Selector is also given. Changing the kind is not allowed
// while spinning; selector and stake only affect the next spin.
func (e *Engine) UpdatePanel(u PanelUpdate) (Snapshot, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return Snapshot{}, illegalState("change the bet panel", StatusClosed)
	}
	next := e.bet
	if u.Kind != nil {
		kind := *u.Kind
		if err := e.checkIdleLocked("change bet kind"); err != nil {
			e.mu.Unlock()
			return Snapshot{}, err
		}
		if _, err := roulette.NormalizeSelector(kind, roulette.DefaultSelector(kind)); err != nil {
			e.mu.Unlock()
			return Snapshot{}, invalidBet("kind", kind, "unsupported", err)
		}
		if kind != next.Kind {
			next.Kind = kind
			next.Selector = roulette.DefaultSelector(kind)
		}
	}
	if u.Selector != nil {
		norm, err := roulette.NormalizeSelector(next.Kind, *u.Selector)
		if err != nil {
			e.mu.Unlock()
			return Snapshot{}, invalidBet("selector", *u.Selector, "not valid for "+string(next.Kind)+" bets", err)
		}
		next.Selector = norm
	}
	if u.Stake != nil {
		next.Amount = *u.Stake
	}
	e.bet = next
	snap := e.changedLocked()
	e.mu.Unlock()
	e.emit(snap)
	return snap, nil
}

// SetBetKind switches the bet kind. The selector resets to the kind's default
// when the kind changes. Not allowed while spinning.
func (e *Engine) SetBetKind(kind roulette.Kind) (Snapshot, error) {
	return e.UpdatePanel(PanelUpdate{Kind: &kind})
}

// SetSelector changes what the configured bet backs. It only affects the
// next spin, so it is allowed while spinning.
func (e *Engine) SetSelector(sel string) (Snapshot, error) {
	return e.UpdatePanel(PanelUpdate{Selector: &sel})
}

// SetStake changes the configured stake. Any integer is accepted here; the
// stake is checked against the balance when a spin is placed.
func (e *Engine) SetStake(amount int64) (Snapshot, error) {
	return e.UpdatePanel(PanelUpdate{Stake: &amount})
}

// Spin places the configured bet.
func (e *Engine) Spin() (Snapshot, error) {
	return e.PlaceBet(e.Bet())
}

// PlaceBet validates bet, debits the stake, draws the outcome and schedules
// its reveal. The outcome stays hidden until the reveal delay elapses.
func (e *Engine) PlaceBet(bet roulette.Bet) (Snapshot, error) {
	e.mu.Lock()
	if err := e.checkIdleLocked("place a bet"); err != nil {
		e.mu.Unlock()
		return Snapshot{}, err
	}
	if err := e.validateLocked(&bet); err != nil {
		id := e.sessionID
		e.mu.Unlock()
		e.log.Debug("bet rejected", zap.String("session", id), zap.Stringer("bet", bet), zap.Error(err))
		return Snapshot{}, err
	}

	outcome, err := e.source.Intn(roulette.PocketCount)
	if err != nil {
		e.mu.Unlock()
		return Snapshot{}, fmt.Errorf("engine: draw outcome: %w", err)
	}

	e.balance -= bet.Amount
	e.status = StatusSpinning
	e.lastOutcome = nil
	e.bet = bet
	e.spinSeq++
	p := &pendingSpin{id: e.spinSeq, bet: bet, outcome: outcome}
	p.timer = e.scheduler.AfterFunc(e.revealDelay, func() { e.resolveSpin(p.id) })
	e.pending = p

	snap := e.changedLocked()
	e.mu.Unlock()

	e.log.Debug("spin placed",
		zap.String("session", snap.SessionID),
		zap.Uint64("spin", p.id),
		zap.Stringer("bet", bet),
		zap.Int64("balance", snap.Balance),
	)
	e.emit(snap)
	return snap, nil
}

func (e *Engine) validateLocked(bet *roulette.Bet) error {
	sel, err := roulette.NormalizeSelector(bet.Kind, bet.Selector)
	if err != nil {
		return invalidBet("selector", bet.Selector, "not valid for "+string(bet.Kind)+" bets", err)
	}
	bet.Selector = sel
	if bet.Amount <= 0 {
		return invalidBet("amount", bet.Amount, "stake must be positive", nil)
	}
	if bet.Amount > e.balance {
		return invalidBet("amount", bet.Amount, fmt.Sprintf("stake exceeds balance %d", e.balance), nil)
	}
	return nil
}

// resolveSpin applies the outcome of spin id. It runs at most once per spin:
// a stale id, a second firing or a closed session is ignored.
func (e *Engine) resolveSpin(id uint64) {
	e.mu.Lock()
	p := e.pending
	if e.closed || p == nil || p.id != id {
		e.mu.Unlock()
		return
	}
	e.pending = nil

	payout, win := roulette.Resolve(p.bet, p.outcome)
	e.balance += payout
	e.history = append(e.history, e.balance)
	outcome := p.outcome
	e.lastOutcome = &outcome
	e.status = StatusIdle
	e.stats.RecordSpin(p.bet.Amount, payout, e.balance)
	e.round++

	rec := SpinRecord{
		SessionID:    e.sessionID,
		Round:        e.round,
		Bet:          p.bet,
		Outcome:      outcome,
		Payout:       payout,
		Win:          win,
		BalanceAfter: e.balance,
		At:           time.Now(),
	}
	snap := e.changedLocked()
	e.mu.Unlock()

	e.log.Debug("spin resolved",
		zap.String("session", rec.SessionID),
		zap.Uint64("spin", id),
		zap.Int("outcome", outcome),
		zap.Int64("payout", payout),
		zap.Int64("balance", rec.BalanceAfter),
	)
	e.record(rec)
	e.emit(snap)
}

// Reset starts a fresh session at the starting balance. The bet panel is kept.
func (e *Engine) Reset() (Snapshot, error) {
	e.mu.Lock()
	if err := e.checkIdleLocked("reset the session"); err != nil {
		e.mu.Unlock()
		return Snapshot{}, err
	}
	old := e.sessionID
	e.resetLocked()
	snap := e.changedLocked()
	e.mu.Unlock()

	e.flush()
	e.log.Info("session reset", zap.String("previous", old), zap.String("session", snap.SessionID))
	e.emit(snap)
	return snap, nil
}

// Close discards the session. A pending reveal is cancelled and will never
// mutate the state. Close is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	if e.pending != nil {
		e.pending.timer.Stop()
		e.pending = nil
	}
	id := e.sessionID
	e.mu.Unlock()

	e.flush()
	e.log.Info("session closed", zap.String("session", id))
	return nil
}

func (e *Engine) checkIdleLocked(op string) error {
	if e.closed {
		return illegalState(op, StatusClosed)
	}
	if e.status == StatusSpinning {
		return illegalState(op, StatusSpinning)
	}
	return nil
}

// changedLocked marks a state change and returns the snapshot to emit for it.
func (e *Engine) changedLocked() Snapshot {
	e.version++
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	status := e.status
	if e.closed {
		status = StatusClosed
	}
	idle := status == StatusIdle
	snap := Snapshot{
		SessionID:       e.sessionID,
		Version:         e.version,
		Status:          status,
		Balance:         e.balance,
		StartingBalance: e.startBal,
		History:         append([]int64(nil), e.history...),
		Bet:             e.bet,
		CanSpin:         idle && e.balance > 0,
		CanSimulate:     idle && e.balance > 0,
		RevealDelayMs:   e.revealDelay.Milliseconds(),
		Stats:           *e.stats,
		RTP:             e.stats.RTP().StringFixed(2),
		ProfitPercent:   e.stats.ProfitPercent().StringFixed(2),
	}
	if e.lastOutcome != nil {
		info := roulette.Describe(*e.lastOutcome)
		snap.LastOutcome = &info
	}
	return snap
}

func (e *Engine) emit(snap Snapshot) {
	if e.emitter == nil {
		return
	}
	e.emitter.EmitState(snap)
}

func (e *Engine) record(recs ...SpinRecord) {
	for _, r := range e.recorders {
		for _, rec := range recs {
			r.RecordSpin(rec)
		}
	}
}

func (e *Engine) flush() {
	for _, r := range e.recorders {
		r.Flush()
	}
}
