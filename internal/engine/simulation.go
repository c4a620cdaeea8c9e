package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MJE43/roulette-desktop/internal/roulette"
)

// RunSimulation plays up to rounds instant colour bets with the configured
// stake. The colour is the configured one for colour bets and red otherwise.
// It stops early once the balance reaches zero or below, and commits the
// whole batch at once. rounds <= 0 uses the configured default.
//
// The stake is not checked against the balance, so the last round may leave
// the balance negative.
func (e *Engine) RunSimulation(rounds int) (SimulationResult, error) {
	e.mu.Lock()
	if err := e.checkIdleLocked("simulate"); err != nil {
		e.mu.Unlock()
		return SimulationResult{}, err
	}
	if rounds <= 0 {
		rounds = e.simRounds
	}

	bet := roulette.SimulationBet(e.bet)
	res := SimulationResult{
		Requested:    rounds,
		StartBalance: e.balance,
	}

	balance := e.balance
	history := make([]int64, 0, rounds)
	stats := *e.stats
	recs := make([]SpinRecord, 0, rounds)
	now := time.Now()

	for i := 0; i < rounds; i++ {
		if balance <= 0 {
			break
		}
		outcome, err := e.source.Intn(roulette.PocketCount)
		if err != nil {
			e.mu.Unlock()
			return SimulationResult{}, fmt.Errorf("engine: draw outcome: %w", err)
		}
		payout, win := roulette.Resolve(bet, outcome)
		balance = balance - bet.Amount + payout
		history = append(history, balance)
		stats.RecordSpin(bet.Amount, payout, balance)
		res.Outcomes = append(res.Outcomes, outcome)
		recs = append(recs, SpinRecord{
			SessionID:    e.sessionID,
			Round:        e.round + len(recs) + 1,
			Bet:          bet,
			Outcome:      outcome,
			Payout:       payout,
			Win:          win,
			BalanceAfter: balance,
			Simulated:    true,
			At:           now,
		})
	}

	e.balance = balance
	e.history = append(e.history, history...)
	*e.stats = stats
	e.round += len(recs)

	res.Played = len(recs)
	res.FinalBalance = balance
	res.Ruined = balance <= 0
	snap := e.changedLocked()
	e.mu.Unlock()

	e.log.Info("simulation finished",
		zap.String("session", snap.SessionID),
		zap.Stringer("bet", bet),
		zap.Int("requested", res.Requested),
		zap.Int("played", res.Played),
		zap.Int64("start", res.StartBalance),
		zap.Int64("final", res.FinalBalance),
	)
	e.record(recs...)
	e.flush()
	e.emit(snap)
	return res, nil
}
