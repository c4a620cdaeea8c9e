package engine

import (
	"time"

	"github.com/MJE43/roulette-desktop/internal/roulette"
)

// Status represents the spin state of a session.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusSpinning Status = "spinning"
	StatusClosed   Status = "closed"
)

// EventEmitter pushes state updates to the frontend.
type EventEmitter interface {
	EmitState(snap Snapshot)
}

// SpinRecorder receives every resolved spin and simulated round.
type SpinRecorder interface {
	RecordSpin(rec SpinRecord)
	Flush()
}

// Timer is a pending single-shot callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. Implementations must not call f
// synchronously from AfterFunc: the engine schedules while holding its lock.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SpinRecord describes one resolved spin.
type SpinRecord struct {
	SessionID    string       `json:"sessionId"`
	Round        int          `json:"round"`
	Bet          roulette.Bet `json:"bet"`
	Outcome      int          `json:"outcome"`
	Payout       int64        `json:"payout"`
	Win          bool         `json:"win"`
	BalanceAfter int64        `json:"balanceAfter"`
	Simulated    bool         `json:"simulated"`
	At           time.Time    `json:"at"`
}

// Snapshot is a serializable copy of the session state. Version grows with
// every state change, so a consumer can discard snapshots that arrive late.
type Snapshot struct {
	SessionID       string               `json:"sessionId"`
	Version         uint64               `json:"version"`
	Status          Status               `json:"status"`
	Balance         int64                `json:"balance"`
	StartingBalance int64                `json:"startingBalance"`
	History         []int64              `json:"history"`
	Bet             roulette.Bet         `json:"bet"`
	LastOutcome     *roulette.PocketInfo `json:"lastOutcome,omitempty"`
	CanSpin         bool                 `json:"canSpin"`
	CanSimulate     bool                 `json:"canSimulate"`
	RevealDelayMs   int64                `json:"revealDelayMs"`
	Stats           Statistics           `json:"stats"`
	RTP             string               `json:"rtp"`
	ProfitPercent   string               `json:"profitPercent"`
}

// SimulationResult summarises one RunSimulation call.
type SimulationResult struct {
	Requested    int   `json:"requested"`
	Played       int   `json:"played"`
	StartBalance int64 `json:"startBalance"`
	FinalBalance int64 `json:"finalBalance"`
	Ruined       bool  `json:"ruined"`
	Outcomes     []int `json:"outcomes"`
}
