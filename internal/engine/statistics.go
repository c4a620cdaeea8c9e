package engine

import "github.com/shopspring/decimal"

// Statistics tracks session-level betting statistics. Simulated rounds count
// the same as played spins.
type Statistics struct {
	Spins   int   `json:"spins"`
	Wins    int   `json:"wins"`
	Losses  int   `json:"losses"`
	Wagered int64 `json:"wagered"`
	Paid    int64 `json:"paid"`
	Profit  int64 `json:"profit"`

	StartBalance   int64 `json:"startBalance"`
	HighestBalance int64 `json:"highestBalance"`
	LowestBalance  int64 `json:"lowestBalance"`
	BiggestWin     int64 `json:"biggestWin"`

	WinStreak  int `json:"winStreak"`
	LoseStreak int `json:"loseStreak"`
	// Positive = win streak, negative = lose streak.
	CurrentStreak int `json:"currentStreak"`
	HighestStreak int `json:"highestStreak"`
	LowestStreak  int `json:"lowestStreak"`
}

// NewStatistics creates a Statistics with starting balance.
func NewStatistics(startBalance int64) *Statistics {
	return &Statistics{
		StartBalance:   startBalance,
		HighestBalance: startBalance,
		LowestBalance:  startBalance,
	}
}

// RecordSpin processes one resolved spin.
func (s *Statistics) RecordSpin(stake, payout, balanceAfter int64) {
	s.Spins++
	s.Wagered += stake
	s.Paid += payout
	s.Profit += payout - stake

	if payout > 0 {
		s.Wins++
		s.WinStreak++
		s.LoseStreak = 0
		s.CurrentStreak = s.WinStreak
		if payout-stake > s.BiggestWin {
			s.BiggestWin = payout - stake
		}
	} else {
		s.Losses++
		s.LoseStreak++
		s.WinStreak = 0
		s.CurrentStreak = -s.LoseStreak
	}

	if balanceAfter > s.HighestBalance {
		s.HighestBalance = balanceAfter
	}
	if balanceAfter < s.LowestBalance {
		s.LowestBalance = balanceAfter
	}
	if s.CurrentStreak > s.HighestStreak {
		s.HighestStreak = s.CurrentStreak
	}
	if s.CurrentStreak < s.LowestStreak {
		s.LowestStreak = s.CurrentStreak
	}
}

// RTP returns paid / wagered as a percentage. Zero when nothing was wagered.
func (s *Statistics) RTP() decimal.Decimal {
	if s.Wagered == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(s.Paid).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(s.Wagered)).
		Round(2)
}

// ProfitPercent returns profit as a percentage of the starting balance.
func (s *Statistics) ProfitPercent() decimal.Decimal {
	if s.StartBalance == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(s.Profit).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(s.StartBalance).Abs()).
		Round(2)
}
