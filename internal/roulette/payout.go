package roulette

// Multiplier returns the payout multiplier b earns when the ball lands on
// pocket, or 0 when the bet loses. Bets with an invalid selector never win.
func Multiplier(b Bet, pocket int) int64 {
	if !ValidPocket(pocket) {
		return 0
	}
	sel, err := NormalizeSelector(b.Kind, b.Selector)
	if err != nil {
		return 0
	}

	switch b.Kind {
	case KindNumber:
		n, _ := b.Number()
		if n == pocket {
			return NumberMultiplier
		}
	case KindColor:
		if PocketColor(pocket) == Color(sel) {
			return ColorMultiplier
		}
	case KindEvenOdd:
		// zero is neither even nor odd here
		if pocket == 0 {
			return 0
		}
		isEven := pocket%2 == 0
		if (sel == Even && isEven) || (sel == Odd && !isEven) {
			return EvenOddMultiplier
		}
	}
	return 0
}

// Resolve returns the amount paid back for b on pocket. It is never negative.
func Resolve(b Bet, pocket int) (payout int64, win bool) {
	m := Multiplier(b, pocket)
	if m == 0 {
		return 0, false
	}
	return b.Amount * m, true
}

// SimulationBet returns the colour bet the batch simulator plays for the
// configured bet: the configured colour when b is a colour bet, red otherwise.
func SimulationBet(b Bet) Bet {
	sel := string(Red)
	if b.Kind == KindColor {
		if s, err := NormalizeSelector(KindColor, b.Selector); err == nil {
			sel = s
		}
	}
	return Bet{Kind: KindColor, Selector: sel, Amount: b.Amount}
}
