package roulette

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the type of bet placed on the table.
type Kind string

const (
	KindNumber  Kind = "number"
	KindColor   Kind = "color"
	KindEvenOdd Kind = "evenOdd"
)

// Parity selectors for even/odd bets.
const (
	Even = "even"
	Odd  = "odd"
)

// Payout multipliers applied to the stake on a win. The stake is already
// debited when the bet is placed, so a 2x win returns stake plus equal profit.
const (
	NumberMultiplier  = 36
	ColorMultiplier   = 2
	EvenOddMultiplier = 2
)

var (
	ErrUnknownKind     = errors.New("unknown bet kind")
	ErrInvalidSelector = errors.New("invalid selector for bet kind")
)

// Bet is a single wager: what it backs and how much is staked.
//
// Selector holds the kind-specific choice: "0".."36" for number bets,
// "red"/"black" for colour bets and "even"/"odd" for even/odd bets.
type Bet struct {
	Kind     Kind   `json:"kind"`
	Selector string `json:"selector"`
	Amount   int64  `json:"amount"`
}

// ParseKind normalises a kind name coming from the UI.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "number":
		return KindNumber, nil
	case "color", "colour":
		return KindColor, nil
	case "evenodd", "even_odd", "parity":
		return KindEvenOdd, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// DefaultSelector returns the selector a panel shows right after switching to k.
func DefaultSelector(k Kind) string {
	switch k {
	case KindNumber:
		return "0"
	case KindEvenOdd:
		return Even
	default:
		return string(Red)
	}
}

// NormalizeSelector validates sel against k and returns its canonical form.
func NormalizeSelector(k Kind, sel string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(sel))
	switch k {
	case KindNumber:
		n, err := strconv.Atoi(s)
		if err != nil || !ValidPocket(n) {
			return "", fmt.Errorf("%w: number bet needs 0-%d, got %q", ErrInvalidSelector, MaxPocket, sel)
		}
		return strconv.Itoa(n), nil
	case KindColor:
		if s == string(Red) || s == string(Black) {
			return s, nil
		}
		return "", fmt.Errorf("%w: colour bet needs red or black, got %q", ErrInvalidSelector, sel)
	case KindEvenOdd:
		if s == Even || s == Odd {
			return s, nil
		}
		return "", fmt.Errorf("%w: even/odd bet needs even or odd, got %q", ErrInvalidSelector, sel)
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, k)
}

// Validate checks the kind and selector. Stake checks depend on the balance
// and live in the engine.
func (b Bet) Validate() error {
	_, err := NormalizeSelector(b.Kind, b.Selector)
	return err
}

// Number returns the backed pocket of a number bet.
func (b Bet) Number() (int, error) {
	if b.Kind != KindNumber {
		return 0, fmt.Errorf("%w: %s bet has no number", ErrInvalidSelector, b.Kind)
	}
	s, err := NormalizeSelector(b.Kind, b.Selector)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}

func (b Bet) String() string {
	return fmt.Sprintf("%s:%s x%d", b.Kind, b.Selector, b.Amount)
}
