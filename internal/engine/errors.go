package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBet is returned when a bet or bet-panel change breaks a
	// precondition: stake <= 0, stake > balance, or a selector that does not
	// fit the bet kind. Nothing is mutated.
	ErrInvalidBet = errors.New("invalid bet")

	// ErrIllegalState is returned for operations the current spin status does
	// not allow, such as betting while the wheel is spinning or using a
	// closed session. Nothing is mutated.
	ErrIllegalState = errors.New("illegal state")
)

// BetError carries the field that made a bet invalid.
type BetError struct {
	Field  string
	Value  any
	Reason string
	Err    error
}

func (e *BetError) Error() string {
	msg := fmt.Sprintf("%s: %s %v: %s", ErrInvalidBet, e.Field, e.Value, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is lets errors.Is(err, ErrInvalidBet) match any BetError.
func (e *BetError) Is(target error) bool {
	return target == ErrInvalidBet
}

func (e *BetError) Unwrap() error {
	return e.Err
}

func invalidBet(field string, value any, reason string, cause error) error {
	return &BetError{Field: field, Value: value, Reason: reason, Err: cause}
}

func illegalState(op string, status Status) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrIllegalState, op, status)
}
