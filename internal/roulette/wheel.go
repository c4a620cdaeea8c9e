// Package roulette holds the European wheel layout and the bet resolution rules.
package roulette

import (
	"fmt"
	"math"
)

// PocketCount is the number of pockets on a European wheel (0-36).
const PocketCount = 37

// MaxPocket is the highest pocket number.
const MaxPocket = PocketCount - 1

// Color is the colour of a pocket, or the colour a player backs.
type Color string

const (
	Green Color = "green"
	Red   Color = "red"
	Black Color = "black"
)

// Red numbers: 1,3,5,7,9,12,14,16,18,19,21,23,25,27,30,32,34,36
var redPockets = [PocketCount]bool{
	1: true, 3: true, 5: true, 7: true, 9: true,
	12: true, 14: true, 16: true, 18: true, 19: true,
	21: true, 23: true, 25: true, 27: true, 30: true,
	32: true, 34: true, 36: true,
}

// WheelOrder is the clockwise pocket sequence of a European wheel starting at zero.
// Only the frontend animation uses it; resolution never looks at positions.
var WheelOrder = [PocketCount]int{
	0, 32, 15, 19, 4, 21, 2, 25, 17, 34, 6, 27, 13, 36, 11, 30, 8, 23, 10,
	5, 24, 16, 33, 1, 20, 14, 31, 9, 22, 18, 29, 7, 28, 12, 35, 3, 26,
}

// PocketInfo describes a single pocket for display.
type PocketInfo struct {
	Number int   `json:"number"`
	Color  Color `json:"color"`
	Even   bool  `json:"even"`
	Low    bool  `json:"low"` // 1-18
}

// ValidPocket reports whether n is a pocket on the wheel.
func ValidPocket(n int) bool {
	return n >= 0 && n <= MaxPocket
}

// PocketColor returns the colour of pocket n. Out-of-range pockets are green
// so they can never satisfy a red or black bet.
func PocketColor(n int) Color {
	if n <= 0 || n > MaxPocket {
		return Green
	}
	if redPockets[n] {
		return Red
	}
	return Black
}

// IsRed reports whether n is in the red set.
func IsRed(n int) bool { return PocketColor(n) == Red }

// IsBlack reports whether n is in the black set.
func IsBlack(n int) bool { return PocketColor(n) == Black }

// Describe returns the display metadata for pocket n.
func Describe(n int) PocketInfo {
	info := PocketInfo{Number: n, Color: PocketColor(n)}
	if n != 0 {
		info.Even = n%2 == 0
		info.Low = n >= 1 && n <= 18
	}
	return info
}

// Pockets returns display metadata for every pocket in numeric order.
func Pockets() []PocketInfo {
	out := make([]PocketInfo, PocketCount)
	for i := range out {
		out[i] = Describe(i)
	}
	return out
}

// PocketFromFloat maps a float in [0,1) to a pocket using floor(f * 37).
func PocketFromFloat(f float64) (int, error) {
	if f < 0 || f >= 1 || math.IsNaN(f) {
		return 0, fmt.Errorf("roulette: float %v outside [0,1)", f)
	}
	return int(math.Floor(f * PocketCount)), nil
}

// PocketAngle returns the wheel angle in degrees at which pocket n sits,
// measured clockwise from the zero pocket.
func PocketAngle(n int) (float64, error) {
	if !ValidPocket(n) {
		return 0, fmt.Errorf("roulette: pocket %d out of range", n)
	}
	for i, p := range WheelOrder {
		if p == n {
			return float64(i) * 360 / PocketCount, nil
		}
	}
	return 0, fmt.Errorf("roulette: pocket %d missing from wheel order", n)
}
