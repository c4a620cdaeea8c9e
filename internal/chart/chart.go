// Package chart turns a balance history into a polyline view and renders it
// as SVG or as a standalone HTML page.
package chart

import (
	"errors"
	"math"
)

const (
	DefaultWidth  = 300
	DefaultHeight = 150

	WinColor       = "#2ecc71"
	LossColor      = "#d90429"
	ReferenceColor = "#ccc"
)

// ErrTooShort is returned when the history has fewer than two points.
var ErrTooShort = errors.New("chart: need at least two balances")

// Options controls the viewport. Margin is added above the highest value.
type Options struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Margin float64 `yaml:"margin"`
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Margin < 0 {
		o.Margin = 0
	}
	return o
}

// Point is a position inside the viewport, y growing downwards.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// View is everything a renderer needs to draw the balance line.
type View struct {
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Points    []Point `json:"points"`
	Reference float64 `json:"reference"`
	Last      Point   `json:"last"`
	Balance   int64   `json:"balance"`
	Baseline  int64   `json:"baseline"`
	Up        bool    `json:"up"`
	Color     string  `json:"color"`
}

// Build scales history into the viewport. The range spans
// [min(history, 0), max(history, baseline) + margin]; baseline is the
// starting balance and is drawn as the reference line.
func Build(history []int64, baseline int64, opts Options) (View, error) {
	if len(history) < 2 {
		return View{}, ErrTooShort
	}
	opts = opts.withDefaults()

	lo, hi := 0.0, float64(baseline)
	for _, v := range history {
		lo = math.Min(lo, float64(v))
		hi = math.Max(hi, float64(v))
	}
	hi += opts.Margin
	span := hi - lo
	if span == 0 {
		span = 1
	}
	scale := func(v float64) float64 {
		return opts.Height - (v-lo)*opts.Height/span
	}

	n := len(history)
	pts := make([]Point, n)
	for i, v := range history {
		pts[i] = Point{
			X: float64(i) / float64(n-1) * opts.Width,
			Y: scale(float64(v)),
		}
	}

	last, prev := history[n-1], history[n-2]
	up := last >= prev || last >= baseline
	color := LossColor
	if up {
		color = WinColor
	}

	return View{
		Width:     opts.Width,
		Height:    opts.Height,
		Min:       lo,
		Max:       hi,
		Points:    pts,
		Reference: scale(float64(baseline)),
		Last:      pts[n-1],
		Balance:   last,
		Baseline:  baseline,
		Up:        up,
		Color:     color,
	}, nil
}
