// Package metrics exports spin counters for the local /metrics endpoint.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MJE43/roulette-desktop/internal/engine"
	"github.com/MJE43/roulette-desktop/internal/roulette"
)

const (
	labelKind      = "kind"
	labelSimulated = "simulated"
	labelColor     = "color"
)

// Collector implements engine.SpinRecorder on top of a Prometheus registry.
type Collector struct {
	reg *prometheus.Registry

	spins    *prometheus.CounterVec
	wins     *prometheus.CounterVec
	wagered  prometheus.Counter
	paid     prometheus.Counter
	outcomes *prometheus.CounterVec
	balance  prometheus.Gauge
}

var _ engine.SpinRecorder = (*Collector)(nil)

// New registers the roulette collectors on a fresh registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Collector{
		reg: reg,
		spins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roulette_spins_total", Help: "Resolved spins and simulated rounds.",
		}, []string{labelKind, labelSimulated}),
		wins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roulette_wins_total", Help: "Winning spins.",
		}, []string{labelKind, labelSimulated}),
		wagered: f.NewCounter(prometheus.CounterOpts{
			Name: "roulette_wagered_total", Help: "Sum of stakes.",
		}),
		paid: f.NewCounter(prometheus.CounterOpts{
			Name: "roulette_paid_total", Help: "Sum of payouts.",
		}),
		outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roulette_outcomes_total", Help: "Drawn pockets by colour.",
		}, []string{labelColor}),
		balance: f.NewGauge(prometheus.GaugeOpts{
			Name: "roulette_balance", Help: "Balance after the last recorded spin.",
		}),
	}
}

func (c *Collector) RecordSpin(rec engine.SpinRecord) {
	labels := prometheus.Labels{
		labelKind:      string(rec.Bet.Kind),
		labelSimulated: strconv.FormatBool(rec.Simulated),
	}
	c.spins.With(labels).Inc()
	if rec.Win {
		c.wins.With(labels).Inc()
	}
	// counters reject negative adds; negative stakes only occur in simulations
	if rec.Bet.Amount > 0 {
		c.wagered.Add(float64(rec.Bet.Amount))
	}
	if rec.Payout > 0 {
		c.paid.Add(float64(rec.Payout))
	}
	c.outcomes.WithLabelValues(string(roulette.PocketColor(rec.Outcome))).Inc()
	c.balance.Set(float64(rec.BalanceAfter))
}

func (c *Collector) Flush() {}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{Registry: c.reg})
}
