// Package dea holds the result types of an input-oriented CCR envelopment model
// and the pure functions that turn them into presentation-ready tables.
package dea

import (
	"godea/domain/core"
)

const (
	// DefaultEfficiencyThreshold classifies θ >= 0.999 as efficient to absorb solver tolerance.
	DefaultEfficiencyThreshold = 0.999
	// DefaultPeerThreshold drops λ values at or below 1e-4 as solver noise.
	DefaultPeerThreshold = 1e-4
)

// Result is the optimal solution of one DMU's envelopment LP.
type Result struct {
	Efficiency      float64   `json:"efficiency"`
	PeerWeights     []float64 `json:"peer_weights"`     // λ, one per DMU
	InputSlack      []float64 `json:"input_slack"`      // s, one per input
	OutputShortfall []float64 `json:"output_shortfall"` // surplus of the peer composite over each output
}

// Outcome is the per-DMU entry of a batch solve. Exactly one of the following holds:
// Err == nil and Result != nil (solved), or Err is a *core.SolveError. An out-of-range
// anomaly keeps its Result for inspection but is never classified.
type Outcome struct {
	Index  int     `json:"index"`
	DMU    string  `json:"dmu"`
	Result *Result `json:"result,omitempty"`
	Err    error   `json:"-"`
}

// Solved reports whether the outcome carries a usable score.
func (o Outcome) Solved() bool {
	return o.Err == nil && o.Result != nil
}

// Status is the display state of one DMU.
type Status string

const (
	StatusSolved     Status = "solved"
	StatusUnsolved   Status = "unsolved"
	StatusOutOfRange Status = "out_of_range"
)

// Status maps the outcome onto its display state.
func (o Outcome) Status() Status {
	switch {
	case o.Solved():
		return StatusSolved
	case core.IsOutOfRange(o.Err):
		return StatusOutOfRange
	default:
		return StatusUnsolved
	}
}

// FormatOptions carries the classification thresholds shared by both tables.
type FormatOptions struct {
	EfficiencyThreshold float64
	PeerThreshold       float64
}

// DefaultFormatOptions returns the thresholds used by the dashboard.
func DefaultFormatOptions() FormatOptions {
	return FormatOptions{
		EfficiencyThreshold: DefaultEfficiencyThreshold,
		PeerThreshold:       DefaultPeerThreshold,
	}
}

func (o FormatOptions) withDefaults() FormatOptions {
	if o.EfficiencyThreshold <= 0 {
		o.EfficiencyThreshold = DefaultEfficiencyThreshold
	}
	if o.PeerThreshold <= 0 {
		o.PeerThreshold = DefaultPeerThreshold
	}
	return o
}

// IsEfficient applies the efficiency threshold to a solved outcome.
// Unsolved outcomes are neither efficient nor inefficient.
func (o FormatOptions) IsEfficient(out Outcome) bool {
	return out.Solved() && out.Result.Efficiency >= o.withDefaults().EfficiencyThreshold
}

// IsInefficient is the complement of IsEfficient restricted to solved outcomes.
func (o FormatOptions) IsInefficient(out Outcome) bool {
	return out.Solved() && out.Result.Efficiency < o.withDefaults().EfficiencyThreshold
}

// Peer is one benchmark DMU with its λ weight.
type Peer struct {
	Index  int     `json:"index"`
	Name   string  `json:"name"`
	Lambda float64 `json:"lambda"`
}

// Peers lists the DMUs whose λ exceeds the peer threshold, in table order.
func (o FormatOptions) Peers(names []string, r *Result) []Peer {
	if r == nil {
		return nil
	}
	threshold := o.withDefaults().PeerThreshold
	var peers []Peer
	for j, l := range r.PeerWeights {
		if l > threshold {
			peers = append(peers, Peer{Index: j, Name: names[j], Lambda: l})
		}
	}
	return peers
}
