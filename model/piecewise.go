// Package model holds fitted model state shared by the learners, the code
// emitters and the model documents. Nothing here fits or writes anything.
package model

import (
	"evalgen/partition"
)

// Submodel is the linear model responsible for one partition.
type Submodel struct {
	Key          partition.Key `json:"key"`
	Bound        Bound         `json:"bound"`
	Kept         []int         `json:"kept"`         // registry positions
	Coefficients []float64     `json:"coefficients"` // parallel to Kept
	Samples      int           `json:"samples"`      // training rows
}

// Eval computes the dot product of the coefficients with the kept values.
// Zero coefficients are skipped and the sum runs in Kept order, which is
// exactly the expression the piecewise emitter writes out.
func (s Submodel) Eval(values []float64) float64 {
	var sum float64
	first := true
	for k, j := range s.Kept {
		c := s.Coefficients[k]
		if c == 0 {
			continue
		}
		// The conversion rounds the product so it is never fused into the
		// addition. The emitted code wraps each term the same way.
		if first {
			sum = float64(c * values[j])
			first = false
			continue
		}
		sum += float64(c * values[j])
	}
	return sum
}

// Dense expands the coefficients to one entry per registry position.
func (s Submodel) Dense(n int) []float64 {
	out := make([]float64, n)
	for k, j := range s.Kept {
		out[j] = s.Coefficients[k]
	}
	return out
}

// Piecewise is a fitted piecewise-linear model: per color, the surviving
// submodels ordered by bound, the last one unbounded.
type Piecewise struct {
	ColorFeature  int                  `json:"color_feature"`
	BucketFeature int                  `json:"bucket_feature"`
	Thresholds    partition.Thresholds `json:"thresholds"`
	Chains        [2][]Submodel        `json:"chains"`
	Pruned        []partition.Key      `json:"pruned,omitempty"`
}

// Route returns the chain and position of the submodel governing values.
// The chain's last bound is infinite, so the position is always valid for a
// non-empty chain.
func (p *Piecewise) Route(values []float64) (partition.Color, int) {
	c := partition.ColorOf(values[p.ColorFeature])
	chain := p.Chains[c]
	v := values[p.BucketFeature]
	for i, s := range chain {
		if s.Bound.Covers(v) {
			return c, i
		}
	}
	return c, len(chain) - 1
}

// Predict evaluates the governing submodel on values.
func (p *Piecewise) Predict(values []float64) float64 {
	c, i := p.Route(values)
	return p.Chains[c][i].Eval(values)
}
