// Package dataset holds tabular training data: one Sample per row, feature
// values stored in feature-registry order.
package dataset

import (
	"errors"

	"evalgen/features"
)

var (
	ErrNoRows         = errors.New("dataset: no usable rows")
	ErrMissingColumn  = errors.New("dataset: missing column")
	ErrNoFeatureNames = errors.New("dataset: header has no feature columns")
)

// Sample is one dataset row.
type Sample struct {
	Values []float64 // indexed by features.Registry position
	Target float64
}

// Dataset pairs samples with the registry that describes their columns.
type Dataset struct {
	Features *features.Registry
	Samples  []Sample
	Skipped  int // malformed rows dropped while loading
}

func New(reg *features.Registry, samples []Sample) *Dataset {
	return &Dataset{Features: reg, Samples: samples}
}

func (d *Dataset) Len() int { return len(d.Samples) }

// Rows returns the value vectors of all samples. The slices alias the samples.
func (d *Dataset) Rows() [][]float64 {
	out := make([][]float64, len(d.Samples))
	for i := range d.Samples {
		out[i] = d.Samples[i].Values
	}
	return out
}

func (d *Dataset) Targets() []float64 {
	out := make([]float64, len(d.Samples))
	for i := range d.Samples {
		out[i] = d.Samples[i].Target
	}
	return out
}

// Subset returns a dataset made of the rows at idx, in idx order.
func (d *Dataset) Subset(idx []int) *Dataset {
	s := make([]Sample, len(idx))
	for k, i := range idx {
		s[k] = d.Samples[i]
	}
	return &Dataset{Features: d.Features, Samples: s}
}
