package learner

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"evalgen/codegen"
	"evalgen/dataset"
	"evalgen/features"
	"evalgen/fit"
	"evalgen/model"
	"evalgen/partition"
)

// PiecewiseConfig describes a piecewise-linear model before fitting.
type PiecewiseConfig struct {
	ColorFeature  string
	BucketFeature string
	Thresholds    partition.Thresholds
	Fitter        fit.LinearFitter // fit.LeastSquares when nil
	Observer      Observer
}

// PiecewiseModel fits one linear submodel per (color, bucket) partition.
type PiecewiseModel struct {
	index int
	cfg   PiecewiseConfig
	reg   *features.Registry
	pw    *model.Piecewise
}

func NewPiecewise(index int, cfg PiecewiseConfig) *PiecewiseModel {
	if cfg.Fitter == nil {
		cfg.Fitter = fit.LeastSquares{}
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	return &PiecewiseModel{index: index, cfg: cfg}
}

func (m *PiecewiseModel) ID() string   { return ModelID(model.KindPiecewise, m.index) }
func (m *PiecewiseModel) Kind() string { return model.KindPiecewise }

func (m *PiecewiseModel) Name() string {
	t := m.cfg.Thresholds
	return fmt.Sprintf("lr (red=%v, blue=%v)", t[partition.Red], t[partition.Blue])
}

// Piecewise exposes the fitted model, nil before Fit.
func (m *PiecewiseModel) Piecewise() *model.Piecewise { return m.pw }

type candidate struct {
	key   partition.Key
	bound model.Bound
	rows  []int
}

// Fit trains the submodels. Every configured bucket starts as a candidate;
// candidates without training rows are pruned, and the last survivor of each
// color is re-anchored to an infinite bound so the chain stays total.
func (m *PiecewiseModel) Fit(ctx context.Context, train *dataset.Dataset) error {
	reg := train.Features
	ci, err := reg.Lookup(m.cfg.ColorFeature)
	if err != nil {
		return fmt.Errorf("%s: color feature: %w", m.ID(), err)
	}
	bi, err := reg.Lookup(m.cfg.BucketFeature)
	if err != nil {
		return fmt.Errorf("%s: bucket feature: %w", m.ID(), err)
	}

	part := partition.Partitioner{Color: ci, Bucket: bi, Thresholds: m.cfg.Thresholds}
	rows, y := train.Rows(), train.Targets()
	byKey := make(map[partition.Key][]int)
	for _, g := range part.Group(rows) {
		byKey[g.Key] = g.Rows
	}

	pw := &model.Piecewise{ColorFeature: ci, BucketFeature: bi, Thresholds: m.cfg.Thresholds}
	for _, c := range partition.Colors {
		var live []candidate
		for _, cand := range candidates(c, m.cfg.Thresholds[c]) {
			cand.rows = byKey[cand.key]
			if len(cand.rows) == 0 {
				pw.Pruned = append(pw.Pruned, cand.key)
				m.cfg.Observer.PartitionPruned(c)
				continue
			}
			live = append(live, cand)
		}
		if len(live) == 0 {
			return fmt.Errorf("%s: %w: %s", m.ID(), ErrNoSamplesForColor, c)
		}

		chain := make([]model.Submodel, 0, len(live))
		for i, cand := range live {
			if err := ctx.Err(); err != nil {
				return err
			}
			bound := cand.bound
			if i == len(live)-1 {
				bound = model.Infinity
			}
			sub, err := m.fitPartition(rows, y, reg.Len(), cand, bound)
			if err != nil {
				return err
			}
			chain = append(chain, sub)
		}
		pw.Chains[c] = chain
	}
	m.reg, m.pw = reg, pw
	return nil
}

// candidates lists one placeholder per bucket of a color, catch-all last.
func candidates(c partition.Color, thresholds []int) []candidate {
	out := make([]candidate, 0, len(thresholds)+1)
	for b, t := range thresholds {
		out = append(out, candidate{key: partition.Key{Color: c, Bucket: b}, bound: model.Upto(t)})
	}
	return append(out, candidate{
		key:   partition.Key{Color: c, Bucket: len(thresholds)},
		bound: model.Infinity,
	})
}

func (m *PiecewiseModel) fitPartition(rows [][]float64, y []float64, n int, cand candidate, bound model.Bound) (model.Submodel, error) {
	sel := partition.SelectFeatures(rows, cand.rows, n)
	m.cfg.Observer.FeaturesDropped(len(sel.Dropped))

	sub := model.Submodel{
		Key:          cand.key,
		Bound:        bound,
		Kept:         sel.Kept,
		Coefficients: []float64{},
		Samples:      len(cand.rows),
	}
	if len(sel.Kept) == 0 {
		return sub, nil
	}
	ty := make([]float64, len(cand.rows))
	for i, r := range cand.rows {
		ty[i] = y[r]
	}
	coef, err := m.cfg.Fitter.FitLinear(fit.Design(rows, cand.rows, sel.Kept), ty)
	if err != nil {
		return model.Submodel{}, fmt.Errorf("%s %s: %w", m.ID(), cand.key, err)
	}
	sub.Coefficients = coef
	return sub, nil
}

func (m *PiecewiseModel) Predict(values []float64) float64 { return m.pw.Predict(values) }

// Score routes each held-out row through the surviving chain and reports R²
// per submodel. Submodels that receive no rows get the untested sentinel.
func (m *PiecewiseModel) Score(test *dataset.Dataset) model.ScoreReport {
	var pred, actual [2][][]float64
	for _, c := range partition.Colors {
		pred[c] = make([][]float64, len(m.pw.Chains[c]))
		actual[c] = make([][]float64, len(m.pw.Chains[c]))
	}
	for _, s := range test.Samples {
		c, i := m.pw.Route(s.Values)
		pred[c][i] = append(pred[c][i], m.pw.Chains[c][i].Eval(s.Values))
		actual[c][i] = append(actual[c][i], s.Target)
	}

	var report model.ScoreReport
	for _, c := range partition.Colors {
		for i, sub := range m.pw.Chains[c] {
			e := model.ScoreEntry{Label: label(c, sub.Bound)}
			if n := len(actual[c][i]); n > 0 {
				e.Score = &model.Score{
					R2:      stat.RSquaredFrom(pred[c][i], actual[c][i], nil),
					Samples: n,
				}
			}
			report = append(report, e)
		}
	}
	return report
}

func label(c partition.Color, b model.Bound) string { return c.Tag() + ":" + b.String() }

func (m *PiecewiseModel) Weights() []Weights {
	if m.pw == nil {
		return nil
	}
	var out []Weights
	for _, c := range partition.Colors {
		for _, sub := range m.pw.Chains[c] {
			out = append(out, Weights{
				Title:  fmt.Sprintf("Feature coefficients (split %s)", label(c, sub.Bound)),
				Values: sub.Dense(m.reg.Len()),
			})
		}
	}
	return out
}

func (m *PiecewiseModel) Document() (*model.Document, error) {
	if m.pw == nil {
		return nil, ErrNotFitted
	}
	return &model.Document{
		ID:        m.ID(),
		Kind:      model.KindPiecewise,
		Name:      m.Name(),
		Features:  m.reg.Names(),
		Piecewise: m.pw,
	}, nil
}

func (m *PiecewiseModel) Emit(opts codegen.Options) (Code, error) {
	if m.pw == nil {
		return Code{}, ErrNotFitted
	}
	fn := codegen.PiecewiseFuncName(m.index)
	src, err := codegen.PiecewiseFile(m.pw, m.reg, fn, opts)
	if err != nil {
		return Code{}, fmt.Errorf("%s: %w", m.ID(), err)
	}
	return Code{File: fmt.Sprintf("linear%dcode.go", m.index), Func: fn, Source: src}, nil
}
