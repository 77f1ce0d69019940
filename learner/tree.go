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
)

// TreeModel is a single regression tree over every feature.
type TreeModel struct {
	index  int
	name   string
	params fit.TreeParams
	reg    *features.Registry
	tree   *model.Tree
}

func NewTree(index int, p fit.TreeParams) *TreeModel {
	depth := "none"
	if p.MaxDepth > 0 {
		depth = fmt.Sprint(p.MaxDepth)
	}
	return &TreeModel{
		index:  index,
		name:   fmt.Sprintf("dt (max_depth=%s, min_leaf=%d)", depth, max(p.MinSamplesLeaf, 1)),
		params: p,
	}
}

func (m *TreeModel) ID() string   { return ModelID(model.KindTree, m.index) }
func (m *TreeModel) Kind() string { return model.KindTree }
func (m *TreeModel) Name() string { return m.name }

// Tree exposes the fitted arena, nil before Fit.
func (m *TreeModel) Tree() *model.Tree { return m.tree }

func (m *TreeModel) Fit(ctx context.Context, train *dataset.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t, err := fit.GrowTree(train.Rows(), train.Targets(), m.params)
	if err != nil {
		return fmt.Errorf("%s: %w", m.ID(), err)
	}
	m.reg, m.tree = train.Features, t
	return nil
}

func (m *TreeModel) Predict(values []float64) float64 { return m.tree.Predict(values) }

// Score reports one entry covering the whole domain.
func (m *TreeModel) Score(test *dataset.Dataset) model.ScoreReport {
	e := model.ScoreEntry{Label: "all"}
	if test.Len() > 0 {
		pred := make([]float64, test.Len())
		for i, s := range test.Samples {
			pred[i] = m.Predict(s.Values)
		}
		e.Score = &model.Score{
			R2:      stat.RSquaredFrom(pred, test.Targets(), nil),
			Samples: test.Len(),
		}
	}
	return model.ScoreReport{e}
}

func (m *TreeModel) Weights() []Weights {
	if m.tree == nil {
		return nil
	}
	return []Weights{{Title: "Feature importances", Values: m.tree.Importances(m.reg.Len())}}
}

func (m *TreeModel) Document() (*model.Document, error) {
	if m.tree == nil {
		return nil, ErrNotFitted
	}
	return &model.Document{
		ID:       m.ID(),
		Kind:     model.KindTree,
		Name:     m.name,
		Features: m.reg.Names(),
		Tree:     m.tree,
	}, nil
}

func (m *TreeModel) Emit(opts codegen.Options) (Code, error) {
	if m.tree == nil {
		return Code{}, ErrNotFitted
	}
	fn := codegen.TreeFuncName(m.index)
	src, err := codegen.TreeFile(m.tree, m.reg, fn, opts)
	if err != nil {
		return Code{}, fmt.Errorf("%s: %w", m.ID(), err)
	}
	return Code{File: fmt.Sprintf("tree%dcode.go", m.index), Func: fn, Source: src}, nil
}
