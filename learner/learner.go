// Package learner turns training data into fitted models. Both model kinds
// sit behind the Model interface so the pipeline can fit, score, document and
// emit them without knowing which is which.
package learner

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"evalgen/codegen"
	"evalgen/dataset"
	"evalgen/features"
	"evalgen/model"
	"evalgen/partition"
)

var (
	ErrNotFitted         = errors.New("learner: model is not fitted")
	ErrNoSamplesForColor = errors.New("learner: no training samples for color")
	ErrBadID             = errors.New("learner: malformed model id")
)

// Model is a trainable value estimator.
type Model interface {
	ID() string
	Kind() string
	Name() string
	Fit(ctx context.Context, train *dataset.Dataset) error
	Predict(values []float64) float64
	Score(test *dataset.Dataset) model.ScoreReport
	Weights() []Weights
	Document() (*model.Document, error)
	Emit(opts codegen.Options) (Code, error)
}

// Weights is one block of per-feature numbers shown in the stats report:
// importances for trees, coefficients per partition for piecewise models.
type Weights struct {
	Title  string
	Values []float64 // one per registry position
}

// Code is an emitted source file.
type Code struct {
	File   string
	Func   string
	Source []byte
}

// Observer receives counts produced while fitting. Any method may be a no-op.
type Observer interface {
	PartitionPruned(c partition.Color)
	FeaturesDropped(n int)
}

type nopObserver struct{}

func (nopObserver) PartitionPruned(partition.Color) {}
func (nopObserver) FeaturesDropped(int)             {}

// ShortName is the per-kind prefix of model IDs and stats file names.
func ShortName(kind string) string {
	if kind == model.KindTree {
		return "dtl"
	}
	return "lrl"
}

// ModelID builds the ID of the index-th model of a kind.
func ModelID(kind string, index int) string {
	return ShortName(kind) + "_" + strconv.Itoa(index)
}

func parseID(id string) (int, error) {
	_, n, ok := strings.Cut(id, "_")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrBadID, id)
	}
	i, err := strconv.Atoi(n)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadID, id)
	}
	return i, nil
}

// FromDocument rebuilds a fitted model from its document. The result can be
// emitted and used for prediction but not refitted.
func FromDocument(doc *model.Document) (Model, error) {
	reg, err := features.NewRegistry(doc.Features)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", doc.ID, err)
	}
	index, err := parseID(doc.ID)
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", doc.ID, err)
	}
	switch {
	case doc.Kind == model.KindTree && doc.Tree != nil:
		return &TreeModel{index: index, name: doc.Name, reg: reg, tree: doc.Tree}, nil
	case doc.Kind == model.KindPiecewise && doc.Piecewise != nil:
		p := doc.Piecewise
		return &PiecewiseModel{
			index: index,
			cfg: PiecewiseConfig{
				ColorFeature:  reg.Name(p.ColorFeature),
				BucketFeature: reg.Name(p.BucketFeature),
				Thresholds:    p.Thresholds,
			},
			reg: reg,
			pw:  p,
		}, nil
	}
	return nil, fmt.Errorf("%w: kind %q", model.ErrBadDocument, doc.Kind)
}
