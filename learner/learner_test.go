package learner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgen/codegen"
	"evalgen/dataset"
	"evalgen/features"
	"evalgen/fit"
	"evalgen/model"
	"evalgen/partition"
)

// rowsAt builds samples for one color and stone count with target coef*x.
func rowsAt(lp, stones int, coef float64, xs ...int) []dataset.Sample {
	var out []dataset.Sample
	for _, x := range xs {
		out = append(out, dataset.Sample{
			Values: []float64{float64(lp), float64(stones), float64(x)},
			Target: coef * float64(x),
		})
	}
	return out
}

func build(t *testing.T, groups ...[]dataset.Sample) *dataset.Dataset {
	t.Helper()
	reg, err := features.NewRegistry([]string{"lp", "num_stones", "x"})
	require.NoError(t, err)
	var all []dataset.Sample
	for _, g := range groups {
		all = append(all, g...)
	}
	return dataset.New(reg, all)
}

type countingObserver struct {
	pruned  [2]int
	dropped int
}

func (o *countingObserver) PartitionPruned(c partition.Color) { o.pruned[c]++ }
func (o *countingObserver) FeaturesDropped(n int)             { o.dropped += n }

func newPiecewise(th partition.Thresholds, obs Observer) *PiecewiseModel {
	return NewPiecewise(0, PiecewiseConfig{
		ColorFeature:  "lp",
		BucketFeature: "num_stones",
		Thresholds:    th,
		Observer:      obs,
	})
}

func bounds(chain []model.Submodel) []model.Bound {
	var out []model.Bound
	for _, s := range chain {
		out = append(out, s.Bound)
	}
	return out
}

func TestPiecewiseFitBucketsAndPrunes(t *testing.T) {
	train := build(t,
		rowsAt(0, 5, 2, 1, 2, 3, 4),
		rowsAt(0, 30, 3, 1, 2, 3, 4),
		rowsAt(0, 100, -1, 1, 2, 3, 4),
		rowsAt(1, 5, 0.5, 2, 4, 6),
	)
	obs := &countingObserver{}
	m := newPiecewise(partition.Shared([]int{10, 50}), obs)
	require.NoError(t, m.Fit(context.Background(), train))
	pw := m.Piecewise()

	red := pw.Chains[partition.Red]
	require.Len(t, red, 3)
	assert.Equal(t, []model.Bound{model.Upto(10), model.Upto(50), model.Infinity}, bounds(red))
	assert.Equal(t, []int{0, 1, 2}, []int{red[0].Key.Bucket, red[1].Key.Bucket, red[2].Key.Bucket})
	for i, want := range []float64{2, 3, -1} {
		require.Equal(t, []int{2}, red[i].Kept, "constant lp and num_stones are dropped")
		assert.InDelta(t, want, red[i].Coefficients[0], 1e-9)
	}

	blue := pw.Chains[partition.Blue]
	require.Len(t, blue, 1)
	assert.Equal(t, model.Infinity, blue[0].Bound)
	assert.Equal(t, []partition.Key{{Color: partition.Blue, Bucket: 1}, {Color: partition.Blue, Bucket: 2}}, pw.Pruned)
	assert.Equal(t, [2]int{0, 2}, obs.pruned)
	assert.Equal(t, 8, obs.dropped)

	// Blue rows beyond the pruned buckets fall to the surviving catch-all.
	assert.InDelta(t, 5.0, m.Predict([]float64{1, 70, 10}), 1e-9)
}

func TestPiecewiseRoutesThroughSurvivors(t *testing.T) {
	train := build(t,
		rowsAt(0, 5, 2, 1, 2, 3),
		rowsAt(0, 100, -1, 1, 2, 3),
		rowsAt(1, 5, 1, 1, 2, 3),
	)
	m := newPiecewise(partition.Shared([]int{10, 50}), nil)
	require.NoError(t, m.Fit(context.Background(), train))

	red := m.Piecewise().Chains[partition.Red]
	assert.Equal(t, []model.Bound{model.Upto(10), model.Infinity}, bounds(red))
	// num_stones 30 had its own bucket; it now belongs to the catch-all.
	assert.InDelta(t, -4.0, m.Predict([]float64{0, 30, 4}), 1e-9)
}

func TestPiecewiseNoSamplesForColor(t *testing.T) {
	train := build(t, rowsAt(0, 5, 1, 1, 2, 3))
	m := newPiecewise(partition.Shared([]int{10}), nil)
	err := m.Fit(context.Background(), train)
	require.ErrorIs(t, err, ErrNoSamplesForColor)
	assert.Nil(t, m.Piecewise())

	_, err = m.Emit(codegen.DefaultOptions())
	require.ErrorIs(t, err, ErrNotFitted)
}

func TestPiecewiseUnknownFeature(t *testing.T) {
	train := build(t, rowsAt(0, 5, 1, 1, 2))
	m := NewPiecewise(0, PiecewiseConfig{ColorFeature: "side", BucketFeature: "num_stones"})
	require.ErrorIs(t, m.Fit(context.Background(), train), features.ErrUnknownName)
}

func TestPiecewiseScore(t *testing.T) {
	train := build(t,
		rowsAt(0, 5, 2, 1, 2, 3),
		rowsAt(0, 30, 3, 1, 2, 3),
		rowsAt(1, 5, 1, 1, 2, 3),
	)
	m := newPiecewise(partition.Shared([]int{10}), nil)
	require.NoError(t, m.Fit(context.Background(), train))

	test := build(t, rowsAt(0, 7, 2, 5, 6, 8))
	report := m.Score(test)
	require.Len(t, report, 3)
	assert.Equal(t, []string{"r:10", "r:inf", "b:inf"},
		[]string{report[0].Label, report[1].Label, report[2].Label})

	require.True(t, report[0].Tested())
	assert.Equal(t, 3, report[0].Score.Samples)
	assert.InDelta(t, 1.0, report[0].Score.R2, 1e-9)
	assert.False(t, report[1].Tested())
	assert.False(t, report[2].Tested())
	assert.Equal(t, "b:inf: No testing samples", report[2].String())
}

func TestPiecewiseWeights(t *testing.T) {
	train := build(t, rowsAt(0, 5, 2, 1, 2, 3), rowsAt(1, 5, 1, 1, 2, 3))
	m := newPiecewise(partition.Thresholds{}, nil)
	require.NoError(t, m.Fit(context.Background(), train))

	w := m.Weights()
	require.Len(t, w, 2)
	assert.Equal(t, "Feature coefficients (split r:inf)", w[0].Title)
	require.Len(t, w[0].Values, 3)
	assert.Equal(t, 0.0, w[0].Values[0])
	assert.InDelta(t, 2.0, w[0].Values[2], 1e-9)
}

func TestPiecewiseDocumentRoundTrip(t *testing.T) {
	train := build(t, rowsAt(0, 5, 2, 1, 2, 3), rowsAt(1, 60, -1, 1, 2, 3))
	m := newPiecewise(partition.Shared([]int{10, 50}), nil)
	require.NoError(t, m.Fit(context.Background(), train))

	doc, err := m.Document()
	require.NoError(t, err)
	b, err := doc.Marshal()
	require.NoError(t, err)
	back, err := model.ParseDocument(b)
	require.NoError(t, err)
	rebuilt, err := FromDocument(back)
	require.NoError(t, err)
	assert.Equal(t, "lrl_0", rebuilt.ID())
	assert.Equal(t, m.Name(), rebuilt.Name())

	want, err := m.Emit(codegen.DefaultOptions())
	require.NoError(t, err)
	got, err := rebuilt.Emit(codegen.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "linear0code.go", got.File)
	assert.Equal(t, string(want.Source), string(got.Source))
}

func TestTreeModel(t *testing.T) {
	var samples []dataset.Sample
	for i := 0; i < 20; i++ {
		target := -1.0
		if i >= 10 {
			target = 1
		}
		samples = append(samples, dataset.Sample{Values: []float64{float64(i % 2), float64(i), 7}, Target: target})
	}
	train := build(t, samples)

	m := NewTree(2, fit.TreeParams{MaxDepth: 3, MinSamplesLeaf: 2})
	assert.Equal(t, "dtl_2", m.ID())
	assert.Equal(t, "dt (max_depth=3, min_leaf=2)", m.Name())
	require.NoError(t, m.Fit(context.Background(), train))

	assert.Equal(t, -1.0, m.Predict([]float64{0, 3, 7}))
	assert.Equal(t, 1.0, m.Predict([]float64{1, 15, 7}))

	report := m.Score(train)
	require.Len(t, report, 1)
	assert.Equal(t, "all", report[0].Label)
	assert.InDelta(t, 1.0, report[0].Score.R2, 1e-12)
	assert.False(t, m.Score(dataset.New(train.Features, nil))[0].Tested())

	w := m.Weights()
	require.Len(t, w, 1)
	assert.Equal(t, []float64{0, 1, 0}, w[0].Values)

	code, err := m.Emit(codegen.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "tree2code.go", code.File)
	assert.Equal(t, "getEstimatedValueDT2", code.Func)
	assert.Contains(t, string(code.Source), "if s.num_stones <= 9 {")

	doc, err := m.Document()
	require.NoError(t, err)
	rebuilt, err := FromDocument(doc)
	require.NoError(t, err)
	again, err := rebuilt.Emit(codegen.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, code, again)
}

func TestUnlimitedTreeName(t *testing.T) {
	assert.Equal(t, "dt (max_depth=none, min_leaf=1)", NewTree(0, fit.TreeParams{}).Name())
}

func TestFromDocumentRejects(t *testing.T) {
	_, err := FromDocument(&model.Document{ID: "dtl", Kind: model.KindTree, Features: []string{"a"}, Tree: &model.Tree{Nodes: []model.Node{{Leaf: true}}}})
	require.ErrorIs(t, err, ErrBadID)

	_, err = FromDocument(&model.Document{ID: "x_1", Kind: "forest", Features: []string{"a"}})
	require.ErrorIs(t, err, model.ErrBadDocument)

	_, err = FromDocument(&model.Document{ID: "x_1", Kind: model.KindTree, Features: []string{"a", "a"}})
	require.ErrorIs(t, err, features.ErrDuplicateName)

	piecewise := func(red model.Submodel) *model.Document {
		p := &model.Piecewise{ColorFeature: 0, BucketFeature: 1}
		p.Chains[partition.Red] = []model.Submodel{red}
		p.Chains[partition.Blue] = []model.Submodel{{Bound: model.Infinity, Kept: []int{2}, Coefficients: []float64{1}}}
		return &model.Document{ID: "lrl_0", Kind: model.KindPiecewise, Features: []string{"lp", "num_stones", "x"}, Piecewise: p}
	}
	short := piecewise(model.Submodel{Bound: model.Infinity, Kept: []int{1, 2}, Coefficients: []float64{1.5}})
	_, err = FromDocument(short)
	require.ErrorIs(t, err, model.ErrBadDocument)

	b, err := short.Marshal()
	require.NoError(t, err)
	_, err = model.ParseDocument(b)
	require.ErrorIs(t, err, model.ErrBadDocument)

	_, err = FromDocument(piecewise(model.Submodel{Bound: model.Infinity, Kept: []int{3}, Coefficients: []float64{1}}))
	require.ErrorIs(t, err, model.ErrBadDocument)

	m, err := FromDocument(piecewise(model.Submodel{Bound: model.Infinity, Kept: []int{1, 2}, Coefficients: []float64{1.5, 2}}))
	require.NoError(t, err)
	_, err = m.Emit(codegen.DefaultOptions())
	require.NoError(t, err)

	tree := &model.Tree{Nodes: []model.Node{
		{Feature: 4, Threshold: 1, Left: 1, Right: 2},
		{Leaf: true, Value: 1},
		{Leaf: true, Value: 2},
	}}
	_, err = FromDocument(&model.Document{ID: "dtl_0", Kind: model.KindTree, Features: []string{"a"}, Tree: tree})
	require.ErrorIs(t, err, model.ErrBadDocument)
}

func TestFitHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	train := build(t, rowsAt(0, 5, 1, 1, 2), rowsAt(1, 5, 1, 1, 2))
	require.ErrorIs(t, newPiecewise(partition.Thresholds{}, nil).Fit(ctx, train), context.Canceled)
	require.ErrorIs(t, NewTree(0, fit.TreeParams{}).Fit(ctx, train), context.Canceled)
}
