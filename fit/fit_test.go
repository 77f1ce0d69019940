package fit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestLeastSquaresExact(t *testing.T) {
	// y = 2a - 3b, no intercept.
	rows := [][]float64{{1, 0}, {0, 1}, {1, 1}, {2, 3}, {4, -1}}
	y := make([]float64, len(rows))
	for i, r := range rows {
		y[i] = 2*r[0] - 3*r[1]
	}
	x := Design(rows, []int{0, 1, 2, 3, 4}, []int{0, 1})

	c, err := LeastSquares{}.FitLinear(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 2, c[0], 1e-9)
	assert.InDelta(t, -3, c[1], 1e-9)
}

func TestLeastSquaresMinNorm(t *testing.T) {
	// One row, two columns: the minimum-norm solution of a+b=4 is (2, 2).
	x := mat.NewDense(1, 2, []float64{1, 1})
	c, err := LeastSquares{}.FitLinear(x, []float64{4})
	require.NoError(t, err)
	assert.InDelta(t, 2, c[0], 1e-9)
	assert.InDelta(t, 2, c[1], 1e-9)

	// Collinear columns split the weight evenly.
	x = mat.NewDense(3, 2, []float64{1, 1, 2, 2, 3, 3})
	c, err = LeastSquares{}.FitLinear(x, []float64{2, 4, 6})
	require.NoError(t, err)
	assert.InDelta(t, 1, c[0], 1e-9)
	assert.InDelta(t, 1, c[1], 1e-9)
}

func TestLeastSquaresErrors(t *testing.T) {
	x := mat.NewDense(2, 1, []float64{1, 2})
	_, err := LeastSquares{}.FitLinear(x, []float64{1})
	require.ErrorIs(t, err, ErrShapeMismatch)

	zero := mat.NewDense(2, 2, nil)
	c, err := LeastSquares{}.FitLinear(zero, []float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, c)
}

func TestDesign(t *testing.T) {
	rows := [][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}
	d := Design(rows, []int{2, 0}, []int{2, 1})
	r, c := d.Dims()
	require.Equal(t, 2, r)
	require.Equal(t, 2, c)
	assert.Equal(t, 9.0, d.At(0, 0))
	assert.Equal(t, 2.0, d.At(1, 1))
	assert.Nil(t, Design(rows, nil, []int{0}))
	assert.Nil(t, Design(rows, []int{0}, nil))
}

func TestGrowTreeStep(t *testing.T) {
	x := [][]float64{{0, 5}, {1, 5}, {2, 5}, {3, 5}, {4, 5}, {5, 5}}
	y := []float64{1, 1, 1, 9, 9, 9}

	tr, err := GrowTree(x, y, TreeParams{})
	require.NoError(t, err)
	require.NoError(t, tr.Validate())

	root := tr.Nodes[0]
	require.False(t, root.Leaf)
	assert.Equal(t, 0, root.Feature)
	assert.Equal(t, 2.5, root.Threshold)
	assert.Equal(t, 3, len(tr.Nodes))
	for i, v := range x {
		assert.Equal(t, y[i], tr.Predict(v))
	}
}

func TestGrowTreeLimits(t *testing.T) {
	var x [][]float64
	var y []float64
	for i := 0; i < 32; i++ {
		x = append(x, []float64{float64(i)})
		y = append(y, float64(i*i))
	}

	tr, err := GrowTree(x, y, TreeParams{MaxDepth: 2})
	require.NoError(t, err)
	assert.LessOrEqual(t, tr.Depth(), 2)
	assert.LessOrEqual(t, tr.Leaves(), 4)

	tr, err = GrowTree(x, y, TreeParams{MinSamplesLeaf: 10})
	require.NoError(t, err)
	for _, n := range tr.Nodes {
		if n.Leaf {
			assert.GreaterOrEqual(t, n.Samples, 10)
		}
	}

	tr, err = GrowTree(x, y, TreeParams{})
	require.NoError(t, err)
	assert.Equal(t, 32, tr.Leaves())
}

func TestGrowTreeDeterministicTies(t *testing.T) {
	// Both features separate the target equally well; the first one wins.
	x := [][]float64{{0, 0}, {0, 0}, {1, 1}, {1, 1}}
	y := []float64{0, 0, 1, 1}
	tr, err := GrowTree(x, y, TreeParams{})
	require.NoError(t, err)
	assert.Equal(t, 0, tr.Nodes[0].Feature)
	assert.Equal(t, 0.5, tr.Nodes[0].Threshold)

	again, err := GrowTree(x, y, TreeParams{})
	require.NoError(t, err)
	assert.Equal(t, tr, again)
}

func TestGrowTreeConstantTarget(t *testing.T) {
	tr, err := GrowTree([][]float64{{1}, {2}, {3}}, []float64{4, 4, 4}, TreeParams{})
	require.NoError(t, err)
	require.Len(t, tr.Nodes, 1)
	assert.True(t, tr.Nodes[0].Leaf)
	assert.Equal(t, 4.0, tr.Nodes[0].Value)

	_, err = GrowTree(nil, nil, TreeParams{})
	require.ErrorIs(t, err, ErrEmpty)
}
