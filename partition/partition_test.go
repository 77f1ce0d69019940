package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucket(t *testing.T) {
	th := []int{10, 50}
	cases := []struct {
		v    float64
		want int
	}{
		{0, 0},
		{5, 0},
		{10, 0}, // inclusive, lower index wins
		{11, 1},
		{30, 1},
		{50, 1},
		{51, 2},
		{100, 2},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Bucket(tc.v, th), "value %v", tc.v)
	}
}

func TestBucketNoThresholds(t *testing.T) {
	for _, v := range []float64{0, 1, 1e9} {
		assert.Equal(t, 0, Bucket(v, nil))
	}
}

func TestBucketAlwaysInRange(t *testing.T) {
	th := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 12, 15, 18, 22, 28, 36, 46, 58, 70, 85, 100}
	for v := 0; v <= 200; v++ {
		b := Bucket(float64(v), th)
		require.GreaterOrEqual(t, b, 0)
		require.LessOrEqual(t, b, len(th))
		if v > 100 {
			require.Equal(t, len(th), b)
		}
	}
}

func TestPartitionerGroup(t *testing.T) {
	// columns: lp, num_stones
	p := Partitioner{Color: 0, Bucket: 1, Thresholds: Thresholds{{10, 50}, {20}}}
	rows := [][]float64{
		{0, 5},
		{0, 30},
		{1, 30},
		{0, 100},
		{1, 3},
		{0, 7},
	}
	got := p.Group(rows)
	want := []Group{
		{Key{Red, 0}, []int{0, 5}},
		{Key{Red, 1}, []int{1}},
		{Key{Red, 2}, []int{3}},
		{Key{Blue, 0}, []int{4}},
		{Key{Blue, 1}, []int{2}},
	}
	assert.Equal(t, want, got)
	assert.Equal(t, 3, p.Buckets(Red))
	assert.Equal(t, 2, p.Buckets(Blue))
}

func TestColorOf(t *testing.T) {
	assert.Equal(t, Red, ColorOf(0))
	assert.Equal(t, Blue, ColorOf(1))
	assert.Equal(t, Blue, ColorOf(2))
	assert.Equal(t, "r:3", Key{Red, 3}.String())
	assert.Equal(t, "b", Blue.Tag())
}

func TestSelectFeatures(t *testing.T) {
	rows := [][]float64{
		{1, 0.1, 7},
		{1, 0.1, 8},
		{1, 0.1, 9},
		{2, 0.3, 9},
	}
	sel := SelectFeatures(rows, []int{0, 1, 2}, 3)
	assert.Equal(t, []int{2}, sel.Kept)
	assert.Equal(t, []int{0, 1}, sel.Dropped)
	assert.InDelta(t, 1.0, sel.Variances[2], 1e-12)

	sel = SelectFeatures(rows, []int{0, 1, 2, 3}, 3)
	assert.Equal(t, []int{0, 1, 2}, sel.Kept)
	assert.Empty(t, sel.Dropped)
}

func TestSelectFeaturesSingleRowKeepsAll(t *testing.T) {
	rows := [][]float64{{4, 4, 4}}
	sel := SelectFeatures(rows, []int{0}, 3)
	assert.Equal(t, []int{0, 1, 2}, sel.Kept)
	assert.Empty(t, sel.Dropped)
}
