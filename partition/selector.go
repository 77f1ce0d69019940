package partition

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Selection is the outcome of feature selection for one partition.
type Selection struct {
	Kept      []int     // registry positions, ascending
	Dropped   []int     // registry positions with zero variance
	Variances []float64 // per registry position; nil for single-row groups
}

// SelectFeatures keeps the attributes that vary across the rows at idx.
// A single-row group keeps every attribute: nothing can be said about its
// variance and the point fit that follows is accepted as is.
func SelectFeatures(rows [][]float64, idx []int, n int) Selection {
	var sel Selection
	if len(idx) <= 1 {
		sel.Kept = make([]int, n)
		for j := range sel.Kept {
			sel.Kept[j] = j
		}
		return sel
	}

	col := make([]float64, len(idx))
	sel.Variances = make([]float64, n)
	for j := 0; j < n; j++ {
		for k, i := range idx {
			col[k] = rows[i][j]
		}
		// Variance is zero exactly when every value is equal; comparing the
		// extremes avoids rounding noise in the computed variance.
		if floats.Max(col) == floats.Min(col) {
			sel.Dropped = append(sel.Dropped, j)
			continue
		}
		sel.Variances[j] = stat.Variance(col, nil)
		sel.Kept = append(sel.Kept, j)
	}
	return sel
}
