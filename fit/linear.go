// Package fit is the numeric fitting backend: least squares for linear
// submodels and CART growth for regression trees. Callers treat it as a
// black box that turns a design matrix and a target vector into parameters.
package fit

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrEmpty         = errors.New("fit: no rows to fit")
	ErrFactorize     = errors.New("fit: SVD factorization failed")
	ErrShapeMismatch = errors.New("fit: design and target lengths differ")
)

// LinearFitter fits coefficients c minimising |X c - y|.
type LinearFitter interface {
	FitLinear(x *mat.Dense, y []float64) ([]float64, error)
}

// LeastSquares solves the problem through the SVD and returns the
// minimum-norm solution, so rank-deficient designs (a single row, collinear
// columns) still produce coefficients. There is no intercept term.
type LeastSquares struct{}

func (LeastSquares) FitLinear(x *mat.Dense, y []float64) ([]float64, error) {
	r, c := x.Dims()
	if r == 0 {
		return nil, ErrEmpty
	}
	if r != len(y) {
		return nil, fmt.Errorf("%w: %d rows, %d targets", ErrShapeMismatch, r, len(y))
	}

	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDThin) {
		return nil, ErrFactorize
	}
	eps := math.Nextafter(1, 2) - 1
	rank := svd.Rank(eps * float64(max(r, c)))
	if rank == 0 {
		return make([]float64, c), nil
	}

	var sol mat.VecDense
	svd.SolveVecTo(&sol, mat.NewVecDense(len(y), append([]float64(nil), y...)), rank)
	out := make([]float64, c)
	for i := range out {
		out[i] = sol.AtVec(i)
	}
	return out, nil
}

// Design builds the matrix of rows idx restricted to columns cols, both in
// the given order. It returns nil when either is empty.
func Design(rows [][]float64, idx, cols []int) *mat.Dense {
	if len(idx) == 0 || len(cols) == 0 {
		return nil
	}
	d := mat.NewDense(len(idx), len(cols), nil)
	for i, ri := range idx {
		for j, cj := range cols {
			d.Set(i, j, rows[ri][cj])
		}
	}
	return d
}
