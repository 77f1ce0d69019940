package fit

import (
	"sort"

	"evalgen/model"
)

// TreeParams bounds tree growth.
type TreeParams struct {
	MaxDepth        int // <= 0 grows until leaves are pure or too small
	MinSamplesLeaf  int // minimum rows on each side of a split
	MinSamplesSplit int // minimum rows in a node before splitting is tried
}

func (p TreeParams) withDefaults() TreeParams {
	if p.MinSamplesLeaf < 1 {
		p.MinSamplesLeaf = 1
	}
	if p.MinSamplesSplit < 2 {
		p.MinSamplesSplit = 2
	}
	return p
}

type growItem struct {
	node  int
	depth int
	rows  []int
}

// GrowTree fits a regression tree by greedy variance reduction. Every
// feature is scanned in registry order and a split must strictly improve on
// the best one found so far, so ties go to the lowest feature index and the
// lowest threshold: the same input always yields the same tree.
func GrowTree(x [][]float64, y []float64, p TreeParams) (*model.Tree, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, ErrEmpty
	}
	p = p.withDefaults()
	nFeatures := len(x[0])

	rows := make([]int, len(y))
	for i := range rows {
		rows[i] = i
	}
	t := &model.Tree{Nodes: []model.Node{{Samples: len(rows)}}}
	stack := []growItem{{node: 0, rows: rows}}
	buf := make([]float64, len(rows))

	for len(stack) > 0 {
		w := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		imp, mean := meanVar(y, w.rows)
		n := &t.Nodes[w.node]
		n.Impurity, n.Value = imp, mean

		if len(w.rows) < p.MinSamplesSplit ||
			len(w.rows) < 2*p.MinSamplesLeaf ||
			(p.MaxDepth > 0 && w.depth >= p.MaxDepth) ||
			imp <= 1e-7 {
			n.Leaf = true
			continue
		}

		var (
			dBest float64
			vBest float64
			fBest = -1
		)
		for f := 0; f < nFeatures; f++ {
			xs := buf[:len(w.rows)]
			sortByFeature(x, w.rows, f)
			for i, r := range w.rows {
				xs[i] = x[r][f]
			}
			if xs[len(xs)-1] <= xs[0] {
				continue // constant in this node
			}
			v, d, ok := bestSplit(xs, y, w.rows, imp, p.MinSamplesLeaf)
			if ok && d > dBest {
				dBest, vBest, fBest = d, v, f
			}
		}
		if fBest < 0 {
			n.Leaf = true
			continue
		}

		var left, right []int
		for _, r := range w.rows {
			if x[r][fBest] <= vBest {
				left = append(left, r)
			} else {
				right = append(right, r)
			}
		}
		li, ri := len(t.Nodes), len(t.Nodes)+1
		n.Feature, n.Threshold, n.Left, n.Right = fBest, vBest, li, ri
		// n is invalid after the append below.
		t.Nodes = append(t.Nodes,
			model.Node{Samples: len(left)},
			model.Node{Samples: len(right)})
		stack = append(stack,
			growItem{node: ri, depth: w.depth + 1, rows: right},
			growItem{node: li, depth: w.depth + 1, rows: left})
	}
	return t, nil
}

func sortByFeature(x [][]float64, rows []int, f int) {
	sort.SliceStable(rows, func(i, j int) bool { return x[rows[i]][f] < x[rows[j]][f] })
}

// bestSplit scans sorted feature values xs (parallel to rows) and returns the
// threshold with the largest impurity decrease.
func bestSplit(xs, y []float64, rows []int, impInit float64, minLeaf int) (float64, float64, bool) {
	var (
		sL, ssL, sR, ssR float64
		dBest, vBest     float64
		found            bool
	)
	n := len(xs)
	for _, r := range rows {
		sR += y[r]
		ssR += y[r] * y[r]
	}
	nLeft, nRight := 0, n
	last := 0
	for i := 1; i < n; i++ {
		if xs[i] <= xs[i-1] {
			continue // can't split between equal values
		}
		for j := last; j < i; j++ {
			v := y[rows[j]]
			nLeft++
			sL += v
			ssL += v * v
			nRight--
			sR -= v
			ssR -= v * v
		}
		last = i
		if nLeft < minLeaf || nRight < minLeaf {
			continue
		}

		lMean := sL / float64(nLeft)
		rMean := sR / float64(nRight)
		iL := ssL/float64(nLeft) - lMean*lMean
		iR := ssR/float64(nRight) - rMean*rMean
		d := impInit - float64(nLeft)/float64(n)*iL - float64(nRight)/float64(n)*iR
		if !found || d > dBest {
			thr := (xs[i-1] + xs[i]) / 2
			if thr >= xs[i] {
				thr = xs[i-1]
			}
			dBest, vBest, found = d, thr, true
		}
	}
	return vBest, dBest, found
}

func meanVar(y []float64, rows []int) (float64, float64) {
	var s, ss float64
	for _, r := range rows {
		s += y[r]
		ss += y[r] * y[r]
	}
	mean := s / float64(len(rows))
	v := ss/float64(len(rows)) - mean*mean
	if v < 0 {
		v = 0
	}
	return v, mean
}
