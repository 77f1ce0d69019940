package model

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyTree = errors.New("model: tree has no nodes")
	// ErrCyclicTree covers every arena that is not a tree rooted at node 0:
	// back edges, shared children, unreachable nodes.
	ErrCyclicTree = errors.New("model: node arena is not a tree")
)

// Node is one decision-tree node. Internal nodes test
// values[Feature] <= Threshold and send true to Left.
type Node struct {
	Leaf      bool    `json:"leaf,omitempty"`
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Value     float64 `json:"value"`
	Samples   int     `json:"samples"`
	Impurity  float64 `json:"impurity"`
}

// Tree is a node arena rooted at index 0. Children always sit at larger
// indexes than their parent and belong to exactly one parent.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Validate checks the ownership rules of the arena.
func (t *Tree) Validate() error {
	if len(t.Nodes) == 0 {
		return ErrEmptyTree
	}
	owned := make([]bool, len(t.Nodes))
	owned[0] = true
	for i, n := range t.Nodes {
		if n.Leaf {
			continue
		}
		for _, c := range [2]int{n.Left, n.Right} {
			if c <= i || c >= len(t.Nodes) || owned[c] {
				return fmt.Errorf("node %d child %d: %w", i, c, ErrCyclicTree)
			}
			owned[c] = true
		}
	}
	for i, ok := range owned {
		if !ok {
			return fmt.Errorf("node %d unreachable: %w", i, ErrCyclicTree)
		}
	}
	return nil
}

// Predict walks the tree for values.
func (t *Tree) Predict(values []float64) float64 {
	n := t.Nodes[0]
	for !n.Leaf {
		if values[n.Feature] <= n.Threshold {
			n = t.Nodes[n.Left]
		} else {
			n = t.Nodes[n.Right]
		}
	}
	return n.Value
}

// Depth is the number of guard checks on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	depth := make([]int, len(t.Nodes))
	max := 0
	for i, n := range t.Nodes {
		if n.Leaf {
			if depth[i] > max {
				max = depth[i]
			}
			continue
		}
		depth[n.Left] = depth[i] + 1
		depth[n.Right] = depth[i] + 1
	}
	return max
}

// Leaves counts leaf nodes.
func (t *Tree) Leaves() int {
	n := 0
	for _, nd := range t.Nodes {
		if nd.Leaf {
			n++
		}
	}
	return n
}

// Importances returns the normalised impurity decrease contributed by each of
// n features. A tree without splits gives all zeros.
func (t *Tree) Importances(n int) []float64 {
	imp := make([]float64, n)
	if len(t.Nodes) == 0 {
		return imp
	}
	for _, nd := range t.Nodes {
		if nd.Leaf {
			continue
		}
		l, r := t.Nodes[nd.Left], t.Nodes[nd.Right]
		imp[nd.Feature] += float64(nd.Samples)*nd.Impurity -
			float64(l.Samples)*l.Impurity -
			float64(r.Samples)*r.Impurity
	}
	total := 0.0
	for _, v := range imp {
		total += v
	}
	if total <= 0 {
		return make([]float64, n)
	}
	for i := range imp {
		imp[i] /= total
	}
	return imp
}
