package dataset

import (
	"math"
	"math/rand"
	"sort"
)

// Split partitions d into a training and a held-out set. The held-out set
// receives ceil(frac*n) rows drawn with a fixed-seed permutation, so the same
// seed always yields the same split. Both halves keep input order.
func Split(d *Dataset, frac float64, seed int64) (train, test *Dataset) {
	n := d.Len()
	nTest := int(math.Ceil(frac * float64(n)))
	if nTest > n {
		nTest = n
	}
	if nTest <= 0 {
		return d.Subset(seq(n)), d.Subset(nil)
	}

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)
	testIdx := append([]int(nil), perm[:nTest]...)
	trainIdx := append([]int(nil), perm[nTest:]...)
	sort.Ints(testIdx)
	sort.Ints(trainIdx)
	return d.Subset(trainIdx), d.Subset(testIdx)
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
