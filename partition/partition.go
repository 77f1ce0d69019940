// Package partition maps samples to (color, bucket) keys and selects the
// features each partition keeps.
//
// Thresholds must be ascending. That is a caller precondition and is not
// checked here; unsorted lists give unspecified (but still total) bucketing.
package partition

import (
	"fmt"
	"sort"

	"golang.org/x/exp/maps"
)

// Color is the player flag a sample is evaluated for.
type Color int

const (
	Red Color = iota
	Blue
)

// Colors lists every color in dispatch order.
var Colors = [2]Color{Red, Blue}

// ColorOf maps the value of the color attribute to a Color: 0 is Red,
// anything else is Blue.
func ColorOf(v float64) Color {
	if v == 0 {
		return Red
	}
	return Blue
}

// Tag is the short name used in reports ("r" or "b").
func (c Color) Tag() string {
	if c == Red {
		return "r"
	}
	return "b"
}

func (c Color) String() string {
	if c == Red {
		return "red"
	}
	return "blue"
}

// Key identifies one partition.
type Key struct {
	Color  Color
	Bucket int
}

func (k Key) String() string { return fmt.Sprintf("%s:%d", k.Color.Tag(), k.Bucket) }

// Less orders keys by color, then bucket.
func (k Key) Less(o Key) bool {
	if k.Color != o.Color {
		return k.Color < o.Color
	}
	return k.Bucket < o.Bucket
}

// Thresholds holds the ascending bucket limits for each color.
type Thresholds [2][]int

// Shared returns Thresholds using the same list for both colors.
func Shared(t []int) Thresholds {
	return Thresholds{append([]int(nil), t...), append([]int(nil), t...)}
}

// Bucket returns the smallest i with value <= thresholds[i], or
// len(thresholds) when value exceeds every threshold.
func Bucket(value float64, thresholds []int) int {
	for i, t := range thresholds {
		if value <= float64(t) {
			return i
		}
	}
	return len(thresholds)
}

// Partitioner assigns keys using registry positions of the color and bucket
// attributes.
type Partitioner struct {
	Color      int
	Bucket     int
	Thresholds Thresholds
}

// KeyOf returns the key of a value vector.
func (p Partitioner) KeyOf(values []float64) Key {
	c := ColorOf(values[p.Color])
	return Key{Color: c, Bucket: Bucket(values[p.Bucket], p.Thresholds[c])}
}

// Buckets returns the number of buckets configured for c, catch-all included.
func (p Partitioner) Buckets(c Color) int { return len(p.Thresholds[c]) + 1 }

// Group is the set of rows sharing a key.
type Group struct {
	Key  Key
	Rows []int
}

// Group buckets rows by key. Groups come back ordered by key; rows inside a
// group keep input order. Keys with no rows are absent.
func (p Partitioner) Group(rows [][]float64) []Group {
	byKey := make(map[Key][]int)
	for i, v := range rows {
		k := p.KeyOf(v)
		byKey[k] = append(byKey[k], i)
	}
	keys := maps.Keys(byKey)
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	out := make([]Group, len(keys))
	for i, k := range keys {
		out[i] = Group{Key: k, Rows: byKey[k]}
	}
	return out
}
