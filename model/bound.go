package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Bound is the inclusive upper limit of a submodel's bucket range.
type Bound struct {
	Limit    int
	Infinite bool
}

// Infinity covers every bucket value.
var Infinity = Bound{Infinite: true}

func Upto(limit int) Bound { return Bound{Limit: limit} }

// Covers reports whether v falls at or below the bound.
func (b Bound) Covers(v float64) bool {
	return b.Infinite || v <= float64(b.Limit)
}

// Less orders finite bounds numerically, infinity last.
func (b Bound) Less(o Bound) bool {
	switch {
	case b.Infinite:
		return false
	case o.Infinite:
		return true
	}
	return b.Limit < o.Limit
}

func (b Bound) String() string {
	if b.Infinite {
		return "inf"
	}
	return strconv.Itoa(b.Limit)
}

func (b Bound) MarshalJSON() ([]byte, error) {
	if b.Infinite {
		return []byte(`"inf"`), nil
	}
	return []byte(strconv.Itoa(b.Limit)), nil
}

func (b *Bound) UnmarshalJSON(data []byte) error {
	if string(data) == `"inf"` {
		*b = Infinity
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("bound: %w", err)
	}
	*b = Upto(n)
	return nil
}
