package model

import (
	"fmt"
	"strconv"
)

// Score is the fit quality of one partition on held-out rows.
type Score struct {
	R2      float64 `json:"r2"`
	Samples int     `json:"samples"`
}

// ScoreEntry is one line of a score report. A nil Score means the partition
// received no held-out rows; it is never reported as a number.
type ScoreEntry struct {
	Label string `json:"label"`
	Score *Score `json:"score"`
}

func (e ScoreEntry) Tested() bool { return e.Score != nil }

func (e ScoreEntry) String() string {
	if e.Score == nil {
		return e.Label + ": No testing samples"
	}
	return fmt.Sprintf("%s: %s (%d testing samples)", e.Label,
		strconv.FormatFloat(e.Score.R2, 'g', -1, 64), e.Score.Samples)
}

// ScoreReport lists entries in partition order.
type ScoreReport []ScoreEntry
