// Package report renders the plain-text statistics written next to the
// generated code: per model, its feature weights and held-out scores.
package report

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"evalgen/learner"
	"evalgen/model"
)

const rule = "##########################################"

// Section is the report of one fitted model.
type Section struct {
	Name     string
	Features []string
	Weights  []learner.Weights
	Scores   model.ScoreReport
}

// FileName is the stats file of one learner kind.
func FileName(kind string) string { return "stats_" + learner.ShortName(kind) + ".txt" }

// NewSection collects everything the report needs from a fitted model.
func NewSection(m learner.Model, features []string, scores model.ScoreReport) Section {
	return Section{Name: m.Name(), Features: features, Weights: m.Weights(), Scores: scores}
}

// Write renders sections in order.
func Write(w io.Writer, sections []Section) error {
	for _, s := range sections {
		if _, err := io.WriteString(w, render(s)); err != nil {
			return err
		}
	}
	return nil
}

// Render is Write into memory.
func Render(sections []Section) []byte {
	var b bytes.Buffer
	_ = Write(&b, sections)
	return b.Bytes()
}

func render(s Section) string {
	var b strings.Builder
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Statistics for: %s\n", s.Name)
	for _, w := range s.Weights {
		b.WriteString(w.Title + ":\n")
		for i, v := range w.Values {
			name := strconv.Itoa(i)
			if i < len(s.Features) {
				name = s.Features[i]
			}
			fmt.Fprintf(&b, "\t%s: %s\n", name, strconv.FormatFloat(v, 'g', -1, 64))
		}
	}
	b.WriteString("SCORE:\n")
	for _, e := range s.Scores {
		b.WriteString(e.String() + "\n")
	}
	return b.String()
}
