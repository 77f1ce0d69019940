package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

const documentLayout = "evalgen_model_v1"

// Model kinds as stored in documents.
const (
	KindTree      = "tree"
	KindPiecewise = "piecewise"
)

var ErrBadDocument = errors.New("model: malformed model document")

// Document is the on-disk form of one fitted model. It carries the feature
// names so code can be regenerated without the dataset.
type Document struct {
	Layout    string     `json:"layout"`
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	Name      string     `json:"name"`
	Features  []string   `json:"features"`
	Tree      *Tree      `json:"tree,omitempty"`
	Piecewise *Piecewise `json:"piecewise,omitempty"`
}

// Marshal renders the document as indented JSON with a trailing newline.
func (d *Document) Marshal() ([]byte, error) {
	d.Layout = documentLayout
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", d.ID, err)
	}
	return append(b, '\n'), nil
}

// ParseDocument decodes and checks a document.
func ParseDocument(b []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDocument, err)
	}
	if d.Layout != documentLayout {
		return nil, fmt.Errorf("%w: layout %q", ErrBadDocument, d.Layout)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks that the model matches its feature list, so that code
// generation and prediction never index past it.
func (d *Document) Validate() error {
	n := len(d.Features)
	switch {
	case d.Kind == KindTree && d.Tree != nil:
		if err := d.Tree.Validate(); err != nil {
			return err
		}
		for i, node := range d.Tree.Nodes {
			if !node.Leaf && (node.Feature < 0 || node.Feature >= n) {
				return fmt.Errorf("%w: node %d feature %d of %d", ErrBadDocument, i, node.Feature, n)
			}
		}
	case d.Kind == KindPiecewise && d.Piecewise != nil:
		p := d.Piecewise
		for _, f := range []int{p.ColorFeature, p.BucketFeature} {
			if f < 0 || f >= n {
				return fmt.Errorf("%w: feature %d of %d", ErrBadDocument, f, n)
			}
		}
		for _, chain := range p.Chains {
			if len(chain) == 0 || !chain[len(chain)-1].Bound.Infinite {
				return fmt.Errorf("%w: chain without catch-all", ErrBadDocument)
			}
			for _, s := range chain {
				if len(s.Coefficients) != len(s.Kept) {
					return fmt.Errorf("%w: %s has %d coefficients for %d kept features",
						ErrBadDocument, s.Key, len(s.Coefficients), len(s.Kept))
				}
				for _, j := range s.Kept {
					if j < 0 || j >= n {
						return fmt.Errorf("%w: %s keeps feature %d of %d", ErrBadDocument, s.Key, j, n)
					}
				}
			}
		}
	default:
		return fmt.Errorf("%w: kind %q", ErrBadDocument, d.Kind)
	}
	return nil
}

// LoadDocument reads a document from path.
func LoadDocument(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := ParseDocument(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
