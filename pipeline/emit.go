package pipeline

import (
	"errors"
	"fmt"
	"slices"

	"evalgen/artifact"
	"evalgen/codegen"
	"evalgen/features"
	"evalgen/learner"
	"evalgen/model"
)

var (
	ErrNoDocuments     = errors.New("pipeline: no model documents given")
	ErrFeatureMismatch = errors.New("pipeline: model documents disagree on features")
)

// EmitDocuments regenerates code from saved model documents without
// refitting. All documents must share one feature list, since they share
// the record declaration.
func EmitDocuments(paths []string, opts codegen.Options) (*artifact.Bundle, error) {
	if len(paths) == 0 {
		return nil, ErrNoDocuments
	}
	b := &artifact.Bundle{}
	var (
		names []string
		est   []codegen.Estimator
	)
	for _, p := range paths {
		doc, err := model.LoadDocument(p)
		if err != nil {
			return nil, err
		}
		if names == nil {
			names = doc.Features
		} else if !slices.Equal(names, doc.Features) {
			return nil, fmt.Errorf("%w: %s", ErrFeatureMismatch, p)
		}
		m, err := learner.FromDocument(doc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		code, err := m.Emit(opts)
		if err != nil {
			return nil, err
		}
		if err := b.Add(code.File, code.Source); err != nil {
			return nil, err
		}
		est = append(est, codegen.Estimator{ID: m.ID(), Func: code.Func})
	}

	reg, err := features.NewRegistry(names)
	if err != nil {
		return nil, err
	}
	rec, err := codegen.RecordFile(reg, opts)
	if err != nil {
		return nil, err
	}
	if err := b.Add("sample.go", rec); err != nil {
		return nil, err
	}
	table, err := codegen.EstimatorsFile(est, opts)
	if err != nil {
		return nil, err
	}
	if err := b.Add("estimators.go", table); err != nil {
		return nil, err
	}
	return b, nil
}
