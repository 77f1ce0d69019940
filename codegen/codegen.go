// Package codegen compiles fitted models into standalone Go source. The
// generated files import nothing: they read integer fields of a generated
// record struct and return a float64 estimate.
package codegen

import (
	"errors"
	"fmt"
	"go/format"
	"go/token"
	"math"
	"strconv"
	"strings"

	"evalgen/features"
)

// Header opens every generated file.
const Header = "// Code generated by evalgen. DO NOT EDIT.\n"

var (
	ErrNonFinite   = errors.New("codegen: constant is not finite")
	ErrBadFeature  = errors.New("codegen: feature index out of range")
	ErrInvalidName = errors.New("codegen: not a Go identifier")
)

// Options names the generated package and record type.
type Options struct {
	Package string
	Record  string
}

func DefaultOptions() Options { return Options{Package: "ab", Record: "Sample"} }

func (o Options) check() error {
	for _, id := range []string{o.Package, o.Record} {
		if !token.IsIdentifier(id) {
			return fmt.Errorf("%w: %q", ErrInvalidName, id)
		}
	}
	return nil
}

// TreeFuncName and PiecewiseFuncName name the function emitted for the
// i-th model of each kind.
func TreeFuncName(i int) string      { return "getEstimatedValueDT" + strconv.Itoa(i) }
func PiecewiseFuncName(i int) string { return "getEstimatedValueLR" + strconv.Itoa(i) }

// Literal is the shortest decimal that parses back to exactly v.
func Literal(v float64) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", fmt.Errorf("%w: %v", ErrNonFinite, v)
	}
	return strconv.FormatFloat(v, 'g', -1, 64), nil
}

// floorLiteral renders floor(v) as an integer constant. Record fields are
// integers, so f <= v and f <= floor(v) select the same values.
func floorLiteral(v float64) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", fmt.Errorf("%w: threshold %v", ErrNonFinite, v)
	}
	return strconv.FormatFloat(math.Floor(v), 'f', -1, 64), nil
}

func field(reg *features.Registry, i int) (string, error) {
	if i < 0 || i >= reg.Len() {
		return "", fmt.Errorf("%w: %d", ErrBadFeature, i)
	}
	return "s." + reg.Name(i), nil
}

// source assembles header, package clause and body, then gofmts the result.
func source(opts Options, body string) ([]byte, error) {
	if err := opts.check(); err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString(Header)
	b.WriteString("\npackage " + opts.Package + "\n\n")
	b.WriteString(body)
	out, err := format.Source([]byte(b.String()))
	if err != nil {
		return nil, fmt.Errorf("codegen: format: %w", err)
	}
	return out, nil
}

// RecordFile declares the record type with one int field per feature, in
// registry order.
func RecordFile(reg *features.Registry, opts Options) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "type %s struct {\n", opts.Record)
	for _, n := range reg.Names() {
		fmt.Fprintf(&b, "\t%s int\n", n)
	}
	b.WriteString("}\n")
	return source(opts, b.String())
}

// Estimator pairs a model ID with the emitted function computing it.
type Estimator struct {
	ID   string
	Func string
}

// EstimatorsFile emits a lookup from model ID to estimator function.
func EstimatorsFile(est []Estimator, opts Options) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "var estimators = map[string]func(*%s) float64{\n", opts.Record)
	for _, e := range est {
		if !token.IsIdentifier(e.Func) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidName, e.Func)
		}
		fmt.Fprintf(&b, "\t%s: %s,\n", strconv.Quote(e.ID), e.Func)
	}
	b.WriteString("}\n\n")
	b.WriteString("// GetEstimateFunction returns the estimator registered under id, or nil.\n")
	fmt.Fprintf(&b, "func GetEstimateFunction(id string) func(*%s) float64 {\n", opts.Record)
	b.WriteString("\treturn estimators[id]\n}\n")
	return source(opts, b.String())
}
