package codegen

import (
	"fmt"
	"strings"

	"evalgen/features"
	"evalgen/model"
	"evalgen/partition"
)

// PiecewiseFile emits a piecewise-linear model as function fn.
func PiecewiseFile(p *model.Piecewise, reg *features.Registry, fn string, opts Options) ([]byte, error) {
	body, err := PiecewiseFunc(p, reg, fn, opts.Record)
	if err != nil {
		return nil, err
	}
	return source(opts, body)
}

// PiecewiseFunc renders the color dispatch followed by one bucket switch per
// color. The red chain sits inside the color guard, the blue chain after it.
func PiecewiseFunc(p *model.Piecewise, reg *features.Registry, fn, record string) (string, error) {
	color, err := field(reg, p.ColorFeature)
	if err != nil {
		return "", err
	}
	bucket, err := field(reg, p.BucketFeature)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "func %s(s *%s) float64 {\n", fn, record)
	fmt.Fprintf(&b, "\tif %s == 0 {\n", color)
	if err := writeChain(&b, p.Chains[partition.Red], reg, bucket, 2); err != nil {
		return "", fmt.Errorf("red chain: %w", err)
	}
	b.WriteString("\t}\n")
	if err := writeChain(&b, p.Chains[partition.Blue], reg, bucket, 1); err != nil {
		return "", fmt.Errorf("blue chain: %w", err)
	}
	b.WriteString("}\n")
	return b.String(), nil
}

func writeChain(b *strings.Builder, chain []model.Submodel, reg *features.Registry, bucket string, depth int) error {
	if len(chain) == 0 || !chain[len(chain)-1].Bound.Infinite {
		return fmt.Errorf("%w: chain has no catch-all", model.ErrBadDocument)
	}
	indent := strings.Repeat("\t", depth)
	fmt.Fprintf(b, "%sswitch {\n", indent)
	for _, s := range chain {
		if s.Bound.Infinite {
			fmt.Fprintf(b, "%sdefault:\n", indent)
		} else {
			fmt.Fprintf(b, "%scase %s <= %d:\n", indent, bucket, s.Bound.Limit)
		}
		expr, err := linearExpr(s, reg, depth+2)
		if err != nil {
			return fmt.Errorf("%s: %w", s.Key, err)
		}
		fmt.Fprintf(b, "%s\treturn %s\n", indent, expr)
		if s.Bound.Infinite {
			break
		}
	}
	fmt.Fprintf(b, "%s}\n", indent)
	return nil
}

// linearExpr writes the terms in the order Submodel.Eval sums them.
func linearExpr(s model.Submodel, reg *features.Registry, contIndent int) (string, error) {
	var terms []string
	for k, j := range s.Kept {
		c := s.Coefficients[k]
		if c == 0 {
			continue
		}
		lit, err := Literal(c)
		if err != nil {
			return "", err
		}
		f, err := field(reg, j)
		if err != nil {
			return "", err
		}
		terms = append(terms, fmt.Sprintf("(%s)*float64(%s)", lit, f))
	}
	if len(terms) == 0 {
		return "0", nil
	}
	if len(terms) > 1 {
		// Each product is rounded before it is added, as in Submodel.Eval,
		// so no target may fuse it into a multiply-add.
		for i, t := range terms {
			terms[i] = "float64(" + t + ")"
		}
	}
	return strings.Join(terms, " +\n"+strings.Repeat("\t", contIndent)), nil
}
