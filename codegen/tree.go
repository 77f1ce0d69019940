package codegen

import (
	"fmt"
	"strings"

	"evalgen/features"
	"evalgen/model"
)

// TreeFile emits one decision tree as function fn.
func TreeFile(t *model.Tree, reg *features.Registry, fn string, opts Options) ([]byte, error) {
	body, err := TreeFunc(t, reg, fn, opts.Record)
	if err != nil {
		return nil, err
	}
	return source(opts, body)
}

// TreeFunc renders the function without a file around it. Each internal node
// becomes a guard whose body is the left subtree; the right subtree follows
// the guard at the same level, so no else branches are needed.
func TreeFunc(t *model.Tree, reg *features.Registry, fn, record string) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "func %s(s *%s) float64 {\n", fn, record)
	if err := writeNode(&b, t, reg, 0, 1); err != nil {
		return "", err
	}
	b.WriteString("}\n")
	return b.String(), nil
}

func writeNode(b *strings.Builder, t *model.Tree, reg *features.Registry, i, depth int) error {
	n := t.Nodes[i]
	indent := strings.Repeat("\t", depth)
	if n.Leaf {
		v, err := Literal(n.Value)
		if err != nil {
			return fmt.Errorf("node %d: %w", i, err)
		}
		fmt.Fprintf(b, "%sreturn %s\n", indent, v)
		return nil
	}

	f, err := field(reg, n.Feature)
	if err != nil {
		return fmt.Errorf("node %d: %w", i, err)
	}
	th, err := floorLiteral(n.Threshold)
	if err != nil {
		return fmt.Errorf("node %d: %w", i, err)
	}
	fmt.Fprintf(b, "%sif %s <= %s {\n", indent, f, th)
	if err := writeNode(b, t, reg, n.Left, depth+1); err != nil {
		return err
	}
	fmt.Fprintf(b, "%s}\n", indent)
	return writeNode(b, t, reg, n.Right, depth)
}
