package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"evalgen/features"
)

// LoadOptions controls how a CSV file is turned into a Dataset.
type LoadOptions struct {
	Target  string // name of the target column, removed from the features
	MaxRows int    // optional cap on rows loaded (0 = all)
}

// LoadDataset reads a comma separated file with a header row. Lines starting
// with '#' are comments. Every column except the target becomes a feature, in
// header order. Feature values must be whole numbers, since the generated
// record declares them int; rows that break this are skipped.
func LoadDataset(path string, opts LoadOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := ReadDataset(bufio.NewReader(f), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// ReadDataset is LoadDataset on an arbitrary reader.
func ReadDataset(r io.Reader, opts LoadOptions) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	target := -1
	names := make([]string, 0, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == opts.Target {
			target = i
			continue
		}
		names = append(names, h)
	}
	if target < 0 {
		return nil, fmt.Errorf("target %q: %w", opts.Target, ErrMissingColumn)
	}
	if len(names) == 0 {
		return nil, ErrNoFeatureNames
	}
	reg, err := features.NewRegistry(names)
	if err != nil {
		return nil, err
	}

	d := &Dataset{Features: reg}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, fmt.Errorf("read error line %d: %w", pe.StartLine, err)
		}
		if err != nil {
			return nil, fmt.Errorf("read error: %w", err)
		}
		s, ok := parseRow(rec, target, len(header))
		if !ok {
			d.Skipped++
			continue
		}
		d.Samples = append(d.Samples, s)
		if opts.MaxRows > 0 && len(d.Samples) >= opts.MaxRows {
			break
		}
	}
	if len(d.Samples) == 0 {
		return nil, ErrNoRows
	}
	return d, nil
}

func parseRow(rec []string, target, width int) (Sample, bool) {
	if len(rec) != width {
		return Sample{}, false
	}
	s := Sample{Values: make([]float64, 0, width-1)}
	for i, field := range rec {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return Sample{}, false
		}
		if i == target {
			s.Target = v
			continue
		}
		if !integral(v) {
			return Sample{}, false
		}
		s.Values = append(s.Values, v)
	}
	return s, true
}

// maxExact is the largest magnitude a float64 holds without losing integers.
const maxExact = 1 << 53

func integral(v float64) bool {
	return v == math.Trunc(v) && math.Abs(v) <= maxExact
}
