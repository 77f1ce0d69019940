// Package config loads and validates the training run configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"go/token"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"evalgen/partition"
)

var ErrInvalid = errors.New("config: invalid configuration")

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("goident", func(fl validator.FieldLevel) bool {
		return token.IsIdentifier(fl.Field().String())
	})
}

// Config is one training run: which data, which models, where to write.
type Config struct {
	Data          string            `yaml:"data" validate:"required"`
	Out           string            `yaml:"out" validate:"required"`
	Target        string            `yaml:"target" validate:"required"`
	ColorFeature  string            `yaml:"color_feature" validate:"required,goident"`
	BucketFeature string            `yaml:"bucket_feature" validate:"required,goident"`
	MaxRows       int               `yaml:"max_rows" validate:"gte=0"`
	TestFraction  float64           `yaml:"test_fraction" validate:"gte=0,lt=1"`
	Seed          int64             `yaml:"seed"`
	Jobs          int               `yaml:"jobs" validate:"gte=0"`
	Package       string            `yaml:"package" validate:"required,goident"`
	Record        string            `yaml:"record" validate:"required,goident"`
	MetricsFile   string            `yaml:"metrics_file"`
	Trees         []TreeConfig      `yaml:"trees" validate:"dive"`
	Piecewise     []PiecewiseConfig `yaml:"piecewise" validate:"dive"`
	Log           LogConfig         `yaml:"log"`
}

// TreeConfig is one decision-tree model. MaxDepth 0 means unlimited and
// MinSamplesSplit 0 means 2.
type TreeConfig struct {
	MaxDepth        int `yaml:"max_depth" validate:"gte=0"`
	MinSamplesLeaf  int `yaml:"min_samples_leaf" validate:"gte=1"`
	MinSamplesSplit int `yaml:"min_samples_split,omitempty" validate:"omitempty,gte=2"`
}

// PiecewiseConfig is one piecewise-linear model. Thresholds apply to both
// colors unless Red or Blue override them. Ordering is not checked.
type PiecewiseConfig struct {
	Thresholds []int `yaml:"thresholds"`
	Red        []int `yaml:"red,omitempty"`
	Blue       []int `yaml:"blue,omitempty"`
}

// Resolve returns the per-color thresholds.
func (p PiecewiseConfig) Resolve() partition.Thresholds {
	t := partition.Shared(p.Thresholds)
	if p.Red != nil {
		t[partition.Red] = append([]int(nil), p.Red...)
	}
	if p.Blue != nil {
		t[partition.Blue] = append([]int(nil), p.Blue...)
	}
	return t
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// DefaultConfig reproduces the reference training run.
func DefaultConfig() Config {
	return Config{
		Data:          "sample_data/data.in",
		Out:           "sample_out",
		Target:        "value",
		ColorFeature:  "lp",
		BucketFeature: "num_stones",
		TestFraction:  0.1,
		Seed:          4224,
		Package:       "ab",
		Record:        "Sample",
		Trees: []TreeConfig{
			{MaxDepth: 5, MinSamplesLeaf: 5},
			{MaxDepth: 10, MinSamplesLeaf: 5},
			{MaxDepth: 0, MinSamplesLeaf: 1},
			{MaxDepth: 0, MinSamplesLeaf: 10},
			{MaxDepth: 0, MinSamplesLeaf: 20},
			{MaxDepth: 0, MinSamplesLeaf: 50},
		},
		Piecewise: []PiecewiseConfig{
			{Thresholds: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 12, 15, 18, 22, 28, 36, 46, 58, 70, 85, 100}},
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Validate checks structure and ranges.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if len(c.Trees)+len(c.Piecewise) == 0 {
		return fmt.Errorf("%w: no models configured", ErrInvalid)
	}
	if c.ColorFeature == c.BucketFeature {
		return fmt.Errorf("%w: color and bucket feature are both %q", ErrInvalid, c.ColorFeature)
	}
	return nil
}

// Load reads a YAML file over DefaultConfig and validates the result. Keys
// absent from the file keep their defaults; lists present replace them.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse is Load on an in-memory document.
func Parse(b []byte) (Config, error) {
	c := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
