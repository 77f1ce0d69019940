// Package pipeline wires a training run together: load, split, fit every
// configured model, score, render all artifacts, and only then write them.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"evalgen/artifact"
	"evalgen/codegen"
	"evalgen/config"
	"evalgen/dataset"
	"evalgen/features"
	"evalgen/fit"
	"evalgen/learner"
	"evalgen/logging"
	"evalgen/metrics"
	"evalgen/model"
	"evalgen/report"
)

// Options carries the run's configuration and ambient services. Nil Logger
// and Metrics are replaced by a discarding logger and a fresh recorder.
type Options struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

func (o *Options) fill() {
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	if o.Metrics == nil {
		o.Metrics = metrics.NewRecorder()
	}
}

// Result describes a finished run.
type Result struct {
	RunID   string
	Models  []learner.Model
	Reports []model.ScoreReport // parallel to Models
	Bundle  *artifact.Bundle
	Written []string
}

// Run loads the configured dataset, trains, and commits the artifacts to
// the output directory. Nothing is written if any model fails.
func Run(ctx context.Context, opts Options) (*Result, error) {
	opts.fill()
	cfg := opts.Config
	runID := uuid.NewString()
	log := opts.Logger.With("run_id", runID)

	data, err := dataset.LoadDataset(cfg.Data, dataset.LoadOptions{Target: cfg.Target, MaxRows: cfg.MaxRows})
	if err != nil {
		return nil, err
	}
	log.Info("dataset loaded", "path", cfg.Data, "rows", data.Len(),
		"features", data.Features.Len(), "skipped", data.Skipped)
	if data.Skipped > 0 {
		log.Warn("malformed rows skipped", "count", data.Skipped)
	}

	opts.Logger = log
	res, err := Train(ctx, data, opts)
	if err != nil {
		return nil, err
	}
	res.RunID = runID

	res.Written, err = res.Bundle.Commit(cfg.Out)
	if err != nil {
		return nil, fmt.Errorf("write artifacts: %w", err)
	}
	opts.Metrics.Written(len(res.Written))
	for _, p := range res.Written {
		log.Debug("artifact written", "path", p)
	}
	log.Info("run complete", "out", cfg.Out, "files", len(res.Written))

	if cfg.MetricsFile != "" {
		if err := opts.Metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			return nil, fmt.Errorf("write metrics: %w", err)
		}
	}
	return res, nil
}

// Train splits data, fits and scores every configured model and renders the
// artifacts into an unwritten bundle.
func Train(ctx context.Context, data *dataset.Dataset, opts Options) (*Result, error) {
	opts.fill()
	cfg, log := opts.Config, opts.Logger

	train, test := dataset.Split(data, cfg.TestFraction, cfg.Seed)
	opts.Metrics.Loaded(train.Len(), test.Len(), data.Skipped)
	log.Info("dataset split", "train", train.Len(), "test", test.Len(), "seed", cfg.Seed)

	models := Models(cfg, opts.Metrics)
	reports, err := fitAll(ctx, models, train, test, cfg.Jobs, opts)
	if err != nil {
		return nil, err
	}

	bundle, err := Render(models, reports, data.Features, codegen.Options{Package: cfg.Package, Record: cfg.Record})
	if err != nil {
		return nil, err
	}
	return &Result{Models: models, Reports: reports, Bundle: bundle}, nil
}

// Models instantiates the configured models, trees first.
func Models(cfg config.Config, obs learner.Observer) []learner.Model {
	var out []learner.Model
	for i, t := range cfg.Trees {
		out = append(out, learner.NewTree(i, fit.TreeParams{
			MaxDepth:        t.MaxDepth,
			MinSamplesLeaf:  t.MinSamplesLeaf,
			MinSamplesSplit: t.MinSamplesSplit,
		}))
	}
	for i, p := range cfg.Piecewise {
		out = append(out, learner.NewPiecewise(i, learner.PiecewiseConfig{
			ColorFeature:  cfg.ColorFeature,
			BucketFeature: cfg.BucketFeature,
			Thresholds:    p.Resolve(),
			Observer:      obs,
		}))
	}
	return out
}

// fitAll fits models concurrently. Reports are stored by model position, so
// the outcome does not depend on jobs.
func fitAll(ctx context.Context, models []learner.Model, train, test *dataset.Dataset, jobs int, opts Options) ([]model.ScoreReport, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	reports := make([]model.ScoreReport, len(models))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, m := range models {
		i, m := i, m
		g.Go(func() error {
			start := time.Now()
			if err := m.Fit(gctx, train); err != nil {
				return fmt.Errorf("fit %s: %w", m.ID(), err)
			}
			elapsed := time.Since(start)
			opts.Metrics.ModelFitted(m.Kind(), elapsed)
			reports[i] = m.Score(test)
			opts.Logger.Info("model fitted", "id", m.ID(), "name", m.Name(), "elapsed", elapsed)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// Render produces every artifact of a run: the record declaration, one code
// file and one document per model, the stats reports and the estimator table.
func Render(models []learner.Model, reports []model.ScoreReport, reg *features.Registry, opts codegen.Options) (*artifact.Bundle, error) {
	b := &artifact.Bundle{}
	rec, err := codegen.RecordFile(reg, opts)
	if err != nil {
		return nil, err
	}
	if err := b.Add("sample.go", rec); err != nil {
		return nil, err
	}

	sections := make(map[string][]report.Section)
	var est []codegen.Estimator
	for i, m := range models {
		code, err := m.Emit(opts)
		if err != nil {
			return nil, err
		}
		if err := b.Add(code.File, code.Source); err != nil {
			return nil, err
		}
		est = append(est, codegen.Estimator{ID: m.ID(), Func: code.Func})

		if err := addDocument(b, m); err != nil {
			return nil, err
		}
		sections[m.Kind()] = append(sections[m.Kind()], report.NewSection(m, reg.Names(), reports[i]))
	}

	for _, kind := range []string{model.KindTree, model.KindPiecewise} {
		if len(sections[kind]) == 0 {
			continue
		}
		if err := b.Add(report.FileName(kind), report.Render(sections[kind])); err != nil {
			return nil, err
		}
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

func addDocument(b *artifact.Bundle, m learner.Model) error {
	doc, err := m.Document()
	if err != nil {
		return err
	}
	raw, err := doc.Marshal()
	if err != nil {
		return err
	}
	return b.Add(DocumentName(m.ID()), raw)
}

// DocumentName is the file a model's document is written to.
func DocumentName(id string) string { return "model_" + id + ".json" }
