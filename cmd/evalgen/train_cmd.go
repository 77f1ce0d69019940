package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"evalgen/config"
	"evalgen/pipeline"
)

type trainCmdConfig struct {
	*rootCmdConfig
	configFile  string
	data        string
	out         string
	jobs        int
	metricsFile string
}

func trainCmd(rootConfig *rootCmdConfig) *cobra.Command {
	c := &trainCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the configured models and emit their Go code",
		Long: `Load the dataset, hold out a test split, fit every configured decision
tree and piecewise-linear model, and write the generated code, model
documents and statistics to the output directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.load(cmd)
			if err != nil {
				return err
			}
			log, err := c.logger()
			if err != nil {
				return err
			}
			res, err := pipeline.Run(cmd.Context(), pipeline.Options{Config: cfg, Logger: log})
			if err != nil {
				return err
			}
			for i, m := range res.Models {
				for _, e := range res.Reports[i] {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", m.ID(), e)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&c.configFile, "config", "c", "", "YAML run configuration (defaults apply when omitted)")
	cmd.Flags().StringVarP(&c.data, "data", "d", "", "dataset file, overrides the configuration")
	cmd.Flags().StringVarP(&c.out, "out", "o", "", "output directory, overrides the configuration")
	cmd.Flags().IntVar(&c.jobs, "jobs", 0, "models fitted concurrently (0 = one per CPU)")
	cmd.Flags().StringVar(&c.metricsFile, "metrics-file", "", "write run metrics in Prometheus text format to this file")
	return cmd
}

// load reads the configuration and applies flag overrides. Only flags set on
// the command line override file values.
func (c *trainCmdConfig) load(cmd *cobra.Command) (config.Config, error) {
	cfg := config.DefaultConfig()
	if c.configFile != "" {
		var err error
		if cfg, err = config.Load(c.configFile); err != nil {
			return cfg, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Data = c.data
	}
	if flags.Changed("out") {
		cfg.Out = c.out
	}
	if flags.Changed("jobs") {
		cfg.Jobs = c.jobs
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = c.metricsFile
	}
	if c.logLevel == "" {
		c.logLevel = cfg.Log.Level
	}
	if c.logFormat == "" {
		c.logFormat = cfg.Log.Format
	}
	return cfg, cfg.Validate()
}
