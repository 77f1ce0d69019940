package main

import (
	"errors"

	"github.com/spf13/cobra"

	"evalgen/codegen"
	"evalgen/pipeline"
)

type emitCmdConfig struct {
	*rootCmdConfig
	models []string
	out    string
	opts   codegen.Options
}

func emitCmd(rootConfig *rootCmdConfig) *cobra.Command {
	c := &emitCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Regenerate Go code from saved model documents",
		Long:  `Compile model_<id>.json documents written by train into Go source without refitting.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(c.models) == 0 {
				return errors.New("at least one --model is required")
			}
			log, err := c.logger()
			if err != nil {
				return err
			}
			b, err := pipeline.EmitDocuments(c.models, c.opts)
			if err != nil {
				return err
			}
			paths, err := b.Commit(c.out)
			if err != nil {
				return err
			}
			log.Info("code emitted", "out", c.out, "files", len(paths))
			return nil
		},
	}
	def := codegen.DefaultOptions()
	cmd.Flags().StringSliceVarP(&c.models, "model", "m", nil, "model document, repeatable")
	cmd.Flags().StringVarP(&c.out, "out", "o", ".", "output directory")
	cmd.Flags().StringVar(&c.opts.Package, "package", def.Package, "package name of the generated files")
	cmd.Flags().StringVar(&c.opts.Record, "record", def.Record, "name of the generated record type")
	return cmd
}
