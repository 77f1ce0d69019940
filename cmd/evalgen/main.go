package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"evalgen/logging"
)

type rootCmdConfig struct {
	logLevel  string
	logFormat string
}

func (c *rootCmdConfig) logger() (*slog.Logger, error) {
	return logging.New(logging.Config{Level: c.logLevel, JSON: c.logFormat == "json"})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cliParser().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func cliParser() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "evalgen",
		Short:         "evalgen trains board evaluation models and compiles them to Go",
		Long:          `A tool to fit decision-tree and piecewise-linear value models on position samples and emit them as dependency-free Go source`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config := &rootCmdConfig{}
	rootCmd.PersistentFlags().StringVar(&config.logLevel, "log-level", "", "log level: debug, info, warn or error (default from config, else info)")
	rootCmd.PersistentFlags().StringVar(&config.logFormat, "log-format", "", "log format: text or json")
	rootCmd.AddCommand(versionCmd(), trainCmd(config), emitCmd(config))
	return rootCmd
}
