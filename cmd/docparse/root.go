package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docparse/internal/config"
	logpkg "github.com/kailas-cloud/docparse/internal/logger"
	"github.com/kailas-cloud/docparse/internal/version"
)

// rootFlags are shared by every subcommand.
type rootFlags struct {
	env      string
	logLevel string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "docparse",
		Short: "Document conversion service",
		Long: `docparse converts PDF, Office, HTML, Markdown, CSV, AsciiDoc and image
documents through a Docling engine and returns Markdown, text or HTML together
with per-picture annotations.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&flags.env, "env", "e", config.GetEnv(), "config environment (local, docker, prod)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override logging.level from config")

	cmd.AddCommand(newServeCmd(flags), newConvertCmd(flags))
	return cmd
}

// load reads the configuration and builds the logger for the selected env.
func (f *rootFlags) load() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(f.env)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if f.logLevel != "" {
		level = f.logLevel
	}
	logger, err := logpkg.NewLogger(f.env, level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}
