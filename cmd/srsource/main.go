package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"smartrecruiters-source/internal/config"
	"smartrecruiters-source/internal/logger"
)

type rootFlags struct {
	configPath string
	company    string
	output     string
	outputPath string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		// commands log their own failures; cobra errors are printed by cobra
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:           "srsource",
		Short:         "Source SmartRecruiters departments and job posts as graph nodes",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "srsource.yml", "config file (missing file means defaults)")
	pf.StringVar(&f.company, "company", "", "SmartRecruiters company identifier (overrides config)")
	pf.StringVar(&f.output, "output", "", "node output: jsonl or sqlite (overrides config)")
	pf.StringVar(&f.outputPath, "output-path", "", "node output path, - for stdout (overrides config)")
	pf.StringVar(&f.logLevel, "log-level", "", "debug, info, warn, error (overrides config)")

	run := newRunCmd(f)
	root.AddCommand(run, newNodesCmd(f), newTokenCmd(f), newConfigCmd(f))
	// bare `srsource` does one run
	root.RunE = run.RunE
	return root
}

// loadConfig reads the config file, applies flag overrides and validates.
func loadConfig(f *rootFlags) (config.Config, config.Validation, error) {
	cfg, err := readConfig(f)
	if err != nil {
		return cfg, config.Validation{}, err
	}
	cfg, v := config.NormalizeAndValidate(cfg)
	return cfg, v, v.Err()
}

// readConfig is loadConfig without validation, for commands that need only
// part of the config. Read and parse errors are still returned.
func readConfig(f *rootFlags) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}
	if f.company != "" {
		cfg.CompanyIdentifier = f.company
	}
	if f.output != "" {
		cfg.Output.Kind = f.output
	}
	if f.outputPath != "" {
		cfg.Output.Path = f.outputPath
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	return cfg, nil
}

func newLogger(cfg config.Config, cmd *cobra.Command) zerolog.Logger {
	return logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
		Output: cmd.ErrOrStderr(),
	})
}
