package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/corvidlabs/mkdlint/internal/configloader"
	"github.com/corvidlabs/mkdlint/internal/logging"
	"github.com/corvidlabs/mkdlint/internal/watch"
	"github.com/corvidlabs/mkdlint/pkg/config"
	"github.com/corvidlabs/mkdlint/pkg/lint"
	goldmarkparser "github.com/corvidlabs/mkdlint/pkg/parser/goldmark"
	"github.com/corvidlabs/mkdlint/pkg/reporter"
	"github.com/corvidlabs/mkdlint/pkg/runner"
)

func newWatchCommand() *cobra.Command {
	var cfg config.Config
	flags := &lintFlags{}
	var debounceMS int

	cmd := &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Re-lint on file changes",
		Long: `Watch Markdown files and re-lint whenever one is created or written.

Each run reports the same way "mkdlint lint" would; the process keeps
running until interrupted (Ctrl-C).`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args, &cfg, flags, debounceMS)
		},
	}

	addLintFlags(cmd, &cfg, flags)
	cmd.Flags().IntVar(&debounceMS, "debounce", 300, "milliseconds to coalesce bursts of file events")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string, cfg *config.Config, flags *lintFlags, debounceMS int) error {
	logger := logging.Default()

	cfg.Format = config.OutputFormat(flags.format)
	if cmd.Flags().Changed("flavor") {
		cfg.Flavor = config.Flavor(flags.flavor)
	}
	cfg.Ignore = flags.ignore
	cfg.EnableRules = flags.enable
	cfg.DisableRules = flags.disable
	cfg.FixRules = flags.fixRules

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("get config flag: %w", err)
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	loadResult, err := configloader.Load(ctx, configloader.LoadOptions{
		WorkingDir:   workDir,
		ExplicitPath: configPath,
		CLIConfig:    cfg,
	})
	if err != nil {
		return errors.Join(errors.New("failed to load configuration"), err)
	}
	finalCfg := loadResult.Config

	parser := goldmarkparser.New(string(finalCfg.Flavor))
	engine := lint.NewEngine(parser, lint.DefaultRegistry)
	pipeline := lint.NewPipeline(engine)
	lintRunner := runner.New(pipeline)

	runOpts := runner.Options{
		Paths:        args,
		WorkingDir:   workDir,
		Extensions:   runner.DefaultExtensions(),
		ExcludeGlobs: finalCfg.Ignore,
		Jobs:         finalCfg.Jobs,
		Config:       finalCfg,
	}

	colorMode, err := cmd.Flags().GetString("color")
	if err != nil {
		colorMode = "auto"
	}

	format, err := reporter.ParseFormat(flags.format)
	if err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}

	rep, err := reporter.New(reporter.Options{
		Writer:      cmd.OutOrStdout(),
		ErrorWriter: cmd.ErrOrStderr(),
		Format:      format,
		Color:       colorMode,
		ShowContext: !flags.noContext,
		ShowSummary: true,
		GroupByFile: true,
		Compact:     flags.compact,
		PerFile:     flags.perFile,
		RuleFormat:  config.RuleFormat(flags.ruleFormat),
		WorkingDir:  workDir,
	})
	if err != nil {
		return fmt.Errorf("create reporter: %w", err)
	}

	roots := args
	if len(roots) == 0 {
		roots = []string{workDir}
	}

	watcher := watch.New(
		func(runCtx context.Context) (*runner.Result, error) {
			return lintRunner.Run(runCtx, runOpts)
		},
		watch.WithDebounce(time.Duration(debounceMS)*time.Millisecond),
		watch.WithExtensions(runOpts.Extensions),
		watch.WithResultHandler(func(result *runner.Result, runErr error) {
			if runErr != nil {
				logger.Error("watch run failed", "error", runErr)
				return
			}
			if _, err := rep.Report(ctx, result); err != nil {
				logger.Error("report failed", "error", err)
			}
		}),
	)

	logger.Info("watching for changes", "paths", roots)
	return watcher.Run(ctx, roots)
}
