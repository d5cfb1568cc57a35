package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formcover/internal/config"
	"github.com/goliatone/go-formcover/internal/telemetry"
	"github.com/goliatone/go-formcover/pkg/constraint"
	"github.com/goliatone/go-formcover/pkg/enumerate"
	"github.com/goliatone/go-formcover/pkg/explorer"
	"github.com/goliatone/go-formcover/pkg/orchestrator"
	"github.com/goliatone/go-formcover/pkg/source"
)

const httpTimeout = 30 * time.Second

// app carries the state shared by every subcommand.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	overrides  flagOverrides

	// promptDriver overrides the terminal prompts, for tests.
	promptDriver explorer.PromptDriver

	cfg      config.Config
	logger   *slog.Logger
	metrics  *telemetry.Metrics
	shutdown telemetry.ShutdownFunc
}

// flagOverrides holds the flags that take precedence over config values.
type flagOverrides struct {
	logLevel       string
	logFormat      string
	metricsFile    string
	trace          bool
	format         string
	seed           uint64
	maxSamples     int
	maxGatekeepers int
	minControlled  int
	solverTimeout  time.Duration
	preset         string
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	return newApp(stdout, stderr).rootCommand()
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "formcover-cli",
		Short: "Generate minimal test plans for conditionally branching forms",
		Long: `formcover reads a form definition (JSON or YAML), models its visibility
rules as boolean constraints and selects a small set of answer combinations
that together show every reachable question.

Examples:
  formcover-cli generate intake.json            # plan next to the form
  formcover-cli generate intake.yaml out/ --format text,json
  formcover-cli index intake.json               # gating and question CSVs
  formcover-cli validate intake.json --set ServiceType=B --set Region=EU
  formcover-cli explore intake.json
  formcover-cli watch intake.json out/`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd.Context())
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (YAML or JSON)")
	flags.StringVar(&a.overrides.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&a.overrides.logFormat, "log-format", "", "log format: text or json")
	flags.StringVar(&a.overrides.metricsFile, "metrics-file", "", "write Prometheus metrics to this file after the run")
	flags.BoolVar(&a.overrides.trace, "trace", false, "print pipeline spans to stderr")
	flags.Uint64Var(&a.overrides.seed, "seed", 0, "seed for sampled combinations (0 draws one)")
	flags.IntVar(&a.overrides.maxSamples, "max-samples", 0, "cap on sampled combinations when no gatekeeper exists")
	flags.IntVar(&a.overrides.maxGatekeepers, "max-gatekeepers", -1, "maximum number of gatekeepers")
	flags.IntVar(&a.overrides.minControlled, "min-controlled", 0, "questions a variable must control to be a gatekeeper")
	flags.DurationVar(&a.overrides.solverTimeout, "solver-timeout", 0, "per-check solver timeout (0 means unbounded)")
	flags.StringVar(&a.overrides.preset, "preset", "", "question patch document applied before modelling")

	root.AddCommand(
		newGenerateCommand(a),
		newIndexCommand(a),
		newValidateCommand(a),
		newExploreCommand(a),
		newWatchCommand(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.overrides.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = a.overrides.logFormat
	}
	if flags.Changed("metrics-file") {
		cfg.Telemetry.MetricsFile = a.overrides.metricsFile
	}
	if flags.Changed("trace") {
		cfg.Telemetry.Tracing = a.overrides.trace
	}
	if flags.Changed("seed") {
		cfg.Sampling.Seed = a.overrides.seed
	}
	if flags.Changed("max-samples") {
		cfg.Sampling.MaxSamples = a.overrides.maxSamples
	}
	if flags.Changed("max-gatekeepers") {
		cfg.Gatekeepers.Max = a.overrides.maxGatekeepers
	}
	if flags.Changed("min-controlled") {
		cfg.Gatekeepers.MinControlled = a.overrides.minControlled
	}
	if flags.Changed("solver-timeout") {
		cfg.Solver.Timeout = a.overrides.solverTimeout
	}
	if flags.Changed("preset") {
		cfg.Report.Preset = a.overrides.preset
	}
	if f := flags.Lookup("format"); f != nil && f.Changed {
		cfg.Report.Format = a.overrides.format
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := telemetry.NewLogger(cfg.Logging.Level, cfg.Logging.Format, a.stderr)
	if err != nil {
		return err
	}
	a.logger = logger

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		return err
	}
	a.metrics = metrics

	if cfg.Telemetry.Tracing {
		shutdown, err := telemetry.InitTracing(a.stderr, version)
		if err != nil {
			return err
		}
		a.shutdown = shutdown
	}
	return nil
}

func (a *app) teardown(ctx context.Context) error {
	var errs []error
	if a.cfg.Telemetry.MetricsFile != "" && a.metrics != nil {
		errs = append(errs, a.metrics.WriteTextfile(a.cfg.Telemetry.MetricsFile))
	}
	if a.shutdown != nil {
		errs = append(errs, a.shutdown(context.WithoutCancel(ctx)))
		a.shutdown = nil
	}
	return errors.Join(errs...)
}

func (a *app) driver() explorer.PromptDriver {
	if a.promptDriver != nil {
		return a.promptDriver
	}
	return explorer.NewSurveyDriver(a.stdout)
}

// orchestrator builds a pipeline configured from the loaded settings.
func (a *app) orchestrator(src source.Source) (*orchestrator.Orchestrator, error) {
	options := []orchestrator.Option{
		orchestrator.WithLogger(a.logger),
		orchestrator.WithSolveObserver(a.metrics),
		orchestrator.WithPlanObserver(a.metrics),
		orchestrator.WithModelOptions(constraint.WithSolveTimeout(a.cfg.Solver.Timeout)),
		orchestrator.WithEngineOptions(
			enumerate.WithMaxSamples(a.cfg.Sampling.MaxSamples),
			enumerate.WithMaxGatekeepers(a.cfg.Gatekeepers.Max),
			enumerate.WithMinControlled(a.cfg.Gatekeepers.MinControlled),
			enumerate.WithSeed(a.cfg.Sampling.Seed),
		),
	}
	if src != nil && src.Kind() == source.KindURL {
		options = append(options, orchestrator.WithLoaderOptions(source.WithHTTP(httpTimeout)))
	}
	if a.cfg.Report.Preset != "" {
		data, err := os.ReadFile(a.cfg.Report.Preset)
		if err != nil {
			return nil, fmt.Errorf("read preset: %w", err)
		}
		preset, err := orchestrator.NewPresetTransformer(data)
		if err != nil {
			return nil, err
		}
		options = append(options, orchestrator.WithTransformer(preset))
	}
	return orchestrator.New(options...), nil
}

// outputDir picks the explicit directory, the config value, or the form's
// own directory for file sources.
func (a *app) outputDir(src source.Source, args []string) string {
	if len(args) > 1 && args[1] != "" {
		return args[1]
	}
	if a.cfg.Report.OutputDir != "" {
		return a.cfg.Report.OutputDir
	}
	if src.Kind() == source.KindFile {
		return filepath.Dir(src.Location())
	}
	return "."
}
