// Package main provides the CLI entry point for gem5sweep, a tool that
// sweeps gem5 cache parameters across a benchmark grid.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dwivedishivansh/gem5sweep/config"
	"github.com/dwivedishivansh/gem5sweep/report"
	"github.com/dwivedishivansh/gem5sweep/sweep"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	root := newRootCmd(logger)
	if err := root.Execute(); err != nil {
		logger.Error("gem5sweep failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "gem5sweep",
		Short: "gem5 cache parameter sweep runner",
		Long: `Gem5sweep runs the gem5 simulator once per combination of benchmark,
L2 cache size, and L2 associativity, supervises each run with a timeout,
and collects every run's stats.txt under a results directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd(logger))
	root.AddCommand(newPlanCmd())

	return root
}

// gridFlags are the CLI overrides shared by run and plan.
type gridFlags struct {
	configPath string
	rootDir    string
	outDir     string
	benchmarks []string
	l2Sizes    []string
	l2Assocs   []int
	timeout    time.Duration
	grace      time.Duration
}

func (g *gridFlags) register(flags *pflag.FlagSet) {
	flags.StringVarP(&g.configPath, "config", "c", "",
		"Path to YAML sweep configuration file")
	flags.StringVar(&g.rootDir, "root", "",
		"gem5 installation root (default: current directory)")
	flags.StringVar(&g.outDir, "out", "",
		"Directory for relocated result files (default: ./results)")
	flags.StringSliceVar(&g.benchmarks, "benchmarks", nil,
		"Benchmarks to sweep (e.g. astar,mcf_s)")
	flags.StringSliceVar(&g.l2Sizes, "l2-sizes", nil,
		"L2 cache sizes to sweep (e.g. 256kB,2MB)")
	flags.IntSliceVar(&g.l2Assocs, "l2-assocs", nil,
		"L2 associativities to sweep (e.g. 2,4,8)")
	flags.DurationVar(&g.timeout, "timeout", 0,
		"Per-run time budget before SIGINT (default: 10m)")
	flags.DurationVar(&g.grace, "grace", 0,
		"Grace period after SIGINT before SIGKILL (default: 5s)")
}

// load reads the config file and applies any overrides set on flags.
func (g *gridFlags) load(flags *pflag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return config.Config{}, err
	}

	if flags.Changed("root") {
		cfg.RootDir = g.rootDir
	}

	if flags.Changed("out") {
		cfg.OutDir = g.outDir
	}

	if flags.Changed("benchmarks") {
		cfg.Benchmarks = g.benchmarks
	}

	if flags.Changed("l2-sizes") {
		cfg.L2Sizes = g.l2Sizes
	}

	if flags.Changed("l2-assocs") {
		cfg.Assocs = g.l2Assocs
	}

	if flags.Changed("timeout") {
		cfg.Timeout = g.timeout
	}

	if flags.Changed("grace") {
		cfg.Grace = g.grace
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func newRunCmd(logger *slog.Logger) *cobra.Command {
	var (
		gf         gridFlags
		outputJSON bool
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the parameter sweep",
		Long: `Run gem5 for every cell of the benchmark x L2 size x associativity
grid, moving each run's stats.txt into the results directory.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := gf.load(cmd.Flags())
			if err != nil {
				return err
			}

			if dryRun {
				return printPlan(cmd.OutOrStdout(), cfg)
			}

			return runSweep(cmd.Context(), logger, cfg, outputJSON)
		},
	}

	gf.register(cmd.Flags())
	cmd.Flags().BoolVar(&outputJSON, "json", false,
		"Output the sweep report as JSON instead of a markdown table")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"Print the planned commands without running anything")

	return cmd
}

func newPlanCmd() *cobra.Command {
	var gf gridFlags

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the sweep grid and per-cell commands",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := gf.load(cmd.Flags())
			if err != nil {
				return err
			}

			return printPlan(cmd.OutOrStdout(), cfg)
		},
	}

	gf.register(cmd.Flags())

	return cmd
}

func toGrid(cfg config.Config) sweep.Grid {
	return sweep.Grid{
		Benchmarks: cfg.Benchmarks,
		L2Sizes:    cfg.L2Sizes,
		Assocs:     cfg.Assocs,
	}
}

func toInvocation(cfg config.Config) sweep.Invocation {
	return sweep.Invocation{
		Simulator:     cfg.Simulator,
		ConfigScript:  cfg.ConfigScript,
		CPUType:       cfg.CPUType,
		MaxInsts:      cfg.MaxInsts,
		CachelineSize: cfg.CachelineSize,
	}
}

func runSweep(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.Config,
	outputJSON bool,
) error {
	grid := toGrid(cfg)

	logger.InfoContext(ctx, "configured sweep",
		slog.Any("benchmarks", cfg.Benchmarks),
		slog.Any("l2_sizes", cfg.L2Sizes),
		slog.Any("l2_assocs", cfg.Assocs),
		slog.Int("cells", grid.Size()),
		slog.Duration("timeout", cfg.Timeout),
	)

	runner := sweep.NewRunner(
		toInvocation(cfg), cfg.RootDir, cfg.OutDir, logger,
	)
	runner.Timeout = cfg.Timeout
	runner.Grace = cfg.Grace

	results, err := runner.Run(ctx, grid)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	if outputJSON {
		if err := report.GenerateJSON(os.Stdout, results); err != nil {
			return fmt.Errorf("generate JSON report: %w", err)
		}
	} else {
		if err := report.Generate(os.Stdout, results); err != nil {
			return fmt.Errorf("generate report: %w", err)
		}
	}

	logger.InfoContext(ctx, "sweep complete",
		slog.Int("cells", len(results)),
	)

	return nil
}

func printPlan(w io.Writer, cfg config.Config) error {
	grid := toGrid(cfg)
	inv := toInvocation(cfg)

	fmt.Fprintf(w, "%d cells (%d benchmarks x %d L2 sizes x %d assocs)\n\n",
		grid.Size(),
		len(grid.Benchmarks), len(grid.L2Sizes), len(grid.Assocs),
	)

	for _, cell := range grid.Cells() {
		args := inv.Args(cell)
		fmt.Fprintf(w, "%s: %s %s -> %s\n",
			cell, inv.Simulator, strings.Join(args, " "), cell.OutputName(),
		)
	}

	return nil
}
