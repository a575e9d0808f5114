package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dwivedishivansh/gem5sweep/stats"
)

const (
	// DefaultTimeout is the primary per-cell time budget.
	DefaultTimeout = 600 * time.Second
	// DefaultGrace is how long a child gets to honor SIGINT before
	// being killed.
	DefaultGrace = 5 * time.Second
)

// statsRelPath is where gem5 writes its statistics dump, relative to
// the simulator root. Every run overwrites the same file, so it must
// be drained before the next cell spawns.
const statsRelPath = "m5out/stats.txt"

// Runner executes a parameter sweep against a gem5 installation.
// Cells run strictly one at a time.
type Runner struct {
	Inv     Invocation
	RootDir string
	OutDir  string
	Timeout time.Duration
	Grace   time.Duration
	Logger  *slog.Logger
}

// NewRunner creates a Runner with the default timeouts.
func NewRunner(
	inv Invocation,
	rootDir, outDir string,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		Inv:     inv,
		RootDir: rootDir,
		OutDir:  outDir,
		Timeout: DefaultTimeout,
		Grace:   DefaultGrace,
		Logger:  logger,
	}
}

// Run executes every cell of the grid in order and returns one Result
// per cell. Individual cell failures (timeout, spawn failure, missing
// output) are recorded and logged but never abort the sweep; only a
// failed preflight or context cancellation does.
func (r *Runner) Run(ctx context.Context, grid Grid) ([]Result, error) {
	if err := r.preflight(); err != nil {
		return nil, err
	}

	cells := grid.Cells()

	r.Logger.InfoContext(ctx, "starting sweep",
		slog.Int("cells", len(cells)),
		slog.String("simulator", r.Inv.Simulator),
		slog.String("out_dir", r.OutDir),
	)

	results := make([]Result, 0, len(cells))

	for _, cell := range cells {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}

		results = append(results, r.runCell(ctx, cell))
	}

	return results, nil
}

// preflight verifies the simulator binary and config script exist and
// creates the output directory.
func (r *Runner) preflight() error {
	for _, p := range []string{r.Inv.Simulator, r.Inv.ConfigScript} {
		resolved := p
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(r.RootDir, resolved)
		}

		if _, err := os.Stat(resolved); err != nil {
			return fmt.Errorf("preflight: %w", err)
		}
	}

	if err := os.MkdirAll(r.OutDir, 0o755); err != nil {
		return fmt.Errorf("create out dir %s: %w", r.OutDir, err)
	}

	return nil
}

// runCell spawns, supervises, and drains one simulator run.
func (r *Runner) runCell(ctx context.Context, cell Cell) Result {
	result := Result{
		Benchmark: cell.Benchmark,
		L2Size:    cell.L2Size,
		Assoc:     cell.Assoc,
	}

	outpath := filepath.Join(r.OutDir, cell.OutputName())
	args := r.Inv.Args(cell)

	logger := r.Logger.With(
		slog.String("benchmark", cell.Benchmark),
		slog.String("l2_size", cell.L2Size),
		slog.Int("l2_assoc", cell.Assoc),
	)

	logger.Info("running simulator",
		slog.String("command", r.Inv.Simulator+" "+strings.Join(args, " ")),
	)

	cmd := exec.Command(r.Inv.Simulator, args...)
	cmd.Dir = r.RootDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	start := time.Now()

	if err := cmd.Start(); err != nil {
		logger.Error("failed to start simulator",
			slog.String("error", err.Error()),
		)

		result.Outcome = OutcomeSpawnFailed
		result.Error = err.Error()

		return result
	}

	outcome, waitErr := supervise(ctx, logger, cmd, r.Timeout, r.Grace)

	result.Outcome = outcome
	result.ElapsedMs = time.Since(start).Milliseconds()

	if waitErr != nil && outcome == OutcomeCompleted {
		// Non-zero exits still usually leave a stats dump behind;
		// record the status but keep draining.
		logger.Warn("simulator exited with error",
			slog.String("error", waitErr.Error()),
		)
	}

	r.relocate(logger, &result, outpath)

	logger.Info("finished cell",
		slog.String("outcome", string(outcome)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return result
}

// relocate moves the shared stats dump to the cell's output path and
// parses the headline metrics out of it. Failure is logged, recorded
// on the result, and otherwise ignored.
func (r *Runner) relocate(logger *slog.Logger, result *Result, outpath string) {
	src := filepath.Join(r.RootDir, statsRelPath)

	if err := os.Rename(src, outpath); err != nil {
		logger.Error("failed to move stats file",
			slog.String("dest", outpath),
			slog.String("error", err.Error()),
		)

		if result.Error == "" {
			result.Error = err.Error()
		}

		return
	}

	result.Relocated = true
	result.OutputPath = outpath

	summary, err := parseStats(outpath)
	if err != nil {
		logger.Warn("failed to parse stats file",
			slog.String("path", outpath),
			slog.String("error", err.Error()),
		)

		return
	}

	result.Stats = summary
}

func parseStats(path string) (*stats.Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	parsed, err := stats.Parse(f)
	if err != nil {
		return nil, err
	}

	return parsed.Summary(), nil
}
