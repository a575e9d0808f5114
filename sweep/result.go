// Package sweep enumerates a gem5 parameter grid and supervises one
// simulator run per cell.
package sweep

import "github.com/dwivedishivansh/gem5sweep/stats"

// Outcome describes how a cell's simulator process ended.
type Outcome string

const (
	// OutcomeCompleted means the process exited within the primary timeout.
	OutcomeCompleted Outcome = "completed"
	// OutcomeInterrupted means the process exited during the grace period
	// after SIGINT.
	OutcomeInterrupted Outcome = "interrupted"
	// OutcomeKilled means the process ignored SIGINT and was killed.
	OutcomeKilled Outcome = "killed"
	// OutcomeSpawnFailed means the process could not be started at all.
	OutcomeSpawnFailed Outcome = "spawn-failed"
)

// Result holds the record of one cell's execution.
type Result struct {
	Benchmark  string         `json:"benchmark"`
	L2Size     string         `json:"l2_size"`
	Assoc      int            `json:"l2_assoc"`
	Outcome    Outcome        `json:"outcome"`
	ElapsedMs  int64          `json:"elapsed_ms"`
	OutputPath string         `json:"output_path,omitempty"`
	Relocated  bool           `json:"relocated"`
	Error      string         `json:"error,omitempty"`
	Stats      *stats.Summary `json:"stats,omitempty"`
}
