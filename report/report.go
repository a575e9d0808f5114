// Package report formats sweep results into comparison tables.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/dwivedishivansh/gem5sweep/stats"
	"github.com/dwivedishivansh/gem5sweep/sweep"
)

// Generate writes a markdown summary table for the given results.
func Generate(w io.Writer, results []sweep.Result) error {
	if len(results) == 0 {
		return fmt.Errorf("no results to report")
	}

	completed, failed := countOutcomes(results)

	// Header.
	fmt.Fprintln(w, "## Sweep Results")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d cells: %d completed, %d timed out or failed\n",
		len(results), completed, failed)
	fmt.Fprintln(w)

	// Table header.
	fmt.Fprintln(w, "| Benchmark | L2 Size | Assoc | Outcome | Wall Time "+
		"| Sim Time | Sim Insts | L2 Miss Rate | Output |")
	fmt.Fprintln(w, "|-----------|---------|-------|---------|-----------"+
		"|----------|-----------|--------------|--------|")

	for _, r := range results {
		fmt.Fprintf(w, "| %s | %s | %d | %s | %s | %s | %s | %s | %s |\n",
			r.Benchmark,
			r.L2Size,
			r.Assoc,
			r.Outcome,
			formatMs(r.ElapsedMs),
			formatSimSeconds(r.Stats),
			formatSimInsts(r.Stats),
			formatMissRate(r.Stats),
			formatOutput(r),
		)
	}

	return nil
}

// GenerateJSON writes results as JSON to w.
func GenerateJSON(w io.Writer, results []sweep.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(results)
}

func countOutcomes(results []sweep.Result) (completed, failed int) {
	for _, r := range results {
		if r.Outcome == sweep.OutcomeCompleted && r.Relocated {
			completed++
		} else {
			failed++
		}
	}

	return completed, failed
}

func formatMs(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}

	return fmt.Sprintf("%.2fs", float64(ms)/1000)
}

func formatSimSeconds(s *stats.Summary) string {
	if s == nil || s.SimSeconds == 0 {
		return "-"
	}

	return fmt.Sprintf("%.6fs", s.SimSeconds)
}

func formatSimInsts(s *stats.Summary) string {
	if s == nil || s.SimInsts == 0 {
		return "-"
	}

	return fmt.Sprintf("%d", s.SimInsts)
}

func formatMissRate(s *stats.Summary) string {
	if s == nil || s.L2MissRate == 0 {
		return "-"
	}

	return fmt.Sprintf("%.4f", s.L2MissRate)
}

func formatOutput(r sweep.Result) string {
	if !r.Relocated {
		return "-"
	}

	return filepath.Base(r.OutputPath)
}
