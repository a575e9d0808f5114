package sweep

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const statsDump = `---------- Begin Simulation Statistics ----------
sim_seconds 0.002572 # Number of seconds simulated
sim_insts 10000000 # Number of instructions simulated
host_seconds 12.5 # Real time elapsed on the host
system.l2.overall_miss_rate::total 0.084916 # miss rate for overall accesses
---------- End Simulation Statistics ----------
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRunner builds a Runner rooted in a temp dir with a shell
// script standing in for the simulator. The script runs with the root
// dir as its working directory, like the real binary, and can copy
// stats_fixture.txt into m5out/stats.txt to simulate a stats dump.
func newTestRunner(t *testing.T, script string) *Runner {
	t.Helper()

	root := t.TempDir()
	out := filepath.Join(t.TempDir(), "results")

	if err := os.WriteFile(
		filepath.Join(root, "sim.sh"), []byte(script), 0o755,
	); err != nil {
		t.Fatalf("write script: %v", err)
	}

	if err := os.WriteFile(
		filepath.Join(root, "config.py"), []byte("# test\n"), 0o644,
	); err != nil {
		t.Fatalf("write config script: %v", err)
	}

	if err := os.WriteFile(
		filepath.Join(root, "stats_fixture.txt"), []byte(statsDump), 0o644,
	); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	return NewRunner(Invocation{
		Simulator:     "./sim.sh",
		ConfigScript:  "config.py",
		CPUType:       "Timin",
		MaxInsts:      1000,
		CachelineSize: 128,
	}, root, out, testLogger())
}

func singleCellGrid() Grid {
	return Grid{
		Benchmarks: []string{"astar"},
		L2Sizes:    []string{"256kB"},
		Assocs:     []int{2},
	}
}

func TestRunCompletedCell(t *testing.T) {
	r := newTestRunner(t, `#!/bin/sh
mkdir -p m5out
cp stats_fixture.txt m5out/stats.txt
`)

	results, err := r.Run(context.Background(), singleCellGrid())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}

	res := results[0]

	if res.Outcome != OutcomeCompleted {
		t.Errorf("outcome = %q, want %q", res.Outcome, OutcomeCompleted)
	}

	if !res.Relocated {
		t.Fatalf("stats file was not relocated: %s", res.Error)
	}

	want := filepath.Join(r.OutDir, "astar_256kB_2.txt")
	if res.OutputPath != want {
		t.Errorf("output path = %q, want %q", res.OutputPath, want)
	}

	if _, err := os.Stat(want); err != nil {
		t.Errorf("destination file missing: %v", err)
	}

	src := filepath.Join(r.RootDir, "m5out", "stats.txt")
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("source stats file still present after relocation")
	}

	if res.Stats == nil {
		t.Fatal("stats summary not parsed")
	}

	if res.Stats.SimInsts != 10000000 {
		t.Errorf("sim_insts = %d, want 10000000", res.Stats.SimInsts)
	}
}

func TestRunMissingStatsContinues(t *testing.T) {
	// Only the second benchmark produces a stats dump; the first
	// cell's relocation fails but the sweep must go on.
	r := newTestRunner(t, `#!/bin/sh
for a in "$@"; do b="$a"; done
if [ "$b" = "mcf_s" ]; then
	mkdir -p m5out
	cp stats_fixture.txt m5out/stats.txt
fi
`)

	grid := Grid{
		Benchmarks: []string{"astar", "mcf_s"},
		L2Sizes:    []string{"256kB"},
		Assocs:     []int{2},
	}

	results, err := r.Run(context.Background(), grid)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}

	if results[0].Relocated {
		t.Error("first cell relocated without a stats file")
	}

	if results[0].Error == "" {
		t.Error("first cell missing relocation error")
	}

	if !results[1].Relocated {
		t.Errorf("second cell not relocated: %s", results[1].Error)
	}
}

func TestRunSpawnFailureContinues(t *testing.T) {
	r := newTestRunner(t, "#!/bin/sh\n")

	// Present but not executable: preflight passes, spawn fails.
	if err := os.Chmod(filepath.Join(r.RootDir, "sim.sh"), 0o644); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	grid := Grid{
		Benchmarks: []string{"astar", "mcf_s"},
		L2Sizes:    []string{"256kB"},
		Assocs:     []int{2},
	}

	results, err := r.Run(context.Background(), grid)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}

	for i, res := range results {
		if res.Outcome != OutcomeSpawnFailed {
			t.Errorf("results[%d].Outcome = %q, want %q",
				i, res.Outcome, OutcomeSpawnFailed)
		}

		if res.Error == "" {
			t.Errorf("results[%d] missing spawn error", i)
		}
	}
}

func TestRunPreflightMissingSimulator(t *testing.T) {
	r := newTestRunner(t, "#!/bin/sh\n")
	r.Inv.Simulator = "./no-such-binary"

	if _, err := r.Run(context.Background(), singleCellGrid()); err == nil {
		t.Fatal("expected preflight error for missing simulator")
	}
}

func TestRunNoSignalOnPromptExit(t *testing.T) {
	r := newTestRunner(t, `#!/bin/sh
trap 'echo int >> sig.txt' INT
mkdir -p m5out
cp stats_fixture.txt m5out/stats.txt
`)

	results, err := r.Run(context.Background(), singleCellGrid())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if results[0].Outcome != OutcomeCompleted {
		t.Errorf("outcome = %q, want %q",
			results[0].Outcome, OutcomeCompleted)
	}

	sigPath := filepath.Join(r.RootDir, "sig.txt")
	if _, err := os.Stat(sigPath); !os.IsNotExist(err) {
		t.Error("signal sent to a child that exited within the timeout")
	}
}

func TestRunTimeoutInterrupts(t *testing.T) {
	// The child dumps stats and exits when interrupted, like gem5.
	r := newTestRunner(t, `#!/bin/sh
trap 'echo int >> sig.txt; mkdir -p m5out; cp stats_fixture.txt m5out/stats.txt; exit 0' INT
sleep 5 &
wait
`)
	r.Timeout = 200 * time.Millisecond
	r.Grace = 3 * time.Second

	results, err := r.Run(context.Background(), singleCellGrid())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	res := results[0]

	if res.Outcome != OutcomeInterrupted {
		t.Fatalf("outcome = %q, want %q", res.Outcome, OutcomeInterrupted)
	}

	if !res.Relocated {
		t.Errorf("stats dumped on interrupt were not relocated: %s",
			res.Error)
	}

	sigs, err := os.ReadFile(filepath.Join(r.RootDir, "sig.txt"))
	if err != nil {
		t.Fatalf("read signal log: %v", err)
	}

	if n := strings.Count(string(sigs), "int"); n != 1 {
		t.Errorf("child received %d interrupts, want exactly 1", n)
	}
}

func TestRunTimeoutEscalatesToKill(t *testing.T) {
	r := newTestRunner(t, `#!/bin/sh
trap '' INT
sleep 5 &
wait
`)
	r.Timeout = 200 * time.Millisecond
	r.Grace = 200 * time.Millisecond

	start := time.Now()

	results, err := r.Run(context.Background(), singleCellGrid())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if results[0].Outcome != OutcomeKilled {
		t.Errorf("outcome = %q, want %q", results[0].Outcome, OutcomeKilled)
	}

	if results[0].Relocated {
		t.Error("killed cell reported a relocated stats file")
	}

	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("kill path took %s, escalation did not fire", elapsed)
	}
}

func TestRunCancelledContext(t *testing.T) {
	r := newTestRunner(t, "#!/bin/sh\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := r.Run(ctx, singleCellGrid())
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}

	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
}
