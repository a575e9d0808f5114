package sweep

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// supervise waits for a started command to exit, up to timeout. If the
// process is still running when the timeout (or ctx) expires, it is sent
// SIGINT and given grace to clean up; if it survives that too, it is
// killed. The child is always reaped before supervise returns, so the
// caller may safely reuse any resource the child held.
func supervise(
	ctx context.Context,
	logger *slog.Logger,
	cmd *exec.Cmd,
	timeout, grace time.Duration,
) (Outcome, error) {
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	primary := time.NewTimer(timeout)
	defer primary.Stop()

	select {
	case err := <-done:
		return OutcomeCompleted, err
	case <-ctx.Done():
		logger.Warn("sweep cancelled, interrupting simulator")
	case <-primary.C:
		logger.Warn("timeout expired, sending SIGINT for cleanup",
			slog.Duration("timeout", timeout),
		)
	}

	_ = cmd.Process.Signal(os.Interrupt)

	graceful := time.NewTimer(grace)
	defer graceful.Stop()

	select {
	case err := <-done:
		return OutcomeInterrupted, err
	case <-graceful.C:
		logger.Warn("simulator did not terminate gracefully, forcing kill",
			slog.Duration("grace", grace),
		)

		_ = cmd.Process.Kill()
		err := <-done

		return OutcomeKilled, err
	}
}
