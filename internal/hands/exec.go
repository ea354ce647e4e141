package hands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"umbrasol/internal/logging"
)

// runShell executes cmd through the given interpreter with a hard timeout.
// The result always carries a printable output; timeout and launch failures
// surface as "ERROR:" with a non-zero exit code.
func runShell(ctx context.Context, timeout time.Duration, interpreter []string, cmd string) ShellResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(interpreter[1:], cmd)
	c := exec.CommandContext(ctx, interpreter[0], args...)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return ShellResult{ExitCode: -1, Output: "ERROR: command timed out"}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out := stderr.String()
			if out == "" {
				out = stdout.String()
			}
			return ShellResult{ExitCode: exitErr.ExitCode(), Output: strings.TrimSpace(out)}
		}
		logging.Errorf("hands: launch failed: %v", err)
		return ShellResult{ExitCode: -1, Output: fmt.Sprintf("ERROR: %v", err)}
	}
	return ShellResult{ExitCode: 0, Output: strings.TrimSpace(stdout.String())}
}

// capture runs a single binary with args and returns its trimmed stdout, or
// an "ERROR:" string when the binary is missing or fails.
func capture(ctx context.Context, timeout time.Duration, name string, args ...string) string {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return fmt.Sprintf("ERROR: %s: %v", name, err)
	}
	return strings.TrimSpace(string(out))
}
