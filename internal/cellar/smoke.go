package cellar

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/kegworks/keg/internal/formula"
)

// ErrVersionMismatch is returned when the smoke test output does not
// contain the expected version string.
var ErrVersionMismatch = errors.New("version mismatch")

// SmokeTestTimeout bounds how long the installed binary may take to
// answer the smoke test. A release binary that can't print its version
// within this window is broken.
const SmokeTestTimeout = 30 * time.Second

// SmokeTest runs the installed binary with the formula's test arguments
// and requires the expected substring (by default the formula version) to
// appear in its combined output.
//
// Output is captured from both stdout and stderr: plenty of tools print
// their version banner to stderr.
func SmokeTest(ctx context.Context, binPath string, f *formula.Formula) error {
	ctx, cancel := context.WithTimeout(ctx, SmokeTestTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binPath, f.TestArgs()...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("run smoke test %s %s: %w", binPath, strings.Join(f.TestArgs(), " "), err)
	}

	expect := f.TestExpect()
	if !strings.Contains(string(output), expect) {
		return fmt.Errorf("%w: output %q does not contain %q",
			ErrVersionMismatch, strings.TrimSpace(string(output)), expect)
	}
	return nil
}
