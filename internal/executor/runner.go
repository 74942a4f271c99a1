package executor

//go:generate mockgen -source=runner.go -destination=mock_runner_test.go -package=executor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"

	"github.com/quantmind-br/shaderbuild-go/internal/domain"
)

// Runner starts one external process and returns everything it printed
type Runner interface {
	Run(ctx context.Context, name string, args []string) ([]byte, error)
}

// ExecRunner runs processes with os/exec
type ExecRunner struct{}

// Run executes name with args, killing the process when ctx is done.
// Stdout and stderr are returned interleaved.
func (ExecRunner) Run(ctx context.Context, name string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil && (errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)) {
		return out, fmt.Errorf("%w: %w", domain.ErrCompilerNotFound, err)
	}
	return out, err
}

// exitCode extracts a process exit status from err, or 0 if there is none
func exitCode(err error) int {
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		if code := coded.ExitCode(); code > 0 {
			return code
		}
	}
	return 0
}
