// Package executor runs planned compiler invocations on a bounded worker pool.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mattn/go-shellwords"

	"github.com/quantmind-br/shaderbuild-go/internal/cache"
	"github.com/quantmind-br/shaderbuild-go/internal/domain"
	"github.com/quantmind-br/shaderbuild-go/internal/plan"
	"github.com/quantmind-br/shaderbuild-go/internal/utils"
)

// DefaultWorkers is used when Options.Workers is not positive
const DefaultWorkers = 4

// Options configures an Executor
type Options struct {
	Workers int
	// Timeout bounds each compiler invocation; 0 disables it
	Timeout time.Duration
	// Retries applies to timed-out invocations only
	Retries       int
	RetryInterval time.Duration
	// CreateOutputDir makes the parent directory of each output before compiling
	CreateOutputDir bool
	// Cache enables incremental builds when non-nil
	Cache    domain.Cache
	CacheTTL time.Duration
	// ShowProgress draws a progress bar on ProgressWriter (stderr when nil)
	ShowProgress   bool
	ProgressWriter io.Writer
	Logger         *utils.Logger
}

// Executor runs compile commands
type Executor struct {
	runner  Runner
	opts    Options
	retrier *Retrier
	logger  *utils.Logger
}

// New creates an Executor. A nil runner uses ExecRunner.
func New(runner Runner, opts Options) *Executor {
	if runner == nil {
		runner = ExecRunner{}
	}
	if opts.Workers < 1 {
		opts.Workers = DefaultWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}

	return &Executor{
		runner: runner,
		opts:   opts,
		retrier: NewRetrier(RetrierOptions{
			MaxRetries:      opts.Retries,
			InitialInterval: opts.RetryInterval,
		}),
		logger: logger.WithComponent("executor"),
	}
}

// Execute runs every command and reports each outcome in input order.
// A failing command never stops the others; cancelling ctx does.
func (e *Executor) Execute(ctx context.Context, commands []plan.Command) *Report {
	start := time.Now()
	results := make([]domain.BuildResult, len(commands))

	var bar interface{ Add(int) error }
	if e.opts.ShowProgress && len(commands) > 1 {
		pb := utils.NewProgressBarTo(e.opts.ProgressWriter, len(commands), utils.DescCompiling)
		defer pb.Finish()
		bar = pb
	}

	indices := make([]int, len(commands))
	for i := range indices {
		indices[i] = i
	}

	utils.ParallelForEach(ctx, indices, e.opts.Workers, func(ctx context.Context, i int) error {
		results[i] = e.executeOne(ctx, commands[i])
		if bar != nil {
			_ = bar.Add(1)
		}
		return results[i].Err
	})

	// Commands never picked up because ctx was cancelled
	for i := range results {
		if results[i].Status == "" {
			results[i] = newResult(commands[i])
			results[i].Status = domain.StatusFailed
			results[i].Err = fmt.Errorf("not started: %w", context.Cause(ctx))
			results[i].Message = results[i].Err.Error()
		}
	}

	report := &Report{Results: results, Duration: time.Since(start)}
	e.logger.Info().
		Int("total", report.Total()).
		Int("compiled", report.Compiled()).
		Int("skipped", report.Skipped()).
		Int("failed", report.Failed()).
		Dur("duration", report.Duration).
		Msg("Build finished")
	return report
}

func newResult(cmd plan.Command) domain.BuildResult {
	return domain.BuildResult{
		Command: cmd.Line,
		Source:  cmd.Source,
		Output:  cmd.Output,
		Stage:   stageName(cmd),
	}
}

func stageName(cmd plan.Command) string {
	if cmd.Source == "" && cmd.Output == "" {
		return ""
	}
	return cmd.Stage.String()
}

func (e *Executor) executeOne(ctx context.Context, cmd plan.Command) domain.BuildResult {
	start := time.Now()
	result := newResult(cmd)
	log := e.logger.WithOutput(cmd.Output)

	fail := func(err error) domain.BuildResult {
		result.Status = domain.StatusFailed
		result.Err = err
		result.Message = err.Error()
		result.ExitCode = exitCode(err)
		result.Duration = time.Since(start)

		ev := log.Error().Err(err).Str("command", cmd.Line)
		var ce *domain.CompilationError
		if errors.As(err, &ce) {
			if ce.ExitCode > 0 {
				ev = ev.Int("exit_code", ce.ExitCode)
			}
			if detail := ce.Detail(); detail != "" {
				ev = ev.Str("compiler_output", detail)
				result.Message = detail
			}
		}
		ev.Msg("Compilation failed")
		return result
	}

	args, err := commandArgs(cmd)
	if err != nil {
		return fail(domain.NewCompilationError(cmd.Line, cmd.Output, 0, nil, err))
	}

	sourceHash, upToDate := e.checkCache(ctx, cmd)
	if upToDate {
		result.Status = domain.StatusSkipped
		result.Duration = time.Since(start)
		log.Debug().Msg("Up to date, skipping")
		return result
	}

	if e.opts.CreateOutputDir && cmd.Output != "" {
		if err := utils.EnsureDir(cmd.Output); err != nil {
			return fail(domain.NewCompilationError(cmd.Line, cmd.Output, 0, nil,
				fmt.Errorf("create output directory: %w", err)))
		}
	}

	attempts, err := e.retrier.Retry(ctx, func() error {
		return e.invoke(ctx, cmd, args)
	})
	result.Attempts = attempts
	if err != nil {
		return fail(err)
	}

	if e.opts.Cache != nil && sourceHash != "" {
		entry := cache.Entry{Command: cmd.Line, SourceHash: sourceHash, Output: cmd.Output}
		if err := cache.PutEntry(ctx, e.opts.Cache, entry, e.opts.CacheTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to record build in cache")
		}
	}

	result.Status = domain.StatusCompiled
	result.Duration = time.Since(start)
	log.Debug().Int("attempts", attempts).Dur("duration", result.Duration).Msg("Compiled")
	return result
}

// invoke runs the compiler once under the per-invocation timeout
func (e *Executor) invoke(ctx context.Context, cmd plan.Command, args []string) error {
	runCtx := ctx
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	out, err := e.runner.Run(runCtx, args[0], args[1:])
	if err == nil {
		return nil
	}

	if ctx.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w after %s: %w", domain.ErrTimeout, e.opts.Timeout, err)
		return domain.NewCompilationError(cmd.Line, cmd.Output, 0, out, err)
	}
	return domain.NewCompilationError(cmd.Line, cmd.Output, exitCode(err), out, err)
}

// checkCache returns the current source hash and whether the cached output
// can be reused
func (e *Executor) checkCache(ctx context.Context, cmd plan.Command) (string, bool) {
	if e.opts.Cache == nil || cmd.Input == "" {
		return "", false
	}

	hash, err := utils.HashFile(cmd.Input)
	if err != nil {
		// the compiler will report the missing source
		return "", false
	}

	entry, err := cache.GetEntry(ctx, e.opts.Cache, cmd.Line)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			e.logger.Warn().Err(err).Str("output", cmd.Output).Msg("Cache lookup failed")
		}
		return hash, false
	}

	if err := reusable(entry, hash, cmd.Output); err != nil {
		e.logger.Debug().Err(err).Str("output", cmd.Output).Msg("Cached build not reusable")
		return hash, false
	}
	return hash, true
}

// reusable returns nil when entry still describes sourceHash and its output
// exists, otherwise an error matching domain.ErrCacheStale
func reusable(entry *cache.Entry, sourceHash, output string) error {
	if entry.IsExpired() {
		return fmt.Errorf("%w: expired", domain.ErrCacheStale)
	}
	if !entry.UpToDate(sourceHash) {
		return fmt.Errorf("%w: source changed", domain.ErrCacheStale)
	}
	if !utils.FileExists(output) {
		return fmt.Errorf("%w: output %s missing", domain.ErrCacheStale, output)
	}
	return nil
}

// commandArgs returns the argv for cmd, splitting Line when the plan was
// loaded from a file and carries no Args
func commandArgs(cmd plan.Command) ([]string, error) {
	if len(cmd.Args) > 0 {
		return cmd.Args, nil
	}
	args, err := shellwords.Parse(cmd.Line)
	if err != nil {
		return nil, fmt.Errorf("parse command line: %w", err)
	}
	if len(args) == 0 {
		return nil, domain.ErrEmptyCommand
	}
	return args, nil
}
