package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/quantmind-br/shaderbuild-go/internal/cache"
	"github.com/quantmind-br/shaderbuild-go/internal/config"
	"github.com/quantmind-br/shaderbuild-go/internal/domain"
	"github.com/quantmind-br/shaderbuild-go/internal/executor"
	"github.com/quantmind-br/shaderbuild-go/internal/manifest"
	"github.com/quantmind-br/shaderbuild-go/internal/output"
	"github.com/quantmind-br/shaderbuild-go/internal/plan"
	"github.com/quantmind-br/shaderbuild-go/internal/utils"
	"github.com/quantmind-br/shaderbuild-go/internal/watch"
)

// Orchestrator coordinates loading, planning and compiling
type Orchestrator struct {
	config    *config.Config
	loader    *manifest.Loader
	generator *plan.Generator
	executor  *executor.Executor
	cache     domain.Cache
	ownsCache bool
	stdout    io.Writer
	logger    *utils.Logger
}

// OrchestratorOptions contains options for creating an orchestrator
type OrchestratorOptions struct {
	Config  *config.Config
	Verbose bool
	// Stdout receives the printed plan; os.Stdout when nil
	Stdout io.Writer
	// Stderr receives logs and the progress bar; os.Stderr when nil
	Stderr       io.Writer
	ShowProgress bool
	// Runner replaces the process runner, mainly for tests
	Runner executor.Runner
	// Cache replaces the badger cache opened for cache.enabled. The caller
	// keeps ownership of a supplied cache.
	Cache  domain.Cache
	Logger *utils.Logger
}

// NewOrchestrator creates a new orchestrator with the given configuration
func NewOrchestrator(opts OrchestratorOptions) (*Orchestrator, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	logger := opts.Logger
	if logger == nil {
		logLevel := config.DefaultLogLevel
		logFormat := config.DefaultLogFormat
		if cfg.Logging.Level != "" {
			logLevel = cfg.Logging.Level
		}
		if cfg.Logging.Format != "" {
			logFormat = cfg.Logging.Format
		}
		logger = utils.NewLogger(utils.LoggerOptions{
			Level:   logLevel,
			Format:  logFormat,
			Output:  stderr,
			Verbose: opts.Verbose,
		})
	}

	c := opts.Cache
	ownsCache := false
	if c == nil && cfg.Cache.Enabled {
		bc, err := cache.NewBadgerCache(cache.Options{
			Directory: utils.ExpandPath(cfg.Cache.Directory),
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		c = bc
		ownsCache = true
	}

	generator := plan.NewGenerator(plan.Options{
		CompilerPath: cfg.Compiler.Path,
		ShaderDir:    cfg.Paths.ShaderDir,
		OutputDir:    cfg.Paths.OutputDir,
		Matching:     cfg.MatchMode(),
		Logger:       logger,
	})

	ex := executor.New(opts.Runner, executor.Options{
		Workers:         cfg.Execution.Workers,
		Timeout:         cfg.Compiler.Timeout,
		Retries:         cfg.Compiler.Retries,
		CreateOutputDir: cfg.Paths.CreateOutputDir,
		Cache:           c,
		CacheTTL:        cfg.Cache.TTL,
		ShowProgress:    opts.ShowProgress && !opts.Verbose,
		ProgressWriter:  stderr,
		Logger:          logger,
	})

	return &Orchestrator{
		config:    cfg,
		loader:    manifest.NewLoader(),
		generator: generator,
		executor:  ex,
		cache:     c,
		ownsCache: ownsCache,
		stdout:    stdout,
		logger:    logger,
	}, nil
}

// Plan loads the manifest at manifestPath and generates its build plan
func (o *Orchestrator) Plan(ctx context.Context, manifestPath string) (*plan.Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := o.logger.WithManifest(manifestPath)

	m, err := o.loader.Load(manifestPath)
	if err != nil {
		return nil, err
	}
	for _, w := range m.Warnings() {
		log.Warn().Int("entry", w.Index).Msg(w.Message)
	}

	p := o.generator.Generate(m)
	log.Debug().
		Int("entries", len(m.Shaders)).
		Int("units", m.UnitCount()).
		Int("commands", p.Len()).
		Int("duplicates", p.Duplicates()).
		Msg("Plan generated")
	return p, nil
}

// Run prints the plan for manifestPath and compiles it when execution is enabled
func (o *Orchestrator) Run(ctx context.Context, manifestPath string) error {
	startTime := time.Now()

	o.logger.Info().
		Str("manifest", manifestPath).
		Str("compiler", o.config.Compiler.Path).
		Bool("execute", o.config.Execution.Execute).
		Msg("Starting shader build")

	p, err := o.Plan(ctx, manifestPath)
	if err != nil {
		return err
	}

	writer := output.NewWriter(output.WriterOptions{
		Out:      o.stdout,
		Format:   o.config.Output.Format,
		PlanFile: o.config.Output.PlanFile,
		Manifest: manifestPath,
	})
	if err := writer.Write(p); err != nil {
		return fmt.Errorf("failed to write plan: %w", err)
	}

	if !o.config.Execution.Execute {
		o.writeReport(executor.Planned(p.Commands()), manifestPath)
		o.logger.Debug().
			Int("commands", p.Len()).
			Dur("duration", time.Since(startTime)).
			Msg("Plan printed, execution disabled")
		return nil
	}

	return o.execute(ctx, p, manifestPath)
}

// RunPlan compiles an already generated plan, such as one read back from a plan file
func (o *Orchestrator) RunPlan(ctx context.Context, p *plan.Plan) error {
	return o.execute(ctx, p, "")
}

func (o *Orchestrator) execute(ctx context.Context, p *plan.Plan, manifestPath string) error {
	report := o.executor.Execute(ctx, p.Commands())
	o.writeReport(report, manifestPath)

	if ctx.Err() != nil {
		o.logger.Warn().Msg("Build cancelled")
		return ctx.Err()
	}
	return report.Err()
}

// writeReport saves report to output.report_file when one is configured
func (o *Orchestrator) writeReport(report *executor.Report, manifestPath string) {
	collector := output.NewReportCollector(output.CollectorOptions{
		Path:     o.config.Output.ReportFile,
		Manifest: manifestPath,
		Enabled:  true,
	})
	collector.Add(report.Results...)
	if err := collector.Flush(report.Duration); err != nil {
		o.logger.Warn().Err(err).Msg("Failed to write build report")
	}
}

// Watch runs the build once, then again whenever the manifest or a shader
// source changes, until ctx is done. The output directory is ignored so
// compiled files never trigger another build.
func (o *Orchestrator) Watch(ctx context.Context, manifestPath string) error {
	paths := []string{manifestPath}
	if dir := o.config.Paths.ShaderDir; dir != "" && utils.DirExists(dir) {
		paths = append(paths, dir)
	} else {
		o.logger.Warn().Str("shader_dir", dir).Msg("Shader directory not found, watching manifest only")
	}

	w, err := watch.New(watch.Options{
		Paths:    paths,
		Ignore:   []string{o.config.Paths.OutputDir},
		Debounce: o.config.Watch.Debounce,
		Logger:   o.logger,
	})
	if err != nil {
		return err
	}

	if err := o.Run(ctx, manifestPath); err != nil {
		o.logger.Error().Err(err).Msg("Initial build failed")
	}

	o.logger.Info().Strs("paths", paths).Msg("Watching for changes")
	return w.Run(ctx, func(ctx context.Context, changed []string) error {
		o.logger.Debug().Strs("changed", changed).Msg("Sources changed")
		return o.Run(ctx, manifestPath)
	})
}

// Close releases all resources held by the orchestrator
func (o *Orchestrator) Close() error {
	if o.ownsCache && o.cache != nil {
		return o.cache.Close()
	}
	return nil
}
