package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/quantmind-br/shaderbuild-go/internal/domain"
	"github.com/quantmind-br/shaderbuild-go/internal/shader"
	"github.com/quantmind-br/shaderbuild-go/internal/utils"
)

// Config represents the application configuration
type Config struct {
	Compiler  CompilerConfig  `mapstructure:"compiler" yaml:"compiler"`
	Paths     PathsConfig     `mapstructure:"paths" yaml:"paths"`
	Stage     StageConfig     `mapstructure:"stage" yaml:"stage"`
	Execution ExecutionConfig `mapstructure:"execution" yaml:"execution"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Watch     WatchConfig     `mapstructure:"watch" yaml:"watch"`
}

// CompilerConfig describes the external shader compiler
type CompilerConfig struct {
	Path    string        `mapstructure:"path" yaml:"path"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"` // 0 = no limit
	Retries int           `mapstructure:"retries" yaml:"retries"`
}

// PathsConfig contains the directory prefixes used in generated commands
type PathsConfig struct {
	ShaderDir       string `mapstructure:"shader_dir" yaml:"shader_dir"`
	OutputDir       string `mapstructure:"output_dir" yaml:"output_dir"`
	CreateOutputDir bool   `mapstructure:"create_output_dir" yaml:"create_output_dir"`
}

// StageConfig controls how a source name maps to a shader stage
type StageConfig struct {
	Matching string `mapstructure:"matching" yaml:"matching"`
}

// ExecutionConfig contains execute-vs-print settings
type ExecutionConfig struct {
	Execute bool `mapstructure:"execute" yaml:"execute"`
	Workers int  `mapstructure:"workers" yaml:"workers"`
}

// CacheConfig contains incremental build cache settings
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL       time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Directory string        `mapstructure:"directory" yaml:"directory"`
}

// OutputConfig contains plan and report output settings
type OutputConfig struct {
	Format     string `mapstructure:"format" yaml:"format"`
	PlanFile   string `mapstructure:"plan_file" yaml:"plan_file"`
	ReportFile string `mapstructure:"report_file" yaml:"report_file"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// WatchConfig contains watch mode settings
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// Validate validates the configuration and normalizes values in place
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Compiler.Path) == "" {
		c.Compiler.Path = DefaultCompilerPath
	}
	if c.Compiler.Timeout < 0 {
		c.Compiler.Timeout = 0
	}
	if c.Compiler.Retries < 0 {
		c.Compiler.Retries = 0
	}

	c.Paths.ShaderDir = utils.WithTrailingSlash(c.Paths.ShaderDir)
	c.Paths.OutputDir = utils.WithTrailingSlash(c.Paths.OutputDir)

	if c.Stage.Matching == "" {
		c.Stage.Matching = DefaultMatching
	}
	if _, err := shader.ParseMatchMode(c.Stage.Matching); err != nil {
		return domain.NewValidationError("stage.matching", err.Error())
	}

	if c.Execution.Workers < 1 {
		c.Execution.Workers = DefaultWorkers
	}

	if c.Cache.TTL < time.Minute {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Cache.Directory == "" {
		c.Cache.Directory = CacheDir()
	}
	c.Cache.Directory = utils.ExpandPath(c.Cache.Directory)

	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	switch c.Output.Format {
	case "":
		c.Output.Format = DefaultOutputFormat
	case FormatText, FormatJSON:
	default:
		return domain.NewValidationError("output.format",
			fmt.Sprintf("unknown format %q (want %s or %s)", c.Output.Format, FormatText, FormatJSON))
	}

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}

	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = DefaultDebounce
	}
	return nil
}

// MatchMode returns the parsed stage matching mode. Call after Validate.
func (c *Config) MatchMode() shader.MatchMode {
	mode, err := shader.ParseMatchMode(c.Stage.Matching)
	if err != nil {
		return shader.MatchExtension
	}
	return mode
}
