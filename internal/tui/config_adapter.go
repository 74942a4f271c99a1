package tui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/quantmind-br/shaderbuild-go/internal/config"
)

// ConfigValues holds form values that map to Config struct.
// Numeric and duration fields are stored as strings for form editing.
type ConfigValues struct {
	CompilerPath    string
	CompilerTimeout string
	CompilerRetries string

	ShaderDir       string
	OutputDir       string
	CreateOutputDir bool
	Matching        string

	Execute bool
	Workers string

	CacheEnabled   bool
	CacheTTL       string
	CacheDirectory string

	OutputFormat string
	PlanFile     string
	ReportFile   string

	LogLevel      string
	LogFormat     string
	WatchDebounce string
}

// FromConfig converts a Config to ConfigValues for form editing
func FromConfig(cfg *config.Config) *ConfigValues {
	return &ConfigValues{
		CompilerPath:    cfg.Compiler.Path,
		CompilerTimeout: formatDuration(cfg.Compiler.Timeout),
		CompilerRetries: strconv.Itoa(cfg.Compiler.Retries),

		ShaderDir:       cfg.Paths.ShaderDir,
		OutputDir:       cfg.Paths.OutputDir,
		CreateOutputDir: cfg.Paths.CreateOutputDir,
		Matching:        cfg.Stage.Matching,

		Execute: cfg.Execution.Execute,
		Workers: strconv.Itoa(cfg.Execution.Workers),

		CacheEnabled:   cfg.Cache.Enabled,
		CacheTTL:       formatDuration(cfg.Cache.TTL),
		CacheDirectory: cfg.Cache.Directory,

		OutputFormat: cfg.Output.Format,
		PlanFile:     cfg.Output.PlanFile,
		ReportFile:   cfg.Output.ReportFile,

		LogLevel:      cfg.Logging.Level,
		LogFormat:     cfg.Logging.Format,
		WatchDebounce: formatDuration(cfg.Watch.Debounce),
	}
}

// ToConfig converts ConfigValues back to a validated Config
func (v *ConfigValues) ToConfig() (*config.Config, error) {
	timeout, err := parseDurationOrDefault(v.CompilerTimeout, config.DefaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid compiler timeout: %w", err)
	}

	retries, err := parseIntOrDefault(v.CompilerRetries, config.DefaultRetries)
	if err != nil {
		return nil, fmt.Errorf("invalid retries: %w", err)
	}

	workers, err := parseIntOrDefault(v.Workers, config.DefaultWorkers)
	if err != nil {
		return nil, fmt.Errorf("invalid workers: %w", err)
	}

	cacheTTL, err := parseDurationOrDefault(v.CacheTTL, config.DefaultCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid cache ttl: %w", err)
	}

	debounce, err := parseDurationOrDefault(v.WatchDebounce, config.DefaultDebounce)
	if err != nil {
		return nil, fmt.Errorf("invalid watch debounce: %w", err)
	}

	cfg := &config.Config{
		Compiler: config.CompilerConfig{
			Path:    v.CompilerPath,
			Timeout: timeout,
			Retries: retries,
		},
		Paths: config.PathsConfig{
			ShaderDir:       v.ShaderDir,
			OutputDir:       v.OutputDir,
			CreateOutputDir: v.CreateOutputDir,
		},
		Stage: config.StageConfig{
			Matching: v.Matching,
		},
		Execution: config.ExecutionConfig{
			Execute: v.Execute,
			Workers: workers,
		},
		Cache: config.CacheConfig{
			Enabled:   v.CacheEnabled,
			TTL:       cacheTTL,
			Directory: v.CacheDirectory,
		},
		Output: config.OutputConfig{
			Format:     v.OutputFormat,
			PlanFile:   v.PlanFile,
			ReportFile: v.ReportFile,
		},
		Logging: config.LoggingConfig{
			Level:  v.LogLevel,
			Format: v.LogFormat,
		},
		Watch: config.WatchConfig{
			Debounce: debounce,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

func parseDurationOrDefault(s string, defaultVal time.Duration) (time.Duration, error) {
	if s == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(s)
}

func parseIntOrDefault(s string, defaultVal int) (int, error) {
	if s == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(s)
}
