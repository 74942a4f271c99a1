package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values
const (
	// Compiler defaults
	DefaultCompilerPath = "glslangValidator"
	DefaultTimeout      = time.Duration(0)
	DefaultRetries      = 0

	// Path defaults
	DefaultShaderDir       = "shaders/"
	DefaultOutputDir       = "shaders_bin/"
	DefaultCreateOutputDir = false

	// Stage defaults
	DefaultMatching = "extension"

	// Execution defaults
	DefaultExecute = false
	DefaultWorkers = 4

	// Cache defaults
	DefaultCacheEnabled = false
	DefaultCacheTTL     = 7 * 24 * time.Hour

	// Output defaults
	DefaultOutputFormat = FormatText

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "pretty"

	// Watch defaults
	DefaultDebounce = 250 * time.Millisecond

	// DefaultManifest is read when no manifest argument is given
	DefaultManifest = "shaders.json"
)

// Plan output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ConfigName is the config file base name, without extension
const ConfigName = "shaderbuild"

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".shaderbuild"
	}
	return filepath.Join(home, ".shaderbuild")
}

// CacheDir returns the cache directory path
func CacheDir() string {
	return filepath.Join(ConfigDir(), "cache")
}

// ConfigFilePath returns the config file path
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), ConfigName+".yaml")
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Compiler: CompilerConfig{
			Path:    DefaultCompilerPath,
			Timeout: DefaultTimeout,
			Retries: DefaultRetries,
		},
		Paths: PathsConfig{
			ShaderDir:       DefaultShaderDir,
			OutputDir:       DefaultOutputDir,
			CreateOutputDir: DefaultCreateOutputDir,
		},
		Stage: StageConfig{
			Matching: DefaultMatching,
		},
		Execution: ExecutionConfig{
			Execute: DefaultExecute,
			Workers: DefaultWorkers,
		},
		Cache: CacheConfig{
			Enabled:   DefaultCacheEnabled,
			TTL:       DefaultCacheTTL,
			Directory: CacheDir(),
		},
		Output: OutputConfig{
			Format: DefaultOutputFormat,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Watch: WatchConfig{
			Debounce: DefaultDebounce,
		},
	}
}
