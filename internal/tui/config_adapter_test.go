package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/shaderbuild-go/internal/config"
	"github.com/quantmind-br/shaderbuild-go/internal/domain"
)

func configForTest() *config.Config {
	return &config.Config{
		Compiler: config.CompilerConfig{
			Path:    "/opt/vulkan/bin/glslangValidator",
			Timeout: 45 * time.Second,
			Retries: 2,
		},
		Paths: config.PathsConfig{
			ShaderDir:       "assets/shaders/",
			OutputDir:       "build/spv/",
			CreateOutputDir: true,
		},
		Stage:     config.StageConfig{Matching: "substring"},
		Execution: config.ExecutionConfig{Execute: true, Workers: 8},
		Cache: config.CacheConfig{
			Enabled:   true,
			TTL:       48 * time.Hour,
			Directory: "/tmp/shader-cache",
		},
		Output: config.OutputConfig{
			Format:     config.FormatJSON,
			PlanFile:   "plan.json",
			ReportFile: "report.json",
		},
		Logging: config.LoggingConfig{Level: "debug", Format: "json"},
		Watch:   config.WatchConfig{Debounce: 500 * time.Millisecond},
	}
}

func TestFromConfig(t *testing.T) {
	values := FromConfig(configForTest())

	assert.Equal(t, "/opt/vulkan/bin/glslangValidator", values.CompilerPath)
	assert.Equal(t, "45s", values.CompilerTimeout)
	assert.Equal(t, "2", values.CompilerRetries)
	assert.Equal(t, "assets/shaders/", values.ShaderDir)
	assert.True(t, values.CreateOutputDir)
	assert.Equal(t, "substring", values.Matching)
	assert.True(t, values.Execute)
	assert.Equal(t, "8", values.Workers)
	assert.Equal(t, "48h0m0s", values.CacheTTL)
	assert.Equal(t, "json", values.OutputFormat)
	assert.Equal(t, "report.json", values.ReportFile)
	assert.Equal(t, "500ms", values.WatchDebounce)
}

func TestFromConfig_ZeroTimeoutIsEmpty(t *testing.T) {
	cfg := configForTest()
	cfg.Compiler.Timeout = 0

	assert.Empty(t, FromConfig(cfg).CompilerTimeout)
}

func TestToConfig_RoundTrip(t *testing.T) {
	original := configForTest()

	cfg, err := FromConfig(original).ToConfig()
	require.NoError(t, err)
	assert.Equal(t, original, cfg)
}

func TestToConfig_EmptyFieldsUseDefaults(t *testing.T) {
	values := &ConfigValues{CompilerPath: "glslc"}

	cfg, err := values.ToConfig()
	require.NoError(t, err)

	assert.Equal(t, config.DefaultWorkers, cfg.Execution.Workers)
	assert.Equal(t, config.DefaultCacheTTL, cfg.Cache.TTL)
	assert.Equal(t, config.DefaultDebounce, cfg.Watch.Debounce)
	assert.Equal(t, config.DefaultMatching, cfg.Stage.Matching)
	assert.Equal(t, config.FormatText, cfg.Output.Format)
}

func TestToConfig_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(v *ConfigValues)
		errMsg string
	}{
		{"bad timeout", func(v *ConfigValues) { v.CompilerTimeout = "soon" }, "invalid compiler timeout"},
		{"bad retries", func(v *ConfigValues) { v.CompilerRetries = "a few" }, "invalid retries"},
		{"bad workers", func(v *ConfigValues) { v.Workers = "many" }, "invalid workers"},
		{"bad ttl", func(v *ConfigValues) { v.CacheTTL = "forever" }, "invalid cache ttl"},
		{"bad debounce", func(v *ConfigValues) { v.WatchDebounce = "1" }, "invalid watch debounce"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := FromConfig(configForTest())
			tt.modify(values)

			_, err := values.ToConfig()
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestToConfig_ValidationError(t *testing.T) {
	values := FromConfig(configForTest())
	values.Matching = "fuzzy"

	_, err := values.ToConfig()

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "stage.matching", ve.Field)
}
