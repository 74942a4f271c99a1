package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quantmind-br/shaderbuild-go/internal/utils"
)

// Marshal renders cfg as a YAML config file. Durations are written in
// time.Duration notation ("30s") so the file stays hand-editable.
func Marshal(cfg *Config) ([]byte, error) {
	doc := map[string]any{
		"compiler": map[string]any{
			"path":    cfg.Compiler.Path,
			"timeout": cfg.Compiler.Timeout.String(),
			"retries": cfg.Compiler.Retries,
		},
		"paths": map[string]any{
			"shader_dir":        cfg.Paths.ShaderDir,
			"output_dir":        cfg.Paths.OutputDir,
			"create_output_dir": cfg.Paths.CreateOutputDir,
		},
		"stage": map[string]any{
			"matching": cfg.Stage.Matching,
		},
		"execution": map[string]any{
			"execute": cfg.Execution.Execute,
			"workers": cfg.Execution.Workers,
		},
		"cache": map[string]any{
			"enabled":   cfg.Cache.Enabled,
			"ttl":       cfg.Cache.TTL.String(),
			"directory": cfg.Cache.Directory,
		},
		"output": map[string]any{
			"format":      cfg.Output.Format,
			"plan_file":   cfg.Output.PlanFile,
			"report_file": cfg.Output.ReportFile,
		},
		"logging": map[string]any{
			"level":  cfg.Logging.Level,
			"format": cfg.Logging.Format,
		},
		"watch": map[string]any{
			"debounce": cfg.Watch.Debounce.String(),
		},
	}
	return yaml.Marshal(doc)
}

// Save writes cfg to path, creating the parent directory
func Save(cfg *Config, path string) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	path = utils.ExpandPath(path)
	if err := utils.EnsureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
