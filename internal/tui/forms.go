package tui

import (
	"github.com/charmbracelet/huh"

	"github.com/quantmind-br/shaderbuild-go/internal/config"
	"github.com/quantmind-br/shaderbuild-go/internal/shader"
)

func CreateCompilerForm(values *ConfigValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("path").
				Title("Compiler").
				Description("Executable name on PATH or full path").
				Value(&values.CompilerPath).
				Placeholder(config.DefaultCompilerPath).
				Validate(ValidateRequired),

			huh.NewInput().
				Key("timeout").
				Title("Timeout").
				Description("Per-shader limit (e.g., 30s); empty for none").
				Value(&values.CompilerTimeout).
				Validate(ValidateDuration),

			huh.NewInput().
				Key("retries").
				Title("Retries").
				Description("Extra attempts after a timeout (0-10)").
				Value(&values.CompilerRetries).
				Placeholder("0").
				Validate(ValidateIntRange(0, 10)),
		),
	).WithTheme(GetTheme())
}

func CreatePathsForm(values *ConfigValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("shader_dir").
				Title("Shader Directory").
				Description("Prefix joined to every source name").
				Value(&values.ShaderDir).
				Placeholder(config.DefaultShaderDir),

			huh.NewInput().
				Key("output_dir").
				Title("Output Directory").
				Description("Prefix joined to every .spv output").
				Value(&values.OutputDir).
				Placeholder(config.DefaultOutputDir),

			huh.NewConfirm().
				Key("create_output_dir").
				Title("Create Output Directory").
				Description("Make missing output directories before compiling").
				Value(&values.CreateOutputDir),

			huh.NewSelect[string]().
				Key("matching").
				Title("Stage Matching").
				Description("How a source name selects its stage").
				Options(
					huh.NewOption("Extension (.vert/.frag/.comp)", string(shader.MatchExtension)),
					huh.NewOption("Substring (legacy)", string(shader.MatchSubstring)),
				).
				Value(&values.Matching),
		),
	).WithTheme(GetTheme())
}

func CreateExecutionForm(values *ConfigValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Key("execute").
				Title("Execute").
				Description("Run the compiler instead of only printing the plan").
				Value(&values.Execute),

			huh.NewInput().
				Key("workers").
				Title("Workers").
				Description("Concurrent compiler processes (1-64)").
				Value(&values.Workers).
				Placeholder("4").
				Validate(ValidateIntRange(1, 64)),
		),
	).WithTheme(GetTheme())
}

func CreateCacheForm(values *ConfigValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Key("enabled").
				Title("Incremental Builds").
				Description("Skip shaders whose source and command are unchanged").
				Value(&values.CacheEnabled),

			huh.NewInput().
				Key("ttl").
				Title("Cache TTL").
				Description("How long a recorded build stays valid (e.g., 168h)").
				Value(&values.CacheTTL).
				Placeholder("168h").
				Validate(ValidateDuration),

			huh.NewInput().
				Key("directory").
				Title("Cache Directory").
				Description("Directory for cache storage").
				Value(&values.CacheDirectory).
				Placeholder("~/.shaderbuild/cache"),
		),
	).WithTheme(GetTheme())
}

func CreateOutputForm(values *ConfigValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("format").
				Title("Plan Format").
				Description("How the plan is printed").
				Options(
					huh.NewOption("Text (one command per line)", config.FormatText),
					huh.NewOption("JSON", config.FormatJSON),
				).
				Value(&values.OutputFormat),

			huh.NewInput().
				Key("plan_file").
				Title("Plan File").
				Description("Also save the plan here (leave empty to skip)").
				Value(&values.PlanFile),

			huh.NewInput().
				Key("report_file").
				Title("Report File").
				Description("Write a JSON build report here (leave empty to skip)").
				Value(&values.ReportFile),
		),
	).WithTheme(GetTheme())
}

func CreateLoggingForm(values *ConfigValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("level").
				Title("Log Level").
				Description("Minimum log level to display").
				Options(
					huh.NewOption("Debug", "debug"),
					huh.NewOption("Info", "info"),
					huh.NewOption("Warn", "warn"),
					huh.NewOption("Error", "error"),
				).
				Value(&values.LogLevel),

			huh.NewSelect[string]().
				Key("format").
				Title("Log Format").
				Description("Output format for logs").
				Options(
					huh.NewOption("Pretty (human-readable)", "pretty"),
					huh.NewOption("JSON (structured)", "json"),
				).
				Value(&values.LogFormat),

			huh.NewInput().
				Key("debounce").
				Title("Watch Debounce").
				Description("Quiet period before a watch rebuild (e.g., 250ms)").
				Value(&values.WatchDebounce).
				Placeholder("250ms").
				Validate(ValidateDuration),
		),
	).WithTheme(GetTheme())
}

func GetFormForCategory(category string, values *ConfigValues) *huh.Form {
	switch category {
	case "compiler":
		return CreateCompilerForm(values)
	case "paths":
		return CreatePathsForm(values)
	case "execution":
		return CreateExecutionForm(values)
	case "cache":
		return CreateCacheForm(values)
	case "output":
		return CreateOutputForm(values)
	case "logging":
		return CreateLoggingForm(values)
	default:
		return nil
	}
}
