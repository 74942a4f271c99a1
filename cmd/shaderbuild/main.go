package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quantmind-br/shaderbuild-go/internal/app"
	"github.com/quantmind-br/shaderbuild-go/internal/cache"
	"github.com/quantmind-br/shaderbuild-go/internal/config"
	"github.com/quantmind-br/shaderbuild-go/internal/output"
	"github.com/quantmind-br/shaderbuild-go/internal/tui"
	"github.com/quantmind-br/shaderbuild-go/internal/utils"
	"github.com/quantmind-br/shaderbuild-go/pkg/version"
)

var (
	cfgFile string
	verbose bool

	// Dependencies for testing
	osStat       = os.Stat
	execLookPath = exec.LookPath
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "shaderbuild [manifest]",
	Short: "Generate and run shader compile commands from a manifest",
	Long: `shaderbuild reads a shader manifest (JSON, YAML, TOML or HCL), derives one
compile command per shader stage and permutation, removes duplicates and
prints the resulting plan.

With --execute the plan is also compiled, in parallel, with the configured
compiler. A failing shader is reported without stopping the others.`,
	Version:       version.Short(),
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.shaderbuild/shaderbuild.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	// Compiler flags
	rootCmd.PersistentFlags().String("compiler", config.DefaultCompilerPath, "Shader compiler executable")
	rootCmd.PersistentFlags().Duration("timeout", config.DefaultTimeout, "Per-shader compile timeout (0=none)")
	rootCmd.PersistentFlags().Int("retries", config.DefaultRetries, "Retries for timed-out compiles")

	// Path flags
	rootCmd.PersistentFlags().String("shader-dir", config.DefaultShaderDir, "Shader source directory prefix")
	rootCmd.PersistentFlags().String("out-dir", config.DefaultOutputDir, "Compiled output directory prefix")
	rootCmd.PersistentFlags().Bool("mkdir", config.DefaultCreateOutputDir, "Create output directories before compiling")
	rootCmd.PersistentFlags().String("match", config.DefaultMatching, "Stage matching: extension or substring")

	// Execution flags
	rootCmd.PersistentFlags().BoolP("execute", "x", config.DefaultExecute, "Run the compile commands")
	rootCmd.PersistentFlags().IntP("jobs", "j", config.DefaultWorkers, "Number of concurrent compiles")

	// Cache flags
	rootCmd.PersistentFlags().Bool("incremental", config.DefaultCacheEnabled, "Skip shaders whose source is unchanged")
	rootCmd.PersistentFlags().String("cache-dir", "", "Cache directory (default is ~/.shaderbuild/cache)")

	// Output flags
	rootCmd.PersistentFlags().String("format", config.DefaultOutputFormat, "Plan format: text or json")
	rootCmd.PersistentFlags().String("plan-file", "", "Also write the plan to this file")
	rootCmd.PersistentFlags().String("report", "", "Write a JSON build report to this file")

	// Bind flags to viper
	_ = viper.BindPFlag("compiler.path", rootCmd.PersistentFlags().Lookup("compiler"))
	_ = viper.BindPFlag("compiler.timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("compiler.retries", rootCmd.PersistentFlags().Lookup("retries"))
	_ = viper.BindPFlag("paths.shader_dir", rootCmd.PersistentFlags().Lookup("shader-dir"))
	_ = viper.BindPFlag("paths.output_dir", rootCmd.PersistentFlags().Lookup("out-dir"))
	_ = viper.BindPFlag("paths.create_output_dir", rootCmd.PersistentFlags().Lookup("mkdir"))
	_ = viper.BindPFlag("stage.matching", rootCmd.PersistentFlags().Lookup("match"))
	_ = viper.BindPFlag("execution.execute", rootCmd.PersistentFlags().Lookup("execute"))
	_ = viper.BindPFlag("execution.workers", rootCmd.PersistentFlags().Lookup("jobs"))
	_ = viper.BindPFlag("cache.enabled", rootCmd.PersistentFlags().Lookup("incremental"))
	_ = viper.BindPFlag("cache.directory", rootCmd.PersistentFlags().Lookup("cache-dir"))
	_ = viper.BindPFlag("output.format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("output.plan_file", rootCmd.PersistentFlags().Lookup("plan-file"))
	_ = viper.BindPFlag("output.report_file", rootCmd.PersistentFlags().Lookup("report"))

	configInitCmd.Flags().Bool("force", false, "Overwrite an existing config file")
	configEditCmd.Flags().Bool("accessible", false, "Use plain prompts instead of the full-screen editor")

	// Add subcommands
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEditCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	rootCmd.AddCommand(runPlanCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "Shutting down gracefully...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

func newOrchestrator(cmd *cobra.Command) (*app.Orchestrator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	orchestrator, err := app.NewOrchestrator(app.OrchestratorOptions{
		Config:       cfg,
		Verbose:      verbose,
		Stdout:       cmd.OutOrStdout(),
		Stderr:       cmd.ErrOrStderr(),
		ShowProgress: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}
	return orchestrator, nil
}

func manifestArg(args []string) (string, error) {
	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}
	return app.ResolveManifest(arg)
}

func run(cmd *cobra.Command, args []string) error {
	manifestPath, err := manifestArg(args)
	if err != nil {
		return err
	}

	orchestrator, err := newOrchestrator(cmd)
	if err != nil {
		return err
	}
	defer orchestrator.Close()

	ctx, cancel := signalContext()
	defer cancel()

	return orchestrator.Run(ctx, manifestPath)
}

var runPlanCmd = &cobra.Command{
	Use:   "run-plan <plan-file>",
	Short: "Compile a previously saved plan",
	Long: `Compiles every command of a plan written with --plan-file, in either
text or JSON format. The manifest is not consulted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := output.ReadPlanFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read plan: %w", err)
		}

		orchestrator, err := newOrchestrator(cmd)
		if err != nil {
			return err
		}
		defer orchestrator.Close()

		ctx, cancel := signalContext()
		defer cancel()

		return orchestrator.RunPlan(ctx, p)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [manifest]",
	Short: "Rebuild the plan whenever the manifest or a shader changes",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manifestPath, err := manifestArg(args)
		if err != nil {
			return err
		}

		orchestrator, err := newOrchestrator(cmd)
		if err != nil {
			return err
		}
		defer orchestrator.Close()

		ctx, cancel := signalContext()
		defer cancel()

		return orchestrator.Watch(ctx, manifestPath)
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the incremental build cache",
}

func openCache() (*cache.BadgerCache, string, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	dir := utils.ExpandPath(cfg.Cache.Directory)
	c, err := cache.NewBadgerCache(cache.Options{Directory: dir})
	if err != nil {
		return nil, dir, fmt.Errorf("failed to open cache at %s: %w", dir, err)
	}
	return c, dir, nil
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget all recorded builds",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, dir, err := openCache()
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.Clear(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared (%s)\n", dir)
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, dir, err := openCache()
		if err != nil {
			return err
		}
		defer c.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Directory: %s\n", dir)
		fmt.Fprintf(out, "Entries:   %d\n", c.Size())
		stats := c.Stats()
		fmt.Fprintf(out, "LSM size:  %v bytes\n", stats["lsm_size"])
		fmt.Fprintf(out, "Vlog size: %v bytes\n", stats["vlog_size"])
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or edit the configuration file",
}

// configTarget is the file written by config init and config edit
func configTarget() string {
	if cfgFile != "" {
		return cfgFile
	}
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return config.ConfigFilePath()
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  "Prints the configuration after defaults, config file, environment and flags are merged.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		data, err := config.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.Load(); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), configTarget())
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configTarget()
		force, _ := cmd.Flags().GetBool("force")
		if _, err := osStat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.Save(config.Default(), path); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the configuration interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		path := configTarget()
		accessible, _ := cmd.Flags().GetBool("accessible")

		return tui.Run(tui.Options{
			Config:     cfg,
			ConfigPath: path,
			Accessible: accessible,
			SaveFunc: func(c *config.Config) error {
				return config.Save(c, path)
			},
		})
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the build environment",
	Long:  "Verifies that the compiler, shader directory, output directory and configuration are usable.",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Checking build environment...")
		allPassed := true

		// Check 1: Config file
		fmt.Fprint(out, "  Config: ")
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(out, "FAILED (%v)\n", err)
			cfg = config.Default()
			allPassed = false
		} else if used := viper.ConfigFileUsed(); used != "" {
			fmt.Fprintf(out, "OK (%s)\n", used)
		} else {
			fmt.Fprintln(out, "OK (defaults)")
		}

		// Check 2: Compiler
		fmt.Fprint(out, "  Compiler: ")
		if path := checkCompiler(cfg.Compiler.Path); path != "" {
			fmt.Fprintf(out, "OK (%s)\n", path)
		} else {
			fmt.Fprintf(out, "NOT FOUND (%s; --execute will fail)\n", cfg.Compiler.Path)
			allPassed = false
		}

		// Check 3: Shader directory
		fmt.Fprint(out, "  Shader directory: ")
		if checkDir(cfg.Paths.ShaderDir) {
			fmt.Fprintf(out, "OK (%s)\n", cfg.Paths.ShaderDir)
		} else {
			fmt.Fprintf(out, "FAILED (%s not found)\n", cfg.Paths.ShaderDir)
			allPassed = false
		}

		// Check 4: Output directory
		fmt.Fprint(out, "  Output directory: ")
		switch {
		case checkWritePermissions(cfg.Paths.OutputDir):
			fmt.Fprintf(out, "OK (%s)\n", cfg.Paths.OutputDir)
		case !checkDir(cfg.Paths.OutputDir) && cfg.Paths.CreateOutputDir:
			fmt.Fprintf(out, "WARN (%s will be created on first build)\n", cfg.Paths.OutputDir)
		default:
			fmt.Fprintf(out, "FAILED (%s missing or not writable)\n", cfg.Paths.OutputDir)
			allPassed = false
		}

		// Check 5: Cache directory
		fmt.Fprint(out, "  Cache directory: ")
		cacheDir := utils.ExpandPath(cfg.Cache.Directory)
		if checkDir(cacheDir) {
			fmt.Fprintf(out, "OK (%s)\n", cacheDir)
		} else {
			fmt.Fprintln(out, "WARN (will be created on first use)")
		}

		fmt.Fprintln(out)
		if allPassed {
			fmt.Fprintln(out, "All critical checks passed!")
		} else {
			fmt.Fprintln(out, "Some checks failed. Please resolve the issues above.")
		}
		return nil
	},
}

// checkCompiler resolves the compiler on PATH, or as a path when it contains a separator
func checkCompiler(compiler string) string {
	if filepath.Base(compiler) != compiler {
		if info, err := osStat(compiler); err == nil && !info.IsDir() {
			return compiler
		}
		return ""
	}
	path, err := execLookPath(compiler)
	if err != nil {
		return ""
	}
	return path
}

// checkDir reports whether path exists and is a directory
func checkDir(path string) bool {
	info, err := osStat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// checkWritePermissions checks if we can create a file in dir
func checkWritePermissions(dir string) bool {
	if !checkDir(dir) {
		return false
	}
	f, err := os.CreateTemp(dir, ".shaderbuild_write_*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Full())
	},
}
