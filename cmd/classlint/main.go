// Package main implements the CLI driver for the classlint analyzer.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/spf13/cobra"

	"github.com/715d/classlint/pkg/classlint"
	"github.com/715d/classlint/pkg/config"
	"github.com/715d/classlint/pkg/linters"
)

// Config holds all command-line configuration options for the classlint analyzer.
type Config struct {
	Paths      []string // class files or directories to analyze
	ConfigFile string   // YAML, TOML or line-format linter configuration
	Linters    []string // linters to run on every loaded class
	List       bool     // list registered linters and exit
	Verbose    bool     // enables detailed output and statistics
	JSON       bool     // enables JSON output format
	Profile    bool     // enables CPU and memory profiling
	Recursive  bool     // descend into directories
}

const (
	exitFindings = 1
	exitError    = 2
)

var (
	// Set via ldflags during build.
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

var cfg Config

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_ = teardown(nil, nil)
		if err.Error() != "" {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		var cErr *codedError
		if errors.As(err, &cErr) {
			os.Exit(cErr.code)
		}
		os.Exit(exitError)
	}
}

func newRootCmd() *cobra.Command {
	cfg = Config{}
	var rootCmd = &cobra.Command{
		Use:   "classlint [paths...]",
		Short: "Lint compiled JVM classes for design problems",
		Long: `classlint reads compiled .class files and reports:
- Style problems such as dead code, unused members and equals/hashCode mismatches
- Design principle violations such as feature envy and dependency cycles
- Design patterns and the ways they are commonly misapplied

Without --config or --linter every registered linter runs on every class.`,
		Example: `  classlint build/classes                # Analyze a class directory
  classlint -c classlint.yaml build/     # Use a configuration file
  classlint -l DeadCode -l FeatureEnvy . # Run selected linters everywhere
  classlint --json build/ > report.json  # JSON output to file
  classlint --list                       # Show available linters`,
		Args:               cobra.ArbitraryArgs,
		RunE:               runCommand,
		PersistentPreRunE:  setup,
		PersistentPostRunE: teardown,
		SilenceUsage:       true,
		SilenceErrors:      true,
		Version:            version,
	}

	// Set custom version template to include build info.
	rootCmd.SetVersionTemplate(fmt.Sprintf("classlint version %s\n  commit: %s\n  built:  %s\n", version, gitCommit, buildTime))

	// Define flags.
	rootCmd.PersistentFlags().StringVarP(&cfg.ConfigFile, "config", "c", "", "Linter configuration file (.yaml, .toml or line format)")
	rootCmd.PersistentFlags().StringArrayVarP(&cfg.Linters, "linter", "l", nil, "Run this linter on every loaded class (repeatable)")
	rootCmd.PersistentFlags().BoolVar(&cfg.List, "list", false, "List registered linters and exit")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&cfg.JSON, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&cfg.Profile, "profile", false, "Enable CPU and memory profiling (writes cpu.prof and mem.prof to current directory)")
	rootCmd.PersistentFlags().BoolVar(&cfg.Recursive, "recursive", true, "Descend into directories")

	return rootCmd
}

func runCommand(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if cfg.List {
		listLinters(out, linters.New(linters.Options{}))
		return nil
	}

	cfg.Paths = args
	if len(cfg.Paths) == 0 {
		cfg.Paths = []string{"."}
	}

	slog.Info("starting class analysis", "paths", cfg.Paths)

	result, err := runAnalysis(cmd.Context(), &cfg)
	if err != nil {
		return errWithCode(fmt.Errorf("analyze: %w", err), exitError)
	}

	if err := writeResults(out, result, &cfg); err != nil {
		return errWithCode(fmt.Errorf("format results: %w", err), exitError)
	}

	if len(result.Errors) > 0 {
		return errWithCode(fmt.Errorf("%d linter job(s) failed", len(result.Errors)), exitError)
	}
	if result.HasViolations() {
		return errWithCode(nil, exitFindings)
	}
	return nil
}

// loadConfig combines the config file and --linter flags. Flags replace the
// file's linter rules but keep its suppressions and platform prefixes.
func loadConfig(cfg *Config) (*config.Config, error) {
	var lintCfg *config.Config
	if cfg.ConfigFile != "" {
		var err error
		if lintCfg, err = config.Load(cfg.ConfigFile); err != nil {
			return nil, err
		}
		slog.Info("loaded config", "file", cfg.ConfigFile, "format", config.FormatOf(cfg.ConfigFile))
	}
	if len(cfg.Linters) > 0 {
		selected := config.ForLinters(cfg.Linters...)
		if lintCfg == nil {
			return selected, nil
		}
		lintCfg.Linters = selected.Linters
	}
	return lintCfg, nil
}

func runAnalysis(ctx context.Context, cfg *Config) (*Report, error) {
	start := time.Now()

	lintCfg, err := loadConfig(cfg)
	if err != nil {
		return nil, err
	}

	slog.Info("loading classes", "paths", cfg.Paths, "recursive", cfg.Recursive)
	batch, err := classlint.LoadClasses(ctx, classlint.LoaderOptions{
		Paths:     cfg.Paths,
		Recursive: cfg.Recursive,
	})
	if err != nil {
		return nil, err
	}
	for _, f := range batch.Failures {
		slog.Warn("skipping unreadable class", "path", f.Path, "err", f.Err)
	}
	slog.Info("loaded classes", "num", len(batch.Classes), "failed", len(batch.Failures))

	slog.Info("running analysis")
	analyzer, err := classlint.NewAnalyzer(classlint.AnalyzerOptions{Config: lintCfg})
	if err != nil {
		return nil, err
	}
	result, err := analyzer.Analyze(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("analyze classes: %w", err)
	}
	duration := time.Since(start)
	slog.Info("analysis completed", "dur", duration)

	return newReport(result, len(batch.Classes), duration), nil
}

func writeResults(w io.Writer, r *Report, cfg *Config) error {
	if cfg.JSON {
		return writeJSON(w, r)
	}
	writeText(w, r, cfg.Verbose)
	return nil
}

var cpuProfile *os.File

func setup(_ *cobra.Command, _ []string) error {
	// Disable logger unless verbose flag is set.
	slog.SetDefault(slog.New(slog.DiscardHandler))
	if cfg.Verbose {
		opts := &slog.HandlerOptions{Level: slog.LevelDebug}
		var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
		if cfg.JSON {
			handler = slog.NewJSONHandler(os.Stderr, opts)
		}
		slog.SetDefault(slog.New(handler))
	}

	if !cfg.Profile {
		return nil
	}

	// Start CPU profiling.
	var err error
	cpuProfile, err = os.Create("cpu.prof")
	if err != nil {
		return fmt.Errorf("creating cpu.prof: %w", err)
	}
	if err := pprof.StartCPUProfile(cpuProfile); err != nil {
		_ = cpuProfile.Close()
		return fmt.Errorf("starting CPU profile: %w", err)
	}
	slog.Info("cpu profiling started", "file", "cpu.prof")
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if !cfg.Profile || cpuProfile == nil {
		return nil
	}

	// Stop CPU profiling and close file.
	pprof.StopCPUProfile()
	defer cpuProfile.Close()
	cpuProfile = nil
	slog.Info("cpu profiling stopped", "file", "cpu.prof")

	// Write memory profile.
	memFile, err := os.Create("mem.prof")
	if err != nil {
		return fmt.Errorf("creating mem.prof: %w", err)
	}
	defer memFile.Close()
	runtime.GC() // Get up-to-date statistics
	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("writing memory profile: %w", err)
	}
	slog.Info("memory profiling completed", "file", "mem.prof")
	return nil
}

func errWithCode(err error, code int) error {
	return &codedError{err: err, code: code}
}

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return ""
}

func (e *codedError) Unwrap() error { return e.err }
