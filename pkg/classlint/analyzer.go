// Package classlint runs the configured linters over a batch of loaded
// classes.
package classlint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/715d/classlint/pkg/classfile"
	"github.com/715d/classlint/pkg/config"
	"github.com/715d/classlint/pkg/lint"
	"github.com/715d/classlint/pkg/linters"
	"github.com/715d/classlint/pkg/suppress"
)

// AnalyzerOptions holds configuration options for the analyzer.
type AnalyzerOptions struct {
	// Config selects linters, targets and suppressions. Nil means
	// config.Default().
	Config *config.Config

	// Concurrency bounds parallel linter jobs. Zero means runtime.NumCPU().
	Concurrency int
}

// Analyzer orchestrates planning, linting and suppression.
type Analyzer struct {
	suppressions *suppress.Checker
	registry     *lint.Registry
	cfg          *config.Config
	opts         AnalyzerOptions
}

// NewAnalyzer validates the configuration and builds the linter registry.
func NewAnalyzer(opts AnalyzerOptions) (*Analyzer, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	reg := linters.New(linters.Options{Namespaces: cfg.Namespaces()})
	if err := cfg.Validate(reg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &Analyzer{
		suppressions: suppress.NewChecker(),
		registry:     reg,
		cfg:          cfg,
		opts:         opts,
	}
	if err := a.suppressions.Load(cfg.Suppress); err != nil {
		return nil, fmt.Errorf("failed to load suppressions: %w", err)
	}
	slog.Debug("analyzer ready", "linters", len(reg.Names()), "suppressions", a.suppressions.Len())
	return a, nil
}

// Registry returns the registry the analyzer runs linters from.
func (a *Analyzer) Registry() *lint.Registry { return a.registry }

// Analyze lints batch according to the configuration.
func (a *Analyzer) Analyze(ctx context.Context, batch *classfile.Batch) (*Result, error) {
	// Validate input.
	if batch == nil || len(batch.Classes) == 0 {
		return nil, errors.New("no classes provided")
	}

	// Step 1: Expand the configuration into jobs.
	plan := a.cfg.Plan(a.registry, batch)
	for _, m := range plan.Missing {
		slog.Warn("config target not loaded", "linter", m.Linter, "target", m.Name, "package", m.Package)
	}

	// Step 2: Run every job.
	runner := lint.NewRunner(a.registry, lint.RunnerOptions{Concurrency: a.opts.Concurrency})
	report, err := runner.Run(ctx, plan.Jobs)
	if err != nil {
		return nil, err
	}

	// Step 3: Mark suppressed findings.
	suppressed := a.suppressions.Apply(report.Findings)
	slog.Debug("analysis finished",
		"classes", len(batch.Classes),
		"jobs", len(plan.Jobs),
		"findings", len(report.Findings),
		"suppressed", suppressed)

	return &Result{
		Report:   report,
		Jobs:     len(plan.Jobs),
		Missing:  plan.Missing,
		Failures: batch.Failures,
	}, nil
}
