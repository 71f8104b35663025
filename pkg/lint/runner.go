package lint

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/715d/classlint/pkg/classfile"
)

// Job runs one linter against one class. Context is set for package-wide
// jobs and nil for per-class jobs.
type Job struct {
	Linter  string
	Class   *classfile.ClassModel
	Context PackageContext
}

// IsPackage reports whether j uses a package-wide factory.
func (j Job) IsPackage() bool { return j.Context != nil }

// JobError records a job that could not run.
type JobError struct {
	Linter string
	Class  string
	Err    error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("%s on %s: %v", e.Linter, classfile.DottedName(e.Class), e.Err)
}

func (e *JobError) Unwrap() error { return e.Err }

// JobRef names a job that produced no findings.
type JobRef struct {
	Linter string
	Class  string
}

// Report is the merged outcome of a run. Findings are de-duplicated and
// sorted by class, linter, line, member and message.
type Report struct {
	Findings []Finding
	Errors   []*JobError
	Clean    []JobRef
}

// Active returns the findings that were not suppressed.
func (r *Report) Active() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if !f.Suppressed {
			out = append(out, f)
		}
	}
	return out
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	// Concurrency bounds parallel jobs. Zero means runtime.NumCPU().
	Concurrency int
}

// Runner dispatches jobs to linters built from a registry.
type Runner struct {
	registry *Registry
	opts     RunnerOptions
}

// NewRunner returns a runner over reg.
func NewRunner(reg *Registry, opts RunnerOptions) *Runner {
	return &Runner{registry: reg, opts: opts}
}

type jobResult struct {
	findings []Finding
	err      error
}

// Run executes jobs in parallel. A job whose linter cannot be resolved is
// recorded in Report.Errors and does not stop the others. Run fails only
// when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, jobs []Job) (*Report, error) {
	// Each goroutine owns results[idx]; the merge reads after Wait.
	results := make([]jobResult, len(jobs))

	limit := r.opts.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	var total int64

	for idx, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			l, err := r.create(job)
			if err != nil {
				results[idx] = jobResult{err: err}
				return nil
			}
			findings := l.Lint()
			results[idx] = jobResult{findings: findings}
			atomic.AddInt64(&total, int64(len(findings)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("running linters: %w", err)
	}

	report := &Report{Findings: make([]Finding, 0, total)}
	seen := make(map[Finding]struct{}, total)
	for idx, res := range results {
		job := jobs[idx]
		var class string
		if job.Class != nil {
			class = job.Class.Name
		}
		if res.err != nil {
			slog.Warn("linter failed", "linter", job.Linter, "class", class, "err", res.err)
			report.Errors = append(report.Errors, &JobError{Linter: job.Linter, Class: class, Err: res.err})
			continue
		}
		if len(res.findings) == 0 {
			report.Clean = append(report.Clean, JobRef{Linter: job.Linter, Class: class})
			continue
		}
		for _, f := range res.findings {
			if _, dup := seen[f]; dup {
				continue
			}
			seen[f] = struct{}{}
			report.Findings = append(report.Findings, f)
		}
	}
	SortFindings(report.Findings)
	slog.Debug("linters finished", "jobs", len(jobs), "findings", len(report.Findings), "errors", len(report.Errors))
	return report, nil
}

func (r *Runner) create(job Job) (Linter, error) {
	if job.Class == nil {
		return nil, errors.New("nil class")
	}
	if job.IsPackage() {
		return r.registry.CreatePackageLinter(job.Linter, job.Class, job.Context)
	}
	return r.registry.Create(job.Linter, job.Class)
}

// SortFindings orders findings deterministically.
func SortFindings(fs []Finding) {
	slices.SortStableFunc(fs, func(a, b Finding) int {
		return cmp.Or(
			cmp.Compare(a.Class, b.Class),
			cmp.Compare(a.Linter, b.Linter),
			cmp.Compare(a.Line, b.Line),
			cmp.Compare(a.Member, b.Member),
			cmp.Compare(a.Message, b.Message),
		)
	})
}
