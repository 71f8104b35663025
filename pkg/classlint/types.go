package classlint

import (
	"github.com/715d/classlint/pkg/classfile"
	"github.com/715d/classlint/pkg/config"
	"github.com/715d/classlint/pkg/lint"
)

// Result is the outcome of one analysis.
type Result struct {
	*lint.Report

	// Jobs is the number of linter runs that were planned.
	Jobs int

	// Missing lists config targets that named no loaded class.
	Missing []config.Target

	// Failures lists class files that could not be parsed.
	Failures []classfile.Failure
}

// HasViolations reports whether an unsuppressed finding has warning or
// error severity.
func (r *Result) HasViolations() bool {
	for _, f := range r.Active() {
		if f.Severity >= lint.SeverityWarning {
			return true
		}
	}
	return false
}
