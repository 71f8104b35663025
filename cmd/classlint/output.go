package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/715d/classlint/pkg/classfile"
	"github.com/715d/classlint/pkg/classlint"
	"github.com/715d/classlint/pkg/lint"
)

// Report is the analysis output with execution statistics.
type Report struct {
	*classlint.Result
	Stats Stats `json:"stats"`
}

// Stats summarizes one run.
type Stats struct {
	Classes          int           `json:"classes"`
	Failed           int           `json:"failed"`
	Jobs             int           `json:"jobs"`
	Findings         int           `json:"findings"`
	Suppressed       int           `json:"suppressed"`
	AnalysisDuration time.Duration `json:"analysis_duration"`
}

func newReport(result *classlint.Result, classes int, dur time.Duration) *Report {
	r := &Report{Result: result}
	r.Stats = Stats{
		Classes:          classes,
		Failed:           len(result.Failures),
		Jobs:             result.Jobs,
		Findings:         len(result.Findings),
		AnalysisDuration: dur,
	}
	for _, f := range result.Findings {
		if f.Suppressed {
			r.Stats.Suppressed++
		}
	}
	return r
}

var (
	severityStyles = map[lint.Severity]lipgloss.Style{
		lint.SeverityError:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		lint.SeverityWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		lint.SeverityInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	}
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cleanStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
)

func severityTag(s lint.Severity) string {
	return severityStyles[s].Render(fmt.Sprintf("%-7s", s.String()))
}

// writeText prints one finding per line. Suppressed findings, clean linter
// runs and statistics are only shown in verbose mode.
func writeText(w io.Writer, r *Report, verbose bool) {
	for _, f := range r.Findings {
		if f.Suppressed && !verbose {
			continue
		}
		line := severityTag(f.Severity) + " " + f.String()
		if f.Suppressed {
			line = dimStyle.Render(line + " (suppressed: " + f.SuppressReason + ")")
		}
		fmt.Fprintln(w, line)
	}

	for _, e := range r.Errors {
		fmt.Fprintln(w, severityTag(lint.SeverityError)+" "+e.Error())
	}

	if !verbose {
		return
	}
	for _, c := range r.Clean {
		fmt.Fprintf(w, "%s %s [%s] no violations\n",
			cleanStyle.Render(fmt.Sprintf("%-7s", "ok")), classfile.DottedName(c.Class), c.Linter)
	}
	for _, f := range r.Failures {
		fmt.Fprintln(w, dimStyle.Render("skipped "+f.Error()))
	}
	fmt.Fprintf(w, "%d classes, %d jobs, %d findings (%d suppressed) in %s\n",
		r.Stats.Classes, r.Stats.Jobs, r.Stats.Findings, r.Stats.Suppressed, r.Stats.AnalysisDuration)
}

type jOutput struct {
	Findings  []lint.Finding `json:"findings"`
	Errors    []jError       `json:"errors"`
	Failures  []jError       `json:"failures"`
	Stats     Stats          `json:"stats"`
	Version   string         `json:"version"`
	Timestamp string         `json:"timestamp"`
}

type jError struct {
	Linter string `json:"linter,omitempty"`
	Class  string `json:"class,omitempty"`
	Path   string `json:"path,omitempty"`
	Error  string `json:"error"`
}

func writeJSON(w io.Writer, r *Report) error {
	out := jOutput{
		Findings:  r.Findings,
		Errors:    make([]jError, 0, len(r.Errors)),
		Failures:  make([]jError, 0, len(r.Failures)),
		Stats:     r.Stats,
		Version:   version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if out.Findings == nil {
		out.Findings = []lint.Finding{}
	}
	for _, e := range r.Errors {
		out.Errors = append(out.Errors, jError{Linter: e.Linter, Class: e.Class, Error: e.Err.Error()})
	}
	for _, f := range r.Failures {
		out.Failures = append(out.Failures, jError{Path: f.Path, Error: f.Err.Error()})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling json output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// describer is the part of the registry needed to list linters.
type describer interface {
	Names() []string
	IsPackageLinter(name string) bool
	Description(name string) string
}

func listLinters(w io.Writer, reg describer) {
	fmt.Fprintln(w, titleStyle.Render("Linters"))
	names := reg.Names()
	width := 0
	for _, n := range names {
		width = max(width, len(n))
	}
	for _, n := range names {
		scope := "class"
		if reg.IsPackageLinter(n) {
			scope = "package"
		}
		fmt.Fprintf(w, "  %-*s %s %s\n", width, n, dimStyle.Render(fmt.Sprintf("%-7s", scope)),
			strings.TrimSpace(reg.Description(n)))
	}
}
