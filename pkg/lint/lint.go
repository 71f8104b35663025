// Package lint defines the linter contract, the name-based registry, and the
// parallel runner that dispatches linters over loaded classes.
package lint

import (
	"fmt"
	"strings"

	"github.com/715d/classlint/pkg/classfile"
)

// Category groups linters for reporting.
type Category int

const (
	CategoryStyle Category = iota
	CategoryPrinciple
	CategoryPattern
)

var categoryNames = map[Category]string{
	CategoryStyle:     "style-check",
	CategoryPrinciple: "principle",
	CategoryPattern:   "pattern",
}

func (c Category) String() string {
	if s, ok := categoryNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// Severity ranks a finding.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ParseSeverity is the inverse of Severity.String.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(s) {
	case "info":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	}
	return 0, fmt.Errorf("unknown severity %q", s)
}

// Finding is one diagnostic. Member and Line are optional; Line 0 means the
// line is unknown.
type Finding struct {
	Linter         string   `json:"linter"`
	Category       Category `json:"category"`
	Class          string   `json:"class"`
	Member         string   `json:"member,omitempty"`
	Line           int      `json:"line,omitempty"`
	Severity       Severity `json:"severity"`
	Message        string   `json:"message"`
	Suppressed     bool     `json:"suppressed,omitempty"`
	SuppressReason string   `json:"suppress_reason,omitempty"`
}

func (f Finding) String() string {
	var b strings.Builder
	b.WriteString(classfile.DottedName(f.Class))
	if f.Member != "" {
		b.WriteByte('#')
		b.WriteString(f.Member)
	}
	if f.Line > 0 {
		fmt.Fprintf(&b, ":%d", f.Line)
	}
	fmt.Fprintf(&b, " [%s] %s", f.Linter, f.Message)
	return b.String()
}

// Linter analyzes the class it was constructed for.
type Linter interface {
	Name() string
	Category() Category
	Lint() []Finding
}

// PackageContext maps internal class names to the classes of one package.
// It is a read-only snapshot shared by concurrent package linters.
type PackageContext map[string]*classfile.ClassModel

// Lookup returns the class with the given internal name.
func (c PackageContext) Lookup(name string) (*classfile.ClassModel, bool) {
	cls, ok := c[name]
	return cls, ok
}

// ClassFactory constructs a per-class linter.
type ClassFactory func(cls *classfile.ClassModel) Linter

// PackageFactory constructs a package-wide linter for a target class.
type PackageFactory func(cls *classfile.ClassModel, ctx PackageContext) Linter

// Collector accumulates the findings of one linter on one class.
type Collector struct {
	Linter   string
	Category Category
	Class    string
	Findings []Finding
}

// NewCollector returns a collector for the named linter on class.
func NewCollector(linter string, category Category, class string) *Collector {
	return &Collector{Linter: linter, Category: category, Class: class}
}

// Add appends a finding.
func (c *Collector) Add(sev Severity, member string, line int, format string, args ...any) {
	c.Findings = append(c.Findings, Finding{
		Linter:   c.Linter,
		Category: c.Category,
		Class:    c.Class,
		Member:   member,
		Line:     line,
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
	})
}
