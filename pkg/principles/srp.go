package principles

import (
	"github.com/715d/classlint/pkg/bytecode"
	"github.com/715d/classlint/pkg/classfile"
	"github.com/715d/classlint/pkg/lint"
)

// Single responsibility thresholds. A class strictly above any of them is
// reported.
const (
	MaxMethods      = 20
	MaxFields       = 15
	MaxDependencies = 10
)

// SingleResponsibility flags classes that are large, widely coupled
// or have methods sharing no state.
type SingleResponsibility struct {
	cls *classfile.ClassModel
}

// NewSingleResponsibility returns the single responsibility linter for cls.
func NewSingleResponsibility(cls *classfile.ClassModel) *SingleResponsibility {
	return &SingleResponsibility{cls: cls}
}

func (l *SingleResponsibility) Name() string            { return SingleResponsibilityName }
func (l *SingleResponsibility) Category() lint.Category { return lint.CategoryPrinciple }

func (l *SingleResponsibility) Lint() []lint.Finding {
	cls := l.cls
	if cls.IsInterface() {
		return nil
	}
	c := lint.NewCollector(SingleResponsibilityName, lint.CategoryPrinciple, cls.Name)

	if n := len(cls.Methods); n > MaxMethods {
		c.Add(lint.SeverityWarning, "", 0, "class declares %d methods (max %d)", n, MaxMethods)
	}
	if n := len(cls.Fields); n > MaxFields {
		c.Add(lint.SeverityWarning, "", 0, "class declares %d fields (max %d)", n, MaxFields)
	}
	if n := l.dependencies(); n > MaxDependencies {
		c.Add(lint.SeverityWarning, "", 0, "class calls into %d other classes (max %d)", n, MaxDependencies)
	}
	if disjoint, methods := l.cohesion(); disjoint > methods {
		c.Add(lint.SeverityWarning, "", 0,
			"low cohesion: %d method pairs share no fields across %d methods", disjoint, methods)
	}
	return c.Findings
}

func (l *SingleResponsibility) dependencies() int {
	owners := make(map[string]struct{})
	for i := range l.cls.Methods {
		for _, in := range l.cls.Methods[i].Code.Semantic() {
			if in.Kind == bytecode.KindInvoke && in.Owner != l.cls.Name {
				owners[in.Owner] = struct{}{}
			}
		}
	}
	return len(owners)
}

// cohesion counts method pairs with disjoint field usage among methods
// that have code. A class without fields, or whose methods touch none, has
// no state to split and reports zero.
func (l *SingleResponsibility) cohesion() (disjoint, methods int) {
	if len(l.cls.Fields) == 0 {
		return 0, 0
	}
	var usage []map[string]struct{}
	touched := false
	for i := range l.cls.Methods {
		m := &l.cls.Methods[i]
		if m.Code.Empty() {
			continue
		}
		used := make(map[string]struct{})
		for _, in := range m.Code.Semantic() {
			if in.IsFieldAccess() {
				used[in.Owner+"."+in.Name] = struct{}{}
			}
		}
		touched = touched || len(used) > 0
		usage = append(usage, used)
	}
	if !touched {
		return 0, len(usage)
	}
	for i := range usage {
		for j := i + 1; j < len(usage); j++ {
			if !overlaps(usage[i], usage[j]) {
				disjoint++
			}
		}
	}
	return disjoint, len(usage)
}

func overlaps(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}
