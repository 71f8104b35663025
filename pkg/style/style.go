// Package style holds structural style checks on single classes and on
// classes within their package.
package style

import (
	"github.com/715d/classlint/pkg/classfile"
	"github.com/715d/classlint/pkg/lint"
)

// Registry names of the style checks.
const (
	EqualsHashCodeName        = "EqualsHashCode"
	MissingImplementationName = "MissingImplementation"
)

// EqualsHashCode reports classes overriding only one of equals and hashCode.
type EqualsHashCode struct {
	cls *classfile.ClassModel
}

// NewEqualsHashCode returns the EqualsHashCode check for cls.
func NewEqualsHashCode(cls *classfile.ClassModel) *EqualsHashCode {
	return &EqualsHashCode{cls: cls}
}

func (l *EqualsHashCode) Name() string            { return EqualsHashCodeName }
func (l *EqualsHashCode) Category() lint.Category { return lint.CategoryStyle }

func (l *EqualsHashCode) Lint() []lint.Finding {
	c := lint.NewCollector(EqualsHashCodeName, lint.CategoryStyle, l.cls.Name)
	equals := l.cls.HasMethodNamed("equals")
	hash := l.cls.HasMethodNamed("hashCode")
	switch {
	case equals && !hash:
		c.Add(lint.SeverityError, "hashCode", 0, "equals is overridden but hashCode is not")
	case hash && !equals:
		c.Add(lint.SeverityError, "equals", 0, "hashCode is overridden but equals is not")
	}
	return c.Findings
}
