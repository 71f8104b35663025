package cycles

import (
	"github.com/715d/classlint/pkg/classfile"
	"github.com/715d/classlint/pkg/lint"
)

// Name is the registry name of the linter.
const Name = "CyclicDependency"

// Linter reports every dependency cycle in a package context. The target
// class only anchors construction; the report covers the whole context and
// each cycle is attributed to its first class. It is registered package-wide
// so a plan runs it once per package.
type Linter struct {
	cls *classfile.ClassModel
	ctx lint.PackageContext
}

// New returns the package linter for target cls over ctx.
func New(cls *classfile.ClassModel, ctx lint.PackageContext) lint.Linter {
	return &Linter{cls: cls, ctx: ctx}
}

func (l *Linter) Name() string            { return Name }
func (l *Linter) Category() lint.Category { return lint.CategoryPrinciple }

func (l *Linter) Lint() []lint.Finding {
	var out []lint.Finding
	for _, cycle := range Build(l.ctx).FindCycles() {
		c := lint.NewCollector(Name, lint.CategoryPrinciple, cycle[0])
		c.Add(lint.SeverityWarning, "", 0, "cyclic dependency: %s", FormatCycle(cycle))
		out = append(out, c.Findings...)
	}
	return out
}
