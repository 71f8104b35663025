// Package deadcode reports instructions that no straight-line path can reach.
//
// A terminal instruction (any return, athrow, or goto) that is followed by
// anything other than a label, line marker, or frame marker leaves the
// follower unreachable: nothing jumps to it and nothing falls into it.
package deadcode

import (
	"github.com/715d/classlint/pkg/bytecode"
	"github.com/715d/classlint/pkg/classfile"
	"github.com/715d/classlint/pkg/lint"
)

// Name is the registry name of the linter.
const Name = "DeadCode"

// Linter finds unreachable code in every method of one class.
type Linter struct {
	cls *classfile.ClassModel
}

// New returns the linter for cls.
func New(cls *classfile.ClassModel) lint.Linter {
	return &Linter{cls: cls}
}

func (l *Linter) Name() string            { return Name }
func (l *Linter) Category() lint.Category { return lint.CategoryStyle }

func (l *Linter) Lint() []lint.Finding {
	c := lint.NewCollector(Name, lint.CategoryStyle, l.cls.Name)
	for i := range l.cls.Methods {
		m := &l.cls.Methods[i]
		code := m.Code
		for j := 0; j+1 < code.Len(); j++ {
			cur, next := code.At(j), code.At(j+1)
			if !cur.IsTerminal() || next.IsMarker() {
				continue
			}
			c.Add(lint.SeverityError, m.Signature(), code.LineAt(j),
				"unreachable code after %s", terminalKind(cur))
		}
	}
	return c.Findings
}

func terminalKind(in bytecode.Instruction) string {
	switch in.Kind {
	case bytecode.KindReturn:
		return "return"
	case bytecode.KindThrow:
		return "throw"
	case bytecode.KindJump:
		return "goto"
	}
	return "terminal instruction"
}
