// Package unused reports private fields and methods that a class never uses,
// and local variables that are written but never read.
package unused

import (
	"golang.org/x/tools/container/intsets"

	"github.com/715d/classlint/pkg/bytecode"
	"github.com/715d/classlint/pkg/classfile"
	"github.com/715d/classlint/pkg/lint"
)

// Name is the registry name of the linter.
const Name = "UnusedVariables"

// Linter runs the three def-use passes over one class.
type Linter struct {
	cls *classfile.ClassModel
}

// New returns the linter for cls.
func New(cls *classfile.ClassModel) lint.Linter {
	return &Linter{cls: cls}
}

func (l *Linter) Name() string            { return Name }
func (l *Linter) Category() lint.Category { return lint.CategoryStyle }

// Lint reports fields, then methods, then locals.
func (l *Linter) Lint() []lint.Finding {
	c := lint.NewCollector(Name, lint.CategoryStyle, l.cls.Name)
	l.fields(c)
	l.methods(c)
	l.locals(c)
	return c.Findings
}

type memberKey struct {
	name, desc string
}

// fields reports private fields that are never read. A field that is only
// written is still unused.
func (l *Linter) fields(c *lint.Collector) {
	read := make(map[memberKey]bool)
	for i := range l.cls.Fields {
		f := &l.cls.Fields[i]
		if f.IsPrivate() && !f.IsSynthetic() {
			read[memberKey{f.Name, f.Desc}] = false
		}
	}
	if len(read) == 0 {
		return
	}
	l.eachInstruction(func(in bytecode.Instruction) {
		if in.Kind != bytecode.KindGetField && in.Kind != bytecode.KindGetStatic {
			return
		}
		if in.Owner != l.cls.Name {
			return
		}
		k := memberKey{in.Name, in.Desc}
		if _, ok := read[k]; ok {
			read[k] = true
		}
	})
	for i := range l.cls.Fields {
		f := &l.cls.Fields[i]
		if used, tracked := read[memberKey{f.Name, f.Desc}]; tracked && !used {
			c.Add(lint.SeverityWarning, f.Name, 0, "unused private field %s (%s)", f.Name, f.Desc)
		}
	}
}

// methods reports private methods that no instruction of the class invokes.
func (l *Linter) methods(c *lint.Collector) {
	called := make(map[memberKey]bool)
	for i := range l.cls.Methods {
		m := &l.cls.Methods[i]
		if !m.IsPrivate() || m.IsSynthetic() || m.IsBridge() || m.IsInitializer() {
			continue
		}
		called[memberKey{m.Name, m.Desc}] = false
	}
	if len(called) == 0 {
		return
	}
	l.eachInstruction(func(in bytecode.Instruction) {
		if in.Kind != bytecode.KindInvoke || in.Owner != l.cls.Name {
			return
		}
		k := memberKey{in.Name, in.Desc}
		if _, ok := called[k]; ok {
			called[k] = true
		}
	})
	for i := range l.cls.Methods {
		m := &l.cls.Methods[i]
		if used, tracked := called[memberKey{m.Name, m.Desc}]; tracked && !used {
			c.Add(lint.SeverityWarning, m.Signature(), m.Code.FirstLine(), "unused private method %s", m.Signature())
		}
	}
}

// locals reports slots that are stored at least once and never loaded.
// iinc neither reads nor writes for this purpose. The receiver slot of an
// instance method is ignored.
func (l *Linter) locals(c *lint.Collector) {
	for i := range l.cls.Methods {
		m := &l.cls.Methods[i]
		var stored, loaded intsets.Sparse
		firstStore := make(map[int]int)
		for j, in := range m.Code.All() {
			if in.Slot == 0 && !m.IsStatic() {
				continue
			}
			switch in.Kind {
			case bytecode.KindStoreLocal:
				if stored.Insert(in.Slot) {
					firstStore[in.Slot] = j
				}
			case bytecode.KindLoadLocal:
				loaded.Insert(in.Slot)
			}
		}
		var unread intsets.Sparse
		unread.Difference(&stored, &loaded)
		for _, slot := range unread.AppendTo(nil) {
			name := m.LocalName(slot)
			c.Add(lint.SeverityWarning, m.Signature(), m.Code.LineAt(firstStore[slot]),
				"unused local %s (slot %d)", name, slot)
		}
	}
}

func (l *Linter) eachInstruction(fn func(bytecode.Instruction)) {
	for i := range l.cls.Methods {
		for _, in := range l.cls.Methods[i].Code.All() {
			fn(in)
		}
	}
}
