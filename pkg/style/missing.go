package style

import (
	"github.com/715d/classlint/pkg/classfile"
	"github.com/715d/classlint/pkg/lint"
)

// MissingImplementation reports abstract methods that a concrete class
// inherits from a supertype in its package but neither implements nor
// inherits an implementation of from a loaded superclass.
type MissingImplementation struct {
	cls *classfile.ClassModel
	ctx lint.PackageContext
}

// NewMissingImplementation returns the MissingImplementation check for cls.
func NewMissingImplementation(cls *classfile.ClassModel, ctx lint.PackageContext) *MissingImplementation {
	return &MissingImplementation{cls: cls, ctx: ctx}
}

func (l *MissingImplementation) Name() string            { return MissingImplementationName }
func (l *MissingImplementation) Category() lint.Category { return lint.CategoryStyle }

func (l *MissingImplementation) Lint() []lint.Finding {
	cls := l.cls
	if !cls.IsConcrete() {
		return nil
	}
	c := lint.NewCollector(MissingImplementationName, lint.CategoryStyle, cls.Name)
	seen := make(map[string]bool)
	check := func(owner string, m *classfile.MethodModel) {
		sig := m.Signature()
		if seen[sig] {
			return
		}
		seen[sig] = true
		if l.implemented(m.Name, m.Desc) {
			return
		}
		c.Add(lint.SeverityError, sig, 0,
			"missing implementation: %s declared by %s", sig, classfile.DottedName(owner))
	}

	for _, name := range cls.Interfaces {
		iface, ok := l.ctx.Lookup(name)
		if !ok {
			continue
		}
		for i := range iface.Methods {
			m := &iface.Methods[i]
			// Static and default interface methods need no implementation.
			if m.IsStatic() || m.IsInitializer() || !m.IsAbstract() {
				continue
			}
			check(iface.Name, m)
		}
	}
	if super, ok := l.ctx.Lookup(cls.SuperName); ok {
		for i := range super.Methods {
			if m := &super.Methods[i]; m.IsAbstract() {
				check(super.Name, m)
			}
		}
	}
	return c.Findings
}

// implemented resolves name and desc up the superclass chain of the target
// within the package context. The first class declaring the method decides.
func (l *MissingImplementation) implemented(name, desc string) bool {
	visited := make(map[string]bool)
	for cls := l.cls; cls != nil && !visited[cls.Name]; {
		visited[cls.Name] = true
		if m, ok := cls.Method(name, desc); ok {
			return !m.IsAbstract()
		}
		super, ok := l.ctx.Lookup(cls.SuperName)
		if !ok {
			return false
		}
		cls = super
	}
	return false
}
