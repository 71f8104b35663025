package principles

import (
	"github.com/715d/classlint/pkg/bytecode"
	"github.com/715d/classlint/pkg/classfile"
	"github.com/715d/classlint/pkg/lint"
	"github.com/715d/classlint/pkg/platform"
)

// DependencyInversion reports dependencies on concrete classes of the same
// package where an abstraction would do. It needs the package context to
// tell concrete classes from interfaces.
type DependencyInversion struct {
	cls *classfile.ClassModel
	ctx lint.PackageContext
	ns  *platform.Namespaces
}

// NewDependencyInversion returns the dependency inversion linter for cls.
func NewDependencyInversion(cls *classfile.ClassModel, ctx lint.PackageContext, ns *platform.Namespaces) *DependencyInversion {
	return &DependencyInversion{cls: cls, ctx: ctx, ns: ns}
}

func (l *DependencyInversion) Name() string            { return DependencyInversionName }
func (l *DependencyInversion) Category() lint.Category { return lint.CategoryPrinciple }

// concrete reports whether name resolves in the context to a concrete class
// other than the target.
func (l *DependencyInversion) concrete(name string) bool {
	if name == l.cls.Name || l.ns.Contains(name) {
		return false
	}
	dep, ok := l.ctx.Lookup(name)
	return ok && dep.IsConcrete()
}

func (l *DependencyInversion) Lint() []lint.Finding {
	cls := l.cls
	if cls.IsInterface() || cls.IsAbstract() {
		return nil
	}
	c := lint.NewCollector(DependencyInversionName, lint.CategoryPrinciple, cls.Name)

	for _, f := range cls.Fields {
		if f.IsStatic() {
			continue
		}
		if t, ok := classfile.ObjectType(f.Desc); ok && l.concrete(t) {
			c.Add(lint.SeverityWarning, f.Name, 0,
				"field %s depends on concrete class %s", f.Name, classfile.DottedName(t))
		}
	}

	for i := range cls.Methods {
		m := &cls.Methods[i]
		if !m.IsInitializer() {
			md, err := classfile.ParseMethodDescriptor(m.Desc)
			if err == nil {
				for _, p := range md.Params {
					if t, ok := classfile.ObjectType(p); ok && l.concrete(t) {
						c.Add(lint.SeverityWarning, m.Signature(), m.Code.FirstLine(),
							"parameter of %s depends on concrete class %s", m.Name, classfile.DottedName(t))
					}
				}
			}
		}
		l.lintInstantiations(c, m)
	}
	return c.Findings
}

// lintInstantiations reports direct construction of concrete classes. The
// superclass constructor call inside a constructor is not an instantiation.
func (l *DependencyInversion) lintInstantiations(c *lint.Collector, m *classfile.MethodModel) {
	for j, in := range m.Code.All() {
		if in.Kind != bytecode.KindInvoke || in.Invoke != bytecode.InvokeSpecial || in.Name != bytecode.ConstructorName {
			continue
		}
		if m.IsConstructor() && in.Owner == l.cls.SuperName {
			continue
		}
		if l.concrete(in.Owner) {
			c.Add(lint.SeverityWarning, m.Signature(), m.Code.LineAt(j),
				"instantiates concrete class %s directly", classfile.DottedName(in.Owner))
		}
	}
}
