package principles

import (
	"strings"

	"github.com/715d/classlint/pkg/classfile"
	"github.com/715d/classlint/pkg/lint"
)

const (
	// ConcreteRatioThreshold is how many concrete methods per abstract
	// method an abstract class may carry before it is reported.
	ConcreteRatioThreshold = 2.0
	// PublicMethodThreshold is the public API size from which a class
	// without interfaces should define an abstraction.
	PublicMethodThreshold = 5
)

// OpenClosed applies structural open/closed principle heuristics.
type OpenClosed struct {
	cls *classfile.ClassModel
}

// NewOpenClosed returns the open/closed principle linter for cls.
func NewOpenClosed(cls *classfile.ClassModel) *OpenClosed {
	return &OpenClosed{cls: cls}
}

func (l *OpenClosed) Name() string            { return OpenClosedName }
func (l *OpenClosed) Category() lint.Category { return lint.CategoryPrinciple }

func (l *OpenClosed) Lint() []lint.Finding {
	cls := l.cls
	c := lint.NewCollector(OpenClosedName, lint.CategoryPrinciple, cls.Name)
	if cls.IsInterface() || cls.IsEnum() {
		return nil
	}

	var mutable []string
	for _, f := range cls.Fields {
		if f.IsPublic() && !f.IsFinal() && !f.IsStatic() {
			mutable = append(mutable, f.Name)
		}
	}
	if len(mutable) > 0 {
		c.Add(lint.SeverityWarning, "", 0,
			"public mutable field(s) %s allow modification without extension", strings.Join(mutable, ", "))
	}

	var public, overridable, protected, abstract, concrete int
	for i := range cls.Methods {
		m := &cls.Methods[i]
		if m.IsInitializer() {
			continue
		}
		if m.IsPublic() {
			public++
		}
		if m.IsProtected() {
			protected++
		}
		if (m.IsPublic() || m.IsProtected()) && !m.IsFinal() && !m.IsStatic() && !m.IsPrivate() {
			overridable++
		}
		if m.IsStatic() {
			continue
		}
		if m.IsAbstract() {
			abstract++
		} else {
			concrete++
		}
	}

	noInterfaces := len(cls.Interfaces) == 0
	if !cls.IsFinal() && !cls.IsAbstract() && public >= PublicMethodThreshold && noInterfaces {
		c.Add(lint.SeverityWarning, "", 0,
			"class has %d public methods but implements no interface; it should define an abstraction", public)
	}
	if !cls.IsFinal() && overridable > 0 && noInterfaces && protected == 0 {
		c.Add(lint.SeverityInfo, "", 0,
			"class exposes %d overridable method(s) with no extension points; it should be final", overridable)
	}
	if cls.IsAbstract() && abstract > 0 && float64(concrete) > float64(abstract)*ConcreteRatioThreshold {
		c.Add(lint.SeverityWarning, "", 0,
			"abstract class has %d concrete and %d abstract methods; behavior is fixed rather than extended",
			concrete, abstract)
	}
	return c.Findings
}
