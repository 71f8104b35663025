package patterns

import (
	"strings"

	"github.com/715d/classlint/pkg/classfile"
	"github.com/715d/classlint/pkg/lint"
)

// Decorator checks classes that look like decorators for the usual
// structural mistakes.
type Decorator struct {
	cls *classfile.ClassModel
}

// NewDecorator returns the Decorator linter for cls.
func NewDecorator(cls *classfile.ClassModel) *Decorator {
	return &Decorator{cls: cls}
}

func (l *Decorator) Name() string            { return DecoratorName }
func (l *Decorator) Category() lint.Category { return lint.CategoryPattern }

// filterStreams are platform base classes of stream decorators.
var filterStreams = map[string]bool{
	"java/io/filterinputstream":  true,
	"java/io/filteroutputstream": true,
	"java/io/filterreader":       true,
	"java/io/filterwriter":       true,
}

var decoratorWords = []string{"decorator", "wrapper"}

func (l *Decorator) Lint() []lint.Finding {
	if !l.looksLikeDecorator() {
		return nil
	}
	c := lint.NewCollector(DecoratorName, lint.CategoryPattern, l.cls.Name)
	f := l.wrappedField()
	if f == nil {
		c.Add(lint.SeverityWarning, "", 0, "appears to be a decorator but has no wrapped component field")
		return c.Findings
	}
	if f.IsPublic() || l.hasPublicAccessor(f) {
		c.Add(lint.SeverityWarning, f.Name, 0, "exposes its wrapped component publicly (field %s)", f.Name)
	}
	if !f.IsFinal() {
		c.Add(lint.SeverityWarning, f.Name, 0, "wrapped component field %s is not final", f.Name)
	}
	wrapped := typeName(f.Desc)
	if !constructorAccepts(l.cls, wrapped) {
		c.Add(lint.SeverityWarning, "", 0, "no constructor accepts the component to wrap")
	}
	if !isSuperOrInterface(l.cls, wrapped) {
		c.Add(lint.SeverityWarning, f.Name, 0, "does not share an interface or superclass with its wrapped component %s",
			classfile.DottedName(wrapped))
	}
	return c.Findings
}

// looksLikeDecorator requires a decorator-ish name or superclass and some
// supertype to decorate.
func (l *Decorator) looksLikeDecorator() bool {
	super := strings.ToLower(l.cls.SuperName)
	named := containsAny(l.cls.Name, decoratorWords) || containsAny(super, decoratorWords) || filterStreams[super]
	if !named {
		return false
	}
	return len(l.cls.Interfaces) > 0 || l.cls.HasSuper()
}

// wrappedField is the first instance reference field typed as an
// implemented interface or the superclass. Subclasses of a Filter class may
// instead wrap any stream, reader or writer.
func (l *Decorator) wrappedField() *classfile.FieldModel {
	filter := strings.Contains(l.cls.SuperName, "Filter")
	for i := range l.cls.Fields {
		f := &l.cls.Fields[i]
		if f.IsStatic() || !classfile.IsReference(f.Desc) {
			continue
		}
		t := typeName(f.Desc)
		if isSuperOrInterface(l.cls, t) {
			return f
		}
		if filter && (strings.Contains(t, "InputStream") || strings.Contains(t, "OutputStream") ||
			strings.Contains(t, "Reader") || strings.Contains(t, "Writer")) {
			return f
		}
	}
	return nil
}

// hasPublicAccessor reports whether a public method returns f's type under an
// accessor-like name.
func (l *Decorator) hasPublicAccessor(f *classfile.FieldModel) bool {
	field := strings.ToLower(f.Name)
	for i := range l.cls.Methods {
		m := &l.cls.Methods[i]
		if !m.IsPublic() || classfile.ReturnType(m.Desc) != f.Desc {
			continue
		}
		name := strings.ToLower(m.Name)
		if name == "get"+field || name == field ||
			strings.Contains(name, "component") || strings.Contains(name, "wrapped") || strings.Contains(name, "delegate") {
			return true
		}
	}
	return false
}
