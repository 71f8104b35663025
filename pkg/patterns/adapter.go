package patterns

import (
	"strings"

	"github.com/715d/classlint/pkg/bytecode"
	"github.com/715d/classlint/pkg/classfile"
	"github.com/715d/classlint/pkg/lint"
)

// Adapter detects classes that implement a target type by delegating to a
// wrapped object of an unrelated type.
type Adapter struct {
	cls *classfile.ClassModel
}

// NewAdapter returns the Adapter linter for cls.
func NewAdapter(cls *classfile.ClassModel) *Adapter {
	return &Adapter{cls: cls}
}

func (l *Adapter) Name() string            { return AdapterName }
func (l *Adapter) Category() lint.Category { return lint.CategoryPattern }

func (l *Adapter) Lint() []lint.Finding {
	targets := l.targets()
	if len(targets) == 0 {
		return nil
	}
	adaptee := l.adaptee()
	if adaptee == nil {
		return nil
	}
	adapteeType := typeName(adaptee.Desc)
	if !l.injectedThroughConstructor(adaptee, adapteeType) {
		return nil
	}
	delegating := l.delegatingMethods(adaptee, adapteeType)
	if len(delegating) == 0 {
		return nil
	}
	c := lint.NewCollector(AdapterName, lint.CategoryPattern, l.cls.Name)
	c.Add(lint.SeverityInfo, adaptee.Name, 0,
		"adapter %s adapts %s to %s; delegating methods: %s",
		classfile.DottedName(l.cls.Name), classfile.DottedName(adapteeType),
		classfile.DottedName(targets[0]), strings.Join(delegating, ", "))
	return c.Findings
}

// targets are the implemented interfaces followed by a non-Object superclass.
func (l *Adapter) targets() []string {
	out := append([]string(nil), l.cls.Interfaces...)
	if l.cls.HasSuper() {
		out = append(out, l.cls.SuperName)
	}
	return out
}

// adaptee is the first instance object field whose type is not a target.
func (l *Adapter) adaptee() *classfile.FieldModel {
	for i := range l.cls.Fields {
		f := &l.cls.Fields[i]
		if f.IsStatic() {
			continue
		}
		t, ok := classfile.ObjectType(f.Desc)
		if !ok || isSuperOrInterface(l.cls, t) {
			continue
		}
		return f
	}
	return nil
}

// injectedThroughConstructor reports whether one constructor both takes a
// parameter of the adaptee type and assigns f.
func (l *Adapter) injectedThroughConstructor(f *classfile.FieldModel, adapteeType string) bool {
	for i := range l.cls.Methods {
		m := &l.cls.Methods[i]
		if !m.IsConstructor() || !acceptsParam(l.cls, m, adapteeType) {
			continue
		}
		for _, in := range m.Code.All() {
			if in.Kind == bytecode.KindPutField && in.Matches(l.cls.Name, f.Name, f.Desc) {
				return true
			}
		}
	}
	return false
}

func isInstanceCall(in bytecode.Instruction) bool {
	if in.Kind != bytecode.KindInvoke {
		return false
	}
	return in.Invoke == bytecode.InvokeVirtual || in.Invoke == bytecode.InvokeInterface || in.Invoke == bytecode.InvokeSpecial
}

// delegatingMethods returns the instance methods that read f and call a
// method of the adaptee type within the next 16 semantic instructions.
func (l *Adapter) delegatingMethods(f *classfile.FieldModel, adapteeType string) []string {
	var out []string
	read := isFieldRead(l.cls.Name, f)
	onAdaptee := func(in bytecode.Instruction) bool {
		return isInstanceCall(in) && in.Owner == adapteeType
	}
	for i := range l.cls.Methods {
		m := &l.cls.Methods[i]
		if m.IsInitializer() || m.IsStatic() {
			continue
		}
		for j, in := range m.Code.All() {
			if !read(in) {
				continue
			}
			if _, ok := m.Code.ScanForward(j, onAdaptee, nil, delegationScanLimit); ok {
				out = append(out, m.Name)
				break
			}
		}
	}
	return out
}
