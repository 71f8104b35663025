package patterns

import (
	"fmt"
	"strings"

	"golang.org/x/tools/container/intsets"

	"github.com/715d/classlint/pkg/bytecode"
	"github.com/715d/classlint/pkg/classfile"
	"github.com/715d/classlint/pkg/lint"
	"github.com/715d/classlint/pkg/platform"
)

// Strategy detects fields that hold an injected collaborator the class
// delegates to.
//
// A non-static object or array field whose element type is not a platform
// class is a candidate. It is injected when some method stores a parameter
// into it, and delegated through when some method invokes a method on the
// value read from it. Both backward scans stop at any intervening call.
type Strategy struct {
	cls *classfile.ClassModel
	ns  *platform.Namespaces
}

// NewStrategy returns the Strategy linter for cls.
func NewStrategy(cls *classfile.ClassModel, ns *platform.Namespaces) *Strategy {
	return &Strategy{cls: cls, ns: ns}
}

func (l *Strategy) Name() string            { return StrategyName }
func (l *Strategy) Category() lint.Category { return lint.CategoryPattern }

type delegation struct {
	owner, name, desc string
	line              int
}

func (d delegation) String() string {
	s := classfile.DottedName(d.owner) + "." + d.name + d.desc
	if d.line > 0 {
		s += fmt.Sprintf("@%d", d.line)
	}
	return s
}

// maxExamples bounds the delegations quoted in a finding.
const maxExamples = 3

func (l *Strategy) Lint() []lint.Finding {
	c := lint.NewCollector(StrategyName, lint.CategoryPattern, l.cls.Name)
	for i := range l.cls.Fields {
		f := &l.cls.Fields[i]
		if !l.isCandidate(f) || !l.injected(f) {
			continue
		}
		dels := l.delegations(f)
		if len(dels) == 0 {
			continue
		}
		examples := make([]string, 0, maxExamples)
		for _, d := range dels[:min(maxExamples, len(dels))] {
			examples = append(examples, d.String())
		}
		more := ""
		if len(dels) > maxExamples {
			more = " ..."
		}
		c.Add(lint.SeverityInfo, f.Name, dels[0].line,
			"strategy field %s of type %s is injected and delegated through %d call(s): %s%s",
			f.Name, classfile.DottedName(typeName(f.Desc)), len(dels), strings.Join(examples, ", "), more)
	}
	return c.Findings
}

func (l *Strategy) isCandidate(f *classfile.FieldModel) bool {
	return !f.IsStatic() && classfile.IsReference(f.Desc) && !l.ns.ContainsDescriptor(f.Desc)
}

// injected reports whether a method other than the static initializer
// stores one of its parameters into f.
func (l *Strategy) injected(f *classfile.FieldModel) bool {
	for i := range l.cls.Methods {
		m := &l.cls.Methods[i]
		if m.Name == bytecode.StaticInitializerName {
			continue
		}
		var params intsets.Sparse
		for _, slot := range classfile.ParamSlots(m.Desc, m.IsStatic()) {
			params.Insert(slot)
		}
		if params.IsEmpty() {
			continue
		}
		isParamLoad := func(in bytecode.Instruction) bool {
			return in.Kind == bytecode.KindLoadLocal && params.Has(in.Slot)
		}
		for j, in := range m.Code.All() {
			if in.Kind != bytecode.KindPutField || !in.Matches(l.cls.Name, f.Name, f.Desc) {
				continue
			}
			if _, ok := m.Code.ScanBackward(j, isParamLoad, bytecode.IsInvoke, injectionScanLimit); ok {
				return true
			}
		}
	}
	return false
}

// delegations lists the calls, outside initializers, whose receiver is read
// from f.
func (l *Strategy) delegations(f *classfile.FieldModel) []delegation {
	var out []delegation
	read := isFieldRead(l.cls.Name, f)
	for i := range l.cls.Methods {
		m := &l.cls.Methods[i]
		if m.IsInitializer() {
			continue
		}
		for j, in := range m.Code.All() {
			if in.Kind != bytecode.KindInvoke {
				continue
			}
			if _, ok := m.Code.ScanBackward(j, read, bytecode.IsInvoke, delegationScanLimit); ok {
				out = append(out, delegation{owner: in.Owner, name: in.Name, desc: in.Desc, line: m.Code.LineAt(j)})
			}
		}
	}
	return out
}
