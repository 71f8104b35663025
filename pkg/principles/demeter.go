package principles

import (
	"strings"

	"github.com/715d/classlint/pkg/bytecode"
	"github.com/715d/classlint/pkg/classfile"
	"github.com/715d/classlint/pkg/lint"
	"github.com/715d/classlint/pkg/platform"
)

// Demeter reports call chains such as a.getB().getC().run().
type Demeter struct {
	cls *classfile.ClassModel
}

// NewDemeter returns the Law of Demeter linter for cls.
func NewDemeter(cls *classfile.ClassModel) *Demeter {
	return &Demeter{cls: cls}
}

func (l *Demeter) Name() string            { return DemeterName }
func (l *Demeter) Category() lint.Category { return lint.CategoryPrinciple }

// chainExempt lists owner or name fragments of calls that are chained by
// convention.
var chainExempt = []string{
	"Builder", "builder",
	platform.StreamPackage, "stream", "filter", "map", "collect", "forEach",
	"java/lang/String",
}

func isChainExempt(in bytecode.Instruction) bool {
	if platform.StringOwners[in.Owner] {
		return true
	}
	for _, p := range chainExempt {
		if strings.Contains(in.Owner, p) || strings.Contains(in.Name, p) {
			return true
		}
	}
	// Fluent setters return their own owner.
	return strings.HasPrefix(in.Name, "set") && strings.HasSuffix(in.Desc, ")L"+in.Owner+";")
}

// producesValue reports whether in starts a fresh receiver.
func producesValue(in bytecode.Instruction) bool {
	switch in.Kind {
	case bytecode.KindLoadLocal, bytecode.KindGetField, bytecode.KindGetStatic,
		bytecode.KindNew, bytecode.KindConstLoad:
		return true
	}
	return false
}

func (l *Demeter) Lint() []lint.Finding {
	c := lint.NewCollector(DemeterName, lint.CategoryPrinciple, l.cls.Name)
	for i := range l.cls.Methods {
		m := &l.cls.Methods[i]
		if m.IsInitializer() {
			continue
		}
		depth := 0
		prevInvoke := false
		for j, in := range m.Code.All() {
			switch {
			case in.IsMarker(), in.Kind == bytecode.KindStackOp:
				continue
			case in.Kind == bytecode.KindInvoke:
				if isChainExempt(in) {
					continue
				}
				if in.Name == bytecode.ConstructorName {
					// new T().m() starts a chain at m.
					depth, prevInvoke = 0, false
					continue
				}
				if !prevInvoke {
					depth = 1
					prevInvoke = true
					continue
				}
				depth++
				c.Add(lint.SeverityWarning, m.Signature(), m.Code.LineAt(j),
					"call chain of depth %d reaches %s.%s", depth, classfile.DottedName(in.Owner), in.Name)
			default:
				prevInvoke = false
				if in.Kind == bytecode.KindStoreLocal || producesValue(in) {
					depth = 0
				}
			}
		}
	}
	return c.Findings
}
