package principles

import (
	"strings"

	"github.com/715d/classlint/pkg/bytecode"
	"github.com/715d/classlint/pkg/classfile"
	"github.com/715d/classlint/pkg/lint"
	"github.com/715d/classlint/pkg/platform"
)

// receiverScanLimit bounds the backward search for a call's receiver load.
const receiverScanLimit = 12

var (
	setupNames = []string{"init", "initialize", "open", "start", "begin", "connect", "load", "prepare", "configure", "setup"}
	setupStems = []string{"init", "open", "start", "begin", "connect", "load", "prepare", "config"}
	useNames   = []string{"execute", "run", "use", "send", "apply", "process", "commit", "save", "write", "read", "flush", "close"}
	useStems   = []string{"exec", "run", "use", "send", "apply", "process", "commit", "save", "write", "read", "flush", "close"}
)

func matchesVocabulary(lower string, names, stems []string) bool {
	for _, n := range names {
		if lower == n {
			return true
		}
	}
	for _, s := range stems {
		if strings.HasPrefix(lower, s) {
			return true
		}
	}
	return false
}

// TemporalCoupling reports calls that use a local object before any setup
// call on the same local within the method.
type TemporalCoupling struct {
	cls *classfile.ClassModel
	ns  *platform.Namespaces
}

// NewTemporalCoupling returns the temporal coupling linter for cls.
func NewTemporalCoupling(cls *classfile.ClassModel, ns *platform.Namespaces) *TemporalCoupling {
	return &TemporalCoupling{cls: cls, ns: ns}
}

func (l *TemporalCoupling) Name() string            { return TemporalCouplingName }
func (l *TemporalCoupling) Category() lint.Category { return lint.CategoryPrinciple }

func (l *TemporalCoupling) Lint() []lint.Finding {
	c := lint.NewCollector(TemporalCouplingName, lint.CategoryPrinciple, l.cls.Name)
	for i := range l.cls.Methods {
		m := &l.cls.Methods[i]
		if m.IsInitializer() || m.Code.Empty() {
			continue
		}
		l.lintMethod(c, m)
	}
	return c.Findings
}

func (l *TemporalCoupling) lintMethod(c *lint.Collector, m *classfile.MethodModel) {
	setup := make(map[int]bool)
	for j, in := range m.Code.All() {
		if in.Kind != bytecode.KindInvoke || l.ns.Contains(in.Owner) {
			continue
		}
		lower := strings.ToLower(in.Name)
		if bytecode.IsBuilderish(lower) {
			continue
		}
		at, ok := m.Code.ScanBackward(j, bytecode.Instruction.IsRefLoad, bytecode.IsInvoke, receiverScanLimit)
		if !ok {
			continue
		}
		slot := m.Code.At(at).Slot
		switch {
		case matchesVocabulary(lower, setupNames, setupStems):
			setup[slot] = true
		case matchesVocabulary(lower, useNames, useStems) && !setup[slot]:
			c.Add(lint.SeverityWarning, m.Signature(), m.Code.LineAt(j),
				"%s.%s%s called on local %s without prior setup in this method",
				classfile.DottedName(in.Owner), in.Name, in.Desc, m.LocalName(slot))
		}
	}
}
