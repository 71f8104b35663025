package principles

import (
	"strings"

	"github.com/715d/classlint/pkg/bytecode"
	"github.com/715d/classlint/pkg/classfile"
	"github.com/715d/classlint/pkg/lint"
	"github.com/715d/classlint/pkg/platform"
)

// Per-method thresholds of the Hollywood principle check. A method at or
// above two of them is flagged.
const (
	HollywoodNewThreshold       = 5
	HollywoodGetterThreshold    = 8
	HollywoodConditionThreshold = 6
)

// Hollywood reports methods that build their collaborators, pull their data
// and branch on it instead of being called back.
type Hollywood struct {
	cls *classfile.ClassModel
	ns  *platform.Namespaces
}

// NewHollywood returns the Hollywood principle linter for cls.
func NewHollywood(cls *classfile.ClassModel, ns *platform.Namespaces) *Hollywood {
	return &Hollywood{cls: cls, ns: ns}
}

func (l *Hollywood) Name() string            { return HollywoodName }
func (l *Hollywood) Category() lint.Category { return lint.CategoryPrinciple }

type hollywoodScore struct {
	news, getters, conditions int
}

func (s hollywoodScore) high() int {
	n := 0
	for _, hit := range []bool{
		s.news >= HollywoodNewThreshold,
		s.getters >= HollywoodGetterThreshold,
		s.conditions >= HollywoodConditionThreshold,
	} {
		if hit {
			n++
		}
	}
	return n
}

func (l *Hollywood) Lint() []lint.Finding {
	c := lint.NewCollector(HollywoodName, lint.CategoryPrinciple, l.cls.Name)
	for i := range l.cls.Methods {
		m := &l.cls.Methods[i]
		if m.IsInitializer() || m.Code.Empty() {
			continue
		}
		s := l.score(m)
		if s.high() < 2 {
			continue
		}
		c.Add(lint.SeverityWarning, m.Signature(), m.Code.FirstLine(),
			"likely Hollywood principle violation: new=%d, data pulls=%d, conditions=%d",
			s.news, s.getters, s.conditions)
	}
	return c.Findings
}

func (l *Hollywood) score(m *classfile.MethodModel) hollywoodScore {
	var s hollywoodScore
	for _, in := range m.Code.All() {
		switch in.Kind {
		case bytecode.KindNew:
			if !l.ns.Contains(in.Owner) {
				s.news++
			}
		case bytecode.KindInvoke:
			if !l.ns.Contains(in.Owner) && isGetterName(in.Name) {
				s.getters++
			}
		case bytecode.KindConditionalJump, bytecode.KindTableSwitch, bytecode.KindLookupSwitch:
			s.conditions++
		}
	}
	return s
}

func isGetterName(name string) bool {
	return strings.HasPrefix(name, "get") || strings.HasPrefix(name, "is") || strings.HasPrefix(name, "has")
}
