package principles

import (
	"maps"
	"slices"
	"strings"

	"github.com/715d/classlint/pkg/bytecode"
	"github.com/715d/classlint/pkg/classfile"
	"github.com/715d/classlint/pkg/lint"
	"github.com/715d/classlint/pkg/platform"
)

// EnvyThreshold is the share of a method's accesses that one foreign class
// must reach.
const EnvyThreshold = 0.6

// FeatureEnvy reports methods that mostly use another class's members.
type FeatureEnvy struct {
	cls *classfile.ClassModel
}

// NewFeatureEnvy returns the FeatureEnvy linter for cls.
func NewFeatureEnvy(cls *classfile.ClassModel) *FeatureEnvy {
	return &FeatureEnvy{cls: cls}
}

func (l *FeatureEnvy) Name() string            { return FeatureEnvyName }
func (l *FeatureEnvy) Category() lint.Category { return lint.CategoryStyle }

func (l *FeatureEnvy) Lint() []lint.Finding {
	c := lint.NewCollector(FeatureEnvyName, lint.CategoryStyle, l.cls.Name)
	for i := range l.cls.Methods {
		m := &l.cls.Methods[i]
		if m.IsInitializer() {
			continue
		}
		counts, total := l.tally(m)
		if total == 0 {
			continue
		}
		for _, owner := range slices.Sorted(maps.Keys(counts)) {
			n := counts[owner]
			ratio := float64(n) / float64(total)
			if ratio < EnvyThreshold {
				continue
			}
			c.Add(lint.SeverityWarning, m.Signature(), m.Code.FirstLine(),
				"feature envy: %.0f%% of accesses are to %s (%d/%d accesses)",
				ratio*100, classfile.DottedName(owner), n, total)
		}
	}
	return c.Findings
}

// tally counts member accesses per foreign owner. Accesses to the method's
// own class, field accesses to java/ classes and calls into the core
// language packages are not counted.
func (l *FeatureEnvy) tally(m *classfile.MethodModel) (map[string]int, int) {
	counts := make(map[string]int)
	total := 0
	for _, in := range m.Code.Semantic() {
		if in.Owner == l.cls.Name {
			continue
		}
		switch {
		case in.IsFieldAccess():
			if strings.HasPrefix(in.Owner, "java/") {
				continue
			}
		case in.Kind == bytecode.KindInvoke:
			if platform.IsLanguageOwner(in.Owner) {
				continue
			}
		default:
			continue
		}
		counts[in.Owner]++
		total++
	}
	return counts, total
}
