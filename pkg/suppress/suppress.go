// Package suppress implements rule-based suppression of linter findings.
package suppress

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/715d/classlint/pkg/classfile"
	"github.com/715d/classlint/pkg/lint"
)

// Rule silences findings. Class and Member are globs where * matches any run
// of characters and ? matches one; empty patterns match everything. Class
// accepts dotted or internal names.
type Rule struct {
	Linter string `yaml:"linter" toml:"linter" json:"linter"`
	Class  string `yaml:"class" toml:"class" json:"class"`
	Member string `yaml:"member" toml:"member" json:"member"`
	Reason string `yaml:"reason" toml:"reason" json:"reason"`
}

// Suppression is a compiled Rule.
type Suppression struct {
	Rule   Rule
	class  *regexp.Regexp
	member *regexp.Regexp
}

// Matches reports whether f falls under the suppression.
func (s *Suppression) Matches(f lint.Finding) bool {
	if s.Rule.Linter != "" && s.Rule.Linter != "*" && s.Rule.Linter != f.Linter {
		return false
	}
	return s.class.MatchString(f.Class) && s.member.MatchString(f.Member)
}

// Checker applies a set of suppressions to findings.
type Checker struct {
	suppressions []*Suppression
}

// NewChecker creates a checker without rules.
func NewChecker() *Checker {
	return &Checker{}
}

// Load compiles rules and adds them to the checker. Every invalid rule is
// reported; valid ones are still added.
func (sc *Checker) Load(rules []Rule) error {
	var errs []error
	for i, r := range rules {
		s, err := Compile(r)
		if err != nil {
			errs = append(errs, fmt.Errorf("suppress rule %d: %w", i, err))
			continue
		}
		sc.suppressions = append(sc.suppressions, s)
	}
	return errors.Join(errs...)
}

// Compile turns a rule into a Suppression.
func Compile(r Rule) (*Suppression, error) {
	class, err := globToRegexp(classfile.InternalName(r.Class))
	if err != nil {
		return nil, fmt.Errorf("class pattern %q: %w", r.Class, err)
	}
	member, err := globToRegexp(r.Member)
	if err != nil {
		return nil, fmt.Errorf("member pattern %q: %w", r.Member, err)
	}
	return &Suppression{Rule: r, class: class, member: member}, nil
}

// globToRegexp anchors a glob. The empty glob matches everything.
func globToRegexp(glob string) (*regexp.Regexp, error) {
	if glob == "" {
		glob = "*"
	}
	var b strings.Builder
	b.WriteString("^")
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// nolintPattern matches a line-format suppression directive:
//
//	nolint:FeatureEnvy com/example/legacy/* render* // legacy code
//
// The linter may be * and the member glob and reason are optional.
var nolintPattern = regexp.MustCompile(`^nolint:(\S+)\s+(\S+)(?:\s+([^\s/]\S*))?(?:\s*//\s*(.*))?$`)

// ParseDirective parses a nolint directive line. It returns false for any
// other line.
func ParseDirective(line string) (Rule, bool) {
	m := nolintPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Rule{}, false
	}
	return Rule{Linter: m[1], Class: m[2], Member: m[3], Reason: strings.TrimSpace(m[4])}, true
}

// IsSuppressed reports whether f is suppressed and the reason of the first
// matching rule.
func (sc *Checker) IsSuppressed(f lint.Finding) (bool, string) {
	for _, s := range sc.suppressions {
		if s.Matches(f) {
			reason := s.Rule.Reason
			if reason == "" {
				reason = "suppressed"
			}
			return true, reason
		}
	}
	return false, ""
}

// Apply marks suppressed findings in place and returns how many it marked.
func (sc *Checker) Apply(fs []lint.Finding) int {
	n := 0
	for i := range fs {
		if ok, reason := sc.IsSuppressed(fs[i]); ok {
			fs[i].Suppressed = true
			fs[i].SuppressReason = reason
			n++
		}
	}
	return n
}

// Len returns the number of loaded suppressions.
func (sc *Checker) Len() int { return len(sc.suppressions) }
