package config

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/715d/classlint/pkg/suppress"
)

// Patterns of the line format, compiled once at package initialization.
var (
	// Linter line: "EqualsHashCode: com/example/Foo, PACKAGE:com/example"
	linterPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*|\*)\s*:\s*(.*)$`)

	// Platform line: "platform = java/, javax/"
	platformPattern = regexp.MustCompile(`^platform\s*=\s*(.*)$`)
)

// packageTarget prefixes a target naming a whole package.
const packageTarget = "PACKAGE:"

// parseLines reads the line format. Lines for the same linter accumulate
// into one rule.
func parseLines(r io.Reader) (*Config, error) {
	cfg := &Config{}
	rules := make(map[string]int)
	scanner := bufio.NewScanner(r)

	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if rule, ok := suppress.ParseDirective(line); ok {
			cfg.Suppress = append(cfg.Suppress, rule)
			continue
		}

		if m := platformPattern.FindStringSubmatch(line); m != nil {
			cfg.Platform.Prefixes = append(cfg.Platform.Prefixes, splitList(m[1])...)
			continue
		}

		m := linterPattern.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("line %d: expected \"Linter: targets\", got %q", n, line)
		}
		i, ok := rules[m[1]]
		if !ok {
			i = len(cfg.Linters)
			rules[m[1]] = i
			cfg.Linters = append(cfg.Linters, LinterRule{Name: m[1]})
		}
		rule := &cfg.Linters[i]
		for _, target := range splitList(m[2]) {
			switch {
			case target == "*":
				rule.All = true
			case strings.HasPrefix(target, packageTarget):
				rule.Packages = append(rule.Packages, strings.TrimSpace(strings.TrimPrefix(target, packageTarget)))
			default:
				rule.Classes = append(rule.Classes, target)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
