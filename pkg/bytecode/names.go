package bytecode

import "strings"

// Special method names.
const (
	ConstructorName       = "<init>"
	StaticInitializerName = "<clinit>"
)

// IsInitializer reports whether name is <init> or <clinit>.
func IsInitializer(name string) bool {
	return name == ConstructorName || name == StaticInitializerName
}

// builderPrefixes start fluent setters. A name containing "build" is a
// builder step wherever it appears.
var builderPrefixes = []string{"set", "with"}

// IsBuilderish reports whether a method name reads like a fluent setter or a
// builder step.
func IsBuilderish(name string) bool {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "build") {
		return true
	}
	for _, p := range builderPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}
