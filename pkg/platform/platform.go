// Package platform classifies class names that belong to the Java platform
// rather than to the analyzed code base.
package platform

import (
	"slices"
	"strings"

	"github.com/715d/classlint/pkg/classfile"
)

// DefaultPrefixes are the internal-name prefixes of platform classes.
var DefaultPrefixes = []string{"java/", "javax/", "jdk/", "sun/"}

// Namespaces is an immutable set of platform prefixes.
type Namespaces struct {
	prefixes []string
}

// New returns namespaces for prefixes. Dotted prefixes are accepted and a
// trailing separator is added when missing. With no prefixes, DefaultPrefixes
// are used.
func New(prefixes ...string) *Namespaces {
	if len(prefixes) == 0 {
		prefixes = DefaultPrefixes
	}
	n := &Namespaces{prefixes: make([]string, 0, len(prefixes))}
	for _, p := range prefixes {
		p = classfile.InternalName(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if !strings.HasSuffix(p, "/") {
			p += "/"
		}
		n.prefixes = append(n.prefixes, p)
	}
	slices.Sort(n.prefixes)
	n.prefixes = slices.Compact(n.prefixes)
	return n
}

// Default is the namespace set used when nothing is configured.
var Default = New()

// Prefixes returns a copy of the configured prefixes.
func (n *Namespaces) Prefixes() []string {
	return slices.Clone(n.prefixes)
}

// Contains reports whether the internal class name is a platform class.
func (n *Namespaces) Contains(name string) bool {
	for _, p := range n.prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// ContainsDescriptor reports whether the element type of a field descriptor
// is a platform class. Primitive element types are not platform classes.
func (n *Namespaces) ContainsDescriptor(desc string) bool {
	name, ok := classfile.ObjectType(classfile.ElementType(desc))
	return ok && n.Contains(name)
}

// Core owner groups that several linters treat as infrastructure rather
// than as collaborators.
var (
	// LanguageOwners hold calls that never count as envy of another class.
	LanguageOwners = []string{"java/lang/", "java/util/", "java/io/"}
	// StreamPackage is the prefix of the fluent stream API.
	StreamPackage = "java/util/stream/"
	// StringOwners build or hold text and are chained by convention.
	StringOwners = map[string]bool{
		"java/lang/String":        true,
		"java/lang/StringBuilder": true,
		"java/lang/StringBuffer":  true,
	}
)

// IsLanguageOwner reports whether owner is in one of LanguageOwners.
func IsLanguageOwner(owner string) bool {
	for _, p := range LanguageOwners {
		if strings.HasPrefix(owner, p) {
			return true
		}
	}
	return false
}

// collectionNames are simple-name fragments of collection types.
var collectionNames = []string{"List", "Set", "Collection", "Deque", "Queue"}

// IsCollectionDescriptor reports whether desc names a collection type or an
// array of objects.
func IsCollectionDescriptor(desc string) bool {
	if strings.HasPrefix(desc, "[L") {
		return true
	}
	if !strings.HasPrefix(desc, "L") {
		return false
	}
	for _, c := range collectionNames {
		if strings.Contains(desc, c) {
			return true
		}
	}
	return false
}
