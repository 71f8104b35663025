// Package patterns recognizes design patterns, and common ways of getting
// them wrong, from class structure and bytecode.
package patterns

import (
	"strings"

	"github.com/715d/classlint/pkg/bytecode"
	"github.com/715d/classlint/pkg/classfile"
)

// Registry names of the pattern linters.
const (
	StrategyName  = "StrategyPattern"
	AdapterName   = "AdapterPattern"
	DecoratorName = "DecoratorPattern"
	ObserverName  = "ObserverPattern"
)

// Backward-scan budgets, in semantic instructions.
const (
	injectionScanLimit  = 12
	delegationScanLimit = 16
)

// typeName returns the internal name of an object descriptor, or the
// descriptor itself for arrays.
func typeName(desc string) string {
	if name, ok := classfile.ObjectType(desc); ok {
		return name
	}
	return desc
}

// isSuperOrInterface reports whether name is a direct interface of cls or its
// non-Object superclass.
func isSuperOrInterface(cls *classfile.ClassModel, name string) bool {
	if cls.Implements(name) {
		return true
	}
	return cls.HasSuper() && cls.SuperName == name
}

// constructorAccepts reports whether some constructor of cls takes a
// parameter whose type is want or one of the implemented interfaces.
func constructorAccepts(cls *classfile.ClassModel, want string) bool {
	for i := range cls.Methods {
		if m := &cls.Methods[i]; m.IsConstructor() && acceptsParam(cls, m, want) {
			return true
		}
	}
	return false
}

// acceptsParam reports whether m takes a parameter whose type is want or one
// of the interfaces cls implements.
func acceptsParam(cls *classfile.ClassModel, m *classfile.MethodModel, want string) bool {
	md, err := classfile.ParseMethodDescriptor(m.Desc)
	if err != nil {
		return false
	}
	for _, p := range md.Params {
		if !classfile.IsReference(p) {
			continue
		}
		t := typeName(p)
		if t == want || cls.Implements(t) {
			return true
		}
	}
	return false
}

func isFieldRead(owner string, f *classfile.FieldModel) func(bytecode.Instruction) bool {
	return func(in bytecode.Instruction) bool {
		return in.Kind == bytecode.KindGetField && in.Matches(owner, f.Name, f.Desc)
	}
}

// notifyWords is the vocabulary of observer callbacks.
var notifyWords = []string{
	"update", "notify", "onchange", "onevent", "dispatch",
	"trigger", "publish", "broadcast", "fire",
}

// removeWords is the vocabulary of observer deregistration.
var removeWords = []string{"remove", "unsubscribe", "detach", "deregister", "unregister"}

func containsAny(name string, words []string) bool {
	lower := strings.ToLower(name)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// isNotifyName reports whether a method name reads like an observer callback.
func isNotifyName(name string) bool { return containsAny(name, notifyWords) }
