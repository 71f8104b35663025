// Package classfile parses JVM class files into an immutable structural
// model and loads batches of them from disk.
package classfile

import (
	"strconv"
	"strings"

	"github.com/715d/classlint/pkg/bytecode"
)

// AccessFlags is the access_flags bitset of a class, field or method.
type AccessFlags uint16

const (
	AccPublic       AccessFlags = 0x0001
	AccPrivate      AccessFlags = 0x0002
	AccProtected    AccessFlags = 0x0004
	AccStatic       AccessFlags = 0x0008
	AccFinal        AccessFlags = 0x0010
	AccSuper        AccessFlags = 0x0020 // classes
	AccSynchronized AccessFlags = 0x0020 // methods
	AccVolatile     AccessFlags = 0x0040 // fields
	AccBridge       AccessFlags = 0x0040 // methods
	AccTransient    AccessFlags = 0x0080 // fields
	AccVarargs      AccessFlags = 0x0080 // methods
	AccNative       AccessFlags = 0x0100
	AccInterface    AccessFlags = 0x0200
	AccAbstract     AccessFlags = 0x0400
	AccStrict       AccessFlags = 0x0800
	AccSynthetic    AccessFlags = 0x1000
	AccAnnotation   AccessFlags = 0x2000
	AccEnum         AccessFlags = 0x4000
)

// Has reports whether every bit of f is set.
func (a AccessFlags) Has(f AccessFlags) bool { return a&f == f }

// ObjectClass is the internal name of the root class.
const ObjectClass = "java/lang/Object"

// ClassModel is the structural view of one class file. It is never mutated
// after Parse returns.
type ClassModel struct {
	Name         string
	SuperName    string // empty only for java/lang/Object and module-info
	Interfaces   []string
	Access       AccessFlags
	Fields       []FieldModel
	Methods      []MethodModel
	MajorVersion uint16
	MinorVersion uint16
	SourceFile   string
}

func (c *ClassModel) IsInterface() bool { return c.Access.Has(AccInterface) }
func (c *ClassModel) IsAbstract() bool  { return c.Access.Has(AccAbstract) }
func (c *ClassModel) IsEnum() bool      { return c.Access.Has(AccEnum) }
func (c *ClassModel) IsFinal() bool     { return c.Access.Has(AccFinal) }

// IsConcrete reports whether the class is neither an interface nor abstract.
func (c *ClassModel) IsConcrete() bool { return !c.IsInterface() && !c.IsAbstract() }

// HasSuper reports whether the class extends something other than Object.
func (c *ClassModel) HasSuper() bool {
	return c.SuperName != "" && c.SuperName != ObjectClass
}

// Package returns the internal package name ("com/example"), empty for the
// default package.
func (c *ClassModel) Package() string { return PackageOf(c.Name) }

// Implements reports whether iface is among the directly implemented interfaces.
func (c *ClassModel) Implements(iface string) bool {
	for _, name := range c.Interfaces {
		if name == iface {
			return true
		}
	}
	return false
}

// Method returns the method with the given name and descriptor.
func (c *ClassModel) Method(name, desc string) (*MethodModel, bool) {
	for i := range c.Methods {
		if c.Methods[i].Name == name && c.Methods[i].Desc == desc {
			return &c.Methods[i], true
		}
	}
	return nil, false
}

// HasMethodNamed reports whether any method is called name.
func (c *ClassModel) HasMethodNamed(name string) bool {
	for i := range c.Methods {
		if c.Methods[i].Name == name {
			return true
		}
	}
	return false
}

// PackageOf returns the package part of an internal class name.
func PackageOf(internalName string) string {
	if i := strings.LastIndexByte(internalName, '/'); i >= 0 {
		return internalName[:i]
	}
	return ""
}

// DottedName converts an internal name to its source form.
func DottedName(internalName string) string {
	return strings.ReplaceAll(internalName, "/", ".")
}

// InternalName converts a dotted class name to its internal form.
func InternalName(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}

// FieldModel is one entry of the field table.
type FieldModel struct {
	Name   string
	Desc   string
	Access AccessFlags
}

func (f *FieldModel) IsStatic() bool    { return f.Access.Has(AccStatic) }
func (f *FieldModel) IsPrivate() bool   { return f.Access.Has(AccPrivate) }
func (f *FieldModel) IsPublic() bool    { return f.Access.Has(AccPublic) }
func (f *FieldModel) IsFinal() bool     { return f.Access.Has(AccFinal) }
func (f *FieldModel) IsSynthetic() bool { return f.Access.Has(AccSynthetic) }

// MethodModel is one entry of the method table with its decoded body.
type MethodModel struct {
	Name   string
	Desc   string
	Access AccessFlags
	// Code is empty for abstract and native methods.
	Code bytecode.Stream
	// LocalNames maps a slot to its name from the LocalVariableTable. Nil when
	// the table is absent.
	LocalNames map[int]string
}

func (m *MethodModel) IsStatic() bool    { return m.Access.Has(AccStatic) }
func (m *MethodModel) IsPrivate() bool   { return m.Access.Has(AccPrivate) }
func (m *MethodModel) IsPublic() bool    { return m.Access.Has(AccPublic) }
func (m *MethodModel) IsProtected() bool { return m.Access.Has(AccProtected) }
func (m *MethodModel) IsFinal() bool     { return m.Access.Has(AccFinal) }
func (m *MethodModel) IsAbstract() bool  { return m.Access.Has(AccAbstract) }
func (m *MethodModel) IsSynthetic() bool { return m.Access.Has(AccSynthetic) }
func (m *MethodModel) IsBridge() bool    { return m.Access.Has(AccBridge) }

// IsConstructor reports whether the method is an instance constructor.
func (m *MethodModel) IsConstructor() bool { return m.Name == bytecode.ConstructorName }

// IsInitializer reports whether the method is <init> or <clinit>.
func (m *MethodModel) IsInitializer() bool { return bytecode.IsInitializer(m.Name) }

// Signature returns name+descriptor, the usual member label in findings.
func (m *MethodModel) Signature() string { return m.Name + m.Desc }

// LocalName returns the declared name of slot, or varN when unknown.
func (m *MethodModel) LocalName(slot int) string {
	if name, ok := m.LocalNames[slot]; ok && name != "" {
		return name
	}
	return "var" + strconv.Itoa(slot)
}
