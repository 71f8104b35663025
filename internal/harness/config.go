package harness

import (
	"fmt"
	"strings"

	"github.com/715d/classlint/internal/classgen"
)

// ClassSpec describes one class of a test case in YAML.
type ClassSpec struct {
	Name       string       `yaml:"name"`
	Super      string       `yaml:"super,omitempty"`
	Interfaces []string     `yaml:"interfaces,omitempty"`
	Access     []string     `yaml:"access,omitempty"`
	Fields     []FieldSpec  `yaml:"fields,omitempty"`
	Methods    []MethodSpec `yaml:"methods,omitempty"`
}

// FieldSpec describes a field.
type FieldSpec struct {
	Name   string   `yaml:"name"`
	Desc   string   `yaml:"desc"`
	Access []string `yaml:"access,omitempty"`
}

// MethodSpec describes a method. Code is assembler text; a method without
// code is written without a Code attribute.
type MethodSpec struct {
	Name   string      `yaml:"name"`
	Desc   string      `yaml:"desc"`
	Access []string    `yaml:"access,omitempty"`
	Code   string      `yaml:"code,omitempty"`
	Locals []LocalSpec `yaml:"locals,omitempty"`
}

// LocalSpec names a local variable slot.
type LocalSpec struct {
	Slot int    `yaml:"slot"`
	Name string `yaml:"name"`
	Desc string `yaml:"desc"`
}

var accessFlags = map[string]uint16{
	"public":     classgen.Public,
	"private":    classgen.Private,
	"protected":  classgen.Protected,
	"static":     classgen.Static,
	"final":      classgen.Final,
	"bridge":     classgen.Bridge,
	"native":     classgen.Native,
	"interface":  classgen.Interface,
	"abstract":   classgen.Abstract,
	"synthetic":  classgen.Synthetic,
	"annotation": classgen.Annotation,
	"enum":       classgen.Enum,
}

func parseAccess(names []string) (uint16, error) {
	var flags uint16
	for _, n := range names {
		f, ok := accessFlags[strings.ToLower(n)]
		if !ok {
			return 0, fmt.Errorf("unknown access flag %q", n)
		}
		flags |= f
	}
	return flags, nil
}

// Build converts the description into a classgen class.
func (s ClassSpec) Build() (classgen.Class, error) {
	access, err := parseAccess(s.Access)
	if err != nil {
		return classgen.Class{}, fmt.Errorf("class %s: %w", s.Name, err)
	}
	if access&classgen.Interface != 0 {
		access |= classgen.Abstract
	}
	c := classgen.Class{
		Name:       s.Name,
		Super:      s.Super,
		Interfaces: s.Interfaces,
		Access:     access,
		SourceFile: s.Name[strings.LastIndexByte(s.Name, '/')+1:] + ".java",
	}
	for _, f := range s.Fields {
		access, err := parseAccess(f.Access)
		if err != nil {
			return classgen.Class{}, fmt.Errorf("field %s.%s: %w", s.Name, f.Name, err)
		}
		c.Fields = append(c.Fields, classgen.Field{Name: f.Name, Desc: f.Desc, Access: access})
	}
	for _, m := range s.Methods {
		access, err := parseAccess(m.Access)
		if err != nil {
			return classgen.Class{}, fmt.Errorf("method %s.%s: %w", s.Name, m.Name, err)
		}
		method := classgen.Method{Name: m.Name, Desc: m.Desc, Access: access}
		if strings.TrimSpace(m.Code) != "" {
			if method.Code, err = classgen.Assemble(m.Code); err != nil {
				return classgen.Class{}, fmt.Errorf("method %s.%s%s: %w", s.Name, m.Name, m.Desc, err)
			}
		}
		for _, l := range m.Locals {
			method.Locals = append(method.Locals, classgen.Local{Slot: l.Slot, Name: l.Name, Desc: l.Desc})
		}
		c.Methods = append(c.Methods, method)
	}
	return c, nil
}
