package classfile

import (
	"fmt"
	"strings"

	"github.com/puzpuzpuz/xsync/v4"
)

// MethodDescriptor is a parsed method descriptor such as (ILjava/lang/String;)V.
type MethodDescriptor struct {
	Params []string // one field descriptor per parameter
	Return string   // field descriptor, or "V"
}

// descriptorCache memoizes parsed method descriptors. Descriptors repeat
// heavily across a batch and are parsed concurrently by the loader and the
// linters.
type descriptorCache struct {
	methods *xsync.Map[string, *MethodDescriptor]
}

func newDescriptorCache() *descriptorCache {
	return &descriptorCache{methods: xsync.NewMap[string, *MethodDescriptor]()}
}

var descriptors = newDescriptorCache()

func (c *descriptorCache) method(desc string) (*MethodDescriptor, error) {
	if md, ok := c.methods.Load(desc); ok {
		return md, nil
	}
	md, err := parseMethodDescriptor(desc)
	if err != nil {
		return nil, err
	}
	c.methods.Store(desc, md)
	return md, nil
}

// ParseMethodDescriptor parses desc. The returned value is shared and must
// not be modified.
func ParseMethodDescriptor(desc string) (*MethodDescriptor, error) {
	return descriptors.method(desc)
}

func parseMethodDescriptor(desc string) (*MethodDescriptor, error) {
	if !strings.HasPrefix(desc, "(") {
		return nil, fmt.Errorf("method descriptor %q: missing '('", desc)
	}
	md := &MethodDescriptor{}
	i := 1
	for i < len(desc) && desc[i] != ')' {
		n := fieldDescLen(desc[i:])
		if n == 0 {
			return nil, fmt.Errorf("method descriptor %q: bad parameter at %d", desc, i)
		}
		md.Params = append(md.Params, desc[i:i+n])
		i += n
	}
	if i >= len(desc) {
		return nil, fmt.Errorf("method descriptor %q: missing ')'", desc)
	}
	ret := desc[i+1:]
	if ret == "" || ret != "V" && fieldDescLen(ret) != len(ret) {
		return nil, fmt.Errorf("method descriptor %q: bad return type", desc)
	}
	md.Return = ret
	return md, nil
}

// fieldDescLen returns the length of the field descriptor at the start of s,
// or 0 if there is none.
func fieldDescLen(s string) int {
	dims := 0
	for dims < len(s) && s[dims] == '[' {
		dims++
	}
	if dims == len(s) || dims > 255 {
		return 0
	}
	switch s[dims] {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return dims + 1
	case 'L':
		end := strings.IndexByte(s[dims:], ';')
		if end <= 1 {
			return 0
		}
		return dims + end + 1
	}
	return 0
}

// ValidFieldDescriptor reports whether desc is exactly one field descriptor.
func ValidFieldDescriptor(desc string) bool {
	return desc != "" && fieldDescLen(desc) == len(desc)
}

// ObjectType returns the internal name of an object descriptor "Lpkg/Cls;".
// Arrays and primitives return false.
func ObjectType(desc string) (string, bool) {
	if len(desc) > 2 && desc[0] == 'L' && desc[len(desc)-1] == ';' {
		return desc[1 : len(desc)-1], true
	}
	return "", false
}

// ElementType strips array dimensions from desc.
func ElementType(desc string) string {
	return strings.TrimLeft(desc, "[")
}

// IsReference reports whether desc is an object or array type.
func IsReference(desc string) bool {
	return strings.HasPrefix(desc, "L") || strings.HasPrefix(desc, "[")
}

// ReturnType returns the return descriptor of a method descriptor, or the
// empty string when desc is invalid.
func ReturnType(desc string) string {
	md, err := ParseMethodDescriptor(desc)
	if err != nil {
		return ""
	}
	return md.Return
}

// TypeSize returns the number of local slots a value of type desc occupies.
func TypeSize(desc string) int {
	if desc == "J" || desc == "D" {
		return 2
	}
	return 1
}

// ParamSlots returns the local slot of each parameter. Instance methods start
// at slot 1 since slot 0 holds the receiver.
func ParamSlots(desc string, static bool) []int {
	md, err := ParseMethodDescriptor(desc)
	if err != nil {
		return nil
	}
	slot := 1
	if static {
		slot = 0
	}
	slots := make([]int, len(md.Params))
	for i, p := range md.Params {
		slots[i] = slot
		slot += TypeSize(p)
	}
	return slots
}
