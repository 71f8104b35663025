package classfile

import (
	"errors"
	"fmt"
	"os"
)

// Magic is the first four bytes of every class file.
const Magic = 0xCAFEBABE

// Accepted major versions: JDK 1.1 through JDK 25.
const (
	MinMajorVersion = 45
	MaxMajorVersion = 69
)

type parser struct {
	pool constantPool
}

// Parse decodes one class file. Any structural problem yields a
// *MalformedClassError. Parse has no side effects.
func Parse(data []byte) (*ClassModel, error) {
	r := newReader(data)
	magic, err := r.readU4("magic")
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, malformed(0, "bad magic 0x%08X", magic)
	}
	minor, err := r.readU2("minor_version")
	if err != nil {
		return nil, err
	}
	major, err := r.readU2("major_version")
	if err != nil {
		return nil, err
	}
	if major < MinMajorVersion || major > MaxMajorVersion {
		return nil, malformed(6, "unsupported major version %d", major)
	}

	pool, err := readConstantPool(r)
	if err != nil {
		return nil, err
	}
	p := &parser{pool: pool}

	cls := &ClassModel{MajorVersion: major, MinorVersion: minor}
	access, err := r.readU2("access_flags")
	if err != nil {
		return nil, err
	}
	cls.Access = AccessFlags(access)

	thisIdx, err := r.readU2("this_class")
	if err != nil {
		return nil, err
	}
	if cls.Name, err = pool.className(thisIdx); err != nil {
		return nil, within("this_class", err)
	}
	superIdx, err := r.readU2("super_class")
	if err != nil {
		return nil, err
	}
	if superIdx != 0 {
		if cls.SuperName, err = pool.className(superIdx); err != nil {
			return nil, within("super_class", err)
		}
	}

	ifaceCount, err := r.readU2("interfaces_count")
	if err != nil {
		return nil, err
	}
	for range ifaceCount {
		idx, err := r.readU2("interface index")
		if err != nil {
			return nil, err
		}
		name, err := pool.className(idx)
		if err != nil {
			return nil, within("interface", err)
		}
		cls.Interfaces = append(cls.Interfaces, name)
	}

	if cls.Fields, err = p.readFields(r); err != nil {
		return nil, err
	}
	if cls.Methods, err = p.readMethods(r); err != nil {
		return nil, err
	}

	attrCount, err := r.readU2("attributes_count")
	if err != nil {
		return nil, err
	}
	for range attrCount {
		name, body, err := p.readAttribute(r)
		if err != nil {
			return nil, err
		}
		if name == "SourceFile" && len(body) == 2 {
			if cls.SourceFile, err = pool.utf8(uint16(body[0])<<8 | uint16(body[1])); err != nil {
				return nil, within("SourceFile", err)
			}
		}
	}
	if r.remaining() != 0 {
		return nil, malformed(r.pos, "%d trailing bytes", r.remaining())
	}
	return cls, nil
}

// ParseFile reads and parses the class file at path.
func ParseFile(path string) (*ClassModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read class file: %w", err)
	}
	cls, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cls, nil
}

// IsMalformed reports whether err carries a *MalformedClassError.
func IsMalformed(err error) bool {
	var mErr *MalformedClassError
	return errors.As(err, &mErr)
}

func (p *parser) readAttribute(r *reader) (string, []byte, error) {
	nameIdx, err := r.readU2("attribute_name_index")
	if err != nil {
		return "", nil, err
	}
	name, err := p.pool.utf8(nameIdx)
	if err != nil {
		return "", nil, within("attribute name", err)
	}
	length, err := r.readU4("attribute_length")
	if err != nil {
		return "", nil, err
	}
	if int64(length) > int64(r.remaining()) {
		return "", nil, malformed(r.pos-4, "attribute %s length %d exceeds class file", name, length)
	}
	body, err := r.readNBytes(int(length), name)
	return name, body, err
}

// readMember reads the shared access/name/descriptor header of a field or
// method and returns its attributes.
func (p *parser) readMember(r *reader, kind string) (AccessFlags, string, string, map[string][]byte, error) {
	access, err := r.readU2(kind + " access_flags")
	if err != nil {
		return 0, "", "", nil, err
	}
	nameIdx, err := r.readU2(kind + " name_index")
	if err != nil {
		return 0, "", "", nil, err
	}
	name, err := p.pool.utf8(nameIdx)
	if err != nil {
		return 0, "", "", nil, within(fmt.Sprintf("%s name", kind), err)
	}
	descIdx, err := r.readU2(kind + " descriptor_index")
	if err != nil {
		return 0, "", "", nil, err
	}
	desc, err := p.pool.utf8(descIdx)
	if err != nil {
		return 0, "", "", nil, within(fmt.Sprintf("%s %s descriptor", kind, name), err)
	}
	count, err := r.readU2(kind + " attributes_count")
	if err != nil {
		return 0, "", "", nil, err
	}
	var attrs map[string][]byte
	for range count {
		attrName, body, err := p.readAttribute(r)
		if err != nil {
			return 0, "", "", nil, within(fmt.Sprintf("%s %s", kind, name), err)
		}
		if attrs == nil {
			attrs = make(map[string][]byte)
		}
		if _, dup := attrs[attrName]; !dup {
			attrs[attrName] = body
		}
	}
	return AccessFlags(access), name, desc, attrs, nil
}

func (p *parser) readFields(r *reader) ([]FieldModel, error) {
	count, err := r.readU2("fields_count")
	if err != nil {
		return nil, err
	}
	fields := make([]FieldModel, 0, count)
	for range count {
		access, name, desc, _, err := p.readMember(r, "field")
		if err != nil {
			return nil, err
		}
		if !ValidFieldDescriptor(desc) {
			return nil, malformed(-1, "field %s: invalid descriptor %q", name, desc)
		}
		fields = append(fields, FieldModel{Name: name, Desc: desc, Access: access})
	}
	return fields, nil
}

func (p *parser) readMethods(r *reader) ([]MethodModel, error) {
	count, err := r.readU2("methods_count")
	if err != nil {
		return nil, err
	}
	methods := make([]MethodModel, 0, count)
	for range count {
		access, name, desc, attrs, err := p.readMember(r, "method")
		if err != nil {
			return nil, err
		}
		if _, err := ParseMethodDescriptor(desc); err != nil {
			return nil, malformed(-1, "method %s: %v", name, err)
		}
		m := MethodModel{Name: name, Desc: desc, Access: access}
		if code, ok := attrs["Code"]; ok {
			if m.Access.Has(AccAbstract) || m.Access.Has(AccNative) {
				return nil, malformed(-1, "method %s%s: Code attribute on abstract or native method", name, desc)
			}
			body, err := p.readCode(code)
			if err != nil {
				return nil, within(fmt.Sprintf("method %s%s", name, desc), err)
			}
			m.Code = body.stream
			m.LocalNames = body.localNames
		}
		methods = append(methods, m)
	}
	return methods, nil
}
