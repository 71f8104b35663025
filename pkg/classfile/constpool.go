package classfile

import (
	"fmt"
	"unicode/utf16"
)

// Constant pool tags.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// cpEntry is one constant pool slot. The meaning of a and b depends on tag.
type cpEntry struct {
	tag  uint8
	utf8 string
	a, b uint16
}

// constantPool is indexed like the class file: entry 0 and the slot after a
// long or double are unusable.
type constantPool []cpEntry

func readConstantPool(r *reader) (constantPool, error) {
	count, err := r.readU2("constant_pool_count")
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, malformed(r.pos-2, "constant_pool_count is zero")
	}

	pool := make(constantPool, count)
	for i := 1; i < int(count); i++ {
		start := r.pos
		tag, err := r.readU1("constant tag")
		if err != nil {
			return nil, err
		}
		e := cpEntry{tag: tag}
		switch tag {
		case tagUtf8:
			n, err := r.readU2("utf8 length")
			if err != nil {
				return nil, err
			}
			raw, err := r.readNBytes(int(n), "utf8 bytes")
			if err != nil {
				return nil, err
			}
			s, ok := decodeModifiedUTF8(raw)
			if !ok {
				return nil, malformed(start, "constant #%d: invalid modified UTF-8", i)
			}
			e.utf8 = s
		case tagInteger, tagFloat:
			if err := r.skip(4, "constant value"); err != nil {
				return nil, err
			}
		case tagLong, tagDouble:
			if err := r.skip(8, "constant value"); err != nil {
				return nil, err
			}
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			if e.a, err = r.readU2("constant index"); err != nil {
				return nil, err
			}
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType, tagDynamic, tagInvokeDynamic:
			if e.a, err = r.readU2("constant index"); err != nil {
				return nil, err
			}
			if e.b, err = r.readU2("constant index"); err != nil {
				return nil, err
			}
		case tagMethodHandle:
			kind, err := r.readU1("reference_kind")
			if err != nil {
				return nil, err
			}
			if kind < 1 || kind > 9 {
				return nil, malformed(start, "constant #%d: invalid reference_kind %d", i, kind)
			}
			e.a = uint16(kind)
			if e.b, err = r.readU2("reference_index"); err != nil {
				return nil, err
			}
		default:
			return nil, malformed(start, "constant #%d: unknown tag %d", i, tag)
		}
		pool[i] = e
		if tag == tagLong || tag == tagDouble {
			i++
		}
	}

	if err := pool.validate(); err != nil {
		return nil, err
	}
	return pool, nil
}

// validate checks that every cross reference lands on an entry of the
// expected tag.
func (p constantPool) validate() error {
	for i, e := range p {
		var err error
		switch e.tag {
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			err = p.expect(i, e.a, tagUtf8)
		case tagFieldref, tagMethodref, tagInterfaceMethodref:
			if err = p.expect(i, e.a, tagClass); err == nil {
				err = p.expect(i, e.b, tagNameAndType)
			}
		case tagNameAndType:
			if err = p.expect(i, e.a, tagUtf8); err == nil {
				err = p.expect(i, e.b, tagUtf8)
			}
		case tagDynamic, tagInvokeDynamic:
			err = p.expect(i, e.b, tagNameAndType)
		case tagMethodHandle:
			err = p.expect(i, e.b, tagFieldref, tagMethodref, tagInterfaceMethodref)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p constantPool) expect(from int, idx uint16, tags ...uint8) error {
	if reason := p.check(idx, tags); reason != "" {
		return malformed(-1, "constant #%d: %s", from, reason)
	}
	return nil
}

func (p constantPool) check(idx uint16, tags []uint8) string {
	if idx == 0 || int(idx) >= len(p) {
		return fmt.Sprintf("index %d out of range", idx)
	}
	got := p[idx].tag
	for _, t := range tags {
		if got == t {
			return ""
		}
	}
	return fmt.Sprintf("index %d has tag %d, want %v", idx, got, tags)
}

// entry returns the entry at idx after checking its tag.
func (p constantPool) entry(idx uint16, tags ...uint8) (cpEntry, error) {
	if reason := p.check(idx, tags); reason != "" {
		return cpEntry{}, malformed(-1, "constant pool reference: %s", reason)
	}
	return p[idx], nil
}

func (p constantPool) utf8(idx uint16) (string, error) {
	e, err := p.entry(idx, tagUtf8)
	if err != nil {
		return "", err
	}
	return e.utf8, nil
}

func (p constantPool) className(idx uint16) (string, error) {
	e, err := p.entry(idx, tagClass)
	if err != nil {
		return "", err
	}
	return p[e.a].utf8, nil
}

func (p constantPool) nameAndType(idx uint16) (name, desc string, err error) {
	e, err := p.entry(idx, tagNameAndType)
	if err != nil {
		return "", "", err
	}
	return p[e.a].utf8, p[e.b].utf8, nil
}

// memberRef resolves a Fieldref, Methodref or InterfaceMethodref.
func (p constantPool) memberRef(idx uint16, tags ...uint8) (owner, name, desc string, err error) {
	e, err := p.entry(idx, tags...)
	if err != nil {
		return "", "", "", err
	}
	owner = p[p[e.a].a].utf8
	name, desc, err = p.nameAndType(e.b)
	return owner, name, desc, err
}

// decodeModifiedUTF8 decodes the JVM's modified UTF-8: NUL is two bytes and
// supplementary characters are encoded as surrogate pairs.
func decodeModifiedUTF8(b []byte) (string, bool) {
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c == 0:
			return "", false
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) || b[i+1]&0xC0 != 0x80 {
				return "", false
			}
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0:
			if i+2 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
				return "", false
			}
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			return "", false
		}
	}
	return string(utf16.Decode(units)), true
}
