package classgen

import (
	"encoding/binary"
	"fmt"
)

// pool assembles a constant pool, reusing identical entries.
type pool struct {
	entries [][]byte
	index   map[string]uint16
	next    uint16
}

func newPool() *pool {
	return &pool{index: make(map[string]uint16), next: 1}
}

func (p *pool) add(key string, slots uint16, data []byte) uint16 {
	if idx, ok := p.index[key]; ok {
		return idx
	}
	idx := p.next
	p.index[key] = idx
	p.entries = append(p.entries, data)
	p.next += slots
	return idx
}

func u2(v uint16) []byte { return binary.BigEndian.AppendUint16(nil, v) }

func (p *pool) utf8(s string) uint16 {
	enc := encodeModifiedUTF8(s)
	data := append([]byte{1}, u2(uint16(len(enc)))...)
	return p.add("U"+s, 1, append(data, enc...))
}

func (p *pool) integer(v int32) uint16 {
	data := binary.BigEndian.AppendUint32([]byte{3}, uint32(v))
	return p.add(fmt.Sprintf("I%d", v), 1, data)
}

func (p *pool) long(v int64) uint16 {
	data := binary.BigEndian.AppendUint64([]byte{5}, uint64(v))
	return p.add(fmt.Sprintf("J%d", v), 2, data)
}

func (p *pool) class(name string) uint16 {
	return p.add("C"+name, 1, append([]byte{7}, u2(p.utf8(name))...))
}

func (p *pool) string(s string) uint16 {
	return p.add("S"+s, 1, append([]byte{8}, u2(p.utf8(s))...))
}

func (p *pool) nameAndType(name, desc string) uint16 {
	data := append([]byte{12}, u2(p.utf8(name))...)
	return p.add("N"+name+" "+desc, 1, append(data, u2(p.utf8(desc))...))
}

func (p *pool) member(tag byte, owner, name, desc string) uint16 {
	data := append([]byte{tag}, u2(p.class(owner))...)
	data = append(data, u2(p.nameAndType(name, desc))...)
	return p.add(fmt.Sprintf("M%d %s.%s%s", tag, owner, name, desc), 1, data)
}

func (p *pool) invokeDynamic(name, desc string) uint16 {
	data := append([]byte{18}, u2(0)...)
	data = append(data, u2(p.nameAndType(name, desc))...)
	return p.add("D"+name+desc, 1, data)
}

func (p *pool) bytes() []byte {
	out := u2(p.next)
	for _, e := range p.entries {
		out = append(out, e...)
	}
	return out
}

func encodeModifiedUTF8(s string) []byte {
	var out []byte
	for _, r := range s {
		switch {
		case r != 0 && r < 0x80:
			out = append(out, byte(r))
		case r < 0x800:
			out = append(out, byte(0xC0|r>>6), byte(0x80|r&0x3F))
		case r < 0x10000:
			out = append(out, byte(0xE0|r>>12), byte(0x80|(r>>6)&0x3F), byte(0x80|r&0x3F))
		default:
			r -= 0x10000
			for _, u := range []rune{0xD800 + r>>10, 0xDC00 + r&0x3FF} {
				out = append(out, byte(0xE0|u>>12), byte(0x80|(u>>6)&0x3F), byte(0x80|u&0x3F))
			}
		}
	}
	return out
}
