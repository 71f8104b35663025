// Package classgen writes JVM class files from a compact description. Tests
// use it to produce real class bytes for the loader and the linters.
package classgen

import (
	"encoding/binary"
	"fmt"
	"slices"

	bc "github.com/715d/classlint/pkg/bytecode"
)

// Access flags accepted by Class, Field and Method.
const (
	Public     uint16 = 0x0001
	Private    uint16 = 0x0002
	Protected  uint16 = 0x0004
	Static     uint16 = 0x0008
	Final      uint16 = 0x0010
	Super      uint16 = 0x0020
	Bridge     uint16 = 0x0040
	Native     uint16 = 0x0100
	Interface  uint16 = 0x0200
	Abstract   uint16 = 0x0400
	Synthetic  uint16 = 0x1000
	Annotation uint16 = 0x2000
	Enum       uint16 = 0x4000
)

// DefaultMajor is Java 8.
const DefaultMajor = 52

// Class describes one class file.
type Class struct {
	Name       string
	Super      string // defaults to java/lang/Object
	Interfaces []string
	Access     uint16
	Fields     []Field
	Methods    []Method
	SourceFile string
	Major      uint16
}

// Field describes one field_info.
type Field struct {
	Name   string
	Desc   string
	Access uint16
}

// Method describes one method_info. A method without Code is written
// without a Code attribute.
type Method struct {
	Name     string
	Desc     string
	Access   uint16
	Code     []Op
	Handlers []Handler
	Locals   []Local
}

// Handler is an exception table entry; Type empty means catch-all.
type Handler struct {
	Start, End, Target string
	Type               string
}

// Local is a LocalVariableTable entry. Empty Start/End span the whole body.
type Local struct {
	Slot       int
	Name, Desc string
	Start, End string
}

// Bytes serializes the class.
func (c *Class) Bytes() ([]byte, error) {
	p := newPool()
	var body []byte

	body = binary.BigEndian.AppendUint16(body, c.Access)
	body = append(body, u2(p.class(c.Name))...)
	switch c.Super {
	case "":
		if c.Name != "java/lang/Object" {
			body = append(body, u2(p.class("java/lang/Object"))...)
		} else {
			body = append(body, u2(0)...)
		}
	default:
		body = append(body, u2(p.class(c.Super))...)
	}
	body = append(body, u2(uint16(len(c.Interfaces)))...)
	for _, iface := range c.Interfaces {
		body = append(body, u2(p.class(iface))...)
	}

	body = append(body, u2(uint16(len(c.Fields)))...)
	for _, f := range c.Fields {
		body = binary.BigEndian.AppendUint16(body, f.Access)
		body = append(body, u2(p.utf8(f.Name))...)
		body = append(body, u2(p.utf8(f.Desc))...)
		body = append(body, u2(0)...)
	}

	body = append(body, u2(uint16(len(c.Methods)))...)
	for _, m := range c.Methods {
		body = binary.BigEndian.AppendUint16(body, m.Access)
		body = append(body, u2(p.utf8(m.Name))...)
		body = append(body, u2(p.utf8(m.Desc))...)
		if len(m.Code) == 0 {
			body = append(body, u2(0)...)
			continue
		}
		code, err := m.codeAttribute(p)
		if err != nil {
			return nil, fmt.Errorf("method %s%s: %w", m.Name, m.Desc, err)
		}
		body = append(body, u2(1)...)
		body = append(body, code...)
	}

	if c.SourceFile != "" {
		body = append(body, u2(1)...)
		body = appendAttribute(body, p, "SourceFile", u2(p.utf8(c.SourceFile)))
	} else {
		body = append(body, u2(0)...)
	}

	major := c.Major
	if major == 0 {
		major = DefaultMajor
	}
	out := binary.BigEndian.AppendUint32(nil, 0xCAFEBABE)
	out = append(out, u2(0)...)
	out = append(out, u2(major)...)
	out = append(out, p.bytes()...)
	return append(out, body...), nil
}

func appendAttribute(dst []byte, p *pool, name string, data []byte) []byte {
	dst = append(dst, u2(p.utf8(name))...)
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(data)))
	return append(dst, data...)
}

func (m *Method) codeAttribute(p *pool) ([]byte, error) {
	asm, err := assemble(p, m.Code)
	if err != nil {
		return nil, err
	}

	maxLocals := 1
	for _, op := range m.Code {
		if op.kind == opVar || op.kind == opIinc {
			maxLocals = max(maxLocals, op.slot+2)
		}
	}
	for _, l := range m.Locals {
		maxLocals = max(maxLocals, l.Slot+2)
	}

	data := u2(16)
	data = append(data, u2(uint16(maxLocals))...)
	data = binary.BigEndian.AppendUint32(data, uint32(len(asm.code)))
	data = append(data, asm.code...)

	data = append(data, u2(uint16(len(m.Handlers)))...)
	for _, h := range m.Handlers {
		for _, name := range []string{h.Start, h.End, h.Target} {
			pc, ok := asm.labels[name]
			if !ok {
				return nil, fmt.Errorf("handler: unknown label %q", name)
			}
			data = append(data, u2(uint16(pc))...)
		}
		if h.Type == "" {
			data = append(data, u2(0)...)
		} else {
			data = append(data, u2(p.class(h.Type))...)
		}
	}

	var attrs [][]byte
	if len(asm.lines) > 0 {
		t := u2(uint16(len(asm.lines)))
		for _, l := range asm.lines {
			t = append(t, u2(uint16(l[0]))...)
			t = append(t, u2(uint16(l[1]))...)
		}
		attrs = append(attrs, appendAttribute(nil, p, "LineNumberTable", t))
	}
	if len(m.Locals) > 0 {
		t := u2(uint16(len(m.Locals)))
		for _, l := range m.Locals {
			start, end := 0, len(asm.code)
			if l.Start != "" {
				pc, ok := asm.labels[l.Start]
				if !ok {
					return nil, fmt.Errorf("local %s: unknown label %q", l.Name, l.Start)
				}
				start = pc
			}
			if l.End != "" {
				pc, ok := asm.labels[l.End]
				if !ok {
					return nil, fmt.Errorf("local %s: unknown label %q", l.Name, l.End)
				}
				end = pc
			}
			t = append(t, u2(uint16(start))...)
			t = append(t, u2(uint16(end-start))...)
			t = append(t, u2(p.utf8(l.Name))...)
			t = append(t, u2(p.utf8(l.Desc))...)
			t = append(t, u2(uint16(l.Slot))...)
		}
		attrs = append(attrs, appendAttribute(nil, p, "LocalVariableTable", t))
	}
	if len(asm.frames) > 0 {
		attrs = append(attrs, appendAttribute(nil, p, "StackMapTable", stackMap(asm.frames)))
	}

	data = append(data, u2(uint16(len(attrs)))...)
	for _, a := range attrs {
		data = append(data, a...)
	}
	return appendAttribute(nil, p, "Code", data), nil
}

// stackMap encodes one same_frame (or same_frame_extended) per pc.
func stackMap(pcs []int) []byte {
	pcs = slices.Compact(slices.Sorted(slices.Values(pcs)))
	out := u2(uint16(len(pcs)))
	prev := -1
	for _, pc := range pcs {
		delta := pc - prev - 1
		if delta <= 63 {
			out = append(out, byte(delta))
		} else {
			out = append(out, 251)
			out = append(out, u2(uint16(delta))...)
		}
		prev = pc
	}
	return out
}

type assembled struct {
	code   []byte
	labels map[string]int
	lines  [][2]int
	frames []int
}

// assemble lays the ops out in two passes: pcs first, then bytes with
// resolved branch offsets.
func assemble(p *pool, ops []Op) (*assembled, error) {
	a := &assembled{labels: make(map[string]int)}
	pcs := make([]int, len(ops))
	pc := 0
	for i := range ops {
		pcs[i] = pc
		switch ops[i].kind {
		case opLabel:
			if _, dup := a.labels[ops[i].label]; dup {
				return nil, fmt.Errorf("duplicate label %q", ops[i].label)
			}
			a.labels[ops[i].label] = pc
		case opLine:
			a.lines = append(a.lines, [2]int{pc, ops[i].value})
		case opFrame:
			a.frames = append(a.frames, pc)
		}
		pc += ops[i].size(p, pc)
	}

	for i, op := range ops {
		var err error
		if a.code, err = op.encode(p, a.code, pcs[i], a.labels); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// opcode for the short local-variable forms: iload_0 etc.
func shortVarOpcode(op bc.Opcode, slot int) bc.Opcode {
	if op >= bc.OpIload && op <= bc.OpAload {
		return bc.OpIload0 + (op-bc.OpIload)*4 + bc.Opcode(slot)
	}
	return bc.OpIstore0 + (op-bc.OpIstore)*4 + bc.Opcode(slot)
}
