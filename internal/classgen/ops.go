package classgen

import (
	"encoding/binary"
	"fmt"

	bc "github.com/715d/classlint/pkg/bytecode"
)

type opKind uint8

const (
	opInsn opKind = iota
	opLabel
	opLine
	opFrame
	opVar
	opIinc
	opInt
	opLdcString
	opLdcLong
	opField
	opInvoke
	opIndy
	opType
	opNewArray
	opMultiANewArray
	opJump
	opTableSwitch
	opLookupSwitch
)

// Op is one assembler step: an instruction or a pseudo-op (label, line
// number, stack map frame).
type Op struct {
	kind   opKind
	opcode bc.Opcode
	slot   int
	value  int
	long   int64
	owner  string
	name   string
	desc   string
	str    string
	label  string
	labels []string
	keys   []int
}

// Insn is an operand-less instruction such as return, athrow, dup or iadd.
func Insn(op bc.Opcode) Op { return Op{kind: opInsn, opcode: op} }

// Label marks the position of the next instruction.
func Label(name string) Op { return Op{kind: opLabel, label: name} }

// Line starts source line n at the next instruction.
func Line(n int) Op { return Op{kind: opLine, value: n} }

// Frame records a stack map frame at the next instruction.
func Frame() Op { return Op{kind: opFrame} }

// Var is a load or store (iload..aload, istore..astore) of slot.
func Var(op bc.Opcode, slot int) Op { return Op{kind: opVar, opcode: op, slot: slot} }

// Iinc increments int slot by delta.
func Iinc(slot, delta int) Op { return Op{kind: opIinc, opcode: bc.OpIinc, slot: slot, value: delta} }

// Int pushes an int constant using the shortest encoding.
func Int(v int) Op { return Op{kind: opInt, value: v} }

// Ldc pushes a string constant.
func Ldc(s string) Op { return Op{kind: opLdcString, opcode: bc.OpLdc, str: s} }

// Ldc2 pushes a long constant.
func Ldc2(v int64) Op { return Op{kind: opLdcLong, opcode: bc.OpLdc2W, long: v} }

// FieldInsn is getfield, putfield, getstatic or putstatic.
func FieldInsn(op bc.Opcode, owner, name, desc string) Op {
	return Op{kind: opField, opcode: op, owner: owner, name: name, desc: desc}
}

// Invoke is invokevirtual, invokespecial, invokestatic or invokeinterface.
func Invoke(op bc.Opcode, owner, name, desc string) Op {
	return Op{kind: opInvoke, opcode: op, owner: owner, name: name, desc: desc}
}

// InvokeDynamic emits an invokedynamic call site.
func InvokeDynamic(name, desc string) Op {
	return Op{kind: opIndy, opcode: bc.OpInvokedynamic, name: name, desc: desc}
}

// TypeInsn is new, anewarray, checkcast or instanceof.
func TypeInsn(op bc.Opcode, class string) Op { return Op{kind: opType, opcode: op, owner: class} }

// NewArray creates a primitive array; atype follows the JVM encoding (10 = int).
func NewArray(atype int) Op { return Op{kind: opNewArray, opcode: bc.OpNewarray, value: atype} }

// MultiANewArray creates a multi-dimensional array.
func MultiANewArray(desc string, dims int) Op {
	return Op{kind: opMultiANewArray, opcode: bc.OpMultianewarr, owner: desc, value: dims}
}

// Jump is goto, an if* branch, ifnull or ifnonnull to label.
func Jump(op bc.Opcode, label string) Op { return Op{kind: opJump, opcode: op, label: label} }

// TableSwitch jumps to targets[v-low], or def.
func TableSwitch(low int, def string, targets ...string) Op {
	return Op{kind: opTableSwitch, opcode: bc.OpTableswitch, value: low, labels: append([]string{def}, targets...)}
}

// LookupSwitch jumps to the target paired with the key, or def.
func LookupSwitch(def string, keys []int, targets ...string) Op {
	return Op{kind: opLookupSwitch, opcode: bc.OpLookupswitch, keys: keys, labels: append([]string{def}, targets...)}
}

func (o Op) wideVar() bool { return o.slot > 255 }

func (o Op) size(p *pool, pc int) int {
	switch o.kind {
	case opLabel, opLine, opFrame:
		return 0
	case opInsn:
		return 1
	case opVar:
		switch {
		case o.slot <= 3:
			return 1
		case o.wideVar():
			return 4
		}
		return 2
	case opIinc:
		if o.wideVar() || o.value < -128 || o.value > 127 {
			return 6
		}
		return 3
	case opInt:
		switch {
		case o.value >= -1 && o.value <= 5:
			return 1
		case o.value >= -128 && o.value <= 127:
			return 2
		case o.value >= -32768 && o.value <= 32767:
			return 3
		}
		if p.integer(int32(o.value)) <= 255 {
			return 2
		}
		return 3
	case opLdcString:
		if p.string(o.str) <= 255 {
			return 2
		}
		return 3
	case opLdcLong:
		p.long(o.long)
		return 3
	case opField, opType, opJump:
		return 3
	case opInvoke:
		if o.opcode == bc.OpInvokeiface {
			return 5
		}
		return 3
	case opIndy:
		return 5
	case opNewArray:
		return 2
	case opMultiANewArray:
		return 4
	case opTableSwitch:
		return 1 + pad(pc) + 12 + 4*(len(o.labels)-1)
	case opLookupSwitch:
		return 1 + pad(pc) + 8 + 8*(len(o.labels)-1)
	}
	return 0
}

func pad(pc int) int { return (4 - (pc+1)%4) % 4 }

func (o Op) encode(p *pool, dst []byte, pc int, labels map[string]int) ([]byte, error) {
	target := func(name string) (int, error) {
		t, ok := labels[name]
		if !ok {
			return 0, fmt.Errorf("unknown label %q", name)
		}
		return t - pc, nil
	}

	switch o.kind {
	case opLabel, opLine, opFrame:
		return dst, nil
	case opInsn:
		return append(dst, byte(o.opcode)), nil
	case opVar:
		switch {
		case o.slot <= 3:
			return append(dst, byte(shortVarOpcode(o.opcode, o.slot))), nil
		case o.wideVar():
			dst = append(dst, byte(bc.OpWide), byte(o.opcode))
			return append(dst, u2(uint16(o.slot))...), nil
		}
		return append(dst, byte(o.opcode), byte(o.slot)), nil
	case opIinc:
		if o.wideVar() || o.value < -128 || o.value > 127 {
			dst = append(dst, byte(bc.OpWide), byte(bc.OpIinc))
			dst = append(dst, u2(uint16(o.slot))...)
			return append(dst, u2(uint16(int16(o.value)))...), nil
		}
		return append(dst, byte(bc.OpIinc), byte(o.slot), byte(int8(o.value))), nil
	case opInt:
		switch {
		case o.value >= -1 && o.value <= 5:
			return append(dst, byte(bc.OpIconstM1+bc.Opcode(o.value+1))), nil
		case o.value >= -128 && o.value <= 127:
			return append(dst, byte(bc.OpBipush), byte(int8(o.value))), nil
		case o.value >= -32768 && o.value <= 32767:
			dst = append(dst, byte(bc.OpSipush))
			return append(dst, u2(uint16(int16(o.value)))...), nil
		}
		return ldc(dst, p.integer(int32(o.value))), nil
	case opLdcString:
		return ldc(dst, p.string(o.str)), nil
	case opLdcLong:
		dst = append(dst, byte(bc.OpLdc2W))
		return append(dst, u2(p.long(o.long))...), nil
	case opField:
		dst = append(dst, byte(o.opcode))
		return append(dst, u2(p.member(9, o.owner, o.name, o.desc))...), nil
	case opInvoke:
		dst = append(dst, byte(o.opcode))
		if o.opcode == bc.OpInvokeiface {
			dst = append(dst, u2(p.member(11, o.owner, o.name, o.desc))...)
			return append(dst, byte(argSlots(o.desc)+1), 0), nil
		}
		return append(dst, u2(p.member(10, o.owner, o.name, o.desc))...), nil
	case opIndy:
		dst = append(dst, byte(bc.OpInvokedynamic))
		dst = append(dst, u2(p.invokeDynamic(o.name, o.desc))...)
		return append(dst, 0, 0), nil
	case opType:
		dst = append(dst, byte(o.opcode))
		return append(dst, u2(p.class(o.owner))...), nil
	case opNewArray:
		return append(dst, byte(bc.OpNewarray), byte(o.value)), nil
	case opMultiANewArray:
		dst = append(dst, byte(bc.OpMultianewarr))
		dst = append(dst, u2(p.class(o.owner))...)
		return append(dst, byte(o.value)), nil
	case opJump:
		off, err := target(o.label)
		if err != nil {
			return nil, err
		}
		dst = append(dst, byte(o.opcode))
		return append(dst, u2(uint16(int16(off)))...), nil
	case opTableSwitch, opLookupSwitch:
		dst = append(dst, byte(o.opcode))
		dst = append(dst, make([]byte, pad(pc))...)
		offs := make([]int, len(o.labels))
		for i, l := range o.labels {
			off, err := target(l)
			if err != nil {
				return nil, err
			}
			offs[i] = off
		}
		dst = binary.BigEndian.AppendUint32(dst, uint32(int32(offs[0])))
		if o.kind == opTableSwitch {
			dst = binary.BigEndian.AppendUint32(dst, uint32(int32(o.value)))
			dst = binary.BigEndian.AppendUint32(dst, uint32(int32(o.value+len(offs)-2)))
			for _, off := range offs[1:] {
				dst = binary.BigEndian.AppendUint32(dst, uint32(int32(off)))
			}
			return dst, nil
		}
		if len(o.keys) != len(offs)-1 {
			return nil, fmt.Errorf("lookupswitch: %d keys for %d targets", len(o.keys), len(offs)-1)
		}
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(o.keys)))
		for i, k := range o.keys {
			dst = binary.BigEndian.AppendUint32(dst, uint32(int32(k)))
			dst = binary.BigEndian.AppendUint32(dst, uint32(int32(offs[i+1])))
		}
		return dst, nil
	}
	return nil, fmt.Errorf("unknown op kind %d", o.kind)
}

func ldc(dst []byte, idx uint16) []byte {
	if idx <= 255 {
		return append(dst, byte(bc.OpLdc), byte(idx))
	}
	dst = append(dst, byte(bc.OpLdcW))
	return append(dst, u2(idx)...)
}

// argSlots counts the argument slots of a method descriptor for the
// invokeinterface count operand.
func argSlots(desc string) int {
	n := 0
	for i := 1; i < len(desc) && desc[i] != ')'; i++ {
		switch desc[i] {
		case 'J', 'D':
			n += 2
		case 'L':
			for i < len(desc) && desc[i] != ';' {
				i++
			}
			n++
		case '[':
			for i < len(desc) && desc[i] == '[' {
				i++
			}
			if desc[i] == 'L' {
				for i < len(desc) && desc[i] != ';' {
					i++
				}
			}
			n++
		default:
			n++
		}
	}
	return n
}
