// Package bytecode models a decoded JVM method body as a typed instruction
// stream with the bounded scans shared by the detectors.
package bytecode

import (
	"fmt"
	"strings"
)

// Kind tags the variant of an Instruction.
type Kind uint8

const (
	KindLabel Kind = iota
	KindLineMarker
	KindFrameMarker
	KindLoadLocal
	KindStoreLocal
	KindIncLocal
	KindGetField
	KindPutField
	KindGetStatic
	KindPutStatic
	KindInvoke
	KindInvokeDynamic
	KindNew
	KindTypeCheck
	KindJump
	KindConditionalJump
	KindTableSwitch
	KindLookupSwitch
	KindReturn
	KindThrow
	KindStackOp
	KindConstLoad
	KindOther
)

var kindNames = [...]string{
	KindLabel:           "Label",
	KindLineMarker:      "LineMarker",
	KindFrameMarker:     "FrameMarker",
	KindLoadLocal:       "LoadLocal",
	KindStoreLocal:      "StoreLocal",
	KindIncLocal:        "IncLocal",
	KindGetField:        "GetField",
	KindPutField:        "PutField",
	KindGetStatic:       "GetStatic",
	KindPutStatic:       "PutStatic",
	KindInvoke:          "Invoke",
	KindInvokeDynamic:   "InvokeDynamic",
	KindNew:             "New",
	KindTypeCheck:       "TypeCheck",
	KindJump:            "Jump",
	KindConditionalJump: "ConditionalJump",
	KindTableSwitch:     "TableSwitch",
	KindLookupSwitch:    "LookupSwitch",
	KindReturn:          "Return",
	KindThrow:           "Throw",
	KindStackOp:         "StackOp",
	KindConstLoad:       "ConstLoad",
	KindOther:           "Other",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// InvokeKind distinguishes the four method-invocation opcodes.
type InvokeKind uint8

const (
	InvokeVirtual InvokeKind = iota
	InvokeInterface
	InvokeSpecial
	InvokeStatic
)

func (k InvokeKind) String() string {
	switch k {
	case InvokeVirtual:
		return "virtual"
	case InvokeInterface:
		return "interface"
	case InvokeSpecial:
		return "special"
	case InvokeStatic:
		return "static"
	default:
		return fmt.Sprintf("InvokeKind(%d)", k)
	}
}

// Instruction is one element of a Stream. Which operand fields are meaningful
// depends on Kind:
//
//   - LoadLocal, StoreLocal, IncLocal: Slot, Value
//   - GetField, PutField, GetStatic, PutStatic: Owner, Name, Desc
//   - Invoke: Invoke, Owner, Name, Desc
//   - InvokeDynamic: Name, Desc
//   - New, TypeCheck: Owner (the internal name or array descriptor)
//   - Jump, ConditionalJump, TableSwitch, LookupSwitch: Targets
//   - Return: Value
//   - LineMarker: Line
//   - Label: Label
type Instruction struct {
	Kind    Kind
	Op      Opcode
	PC      int
	Slot    int
	Line    int
	Label   int
	Owner   string
	Name    string
	Desc    string
	Invoke  InvokeKind
	Value   ValueType
	Targets []int
}

// IsMarker reports whether the instruction is a Label, LineMarker or
// FrameMarker. Markers carry no semantics and are skipped by every scan.
func (in Instruction) IsMarker() bool {
	return in.Kind == KindLabel || in.Kind == KindLineMarker || in.Kind == KindFrameMarker
}

// IsInvoke reports whether the instruction is a method invocation with an owner.
func (in Instruction) IsInvoke() bool { return in.Kind == KindInvoke }

// IsFieldAccess reports whether the instruction reads or writes a field.
func (in Instruction) IsFieldAccess() bool {
	switch in.Kind {
	case KindGetField, KindPutField, KindGetStatic, KindPutStatic:
		return true
	}
	return false
}

// IsRefLoad reports whether the instruction pushes a reference local.
func (in Instruction) IsRefLoad() bool {
	return in.Kind == KindLoadLocal && in.Value == TypeRef
}

// IsTerminal reports whether control never falls through to the next
// instruction: any return, athrow, or unconditional jump.
func (in Instruction) IsTerminal() bool {
	return in.Kind == KindReturn || in.Kind == KindThrow || in.Kind == KindJump
}

// Matches reports whether a member instruction refers to owner.name:desc.
func (in Instruction) Matches(owner, name, desc string) bool {
	return in.Owner == owner && in.Name == name && in.Desc == desc
}

func (in Instruction) String() string {
	switch in.Kind {
	case KindLabel:
		return fmt.Sprintf("L%d:", in.Label)
	case KindLineMarker:
		return fmt.Sprintf("line %d", in.Line)
	case KindFrameMarker:
		return "frame"
	case KindLoadLocal, KindStoreLocal, KindIncLocal:
		return fmt.Sprintf("%s %d", in.Op, in.Slot)
	case KindGetField, KindPutField, KindGetStatic, KindPutStatic, KindInvoke:
		return fmt.Sprintf("%s %s.%s%s", in.Op, in.Owner, in.Name, in.Desc)
	case KindInvokeDynamic:
		return fmt.Sprintf("%s %s%s", in.Op, in.Name, in.Desc)
	case KindNew, KindTypeCheck:
		return fmt.Sprintf("%s %s", in.Op, in.Owner)
	case KindJump, KindConditionalJump, KindTableSwitch, KindLookupSwitch:
		targets := make([]string, len(in.Targets))
		for i, t := range in.Targets {
			targets[i] = fmt.Sprint(t)
		}
		return fmt.Sprintf("%s -> %s", in.Op, strings.Join(targets, ","))
	default:
		return in.Op.String()
	}
}

// Label returns a label marker with the given id.
func Label(id int) Instruction {
	return Instruction{Kind: KindLabel, Op: OpNone, Label: id}
}

// Line returns a line-number marker.
func Line(line int) Instruction {
	return Instruction{Kind: KindLineMarker, Op: OpNone, Line: line}
}

// Frame returns a stack-map frame marker.
func Frame() Instruction {
	return Instruction{Kind: KindFrameMarker, Op: OpNone}
}

// Load returns the canonical load of a local slot with the given type.
func Load(vt ValueType, slot int) Instruction {
	return Instruction{Kind: KindLoadLocal, Op: OpIload + typeOffset(vt), Slot: slot, Value: vt}
}

// Store returns the canonical store into a local slot with the given type.
func Store(vt ValueType, slot int) Instruction {
	return Instruction{Kind: KindStoreLocal, Op: OpIstore + typeOffset(vt), Slot: slot, Value: vt}
}

// Inc returns an iinc on slot.
func Inc(slot int) Instruction {
	return Instruction{Kind: KindIncLocal, Op: OpIinc, Slot: slot, Value: TypeInt}
}

// GetField returns a getfield instruction.
func GetField(owner, name, desc string) Instruction {
	return Instruction{Kind: KindGetField, Op: OpGetfield, Owner: owner, Name: name, Desc: desc}
}

// PutField returns a putfield instruction.
func PutField(owner, name, desc string) Instruction {
	return Instruction{Kind: KindPutField, Op: OpPutfield, Owner: owner, Name: name, Desc: desc}
}

// GetStatic returns a getstatic instruction.
func GetStatic(owner, name, desc string) Instruction {
	return Instruction{Kind: KindGetStatic, Op: OpGetstatic, Owner: owner, Name: name, Desc: desc}
}

// PutStatic returns a putstatic instruction.
func PutStatic(owner, name, desc string) Instruction {
	return Instruction{Kind: KindPutStatic, Op: OpPutstatic, Owner: owner, Name: name, Desc: desc}
}

// Call returns an invoke instruction of the given kind.
func Call(kind InvokeKind, owner, name, desc string) Instruction {
	return Instruction{Kind: KindInvoke, Op: invokeOpcode(kind), Invoke: kind, Owner: owner, Name: name, Desc: desc}
}

// NewObject returns a new instruction for an internal class name.
func NewObject(owner string) Instruction {
	return Instruction{Kind: KindNew, Op: OpNew, Owner: owner}
}

// Return returns the return instruction for a value type.
func Return(vt ValueType) Instruction {
	op := OpReturn
	if vt != TypeVoid {
		op = OpIreturn + typeOffset(vt)
	}
	return Instruction{Kind: KindReturn, Op: op, Value: vt}
}

// Throw returns an athrow instruction.
func Throw() Instruction {
	return Instruction{Kind: KindThrow, Op: OpAthrow}
}

// Goto returns an unconditional jump to target.
func Goto(target int) Instruction {
	return Instruction{Kind: KindJump, Op: OpGoto, Targets: []int{target}}
}

// If returns a conditional jump with the given opcode.
func If(op Opcode, target int) Instruction {
	return Instruction{Kind: KindConditionalJump, Op: op, Targets: []int{target}}
}

// Const returns a constant push with the given opcode.
func Const(op Opcode) Instruction {
	return Instruction{Kind: KindConstLoad, Op: op}
}

// Stack returns a stack-manipulation instruction (pop, dup, swap variants).
func Stack(op Opcode) Instruction {
	return Instruction{Kind: KindStackOp, Op: op}
}

// Plain returns an instruction without operands of kind Other.
func Plain(op Opcode) Instruction {
	return Instruction{Kind: KindOther, Op: op}
}

func typeOffset(vt ValueType) Opcode {
	for i, t := range loadStoreType {
		if t == vt {
			return Opcode(i)
		}
	}
	return 0
}

func invokeOpcode(kind InvokeKind) Opcode {
	switch kind {
	case InvokeInterface:
		return OpInvokeiface
	case InvokeSpecial:
		return OpInvokespecial
	case InvokeStatic:
		return OpInvokestatic
	default:
		return OpInvokevirtual
	}
}
