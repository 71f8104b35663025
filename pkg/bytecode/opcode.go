package bytecode

import "fmt"

// Opcode is a JVM instruction opcode. Non-semantic stream markers use OpNone.
type Opcode int16

// OpNone marks instructions that do not come from the code array.
const OpNone Opcode = -1

// JVM opcodes referenced by name. The remaining opcodes are only known by
// their mnemonic in opcodeNames.
const (
	OpNop           Opcode = 0x00
	OpAconstNull    Opcode = 0x01
	OpIconstM1      Opcode = 0x02
	OpIconst0       Opcode = 0x03
	OpDconst1       Opcode = 0x0f
	OpBipush        Opcode = 0x10
	OpSipush        Opcode = 0x11
	OpLdc           Opcode = 0x12
	OpLdcW          Opcode = 0x13
	OpLdc2W         Opcode = 0x14
	OpIload         Opcode = 0x15
	OpLload         Opcode = 0x16
	OpFload         Opcode = 0x17
	OpDload         Opcode = 0x18
	OpAload         Opcode = 0x19
	OpIload0        Opcode = 0x1a
	OpAload3        Opcode = 0x2d
	OpIaload        Opcode = 0x2e
	OpSaload        Opcode = 0x35
	OpIstore        Opcode = 0x36
	OpLstore        Opcode = 0x37
	OpFstore        Opcode = 0x38
	OpDstore        Opcode = 0x39
	OpAstore        Opcode = 0x3a
	OpIstore0       Opcode = 0x3b
	OpAstore3       Opcode = 0x4e
	OpIastore       Opcode = 0x4f
	OpSastore       Opcode = 0x56
	OpPop           Opcode = 0x57
	OpPop2          Opcode = 0x58
	OpDup           Opcode = 0x59
	OpDupX1         Opcode = 0x5a
	OpDupX2         Opcode = 0x5b
	OpDup2          Opcode = 0x5c
	OpDup2X1        Opcode = 0x5d
	OpDup2X2        Opcode = 0x5e
	OpSwap          Opcode = 0x5f
	OpIinc          Opcode = 0x84
	OpIfeq          Opcode = 0x99
	OpIfAcmpne      Opcode = 0xa6
	OpGoto          Opcode = 0xa7
	OpJsr           Opcode = 0xa8
	OpRet           Opcode = 0xa9
	OpTableswitch   Opcode = 0xaa
	OpLookupswitch  Opcode = 0xab
	OpIreturn       Opcode = 0xac
	OpLreturn       Opcode = 0xad
	OpFreturn       Opcode = 0xae
	OpDreturn       Opcode = 0xaf
	OpAreturn       Opcode = 0xb0
	OpReturn        Opcode = 0xb1
	OpGetstatic     Opcode = 0xb2
	OpPutstatic     Opcode = 0xb3
	OpGetfield      Opcode = 0xb4
	OpPutfield      Opcode = 0xb5
	OpInvokevirtual Opcode = 0xb6
	OpInvokespecial Opcode = 0xb7
	OpInvokestatic  Opcode = 0xb8
	OpInvokeiface   Opcode = 0xb9
	OpInvokedynamic Opcode = 0xba
	OpNew           Opcode = 0xbb
	OpNewarray      Opcode = 0xbc
	OpAnewarray     Opcode = 0xbd
	OpArraylength   Opcode = 0xbe
	OpAthrow        Opcode = 0xbf
	OpCheckcast     Opcode = 0xc0
	OpInstanceof    Opcode = 0xc1
	OpMonitorenter  Opcode = 0xc2
	OpMonitorexit   Opcode = 0xc3
	OpWide          Opcode = 0xc4
	OpMultianewarr  Opcode = 0xc5
	OpIfnull        Opcode = 0xc6
	OpIfnonnull     Opcode = 0xc7
	OpGotoW         Opcode = 0xc8
	OpJsrW          Opcode = 0xc9
)

// MaxOpcode is the highest opcode the decoder accepts.
const MaxOpcode = OpJsrW

var opcodeNames = [...]string{
	"nop", "aconst_null", "iconst_m1", "iconst_0", "iconst_1", "iconst_2", "iconst_3", "iconst_4",
	"iconst_5", "lconst_0", "lconst_1", "fconst_0", "fconst_1", "fconst_2", "dconst_0", "dconst_1",
	"bipush", "sipush", "ldc", "ldc_w", "ldc2_w", "iload", "lload", "fload",
	"dload", "aload", "iload_0", "iload_1", "iload_2", "iload_3", "lload_0", "lload_1",
	"lload_2", "lload_3", "fload_0", "fload_1", "fload_2", "fload_3", "dload_0", "dload_1",
	"dload_2", "dload_3", "aload_0", "aload_1", "aload_2", "aload_3", "iaload", "laload",
	"faload", "daload", "aaload", "baload", "caload", "saload", "istore", "lstore",
	"fstore", "dstore", "astore", "istore_0", "istore_1", "istore_2", "istore_3", "lstore_0",
	"lstore_1", "lstore_2", "lstore_3", "fstore_0", "fstore_1", "fstore_2", "fstore_3", "dstore_0",
	"dstore_1", "dstore_2", "dstore_3", "astore_0", "astore_1", "astore_2", "astore_3", "iastore",
	"lastore", "fastore", "dastore", "aastore", "bastore", "castore", "sastore", "pop",
	"pop2", "dup", "dup_x1", "dup_x2", "dup2", "dup2_x1", "dup2_x2", "swap",
	"iadd", "ladd", "fadd", "dadd", "isub", "lsub", "fsub", "dsub",
	"imul", "lmul", "fmul", "dmul", "idiv", "ldiv", "fdiv", "ddiv",
	"irem", "lrem", "frem", "drem", "ineg", "lneg", "fneg", "dneg",
	"ishl", "lshl", "ishr", "lshr", "iushr", "lushr", "iand", "land",
	"ior", "lor", "ixor", "lxor", "iinc", "i2l", "i2f", "i2d",
	"l2i", "l2f", "l2d", "f2i", "f2l", "f2d", "d2i", "d2l",
	"d2f", "i2b", "i2c", "i2s", "lcmp", "fcmpl", "fcmpg", "dcmpl",
	"dcmpg", "ifeq", "ifne", "iflt", "ifge", "ifgt", "ifle", "if_icmpeq",
	"if_icmpne", "if_icmplt", "if_icmpge", "if_icmpgt", "if_icmple", "if_acmpeq", "if_acmpne", "goto",
	"jsr", "ret", "tableswitch", "lookupswitch", "ireturn", "lreturn", "freturn", "dreturn",
	"areturn", "return", "getstatic", "putstatic", "getfield", "putfield", "invokevirtual", "invokespecial",
	"invokestatic", "invokeinterface", "invokedynamic", "new", "newarray", "anewarray", "arraylength", "athrow",
	"checkcast", "instanceof", "monitorenter", "monitorexit", "wide", "multianewarray", "ifnull", "ifnonnull",
	"goto_w", "jsr_w",
}

func (o Opcode) String() string {
	if o >= 0 && int(o) < len(opcodeNames) {
		return opcodeNames[o]
	}
	if o == OpNone {
		return "none"
	}
	return fmt.Sprintf("Opcode(0x%02X)", int(o))
}

// ValueType is the computational type an opcode operates on.
type ValueType uint8

const (
	TypeVoid ValueType = iota
	TypeInt
	TypeLong
	TypeFloat
	TypeDouble
	TypeRef
)

func (v ValueType) String() string {
	switch v {
	case TypeInt:
		return "int"
	case TypeLong:
		return "long"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeRef:
		return "reference"
	default:
		return "void"
	}
}

// loadStoreType maps the i/l/f/d/a ordering shared by load, store and return
// opcode families.
var loadStoreType = [...]ValueType{TypeInt, TypeLong, TypeFloat, TypeDouble, TypeRef}

var opcodesByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeNames))
	for i, name := range opcodeNames {
		m[name] = Opcode(i)
	}
	return m
}()

// OpcodeByName looks up an opcode by its mnemonic, e.g. "invokevirtual".
func OpcodeByName(name string) (Opcode, bool) {
	op, ok := opcodesByName[name]
	return op, ok
}
