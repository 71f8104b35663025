package classfile

import (
	bc "github.com/715d/classlint/pkg/bytecode"
)

// decodeInstructions turns a code array into typed instructions. Local
// variable opcodes are normalized the way ASM does: aload_1 and wide aload
// both become aload with Slot 1.
func (p *parser) decodeInstructions(code []byte) ([]rawInsn, error) {
	r := newReader(code)
	var out []rawInsn
	for r.remaining() > 0 {
		pc := r.pos
		b, _ := r.readU1("opcode")
		op := bc.Opcode(b)
		ins, err := p.decodeOne(r, pc, op)
		if err != nil {
			return nil, err
		}
		ins.Op = normalize(ins)
		ins.PC = pc
		out = append(out, rawInsn{pc: pc, ins: ins})
	}
	return out, nil
}

func (p *parser) decodeOne(r *reader, pc int, op bc.Opcode) (bc.Instruction, error) {
	ins := bc.Instruction{Op: op}
	switch {
	case op == bc.OpNop:
		ins.Kind = bc.KindOther
	case op >= bc.OpAconstNull && op <= bc.OpDconst1:
		ins.Kind = bc.KindConstLoad
	case op == bc.OpBipush:
		ins.Kind = bc.KindConstLoad
		return ins, r.skip(1, "bipush operand")
	case op == bc.OpSipush:
		ins.Kind = bc.KindConstLoad
		return ins, r.skip(2, "sipush operand")
	case op == bc.OpLdc:
		ins.Kind = bc.KindConstLoad
		idx, err := r.readU1("ldc index")
		if err != nil {
			return ins, err
		}
		return ins, p.checkLoadable(uint16(idx))
	case op == bc.OpLdcW || op == bc.OpLdc2W:
		ins.Kind = bc.KindConstLoad
		idx, err := r.readU2("ldc index")
		if err != nil {
			return ins, err
		}
		return ins, p.checkLoadable(idx)
	case op >= bc.OpIload && op <= bc.OpAload:
		ins.Kind = bc.KindLoadLocal
		ins.Value = localType(int(op - bc.OpIload))
		slot, err := r.readU1("local index")
		ins.Slot = int(slot)
		return ins, err
	case op >= bc.OpIload0 && op <= bc.OpAload3:
		ins.Kind = bc.KindLoadLocal
		n := int(op - bc.OpIload0)
		ins.Value, ins.Slot = localType(n/4), n%4
	case op >= bc.OpIaload && op <= bc.OpSaload:
		ins.Kind = bc.KindOther
	case op >= bc.OpIstore && op <= bc.OpAstore:
		ins.Kind = bc.KindStoreLocal
		ins.Value = localType(int(op - bc.OpIstore))
		slot, err := r.readU1("local index")
		ins.Slot = int(slot)
		return ins, err
	case op >= bc.OpIstore0 && op <= bc.OpAstore3:
		ins.Kind = bc.KindStoreLocal
		n := int(op - bc.OpIstore0)
		ins.Value, ins.Slot = localType(n/4), n%4
	case op >= bc.OpIastore && op <= bc.OpSastore:
		ins.Kind = bc.KindOther
	case op >= bc.OpPop && op <= bc.OpSwap:
		ins.Kind = bc.KindStackOp
	case op == bc.OpIinc:
		ins.Kind = bc.KindIncLocal
		ins.Value = bc.TypeInt
		slot, err := r.readU1("iinc index")
		if err != nil {
			return ins, err
		}
		ins.Slot = int(slot)
		return ins, r.skip(1, "iinc const")
	case op >= bc.OpIfeq && op <= bc.OpIfAcmpne, op == bc.OpIfnull, op == bc.OpIfnonnull:
		ins.Kind = bc.KindConditionalJump
		return ins, branch16(r, pc, &ins)
	case op == bc.OpGoto:
		ins.Kind = bc.KindJump
		return ins, branch16(r, pc, &ins)
	case op == bc.OpGotoW:
		ins.Kind = bc.KindJump
		return ins, branch32(r, pc, &ins)
	case op == bc.OpJsr:
		ins.Kind = bc.KindOther
		return ins, branch16(r, pc, &ins)
	case op == bc.OpJsrW:
		ins.Kind = bc.KindOther
		return ins, branch32(r, pc, &ins)
	case op == bc.OpRet:
		ins.Kind = bc.KindOther
		return ins, r.skip(1, "ret index")
	case op == bc.OpTableswitch:
		ins.Kind = bc.KindTableSwitch
		return ins, tableSwitch(r, pc, &ins)
	case op == bc.OpLookupswitch:
		ins.Kind = bc.KindLookupSwitch
		return ins, lookupSwitch(r, pc, &ins)
	case op >= bc.OpIreturn && op <= bc.OpAreturn:
		ins.Kind = bc.KindReturn
		ins.Value = localType(int(op - bc.OpIreturn))
	case op == bc.OpReturn:
		ins.Kind = bc.KindReturn
		ins.Value = bc.TypeVoid
	case op >= bc.OpGetstatic && op <= bc.OpPutfield:
		ins.Kind = [...]bc.Kind{bc.KindGetStatic, bc.KindPutStatic, bc.KindGetField, bc.KindPutField}[op-bc.OpGetstatic]
		return ins, p.memberOperand(r, &ins, tagFieldref)
	case op == bc.OpInvokevirtual:
		ins.Kind, ins.Invoke = bc.KindInvoke, bc.InvokeVirtual
		return ins, p.memberOperand(r, &ins, tagMethodref)
	case op == bc.OpInvokespecial || op == bc.OpInvokestatic:
		ins.Kind, ins.Invoke = bc.KindInvoke, bc.InvokeSpecial
		if op == bc.OpInvokestatic {
			ins.Invoke = bc.InvokeStatic
		}
		return ins, p.memberOperand(r, &ins, tagMethodref, tagInterfaceMethodref)
	case op == bc.OpInvokeiface:
		ins.Kind, ins.Invoke = bc.KindInvoke, bc.InvokeInterface
		if err := p.memberOperand(r, &ins, tagInterfaceMethodref); err != nil {
			return ins, err
		}
		return ins, r.skip(2, "invokeinterface count")
	case op == bc.OpInvokedynamic:
		ins.Kind = bc.KindInvokeDynamic
		idx, err := r.readU2("invokedynamic index")
		if err != nil {
			return ins, err
		}
		e, err := p.pool.entry(idx, tagInvokeDynamic)
		if err != nil {
			return ins, err
		}
		if ins.Name, ins.Desc, err = p.pool.nameAndType(e.b); err != nil {
			return ins, err
		}
		return ins, r.skip(2, "invokedynamic padding")
	case op == bc.OpNew:
		ins.Kind = bc.KindNew
		return ins, p.classOperand(r, &ins)
	case op == bc.OpNewarray:
		ins.Kind = bc.KindOther
		return ins, r.skip(1, "newarray type")
	case op == bc.OpAnewarray || op == bc.OpCheckcast || op == bc.OpInstanceof:
		ins.Kind = bc.KindTypeCheck
		return ins, p.classOperand(r, &ins)
	case op == bc.OpArraylength || op == bc.OpMonitorenter || op == bc.OpMonitorexit:
		ins.Kind = bc.KindOther
	case op == bc.OpAthrow:
		ins.Kind = bc.KindThrow
	case op == bc.OpWide:
		return p.decodeWide(r, pc)
	case op == bc.OpMultianewarr:
		ins.Kind = bc.KindTypeCheck
		if err := p.classOperand(r, &ins); err != nil {
			return ins, err
		}
		return ins, r.skip(1, "multianewarray dimensions")
	case op > bc.OpSaload && op < bc.OpIfeq:
		// arithmetic, conversions and comparisons
		ins.Kind = bc.KindOther
	default:
		return ins, malformed(pc, "invalid opcode 0x%02X", int(op))
	}
	return ins, nil
}

func (p *parser) decodeWide(r *reader, pc int) (bc.Instruction, error) {
	b, err := r.readU1("wide opcode")
	if err != nil {
		return bc.Instruction{}, err
	}
	op := bc.Opcode(b)
	ins := bc.Instruction{Op: op}
	slot, err := r.readU2("wide local index")
	if err != nil {
		return ins, err
	}
	ins.Slot = int(slot)
	switch {
	case op >= bc.OpIload && op <= bc.OpAload:
		ins.Kind, ins.Value = bc.KindLoadLocal, localType(int(op-bc.OpIload))
	case op >= bc.OpIstore && op <= bc.OpAstore:
		ins.Kind, ins.Value = bc.KindStoreLocal, localType(int(op-bc.OpIstore))
	case op == bc.OpRet:
		ins.Kind = bc.KindOther
	case op == bc.OpIinc:
		ins.Kind, ins.Value = bc.KindIncLocal, bc.TypeInt
		return ins, r.skip(2, "wide iinc const")
	default:
		return ins, malformed(pc, "invalid wide opcode 0x%02X", int(op))
	}
	return ins, nil
}

func (p *parser) memberOperand(r *reader, ins *bc.Instruction, tags ...uint8) error {
	idx, err := r.readU2("member index")
	if err != nil {
		return err
	}
	ins.Owner, ins.Name, ins.Desc, err = p.pool.memberRef(idx, tags...)
	return err
}

func (p *parser) classOperand(r *reader, ins *bc.Instruction) error {
	idx, err := r.readU2("class index")
	if err != nil {
		return err
	}
	ins.Owner, err = p.pool.className(idx)
	return err
}

func (p *parser) checkLoadable(idx uint16) error {
	_, err := p.pool.entry(idx, tagInteger, tagFloat, tagLong, tagDouble, tagClass,
		tagString, tagMethodHandle, tagMethodType, tagDynamic)
	return err
}

func branch16(r *reader, pc int, ins *bc.Instruction) error {
	off, err := r.readU2("branch offset")
	if err != nil {
		return err
	}
	ins.Targets = []int{pc + int(int16(off))}
	return nil
}

func branch32(r *reader, pc int, ins *bc.Instruction) error {
	off, err := r.readS4("branch offset")
	if err != nil {
		return err
	}
	ins.Targets = []int{pc + int(off)}
	return nil
}

// switchPadding skips the 0-3 bytes that align switch operands to a multiple
// of four from the start of the code array.
func switchPadding(r *reader) error {
	return r.skip((4-r.pos%4)%4, "switch padding")
}

// tableSwitch records the default target first, then each case target.
func tableSwitch(r *reader, pc int, ins *bc.Instruction) error {
	if err := switchPadding(r); err != nil {
		return err
	}
	var v [3]int32
	for i := range v {
		var err error
		if v[i], err = r.readS4("tableswitch operand"); err != nil {
			return err
		}
	}
	def, low, high := v[0], v[1], v[2]
	if low > high {
		return malformed(pc, "tableswitch low %d > high %d", low, high)
	}
	n := int64(high) - int64(low) + 1
	if n*4 > int64(r.remaining()) {
		return malformed(pc, "tableswitch with %d cases exceeds code", n)
	}
	ins.Targets = make([]int, 0, n+1)
	ins.Targets = append(ins.Targets, pc+int(def))
	for range n {
		off, err := r.readS4("tableswitch offset")
		if err != nil {
			return err
		}
		ins.Targets = append(ins.Targets, pc+int(off))
	}
	return nil
}

// lookupSwitch records the default target first, then each pair's target.
func lookupSwitch(r *reader, pc int, ins *bc.Instruction) error {
	if err := switchPadding(r); err != nil {
		return err
	}
	def, err := r.readS4("lookupswitch default")
	if err != nil {
		return err
	}
	n, err := r.readS4("lookupswitch npairs")
	if err != nil {
		return err
	}
	if n < 0 || int64(n)*8 > int64(r.remaining()) {
		return malformed(pc, "invalid lookupswitch npairs %d", n)
	}
	ins.Targets = make([]int, 0, n+1)
	ins.Targets = append(ins.Targets, pc+int(def))
	for range n {
		if err := r.skip(4, "lookupswitch match"); err != nil {
			return err
		}
		off, err := r.readS4("lookupswitch offset")
		if err != nil {
			return err
		}
		ins.Targets = append(ins.Targets, pc+int(off))
	}
	return nil
}

func localType(i int) bc.ValueType {
	return [...]bc.ValueType{bc.TypeInt, bc.TypeLong, bc.TypeFloat, bc.TypeDouble, bc.TypeRef}[i]
}

// normalize maps the short and wide local-variable forms to the one-byte
// index form.
func normalize(ins bc.Instruction) bc.Opcode {
	switch ins.Kind {
	case bc.KindLoadLocal:
		return bc.Load(ins.Value, ins.Slot).Op
	case bc.KindStoreLocal:
		return bc.Store(ins.Value, ins.Slot).Op
	}
	return ins.Op
}
