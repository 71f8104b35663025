package classgen

import (
	"fmt"
	"strconv"
	"strings"

	bc "github.com/715d/classlint/pkg/bytecode"
)

// Assemble parses a textual method body, one instruction per line:
//
//	L0:
//	line 12
//	aload 0
//	getfield com/example/Foo strategy Lcom/example/Strategy;
//	invokeinterface com/example/Strategy apply ()V
//	goto L0
//	return
//
// Pseudo-ops: "Name:" defines a label, "line N" starts a source line,
// "frame" records a stack map frame, "int N" pushes an int constant.
// Comments start with "#".
func Assemble(src string) ([]Op, error) {
	var ops []Op
	for n, raw := range strings.Split(src, "\n") {
		line := raw
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		op, err := parseOp(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d %q: %w", n+1, strings.TrimSpace(raw), err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// MustAssemble is Assemble for fixed inputs; it panics on error.
func MustAssemble(src string) []Op {
	ops, err := Assemble(src)
	if err != nil {
		panic(err)
	}
	return ops
}

func parseOp(f []string) (Op, error) {
	head := f[0]
	args := f[1:]
	if len(f) == 1 && strings.HasSuffix(head, ":") {
		return Label(strings.TrimSuffix(head, ":")), nil
	}

	want := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("%s takes %d operands, got %d", head, n, len(args))
		}
		return nil
	}
	atoi := func(s string) (int, error) {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("%s: bad number %q", head, s)
		}
		return v, nil
	}

	switch head {
	case "line":
		if err := want(1); err != nil {
			return Op{}, err
		}
		n, err := atoi(args[0])
		return Line(n), err
	case "frame":
		return Frame(), want(0)
	case "int":
		if err := want(1); err != nil {
			return Op{}, err
		}
		n, err := atoi(args[0])
		return Int(n), err
	case "ldc", "ldc_w":
		rest := strings.Join(args, " ")
		if s, err := strconv.Unquote(rest); err == nil {
			return Ldc(s), nil
		}
		n, err := atoi(rest)
		return Int(n), err
	case "ldc2_w":
		if err := want(1); err != nil {
			return Op{}, err
		}
		v, err := strconv.ParseInt(args[0], 10, 64)
		return Ldc2(v), err
	}

	op, ok := bc.OpcodeByName(head)
	if !ok {
		return Op{}, fmt.Errorf("unknown mnemonic %q", head)
	}
	switch {
	case op >= bc.OpIload && op <= bc.OpAload, op >= bc.OpIstore && op <= bc.OpAstore:
		if err := want(1); err != nil {
			return Op{}, err
		}
		n, err := atoi(args[0])
		return Var(op, n), err
	case op >= bc.OpIload0 && op <= bc.OpAload3:
		n := int(op - bc.OpIload0)
		return Var(bc.OpIload+bc.Opcode(n/4), n%4), want(0)
	case op >= bc.OpIstore0 && op <= bc.OpAstore3:
		n := int(op - bc.OpIstore0)
		return Var(bc.OpIstore+bc.Opcode(n/4), n%4), want(0)
	case op == bc.OpIinc:
		if err := want(2); err != nil {
			return Op{}, err
		}
		slot, err := atoi(args[0])
		if err != nil {
			return Op{}, err
		}
		delta, err := atoi(args[1])
		return Iinc(slot, delta), err
	case op == bc.OpBipush || op == bc.OpSipush:
		if err := want(1); err != nil {
			return Op{}, err
		}
		n, err := atoi(args[0])
		return Int(n), err
	case op >= bc.OpGetstatic && op <= bc.OpPutfield:
		return FieldInsn(op, arg(args, 0), arg(args, 1), arg(args, 2)), want(3)
	case op >= bc.OpInvokevirtual && op <= bc.OpInvokeiface:
		return Invoke(op, arg(args, 0), arg(args, 1), arg(args, 2)), want(3)
	case op == bc.OpInvokedynamic:
		return InvokeDynamic(arg(args, 0), arg(args, 1)), want(2)
	case op == bc.OpNew || op == bc.OpAnewarray || op == bc.OpCheckcast || op == bc.OpInstanceof:
		return TypeInsn(op, arg(args, 0)), want(1)
	case op == bc.OpNewarray:
		if err := want(1); err != nil {
			return Op{}, err
		}
		n, err := atoi(args[0])
		return NewArray(n), err
	case op == bc.OpMultianewarr:
		if err := want(2); err != nil {
			return Op{}, err
		}
		n, err := atoi(args[1])
		return MultiANewArray(args[0], n), err
	case op >= bc.OpIfeq && op <= bc.OpGoto, op == bc.OpIfnull, op == bc.OpIfnonnull:
		return Jump(op, arg(args, 0)), want(1)
	case op == bc.OpTableswitch:
		if len(args) < 3 {
			return Op{}, fmt.Errorf("tableswitch needs low, default and at least one target")
		}
		low, err := atoi(args[0])
		return TableSwitch(low, args[1], args[2:]...), err
	case op == bc.OpLookupswitch:
		if len(args) < 1 {
			return Op{}, fmt.Errorf("lookupswitch needs a default target")
		}
		var keys []int
		var targets []string
		for _, pair := range args[1:] {
			k, l, ok := strings.Cut(pair, ":")
			if !ok {
				return Op{}, fmt.Errorf("lookupswitch pair %q is not key:label", pair)
			}
			n, err := atoi(k)
			if err != nil {
				return Op{}, err
			}
			keys = append(keys, n)
			targets = append(targets, l)
		}
		return LookupSwitch(args[0], keys, targets...), nil
	case op == bc.OpWide || op == bc.OpJsr || op == bc.OpRet || op == bc.OpGotoW || op == bc.OpJsrW:
		return Op{}, fmt.Errorf("%s is not supported by the assembler", head)
	}
	return Insn(op), want(0)
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
