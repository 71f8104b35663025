package classfile

import (
	"slices"

	"github.com/715d/classlint/pkg/bytecode"
)

// codeBody is the decoded payload of a Code attribute.
type codeBody struct {
	stream     bytecode.Stream
	localNames map[int]string
}

type exceptionEntry struct {
	start, end, handler int
}

type lineEntry struct {
	pc, line int
}

type localEntry struct {
	start, end int
	slot       int
	name       string
}

// rawInsn is an instruction with its pc before markers are interleaved.
type rawInsn struct {
	pc  int
	ins bytecode.Instruction
}

func (p *parser) readCode(data []byte) (*codeBody, error) {
	r := newReader(data)
	if err := r.skip(4, "max_stack/max_locals"); err != nil {
		return nil, err
	}
	codeLen, err := r.readU4("code_length")
	if err != nil {
		return nil, err
	}
	if codeLen == 0 || codeLen >= 65536 {
		return nil, malformed(r.pos-4, "invalid code_length %d", codeLen)
	}
	code, err := r.readNBytes(int(codeLen), "code")
	if err != nil {
		return nil, err
	}

	insns, err := p.decodeInstructions(code)
	if err != nil {
		return nil, err
	}
	starts := make(map[int]bool, len(insns)+1)
	for _, ri := range insns {
		starts[ri.pc] = true
	}
	starts[len(code)] = true

	labels := make(map[int]bool)
	for _, ri := range insns {
		for _, t := range ri.ins.Targets {
			if t < 0 || t >= len(code) || !starts[t] {
				return nil, malformed(-1, "branch target %d at pc %d is not an instruction", t, ri.pc)
			}
			labels[t] = true
		}
	}

	excCount, err := r.readU2("exception_table_length")
	if err != nil {
		return nil, err
	}
	for range excCount {
		var e exceptionEntry
		var v [4]uint16
		for i := range v {
			if v[i], err = r.readU2("exception_table entry"); err != nil {
				return nil, err
			}
		}
		e.start, e.end, e.handler = int(v[0]), int(v[1]), int(v[2])
		if !starts[e.start] || !starts[e.end] || e.handler >= len(code) || !starts[e.handler] || e.start >= e.end {
			return nil, malformed(-1, "invalid exception handler range [%d,%d) -> %d", e.start, e.end, e.handler)
		}
		if v[3] != 0 {
			if _, err := p.pool.className(v[3]); err != nil {
				return nil, err
			}
		}
		labels[e.start], labels[e.end], labels[e.handler] = true, true, true
	}

	var lines []lineEntry
	var locals []localEntry
	frames := make(map[int]bool)
	attrCount, err := r.readU2("code attributes_count")
	if err != nil {
		return nil, err
	}
	for range attrCount {
		name, body, err := p.readAttribute(r)
		if err != nil {
			return nil, err
		}
		switch name {
		case "LineNumberTable":
			ls, err := readLineNumbers(body)
			if err != nil {
				return nil, err
			}
			lines = append(lines, ls...)
		case "LocalVariableTable":
			lv, err := p.readLocalVariables(body)
			if err != nil {
				return nil, err
			}
			locals = append(locals, lv...)
		case "StackMapTable":
			if err := readFramePCs(body, frames); err != nil {
				return nil, err
			}
		}
	}

	// Debug tables that point outside the code are dropped rather than
	// rejected; they do not affect decodability.
	lines = slices.DeleteFunc(lines, func(l lineEntry) bool { return !starts[l.pc] || l.pc == len(code) })
	for _, l := range lines {
		labels[l.pc] = true
	}
	var localNames map[int]string
	for _, lv := range locals {
		if !starts[lv.start] || !starts[lv.end] {
			continue
		}
		labels[lv.start], labels[lv.end] = true, true
		if localNames == nil {
			localNames = make(map[int]string)
		}
		localNames[lv.slot] = lv.name
	}

	return &codeBody{
		stream:     materialize(insns, len(code), labels, lines, frames),
		localNames: localNames,
	}, nil
}

// materialize interleaves Label, LineMarker and FrameMarker entries with the
// decoded instructions. Order at one pc: label, lines, frame, instruction.
func materialize(insns []rawInsn, codeLen int, labels map[int]bool, lines []lineEntry, frames map[int]bool) bytecode.Stream {
	labelPCs := make([]int, 0, len(labels))
	for pc := range labels {
		labelPCs = append(labelPCs, pc)
	}
	slices.Sort(labelPCs)
	labelID := make(map[int]int, len(labelPCs))
	for i, pc := range labelPCs {
		labelID[pc] = i
	}
	linesAt := make(map[int][]int, len(lines))
	for _, l := range lines {
		linesAt[l.pc] = append(linesAt[l.pc], l.line)
	}

	out := make([]bytecode.Instruction, 0, len(insns)+len(labels)+len(lines)+len(frames)+1)
	for _, ri := range insns {
		if id, ok := labelID[ri.pc]; ok {
			lbl := bytecode.Label(id)
			lbl.PC = ri.pc
			out = append(out, lbl)
		}
		for _, line := range linesAt[ri.pc] {
			lm := bytecode.Line(line)
			lm.PC = ri.pc
			out = append(out, lm)
		}
		if frames[ri.pc] {
			fm := bytecode.Frame()
			fm.PC = ri.pc
			out = append(out, fm)
		}
		out = append(out, ri.ins)
	}
	if id, ok := labelID[codeLen]; ok {
		lbl := bytecode.Label(id)
		lbl.PC = codeLen
		out = append(out, lbl)
	}
	return bytecode.NewStream(out...)
}

func readLineNumbers(body []byte) ([]lineEntry, error) {
	r := newReader(body)
	n, err := r.readU2("line_number_table_length")
	if err != nil {
		return nil, err
	}
	out := make([]lineEntry, 0, n)
	for range n {
		pc, err := r.readU2("line start_pc")
		if err != nil {
			return nil, err
		}
		line, err := r.readU2("line_number")
		if err != nil {
			return nil, err
		}
		out = append(out, lineEntry{pc: int(pc), line: int(line)})
	}
	return out, nil
}

func (p *parser) readLocalVariables(body []byte) ([]localEntry, error) {
	r := newReader(body)
	n, err := r.readU2("local_variable_table_length")
	if err != nil {
		return nil, err
	}
	out := make([]localEntry, 0, n)
	for range n {
		var v [5]uint16
		for i := range v {
			if v[i], err = r.readU2("local_variable_table entry"); err != nil {
				return nil, err
			}
		}
		name, err := p.pool.utf8(v[2])
		if err != nil {
			return nil, err
		}
		if _, err := p.pool.utf8(v[3]); err != nil {
			return nil, err
		}
		out = append(out, localEntry{
			start: int(v[0]),
			end:   int(v[0]) + int(v[1]),
			name:  name,
			slot:  int(v[4]),
		})
	}
	return out, nil
}

// readFramePCs walks a StackMapTable and records the pc each frame applies to.
func readFramePCs(body []byte, frames map[int]bool) error {
	r := newReader(body)
	n, err := r.readU2("number_of_entries")
	if err != nil {
		return err
	}
	pc := -1
	for range n {
		frameType, err := r.readU1("frame_type")
		if err != nil {
			return err
		}
		var delta int
		switch {
		case frameType <= 63:
			delta = int(frameType)
		case frameType <= 127:
			delta = int(frameType) - 64
			if err := skipVerificationTypes(r, 1); err != nil {
				return err
			}
		case frameType < 247:
			return malformed(r.pos-1, "reserved stack map frame type %d", frameType)
		case frameType == 247:
			d, err := r.readU2("offset_delta")
			if err != nil {
				return err
			}
			delta = int(d)
			if err := skipVerificationTypes(r, 1); err != nil {
				return err
			}
		case frameType <= 251:
			d, err := r.readU2("offset_delta")
			if err != nil {
				return err
			}
			delta = int(d)
		case frameType <= 254:
			d, err := r.readU2("offset_delta")
			if err != nil {
				return err
			}
			delta = int(d)
			if err := skipVerificationTypes(r, int(frameType)-251); err != nil {
				return err
			}
		default:
			d, err := r.readU2("offset_delta")
			if err != nil {
				return err
			}
			delta = int(d)
			for range 2 {
				k, err := r.readU2("verification type count")
				if err != nil {
					return err
				}
				if err := skipVerificationTypes(r, int(k)); err != nil {
					return err
				}
			}
		}
		pc += delta + 1
		frames[pc] = true
	}
	return nil
}

func skipVerificationTypes(r *reader, n int) error {
	for range n {
		tag, err := r.readU1("verification_type tag")
		if err != nil {
			return err
		}
		switch {
		case tag == 7 || tag == 8:
			if err := r.skip(2, "verification_type operand"); err != nil {
				return err
			}
		case tag > 8:
			return malformed(r.pos-1, "invalid verification type tag %d", tag)
		}
	}
	return nil
}
