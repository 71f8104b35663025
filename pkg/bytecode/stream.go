package bytecode

import "iter"

// Stream is the ordered instruction sequence of one method body. It is
// immutable once built; positions are plain indexes into the arena.
type Stream struct {
	insns []Instruction
}

// NewStream wraps insns in program order. The slice must not be modified
// afterwards.
func NewStream(insns ...Instruction) Stream {
	return Stream{insns: insns}
}

// Len returns the number of instructions, markers included.
func (s Stream) Len() int { return len(s.insns) }

// Empty reports whether the stream holds no instruction at all.
func (s Stream) Empty() bool { return len(s.insns) == 0 }

// At returns the instruction at index i.
func (s Stream) At(i int) Instruction { return s.insns[i] }

// All iterates over the stream in program order.
func (s Stream) All() iter.Seq2[int, Instruction] {
	return func(yield func(int, Instruction) bool) {
		for i, in := range s.insns {
			if !yield(i, in) {
				return
			}
		}
	}
}

// Semantic iterates over the non-marker instructions in program order.
func (s Stream) Semantic() iter.Seq2[int, Instruction] {
	return func(yield func(int, Instruction) bool) {
		for i, in := range s.insns {
			if in.IsMarker() {
				continue
			}
			if !yield(i, in) {
				return
			}
		}
	}
}

// ScanBackward walks backward from the instruction before from and returns
// the index of the first non-marker instruction satisfying match. Markers are
// skipped without spending budget. The scan gives up after maxSteps
// non-marker instructions or when an instruction satisfies abort; abort is
// checked before match. A nil abort never stops the scan.
func (s Stream) ScanBackward(from int, match, abort func(Instruction) bool, maxSteps int) (int, bool) {
	steps := 0
	for j := min(from, len(s.insns)) - 1; j >= 0 && steps < maxSteps; j-- {
		in := s.insns[j]
		if in.IsMarker() {
			continue
		}
		if abort != nil && abort(in) {
			return -1, false
		}
		if match(in) {
			return j, true
		}
		steps++
	}
	return -1, false
}

// ScanForward is the forward counterpart of ScanBackward, starting after from.
func (s Stream) ScanForward(from int, match, abort func(Instruction) bool, maxSteps int) (int, bool) {
	steps := 0
	for j := max(from+1, 0); j < len(s.insns) && steps < maxSteps; j++ {
		in := s.insns[j]
		if in.IsMarker() {
			continue
		}
		if abort != nil && abort(in) {
			return -1, false
		}
		if match(in) {
			return j, true
		}
		steps++
	}
	return -1, false
}

// LineAt returns the line of the nearest LineMarker at or before i, or 0 when
// none precedes it.
func (s Stream) LineAt(i int) int {
	for j := min(i, len(s.insns)-1); j >= 0; j-- {
		if s.insns[j].Kind == KindLineMarker {
			return s.insns[j].Line
		}
	}
	return 0
}

// FirstLine returns the first line number recorded in the stream, or 0.
func (s Stream) FirstLine() int {
	for _, in := range s.insns {
		if in.Kind == KindLineMarker {
			return in.Line
		}
	}
	return 0
}

// IsInvoke matches method invocations. It is the usual abort predicate for
// ScanBackward.
func IsInvoke(in Instruction) bool { return in.Kind == KindInvoke }
