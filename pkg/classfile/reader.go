package classfile

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// MalformedClassError reports class-file bytes that cannot be decoded.
type MalformedClassError struct {
	Reason string
	// Offset is the byte position where decoding failed, -1 if unknown.
	Offset int
}

func (e *MalformedClassError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("malformed class file at offset %d: %s", e.Offset, e.Reason)
	}
	return "malformed class file: " + e.Reason
}

func malformed(offset int, format string, args ...any) *MalformedClassError {
	return &MalformedClassError{Reason: fmt.Sprintf(format, args...), Offset: offset}
}

// within prefixes the reason of a malformed-class error with context.
func within(context string, err error) error {
	var mErr *MalformedClassError
	if errors.As(err, &mErr) {
		return &MalformedClassError{Reason: context + ": " + mErr.Reason, Offset: mErr.Offset}
	}
	return fmt.Errorf("%s: %w", context, err)
}

// reader reads big-endian values from an in-memory class file and tracks
// its position.
type reader struct {
	buf []byte
	pos int
}

func newReader(buf []byte) *reader {
	return &reader{buf: buf}
}

func (r *reader) remaining() int { return len(r.buf) - r.pos }

// readNBytes reads exactly n bytes.
func (r *reader) readNBytes(n int, what string) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, malformed(r.pos, "failed to read %s: need %d bytes, have %d", what, n, r.remaining())
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// readU1 reads a single unsigned byte.
func (r *reader) readU1(what string) (uint8, error) {
	b, err := r.readNBytes(1, what)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// readU2 reads a 2-byte unsigned integer.
func (r *reader) readU2(what string) (uint16, error) {
	b, err := r.readNBytes(2, what)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// readU4 reads a 4-byte unsigned integer.
func (r *reader) readU4(what string) (uint32, error) {
	b, err := r.readNBytes(4, what)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// readS4 reads a 4-byte signed integer.
func (r *reader) readS4(what string) (int32, error) {
	v, err := r.readU4(what)
	return int32(v), err
}

// skip advances n bytes.
func (r *reader) skip(n int, what string) error {
	_, err := r.readNBytes(n, what)
	return err
}
