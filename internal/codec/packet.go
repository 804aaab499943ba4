// Package codec implements the wire-level framing primitives: a 520-byte
// append-only packet builder, an offset-based reader, and the bitfield
// packers used by the bit-packed message records. All multi-byte integers
// are little-endian (§6).
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// MaxPacketSize is the hard ceiling on any single UDP packet body (§3).
const MaxPacketSize = 520

// ErrPacketFull is returned when a write would exceed MaxPacketSize.
var ErrPacketFull = errors.New("codec: packet exceeds max size")

// Packet is an append-only byte buffer bounded at MaxPacketSize.
type Packet struct {
	data [MaxPacketSize]byte
	size int
}

// Empty returns a zero-length packet ready for writes.
func Empty() *Packet {
	return &Packet{}
}

// FromBytes copies an existing buffer into a new packet, for messages built
// by hand (e.g. a precomputed reliable header) that are then appended to.
func FromBytes(b []byte) (*Packet, error) {
	p := Empty()
	if err := p.WriteBytes(b); err != nil {
		return nil, err
	}
	return p, nil
}

// Data returns the written portion of the buffer.
func (p *Packet) Data() []byte { return p.data[:p.size] }

// Size returns the number of bytes written so far.
func (p *Packet) Size() int { return p.size }

// Remaining returns how many more bytes can be appended before ErrPacketFull.
func (p *Packet) Remaining() int { return MaxPacketSize - p.size }

func (p *Packet) grow(n int) ([]byte, error) {
	if p.size+n > MaxPacketSize {
		return nil, fmt.Errorf("%w: have %d, want +%d, max %d", ErrPacketFull, p.size, n, MaxPacketSize)
	}
	start := p.size
	p.size += n
	return p.data[start:p.size], nil
}

func (p *Packet) WriteU8(v uint8) error {
	b, err := p.grow(1)
	if err != nil {
		return err
	}
	b[0] = v
	return nil
}

func (p *Packet) WriteI8(v int8) error { return p.WriteU8(uint8(v)) }

func (p *Packet) WriteU16(v uint16) error {
	b, err := p.grow(2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b, v)
	return nil
}

func (p *Packet) WriteI16(v int16) error { return p.WriteU16(uint16(v)) }

func (p *Packet) WriteU32(v uint32) error {
	b, err := p.grow(4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, v)
	return nil
}

func (p *Packet) WriteI32(v int32) error { return p.WriteU32(uint32(v)) }

// WritePlayerID writes a player id as a little-endian u16 (0xFFFF = invalid).
func (p *Packet) WritePlayerID(id uint16) error { return p.WriteU16(id) }

func (p *Packet) WriteBytes(b []byte) error {
	dst, err := p.grow(len(b))
	if err != nil {
		return err
	}
	copy(dst, b)
	return nil
}

// WriteStr writes a NUL-terminated string.
func (p *Packet) WriteStr(s string) error {
	if err := p.WriteBytes([]byte(s)); err != nil {
		return err
	}
	return p.WriteU8(0)
}

// WriteFixedStr writes s right-padded with NUL to exactly size bytes,
// truncating if s is longer than size.
func (p *Packet) WriteFixedStr(s string, size int) error {
	b, err := p.grow(size)
	if err != nil {
		return err
	}
	n := copy(b, s)
	for i := n; i < size; i++ {
		b[i] = 0
	}
	return nil
}

// Reader is an offset-based cursor over a received packet body. Every Read*
// size check returns an error rather than panicking (§4.3); only the Must*
// helpers panic, and they are for lengths the caller has already checked.
type Reader struct {
	data []byte
	off  int
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// ErrTooShort reports a read that would run past the end of the buffer,
// tagged with the field kind being decoded.
type ErrTooShort struct {
	Kind string
	Need int
	Have int
}

func (e *ErrTooShort) Error() string {
	return fmt.Sprintf("codec: too short decoding %s: need %d, have %d", e.Kind, e.Need, e.Have)
}

func (r *Reader) need(kind string, n int) ([]byte, error) {
	if r.off+n > len(r.data) {
		return nil, &ErrTooShort{Kind: kind, Need: n, Have: len(r.data) - r.off}
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) Remaining() int { return len(r.data) - r.off }

func (r *Reader) Offset() int { return r.off }

func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.need("u8", 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadI8() (int8, error) {
	v, err := r.ReadU8()
	return int8(v), err
}

func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.need("u16", 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.need("u32", 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

func (r *Reader) ReadPlayerID() (uint16, error) { return r.ReadU16() }

func (r *Reader) ReadBytes(n int) ([]byte, error) {
	return r.need("bytes", n)
}

// ReadStr reads up to a NUL terminator (or end of buffer).
func (r *Reader) ReadStr() (string, error) {
	start := r.off
	for r.off < len(r.data) && r.data[r.off] != 0 {
		r.off++
	}
	s := string(r.data[start:r.off])
	if r.off < len(r.data) {
		r.off++ // consume the NUL
	}
	return s, nil
}

// MustU16 reads a u16 from a slice already known to be exactly 2 bytes,
// for callers that pre-validated length and don't want to thread an error
// through a fixed-offset optional-field decode.
func (r *Reader) MustU16() uint16 {
	v, err := r.ReadU16()
	if err != nil {
		panic(err)
	}
	return v
}

// MustU32 is MustU16's 4-byte counterpart.
func (r *Reader) MustU32() uint32 {
	v, err := r.ReadU32()
	if err != nil {
		panic(err)
	}
	return v
}

// ReadFixedStr reads exactly size bytes and trims trailing NULs.
func (r *Reader) ReadFixedStr(size int) (string, error) {
	b, err := r.need("fixed_str", size)
	if err != nil {
		return "", err
	}
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end]), nil
}
