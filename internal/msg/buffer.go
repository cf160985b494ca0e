// Package msg implements the little-endian message primitives shared by the
// demo writer and reader.
package msg

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrShort is returned when a read runs past the end of a message.
var ErrShort = errors.New("msg: read past end of message")

// Buffer accumulates an outgoing message.
type Buffer struct {
	data []byte
}

// NewBuffer returns a Buffer with room for size bytes before growing.
func NewBuffer(size int) *Buffer {
	return &Buffer{data: make([]byte, 0, size)}
}

func (b *Buffer) Len() int      { return len(b.data) }
func (b *Buffer) Bytes() []byte { return b.data }
func (b *Buffer) Reset()        { b.data = b.data[:0] }

func (b *Buffer) PutByte(c byte) { b.data = append(b.data, c) }

func (b *Buffer) PutShort(v int16) {
	b.data = binary.LittleEndian.AppendUint16(b.data, uint16(v))
}

func (b *Buffer) PutLong(v int32) {
	b.data = binary.LittleEndian.AppendUint32(b.data, uint32(v))
}

func (b *Buffer) PutFloat(v float32) {
	b.data = binary.LittleEndian.AppendUint32(b.data, math.Float32bits(v))
}

// PutString writes s followed by a NUL terminator.
func (b *Buffer) PutString(s string) {
	b.data = append(b.data, s...)
	b.data = append(b.data, 0)
}

// PutCoord writes a world coordinate in 1/8 unit precision.
func (b *Buffer) PutCoord(v float32) { b.PutShort(int16(v * 8)) }

// PutAngle writes an angle in degrees as a single byte.
func (b *Buffer) PutAngle(v float32) { b.PutByte(byte(int(v*256/360) & 255)) }

func (b *Buffer) Put(p []byte) { b.data = append(b.data, p...) }

// Reader walks a received message.
type Reader struct {
	data []byte
	off  int
}

func NewReader(p []byte) *Reader { return &Reader{data: p} }

// Remaining reports the unread byte count.
func (r *Reader) Remaining() int { return len(r.data) - r.off }

func (r *Reader) take(n int) ([]byte, error) {
	if r.Remaining() < n {
		r.off = len(r.data)
		return nil, ErrShort
	}
	p := r.data[r.off : r.off+n]
	r.off += n
	return p, nil
}

func (r *Reader) Byte() (byte, error) {
	p, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

func (r *Reader) Short() (int16, error) {
	p, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(p)), nil
}

func (r *Reader) Long() (int32, error) {
	p, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(p)), nil
}

func (r *Reader) Float() (float32, error) {
	p, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(p)), nil
}

// CString reads up to and including the next NUL.
func (r *Reader) CString() (string, error) {
	for i := r.off; i < len(r.data); i++ {
		if r.data[i] == 0 {
			s := string(r.data[r.off:i])
			r.off = i + 1
			return s, nil
		}
	}
	r.off = len(r.data)
	return "", ErrShort
}

func (r *Reader) Coord() (float32, error) {
	v, err := r.Short()
	return float32(v) / 8, err
}

func (r *Reader) Angle() (float32, error) {
	v, err := r.Byte()
	return float32(v) * 360 / 256, err
}
