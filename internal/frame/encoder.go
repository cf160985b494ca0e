package frame

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// MaxDelta is the largest gap one MVD time field can carry, in milliseconds.
const MaxDelta = 255

// Encoder writes framed records. Each record is assembled in full and handed
// to the underlying writer in a single Write call.
type Encoder struct {
	w       io.Writer
	family  Family
	ms      int64
	scratch []byte
}

// NewEncoder returns an Encoder for the given family.
func NewEncoder(w io.Writer, family Family) *Encoder {
	return &Encoder{w: w, family: family, scratch: make([]byte, 0, 1500)}
}

func (e *Encoder) Family() Family { return e.family }

// SetBase sets the absolute time MVD deltas are measured from.
func (e *Encoder) SetBase(t float64) {
	e.ms = int64(math.Round(t * 1000))
}

// Time returns the absolute time of the last MVD record written.
func (e *Encoder) Time() float64 { return float64(e.ms) / 1000 }

// WriteSet writes the transport sequence record.
func (e *Encoder) WriteSet(t float64, out, in int32) error {
	if err := e.fill(t); err != nil {
		return err
	}
	b := e.begin(t, MakeKindByte(KindSet, 0))
	b = binary.LittleEndian.AppendUint32(b, uint32(out))
	b = binary.LittleEndian.AppendUint32(b, uint32(in))
	return e.flush(b)
}

// WriteCommand writes a movement command. Only QWD streams carry commands.
func (e *Encoder) WriteCommand(t float64, c Command) error {
	if e.family != QWD {
		return fmt.Errorf("%w: %s in %s", ErrWrongFamily, KindCommand, e.family)
	}
	b, err := c.AppendBinary(e.begin(t, MakeKindByte(KindCommand, 0)))
	if err != nil {
		return err
	}
	return e.flush(b)
}

// WriteMessage writes an unrouted network message.
func (e *Encoder) WriteMessage(t float64, payload []byte) error {
	if err := e.fill(t); err != nil {
		return err
	}
	return e.flush(appendMessage(e.begin(t, MakeKindByte(KindRead, 0)), payload))
}

// WriteRouted writes a network message behind an MVD routing prefix.
func (e *Encoder) WriteRouted(t float64, r Routing, payload []byte) error {
	if e.family != MVD {
		return fmt.Errorf("%w: routed message in %s", ErrWrongFamily, e.family)
	}
	kb, err := r.kindByte()
	if err != nil {
		return err
	}
	if err := e.fill(t); err != nil {
		return err
	}
	b := e.begin(t, kb)
	if r.Kind == RouteMask {
		b = binary.LittleEndian.AppendUint32(b, r.To)
	}
	return e.flush(appendMessage(b, payload))
}

// fill writes empty broadcast records until the gap to t fits one delta.
func (e *Encoder) fill(t float64) error {
	if e.family != MVD {
		return nil
	}
	for int64(math.Round(t*1000))-e.ms > MaxDelta {
		b := append(e.scratch[:0], MaxDelta, byte(MakeKindByte(KindAll, 0)), 0, 0, 0, 0)
		e.ms += MaxDelta
		if err := e.flush(b); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) begin(t float64, kb KindByte) []byte {
	b := e.scratch[:0]
	if e.family == MVD {
		d := max(int64(math.Round(t*1000))-e.ms, 0)
		e.ms += d
		b = append(b, byte(d))
	} else {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(float32(t)))
	}
	return append(b, byte(kb))
}

func appendMessage(b, payload []byte) []byte {
	b = binary.LittleEndian.AppendUint32(b, uint32(len(payload)))
	return append(b, payload...)
}

func (e *Encoder) flush(b []byte) error {
	e.scratch = b[:0]
	if _, err := e.w.Write(b); err != nil {
		return fmt.Errorf("writing %s record: %w", e.family, err)
	}
	return nil
}
