package frame

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/dgnsrekt/qwdemo/internal/msg"
)

// Input supplies exact byte counts, failing when the stream is short.
type Input interface {
	ReadFull(p []byte) error
}

// Header is the decoded time field and kind byte of a record.
type Header struct {
	// Time is the absolute time of a QWD record.
	Time float64
	// Delta is the millisecond delta of an MVD record.
	Delta uint8

	Raw  KindByte
	Kind Kind

	// Routing is set when Kind is a routing prefix.
	Routing Routing
}

// Record is a fully decoded record.
type Record struct {
	Header

	Payload []byte
	Command Command
	Out     int32
	In      int32
}

// DecodeHeader reads the time field, the kind byte and, for a mask prefix,
// the recipient mask.
func DecodeHeader(in Input, family Family) (Header, error) {
	var h Header
	var b [4]byte

	t := b[:family.TimeSize()]
	if err := in.ReadFull(t); err != nil {
		return h, err
	}
	if family == MVD {
		h.Delta = t[0]
	} else {
		h.Time = float64(math.Float32frombits(binary.LittleEndian.Uint32(t)))
	}

	if err := in.ReadFull(b[:1]); err != nil {
		return h, err
	}
	h.Raw = KindByte(b[0])
	h.Kind = h.Raw.Tag()
	if !h.Kind.Valid() {
		return h, fmt.Errorf("%w: kind byte %#02x", ErrCorrupt, b[0])
	}

	if h.Kind.IsRouting() {
		var mask uint32
		if h.Kind == KindMultiple {
			if err := in.ReadFull(b[:4]); err != nil {
				return h, err
			}
			mask = binary.LittleEndian.Uint32(b[:4])
		}
		h.Routing = routingFromHeader(h.Raw, mask)
	}
	return h, nil
}

// DecodeBody reads the body that follows h. A routing prefix modifies the
// network message after it, so that message is read here as well.
func DecodeBody(in Input, h Header, maxLen int) (Record, error) {
	rec := Record{Header: h}
	switch {
	case h.Kind == KindCommand:
		var p [CommandSize]byte
		if err := in.ReadFull(p[:]); err != nil {
			return rec, err
		}
		if err := rec.Command.UnmarshalBinary(p[:]); err != nil {
			return rec, err
		}

	case h.Kind == KindRead || h.Kind.IsRouting():
		var p [4]byte
		if err := in.ReadFull(p[:]); err != nil {
			return rec, err
		}
		n := int32(binary.LittleEndian.Uint32(p[:]))
		if n < 0 || int(n) > maxLen {
			return rec, fmt.Errorf("%w: %d > %d", ErrOversized, n, maxLen)
		}
		rec.Payload = make([]byte, n)
		if err := in.ReadFull(rec.Payload); err != nil {
			return rec, err
		}

	case h.Kind == KindSet:
		var p [8]byte
		if err := in.ReadFull(p[:]); err != nil {
			return rec, err
		}
		rec.Out = int32(binary.LittleEndian.Uint32(p[:4]))
		rec.In = int32(binary.LittleEndian.Uint32(p[4:]))

	default:
		return rec, fmt.Errorf("%w: kind %s", ErrCorrupt, h.Kind)
	}
	return rec, nil
}

// Complete reports whether buf begins with at least one whole record. Corrupt
// headers report true so the decoder can surface the error.
func Complete(family Family, buf []byte) bool {
	off := family.TimeSize()
	if len(buf) < off+1 {
		return false
	}
	kind := KindByte(buf[off]).Tag()
	off++

	switch {
	case kind == KindCommand:
		return len(buf) >= off+CommandSize
	case kind == KindSet:
		return len(buf) >= off+8
	case kind == KindRead || kind.IsRouting():
		if kind == KindMultiple {
			off += 4
		}
		if len(buf) < off+4 {
			return false
		}
		n := int32(binary.LittleEndian.Uint32(buf[off:]))
		if n < 0 {
			return true
		}
		return len(buf) >= off+4+int(n)
	}
	return true
}

// IsDisconnect reports whether payload starts with a disconnect, which ends
// playback.
func IsDisconnect(family Family, payload []byte) bool {
	if family == MVD {
		return len(payload) > 0 && payload[0] == msg.SvcDisconnect
	}
	if len(payload) >= 5 && int32(binary.LittleEndian.Uint32(payload)) == -1 {
		return payload[4] == msg.SvcDisconnect
	}
	return len(payload) > 8 && payload[8] == msg.SvcDisconnect
}
