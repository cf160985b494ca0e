package relay

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dgnsrekt/qwdemo/internal/frame"
)

// Websocket subprotocols. The zstd variant compresses chunk data.
const (
	Subprotocol     = "qwdemo.relay.v1"
	SubprotocolZstd = "qwdemo.relay.v1+zstd"
)

// ErrBadEnvelope reports an undecodable relay message.
var ErrBadEnvelope = errors.New("relay: bad envelope")

// Hello is the first message on every relay connection.
type Hello struct {
	ConnID     string
	Demo       string
	Family     frame.Family
	Compressed bool
}

// Chunk carries raw demo records due at the same moment.
type Chunk struct {
	Seq    uint64
	TimeMS uint64
	Data   []byte
}

// End is sent once the demo has been streamed in full.
type End struct {
	Reason  string
	Records uint64
}

// Envelope wraps exactly one of its fields.
type Envelope struct {
	Hello *Hello
	Chunk *Chunk
	End   *End
}

const (
	fieldHello protowire.Number = 1
	fieldChunk protowire.Number = 2
	fieldEnd   protowire.Number = 3
)

// Marshal encodes e.
func (e *Envelope) Marshal() []byte {
	var b []byte
	switch {
	case e.Hello != nil:
		var m []byte
		m = appendString(m, 1, e.Hello.ConnID)
		m = appendString(m, 2, e.Hello.Demo)
		m = appendVarint(m, 3, uint64(e.Hello.Family))
		m = appendVarint(m, 4, protowire.EncodeBool(e.Hello.Compressed))
		b = appendMessage(b, fieldHello, m)
	case e.Chunk != nil:
		var m []byte
		m = appendVarint(m, 1, e.Chunk.Seq)
		m = appendVarint(m, 2, e.Chunk.TimeMS)
		m = protowire.AppendTag(m, 3, protowire.BytesType)
		m = protowire.AppendBytes(m, e.Chunk.Data)
		b = appendMessage(b, fieldChunk, m)
	case e.End != nil:
		var m []byte
		m = appendString(m, 1, e.End.Reason)
		m = appendVarint(m, 2, e.End.Records)
		b = appendMessage(b, fieldEnd, m)
	}
	return b
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendMessage(b []byte, num protowire.Number, m []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m)
}

// UnmarshalEnvelope decodes a relay message. Unknown fields are skipped.
func UnmarshalEnvelope(b []byte) (*Envelope, error) {
	e := &Envelope{}
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		if typ != protowire.BytesType {
			return 0, nil
		}
		m, n := protowire.ConsumeBytes(v)
		if n < 0 {
			return n, nil
		}
		var err error
		switch num {
		case fieldHello:
			e.Hello, err = unmarshalHello(m)
		case fieldChunk:
			e.Chunk, err = unmarshalChunk(m)
		case fieldEnd:
			e.End, err = unmarshalEnd(m)
		}
		return n, err
	})
	if err != nil {
		return nil, err
	}
	if e.Hello == nil && e.Chunk == nil && e.End == nil {
		return nil, fmt.Errorf("%w: empty envelope", ErrBadEnvelope)
	}
	return e, nil
}

func unmarshalHello(b []byte) (*Hello, error) {
	h := &Hello{}
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(v)
			h.ConnID = s
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(v)
			h.Demo = s
			return n, nil
		case num == 3 && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(v)
			h.Family = frame.Family(x)
			return n, nil
		case num == 4 && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(v)
			h.Compressed = protowire.DecodeBool(x)
			return n, nil
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}
	if h.Family != frame.QWD && h.Family != frame.MVD {
		return nil, fmt.Errorf("%w: unknown family %d", ErrBadEnvelope, h.Family)
	}
	return h, nil
}

func unmarshalChunk(b []byte) (*Chunk, error) {
	c := &Chunk{}
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(v)
			c.Seq = x
			return n, nil
		case num == 2 && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(v)
			c.TimeMS = x
			return n, nil
		case num == 3 && typ == protowire.BytesType:
			d, n := protowire.ConsumeBytes(v)
			c.Data = d
			return n, nil
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func unmarshalEnd(b []byte) (*End, error) {
	e := &End{}
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(v)
			e.Reason = s
			return n, nil
		case num == 2 && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(v)
			e.Records = x
			return n, nil
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// walk calls fn for each field in b. fn returns the length of the value it
// consumed, zero to have the field skipped, or a negative protowire error.
func walk(b []byte, fn func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrBadEnvelope, protowire.ParseError(n))
		}
		b = b[n:]

		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if m == 0 {
			m = protowire.ConsumeFieldValue(num, typ, b)
		}
		if m < 0 {
			return fmt.Errorf("%w: %v", ErrBadEnvelope, protowire.ParseError(m))
		}
		b = b[m:]
	}
	return nil
}
