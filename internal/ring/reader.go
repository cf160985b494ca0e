package ring

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnexpectedEnd reports that a record needed more bytes than the stream holds.
var ErrUnexpectedEnd = errors.New("unexpected end of demo")

// MVDHeuristic is the buffered byte count treated as surely holding one
// complete multi-observer record.
const MVDHeuristic = 2000

// DefaultPrebuffer is the pre-roll applied to live relays after a stall.
const DefaultPrebuffer = 2 * time.Second

// Source is a non-blocking byte source. TryRead returns whatever is ready,
// possibly zero bytes, and reports eof once the stream is exhausted.
type Source interface {
	TryRead(p []byte) (n int, eof bool, err error)
}

// Options configures a Reader.
type Options struct {
	Capacity int

	// HasRecord reports whether buf starts with at least one complete record.
	HasRecord func(buf []byte) bool

	// Heuristic, when positive, is the buffered byte count accepted as
	// holding a complete record without calling HasRecord. Multi-observer streams
	// use MVDHeuristic.
	Heuristic int

	// Live arms a buffering deadline whenever a refill leaves the ring short.
	Live      bool
	Prebuffer time.Duration

	// Seed holds bytes already taken from the source during negotiation.
	Seed []byte

	Now func() time.Time
}

// Reader keeps a Ring topped up from a Source.
type Reader struct {
	src            Source
	ring           *Ring
	eof            bool
	hasRecord      func([]byte) bool
	heuristic      int
	live           bool
	prebuffer      time.Duration
	now            func() time.Time
	bufferingUntil time.Time
	scratch        []byte
}

// NewReader wraps src. The source stays owned by the caller.
func NewReader(src Source, opts Options) (*Reader, error) {
	if opts.Prebuffer <= 0 {
		opts.Prebuffer = DefaultPrebuffer
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	r := &Reader{
		src:       src,
		ring:      New(opts.Capacity),
		hasRecord: opts.HasRecord,
		heuristic: opts.Heuristic,
		live:      opts.Live,
		prebuffer: opts.Prebuffer,
		now:       opts.Now,
	}
	if err := r.Reset(opts.Seed); err != nil {
		return nil, err
	}
	return r, nil
}

// Reset reinitializes the ring with seed and clears eof and buffering state.
func (r *Reader) Reset(seed []byte) error {
	r.eof = false
	r.bufferingUntil = time.Time{}
	return r.ring.Reset(seed)
}

// Ensure tries to guarantee the ring is full, the stream has ended, or a
// complete record is buffered. It never blocks.
func (r *Reader) Ensure() (bool, error) {
	if r.hasRecord != nil && r.ring.Len() > 0 {
		if (r.heuristic > 0 && r.ring.Len() > r.heuristic) || r.complete() {
			return true, nil
		}
	}

	if err := r.refill(); err != nil {
		return false, err
	}

	if r.ring.Free() == 0 || r.eof {
		return true, nil
	}

	if r.hasRecord != nil && r.ring.Len() > 0 && r.complete() {
		return true, nil
	}

	if r.live {
		r.bufferingUntil = r.now().Add(r.prebuffer)
	}
	return false, nil
}

func (r *Reader) refill() error {
	_, err := r.ring.Fill(func(seg []byte) (int, error) {
		n, eof, err := r.src.TryRead(seg)
		if eof {
			r.eof = true
		}
		if err != nil {
			return n, fmt.Errorf("reading demo source: %w", err)
		}
		return n, nil
	})
	return err
}

func (r *Reader) complete() bool {
	if r.scratch == nil {
		r.scratch = make([]byte, r.ring.Cap())
	}
	n := r.ring.PeekInto(r.scratch)
	return r.hasRecord(r.scratch[:n])
}

// PeekInto fills p from the read cursor without consuming.
func (r *Reader) PeekInto(p []byte) error {
	if r.ring.PeekInto(p) != len(p) {
		return ErrUnexpectedEnd
	}
	return nil
}

// ReadFull fills p and consumes the bytes.
func (r *Reader) ReadFull(p []byte) error {
	if r.ring.Len() < len(p) {
		return ErrUnexpectedEnd
	}
	r.ring.Consume(p)
	return nil
}

// Skip consumes n bytes without copying them.
func (r *Reader) Skip(n int) error {
	if r.ring.Len() < n {
		return ErrUnexpectedEnd
	}
	r.ring.Discard(n)
	return nil
}

func (r *Reader) Buffered() int { return r.ring.Len() }
func (r *Reader) EOF() bool     { return r.eof }

// Drained reports that the stream ended on a record boundary.
func (r *Reader) Drained() bool { return r.eof && r.ring.Len() == 0 }

// BufferingUntil returns the pre-roll deadline, zero when not buffering.
func (r *Reader) BufferingUntil() time.Time { return r.bufferingUntil }

func (r *Reader) ClearBuffering() { r.bufferingUntil = time.Time{} }
