// Package ring provides the fixed-capacity circular byte buffer that backs
// demo playback, and a non-blocking reader that refills it from a byte source.
package ring

import "fmt"

// DefaultCapacity is the playback buffer size.
const DefaultCapacity = 10 * 1024

// Ring is a circular byte arena. Valid bytes start at head and wrap modulo
// the capacity; the count of valid bytes never exceeds the capacity.
type Ring struct {
	buf  []byte
	head int
	n    int
}

// New returns an empty Ring holding up to capacity bytes.
func New(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{buf: make([]byte, capacity)}
}

func (r *Ring) Len() int  { return r.n }
func (r *Ring) Cap() int  { return len(r.buf) }
func (r *Ring) Free() int { return len(r.buf) - r.n }

func (r *Ring) check() {
	if r.n < 0 || r.n > len(r.buf) || r.head < 0 || r.head >= len(r.buf) {
		panic(fmt.Sprintf("ring: invariant violated: head=%d len=%d cap=%d", r.head, r.n, len(r.buf)))
	}
}

// Reset discards all buffered bytes and seeds the ring with a copy of seed.
func (r *Ring) Reset(seed []byte) error {
	if len(seed) > len(r.buf) {
		return fmt.Errorf("ring: seed of %d bytes exceeds capacity %d", len(seed), len(r.buf))
	}
	r.head = 0
	r.n = copy(r.buf, seed)
	r.check()
	return nil
}

// PeekInto copies up to len(p) buffered bytes into p without advancing.
func (r *Ring) PeekInto(p []byte) int {
	want := min(len(p), r.n)
	first := min(want, len(r.buf)-r.head)
	copy(p, r.buf[r.head:r.head+first])
	copy(p[first:want], r.buf[:want-first])
	return want
}

// Consume copies up to len(p) bytes into p and advances past them.
func (r *Ring) Consume(p []byte) int {
	got := r.PeekInto(p)
	r.advance(got)
	return got
}

// Discard advances past up to n bytes and returns how many were dropped.
func (r *Ring) Discard(n int) int {
	n = max(0, min(n, r.n))
	r.advance(n)
	return n
}

func (r *Ring) advance(n int) {
	r.head = (r.head + n) % len(r.buf)
	r.n -= n
	r.check()
}

// Fill offers the free space to read, tail segment first. The wrapped
// segment is only offered when the first one was filled completely.
func (r *Ring) Fill(read func(seg []byte) (int, error)) (int, error) {
	total := 0
	for i := 0; i < 2 && r.Free() > 0; i++ {
		tail := (r.head + r.n) % len(r.buf)
		end := len(r.buf)
		if tail < r.head {
			end = r.head
		}
		seg := r.buf[tail:end]
		got, err := read(seg)
		if got < 0 || got > len(seg) {
			return total, fmt.Errorf("ring: source returned %d for a %d byte segment", got, len(seg))
		}
		r.n += got
		total += got
		r.check()
		if err != nil || got < len(seg) {
			return total, err
		}
	}
	return total, nil
}
