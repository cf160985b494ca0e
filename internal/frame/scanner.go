package frame

import (
	"bufio"
	"errors"
	"io"

	"github.com/dgnsrekt/qwdemo/internal/msg"
)

// Scanned is one record read by a Scanner.
type Scanned struct {
	Record

	// Time is the absolute record time; for MVD the running sum of deltas.
	Time float64
	// Raw holds the record exactly as it appeared in the stream.
	Raw []byte
}

// Scanner reads whole records from a blocking stream.
type Scanner struct {
	in     teeInput
	family Family
	maxLen int
	clock  float64
	cur    Scanned
	err    error
}

// NewScanner returns a Scanner reading family records from r.
func NewScanner(r io.Reader, family Family) *Scanner {
	return &Scanner{
		in:     teeInput{r: bufio.NewReader(r)},
		family: family,
		maxLen: msg.MaxNetMessage,
	}
}

// SetMaxMessage overrides the largest accepted message payload.
func (s *Scanner) SetMaxMessage(n int) { s.maxLen = n }

// SetBase sets the absolute time MVD deltas start from.
func (s *Scanner) SetBase(t float64) { s.clock = t }

// Scan advances to the next record. It returns false at the end of the
// stream or on error.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	s.in.reset()

	h, err := DecodeHeader(&s.in, s.family)
	if err != nil {
		if s.in.n == 0 && errors.Is(err, io.EOF) {
			return false
		}
		s.err = err
		return false
	}
	rec, err := DecodeBody(&s.in, h, s.maxLen)
	if err != nil {
		s.err = err
		return false
	}

	if s.family == MVD {
		s.clock += float64(h.Delta) * 0.001
	} else {
		s.clock = h.Time
	}
	s.cur = Scanned{Record: rec, Time: s.clock, Raw: s.in.raw}
	return true
}

// Record returns the record read by the last successful Scan. Its Raw slice
// is only valid until the next call to Scan.
func (s *Scanner) Record() Scanned { return s.cur }

// Err returns the first error other than a clean end of stream.
func (s *Scanner) Err() error { return s.err }

type teeInput struct {
	r   io.Reader
	raw []byte
	n   int
}

func (t *teeInput) reset() {
	t.raw = t.raw[:0]
	t.n = 0
}

func (t *teeInput) ReadFull(p []byte) error {
	n, err := io.ReadFull(t.r, p)
	t.raw = append(t.raw, p[:n]...)
	first := t.n == 0
	t.n += n
	switch {
	case err == nil:
		return nil
	case first && n == 0 && err == io.EOF:
		return io.EOF
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return ErrTruncated
	}
	return err
}
