package ring

import (
	"errors"
	"testing"
	"time"
)

// chunkSource hands out at most chunk bytes per call, and nothing while stalled.
type chunkSource struct {
	data    []byte
	chunk   int
	stalled bool
	calls   int
}

func (s *chunkSource) TryRead(p []byte) (int, bool, error) {
	s.calls++
	if s.stalled {
		return 0, false, nil
	}
	if len(s.data) == 0 {
		return 0, true, nil
	}
	n := copy(p, s.data[:min(len(s.data), s.chunk)])
	s.data = s.data[n:]
	return n, false, nil
}

func TestReaderEnsureFillsUntilEOF(t *testing.T) {
	src := &chunkSource{data: []byte("hello world"), chunk: 3}
	r, err := NewReader(src, Options{Capacity: 64})
	if err != nil {
		t.Fatal(err)
	}

	ok, err := r.Ensure()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("Ensure reported ready on a partial, non-eof refill")
	}

	for i := 0; i < 10 && !r.EOF(); i++ {
		if ok, err = r.Ensure(); err != nil {
			t.Fatal(err)
		}
	}
	if !ok || !r.EOF() {
		t.Fatalf("ok=%v eof=%v, want both true", ok, r.EOF())
	}

	p := make([]byte, 11)
	if err := r.ReadFull(p); err != nil {
		t.Fatal(err)
	}
	if string(p) != "hello world" {
		t.Fatalf("ReadFull = %q", p)
	}
	if !r.Drained() {
		t.Fatal("expected Drained after consuming everything")
	}
}

func TestReaderPeekShortIsUnexpectedEnd(t *testing.T) {
	r, err := NewReader(&chunkSource{chunk: 1}, Options{Capacity: 16, Seed: []byte{1, 2}})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.PeekInto(make([]byte, 3)); !errors.Is(err, ErrUnexpectedEnd) {
		t.Fatalf("PeekInto err = %v, want ErrUnexpectedEnd", err)
	}
	if err := r.ReadFull(make([]byte, 3)); !errors.Is(err, ErrUnexpectedEnd) {
		t.Fatalf("ReadFull err = %v, want ErrUnexpectedEnd", err)
	}
	if r.Buffered() != 2 {
		t.Fatalf("failed read consumed bytes: buffered=%d", r.Buffered())
	}
}

func TestReaderCompleteRecordShortcut(t *testing.T) {
	src := &chunkSource{stalled: true}
	complete := false
	r, err := NewReader(src, Options{
		Capacity:  4096,
		HasRecord: func([]byte) bool { return complete },
		Seed:      []byte{0, 1},
	})
	if err != nil {
		t.Fatal(err)
	}

	if ok, _ := r.Ensure(); ok {
		t.Fatal("incomplete record reported ready")
	}
	complete = true
	src.calls = 0
	if ok, _ := r.Ensure(); !ok {
		t.Fatal("complete record not reported ready")
	}
	if src.calls != 0 {
		t.Fatalf("source touched %d times despite a complete record", src.calls)
	}
}

func TestReaderHeuristicSkipsRecordCheck(t *testing.T) {
	checked := false
	r, err := NewReader(&chunkSource{stalled: true}, Options{
		Capacity:  4096,
		HasRecord: func([]byte) bool { checked = true; return false },
		Heuristic: MVDHeuristic,
		Seed:      make([]byte, MVDHeuristic+1),
	})
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := r.Ensure(); !ok {
		t.Fatal("buffer above heuristic not reported ready")
	}
	if checked {
		t.Fatal("record check consulted above the heuristic threshold")
	}
}

func TestReaderRecordCheckWithoutHeuristic(t *testing.T) {
	r, err := NewReader(&chunkSource{stalled: true}, Options{
		Capacity:  4096,
		HasRecord: func([]byte) bool { return false },
		Seed:      make([]byte, MVDHeuristic+1),
	})
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := r.Ensure(); ok {
		t.Fatal("incomplete record reported ready without a heuristic")
	}
}

func TestReaderLiveArmsBufferingDeadline(t *testing.T) {
	now := time.Unix(1000, 0)
	r, err := NewReader(&chunkSource{stalled: true}, Options{
		Capacity:  64,
		Live:      true,
		HasRecord: func([]byte) bool { return false },
		Now:       func() time.Time { return now },
	})
	if err != nil {
		t.Fatal(err)
	}

	if ok, _ := r.Ensure(); ok {
		t.Fatal("stalled live source reported ready")
	}
	if want := now.Add(DefaultPrebuffer); !r.BufferingUntil().Equal(want) {
		t.Fatalf("BufferingUntil = %v, want %v", r.BufferingUntil(), want)
	}

	now = now.Add(time.Second)
	r.Ensure()
	if want := now.Add(DefaultPrebuffer); !r.BufferingUntil().Equal(want) {
		t.Fatalf("deadline not re-armed: %v, want %v", r.BufferingUntil(), want)
	}

	r.ClearBuffering()
	if !r.BufferingUntil().IsZero() {
		t.Fatal("ClearBuffering left a deadline")
	}
}
