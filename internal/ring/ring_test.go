package ring

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestRingMatchesQueueModel(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	r := New(37)
	var model []byte
	next := byte(0)

	for step := 0; step < 5000; step++ {
		switch rng.Intn(3) {
		case 0:
			want := rng.Intn(50)
			_, err := r.Fill(func(seg []byte) (int, error) {
				n := min(want, len(seg))
				for i := 0; i < n; i++ {
					seg[i] = next
					model = append(model, next)
					next++
				}
				want -= n
				return n, nil
			})
			if err != nil {
				t.Fatalf("step %d: Fill: %v", step, err)
			}
		case 1:
			p := make([]byte, rng.Intn(40))
			got := r.Consume(p)
			if !bytes.Equal(p[:got], model[:got]) {
				t.Fatalf("step %d: Consume = %v, want %v", step, p[:got], model[:got])
			}
			model = model[got:]
		case 2:
			p := make([]byte, rng.Intn(40))
			got := r.PeekInto(p)
			if !bytes.Equal(p[:got], model[:got]) {
				t.Fatalf("step %d: Peek = %v, want %v", step, p[:got], model[:got])
			}
		}

		if r.Len() > r.Cap() {
			t.Fatalf("step %d: Len %d exceeds Cap %d", step, r.Len(), r.Cap())
		}
		if r.Len() != len(model) {
			t.Fatalf("step %d: Len = %d, model has %d", step, r.Len(), len(model))
		}
	}
}

func TestRingFillWrapsAroundHead(t *testing.T) {
	r := New(8)
	if err := r.Reset([]byte("abcdef")); err != nil {
		t.Fatal(err)
	}
	r.Discard(4)

	var segs []int
	n, err := r.Fill(func(seg []byte) (int, error) {
		segs = append(segs, len(seg))
		for i := range seg {
			seg[i] = 'x'
		}
		return len(seg), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 6 || r.Free() != 0 {
		t.Fatalf("filled %d, free %d; want 6, 0", n, r.Free())
	}
	if len(segs) != 2 || segs[0] != 2 || segs[1] != 4 {
		t.Fatalf("segments = %v, want [2 4]", segs)
	}

	out := make([]byte, 8)
	r.Consume(out)
	if string(out) != "efxxxxxx" {
		t.Fatalf("contents = %q", out)
	}
}

func TestRingResetRejectsOversizedSeed(t *testing.T) {
	r := New(4)
	if err := r.Reset([]byte("12345")); err == nil {
		t.Fatal("expected error for seed larger than capacity")
	}
}
