package msg

import "testing"

func TestBufferReaderRoundTrip(t *testing.T) {
	b := NewBuffer(64)
	b.PutByte(SvcPrint)
	b.PutShort(-2)
	b.PutLong(1 << 20)
	b.PutFloat(1.5)
	b.PutString("hello")
	b.PutCoord(100.125)
	b.PutAngle(90)

	r := NewReader(b.Bytes())
	if c, _ := r.Byte(); c != SvcPrint {
		t.Errorf("Byte = %d, want %d", c, SvcPrint)
	}
	if v, _ := r.Short(); v != -2 {
		t.Errorf("Short = %d, want -2", v)
	}
	if v, _ := r.Long(); v != 1<<20 {
		t.Errorf("Long = %d", v)
	}
	if v, _ := r.Float(); v != 1.5 {
		t.Errorf("Float = %v", v)
	}
	if s, _ := r.CString(); s != "hello" {
		t.Errorf("CString = %q", s)
	}
	if v, _ := r.Coord(); v != 100.125 {
		t.Errorf("Coord = %v", v)
	}
	if v, _ := r.Angle(); v != 90 {
		t.Errorf("Angle = %v", v)
	}
	if r.Remaining() != 0 {
		t.Errorf("Remaining = %d", r.Remaining())
	}
}

func TestReaderShort(t *testing.T) {
	r := NewReader([]byte{1, 2})
	if _, err := r.Long(); err != ErrShort {
		t.Fatalf("Long err = %v, want ErrShort", err)
	}
	r = NewReader([]byte("abc"))
	if _, err := r.CString(); err != ErrShort {
		t.Fatalf("CString err = %v, want ErrShort", err)
	}
}
