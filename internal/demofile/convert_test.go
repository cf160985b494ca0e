package demofile

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	payload := bytes.Repeat([]byte{1, 2, 3, 4, 5}, 2000)
	src := filepath.Join(dir, "duel.qwd")
	if err := os.WriteFile(src, payload, 0o644); err != nil {
		t.Fatal(err)
	}

	gz := filepath.Join(dir, "duel.qwd.gz")
	n, err := Convert(gz, src)
	if err != nil {
		t.Fatalf("Convert to gzip: %v", err)
	}
	if n != int64(len(payload)) {
		t.Errorf("copied %d bytes, want %d", n, len(payload))
	}

	zst := filepath.Join(dir, "duel.qwd.zst")
	if _, err := Convert(zst, gz); err != nil {
		t.Fatalf("Convert gzip to zstd: %v", err)
	}

	r, err := Open(zst)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("zstd round trip lost data: %d bytes", len(got))
	}
}

func TestConvertRejectsFamilyChange(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "duel.qwd")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "duel.mvd")
	if _, err := Convert(dst, src); !errors.Is(err, ErrFamilyMismatch) {
		t.Fatalf("err = %v, want ErrFamilyMismatch", err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Errorf("destination should not be created")
	}
}

func TestUnique(t *testing.T) {
	dir := t.TempDir()

	path, err := Unique(dir, "match", ".qwd")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "match_000.qwd"); path != want {
		t.Errorf("Unique = %q, want %q", path, want)
	}

	// Any demo extension claims the number.
	for _, name := range []string{"match_000.qwd", "match_001.mvd.gz"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	path, err = Unique(dir, "match", ".qwd")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "match_002.qwd"); path != want {
		t.Errorf("Unique = %q, want %q", path, want)
	}
}
