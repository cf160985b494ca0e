package demofile

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgnsrekt/qwdemo/internal/frame"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"duel.qwd", Format{frame.QWD, Plain}},
		{"4on4.MVD", Format{frame.MVD, Plain}},
		{"ctf.mvd.gz", Format{frame.MVD, Gzip}},
		{"x/y.qwd.zst", Format{frame.QWD, Zstd}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.name)
			if err != nil {
				t.Fatalf("Detect: %v", err)
			}
			if got != tt.want {
				t.Errorf("Detect(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}

	if _, err := Detect("demo.dem"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestStripExt(t *testing.T) {
	for in, want := range map[string]string{
		"duel.qwd":    "duel",
		"duel.mvd.gz": "duel",
		"duel":        "duel",
		"a.b.zst":     "a.b.zst",
	} {
		if got := StripExt(in); got != want {
			t.Errorf("StripExt(%q) = %q, want %q", in, got, want)
		}
	}
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte{1}, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolvePrefersQWD(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "match.mvd"))
	writeFile(t, filepath.Join(dir, "match.qwd"))

	path, f, err := Resolve("match.mvd", dir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if filepath.Base(path) != "match.qwd" || f.Family != frame.QWD {
		t.Errorf("Resolve = %s %v, want match.qwd", path, f)
	}
}

func TestResolveCompressed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "match.mvd.zst"))

	path, f, err := Resolve("match", dir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if filepath.Base(path) != "match.mvd.zst" || f != (Format{frame.MVD, Zstd}) {
		t.Errorf("Resolve = %s %v", path, f)
	}

	if _, _, err := Resolve("missing", dir); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("quakeworld demo "), 4096)

	for _, c := range []Compression{Plain, Gzip, Zstd} {
		t.Run(c.String(), func(t *testing.T) {
			format := Format{Family: frame.MVD, Compression: c}
			path := filepath.Join(t.TempDir(), "demo"+format.Ext())

			w, err := Create(path, format)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if _, err := w.Write(payload[:100]); err != nil {
				t.Fatal(err)
			}
			if err := w.Flush(); err != nil {
				t.Fatalf("Flush: %v", err)
			}
			if _, err := w.Write(payload[100:]); err != nil {
				t.Fatal(err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			r, err := Open(path)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer r.Close()
			if r.Format != format {
				t.Errorf("Format = %v, want %v", r.Format, format)
			}

			var got []byte
			buf := make([]byte, 1000)
			for {
				n, eof, err := r.TryRead(buf)
				if err != nil {
					t.Fatalf("TryRead: %v", err)
				}
				got = append(got, buf[:n]...)
				if eof {
					break
				}
			}
			if !bytes.Equal(got, payload) {
				t.Errorf("read %d bytes, want %d", len(got), len(payload))
			}
		})
	}
}

func TestReaderImplementsIOReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.qwd")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	b, err := io.ReadAll(r)
	if err != nil || string(b) != "abc" {
		t.Errorf("ReadAll = %q, %v", b, err)
	}
}
