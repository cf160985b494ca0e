package catalog

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/dgnsrekt/qwdemo/internal/demofile"
	"github.com/dgnsrekt/qwdemo/internal/frame"
	"github.com/dgnsrekt/qwdemo/internal/relay"
)

func writeDemo(t *testing.T, path string, format demofile.Format) []byte {
	t.Helper()
	var raw bytes.Buffer
	enc := frame.NewEncoder(&raw, format.Family)
	for i := 0; i < 3; i++ {
		var err error
		if format.Family == frame.MVD {
			err = enc.WriteRouted(float64(i)*0.1, frame.ToAll(), []byte{1})
		} else {
			err = enc.WriteMessage(float64(i)*0.1, []byte{0, 0, 0, 0, 0, 0, 0, 0, 1})
		}
		if err != nil {
			t.Fatal(err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	w, err := demofile.Create(path, format)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(raw.Bytes()); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return raw.Bytes()
}

func newTestCatalog(t *testing.T) (*Catalog, string) {
	t.Helper()
	dir := t.TempDir()
	writeDemo(t, filepath.Join(dir, "duel.qwd"), demofile.Format{Family: frame.QWD})
	writeDemo(t, filepath.Join(dir, "final.mvd.gz"), demofile.Format{Family: frame.MVD, Compression: demofile.Gzip})
	writeDemo(t, filepath.Join(dir, "old", "skipped.qwd"), demofile.Format{Family: frame.QWD})
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := New(dir, 0, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, dir
}

func TestListAndFilter(t *testing.T) {
	c, _ := newTestCatalog(t)

	all := c.List("")
	if len(all) != 2 {
		t.Fatalf("List = %+v", all)
	}
	if all[0].Name != "final.mvd.gz" || all[1].Name != "duel.qwd" {
		t.Errorf("names = %s, %s", all[0].Name, all[1].Name)
	}
	if all[0].Compression != "gzip" || all[0].Family != "mvd" {
		t.Errorf("entry = %+v", all[0])
	}

	if mvd := c.List("MVD"); len(mvd) != 1 || mvd[0].Family != "mvd" {
		t.Errorf("List(MVD) = %+v", mvd)
	}
}

func TestRescanPicksUpNewDemos(t *testing.T) {
	c, dir := newTestCatalog(t)
	writeDemo(t, filepath.Join(dir, "new.qwd.zst"), demofile.Format{Family: frame.QWD, Compression: demofile.Zstd})

	n, err := c.Rescan()
	if err != nil {
		t.Fatalf("Rescan: %v", err)
	}
	if n != 3 {
		t.Errorf("Rescan found %d demos, want 3", n)
	}
	if _, err := c.Get("new.qwd.zst"); err != nil {
		t.Errorf("Get: %v", err)
	}
}

func TestOpenDemoDecompresses(t *testing.T) {
	dir := t.TempDir()
	want := writeDemo(t, filepath.Join(dir, "a.mvd.gz"), demofile.Format{Family: frame.MVD, Compression: demofile.Gzip})
	c, err := New(dir, 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	r, family, err := c.OpenDemo("a.mvd.gz")
	if err != nil {
		t.Fatalf("OpenDemo: %v", err)
	}
	defer r.Close()
	if family != frame.MVD {
		t.Errorf("family = %v", family)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("read %d bytes, want %d", len(got), len(want))
	}

	if _, _, err := c.OpenDemo("../etc/passwd.qwd"); !errors.Is(err, relay.ErrNoDemo) {
		t.Errorf("expected relay.ErrNoDemo, got %v", err)
	}
}

func TestInspectCachesReport(t *testing.T) {
	c, _ := newTestCatalog(t)

	rep, err := c.Inspect("duel.qwd")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if rep.Records != 3 || !rep.OK() {
		t.Errorf("report = %+v", rep)
	}
	again, err := c.Inspect("duel.qwd")
	if err != nil {
		t.Fatal(err)
	}
	if again != rep {
		t.Error("expected the cached report")
	}

	if _, err := c.Inspect("missing.qwd"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
