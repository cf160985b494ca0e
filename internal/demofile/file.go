package demofile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/dgnsrekt/qwdemo/internal/ring"
	"github.com/dgnsrekt/qwdemo/internal/writecache"
)

// Reader is an open demo file. It satisfies ring.Source; file reads are
// always ready, so TryRead simply reads.
type Reader struct {
	Format Format
	Path   string

	f       *os.File
	r       io.Reader
	closers []func() error
}

// Open opens path, choosing the format from its extension.
func Open(path string) (*Reader, error) {
	format, err := Detect(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening demo: %w", err)
	}
	rd := &Reader{Format: format, Path: path, f: f}

	switch format.Compression {
	case Gzip:
		zr, err := gzip.NewReader(bufio.NewReader(f))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening gzip demo: %w", err)
		}
		rd.r = zr
		rd.closers = append(rd.closers, zr.Close)
	case Zstd:
		zr, err := zstd.NewReader(bufio.NewReader(f))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening zstd demo: %w", err)
		}
		rd.r = zr
		rd.closers = append(rd.closers, func() error { zr.Close(); return nil })
	default:
		rd.r = f
	}
	rd.closers = append(rd.closers, f.Close)
	return rd, nil
}

// Read implements io.Reader over the decompressed stream.
func (r *Reader) Read(p []byte) (int, error) { return r.r.Read(p) }

// TryRead implements ring.Source.
func (r *Reader) TryRead(p []byte) (int, bool, error) {
	n, err := r.r.Read(p)
	if errors.Is(err, io.EOF) {
		return n, true, nil
	}
	return n, false, err
}

func (r *Reader) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// Writer is a demo file being recorded. It satisfies writecache.Sink.
type Writer struct {
	Format Format
	Path   string

	f   *os.File
	buf *bufio.Writer
	w   io.Writer
	zw  flushCloser
}

type flushCloser interface {
	Flush() error
	Close() error
}

// Create creates path for writing in the given format.
func Create(path string, format Format) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating demo: %w", err)
	}
	w := &Writer{Format: format, Path: path, f: f, buf: bufio.NewWriter(f)}

	switch format.Compression {
	case Gzip:
		zw := gzip.NewWriter(w.buf)
		w.w, w.zw = zw, zw
	case Zstd:
		zw, err := zstd.NewWriter(w.buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("creating zstd encoder: %w", err)
		}
		w.w, w.zw = zw, zw
	default:
		w.w = w.buf
	}
	return w, nil
}

func (w *Writer) Write(p []byte) (int, error) { return w.w.Write(p) }

// Flush pushes buffered bytes through the compressor to the file.
func (w *Writer) Flush() error {
	if w.zw != nil {
		if err := w.zw.Flush(); err != nil {
			return err
		}
	}
	return w.buf.Flush()
}

func (w *Writer) Close() error {
	var errs []error
	if w.zw != nil {
		errs = append(errs, w.zw.Close())
	}
	errs = append(errs, w.buf.Flush(), w.f.Close())
	return errors.Join(errs...)
}

var (
	_ ring.Source     = (*Reader)(nil)
	_ writecache.Sink = (*Writer)(nil)
)
