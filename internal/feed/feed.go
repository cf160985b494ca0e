// Package feed turns a blocking byte stream into a non-blocking ring source.
// A background goroutine pulls chunks into a bounded channel and TryRead
// drains whatever has arrived without waiting.
package feed

import (
	"errors"
	"io"
	"sync"
)

// DefaultDepth is the number of chunks queued ahead of the reader.
const DefaultDepth = 64

// ChunkSize is the read size used by FromReader.
const ChunkSize = 4096

// NextFunc returns the next chunk of the stream, or io.EOF at its end.
type NextFunc func() ([]byte, error)

// Feed queues chunks produced by a NextFunc.
type Feed struct {
	ch      chan []byte
	done    chan struct{}
	stopped chan struct{}
	pending []byte
	err     error
	closer  io.Closer
	once    sync.Once
}

// New starts pulling from next. closer, when not nil, is closed by Close to
// unblock the pump.
func New(next NextFunc, depth int, closer io.Closer) *Feed {
	if depth <= 0 {
		depth = DefaultDepth
	}
	f := &Feed{
		ch:      make(chan []byte, depth),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		closer:  closer,
	}
	go f.pump(next)
	return f
}

// FromReader feeds r in ChunkSize reads. If r is an io.Closer it is closed
// along with the feed.
func FromReader(r io.Reader, depth int) *Feed {
	closer, _ := r.(io.Closer)
	return New(func() ([]byte, error) {
		buf := make([]byte, ChunkSize)
		n, err := r.Read(buf)
		return buf[:n], err
	}, depth, closer)
}

func (f *Feed) pump(next NextFunc) {
	defer close(f.stopped)
	defer close(f.ch)
	for {
		chunk, err := next()
		if len(chunk) > 0 {
			select {
			case f.ch <- chunk:
			case <-f.done:
				return
			}
		}
		if err != nil {
			select {
			case <-f.done:
			default:
				if !errors.Is(err, io.EOF) {
					f.err = err
				}
			}
			return
		}
	}
}

// TryRead copies queued bytes into p. It never blocks.
func (f *Feed) TryRead(p []byte) (int, bool, error) {
	n := 0
	for n < len(p) {
		if len(f.pending) == 0 {
			select {
			case chunk, ok := <-f.ch:
				if !ok {
					return n, true, f.err
				}
				f.pending = chunk
			default:
				return n, false, nil
			}
		}
		c := copy(p[n:], f.pending)
		f.pending = f.pending[c:]
		n += c
	}
	return n, false, nil
}

// Stopped is closed once the pump has returned and next is no longer
// called. A closer may wait on it after unblocking the stream.
func (f *Feed) Stopped() <-chan struct{} { return f.stopped }

// Close stops the pump and releases the underlying stream.
func (f *Feed) Close() error {
	var err error
	f.once.Do(func() {
		close(f.done)
		if f.closer != nil {
			err = f.closer.Close()
		}
	})
	return err
}
