// Package writecache batches demo writes in memory before they reach the
// backing file.
package writecache

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

const (
	// MinSize is the smallest cache that will be allocated.
	MinSize = 2 * 1024 * 1024

	// FlushSize is the minimum amount drained on overflow.
	FlushSize = 1024 * 1024
)

// ErrTooLarge is returned for a single write that cannot fit in the cache.
var ErrTooLarge = errors.New("writecache: write larger than cache")

// Sink is the backing file.
type Sink interface {
	io.Writer
	Flush() error
	Close() error
}

// Cache is a write-combining buffer in front of a Sink.
type Cache struct {
	sink   Sink
	data   []byte
	logger *zap.Logger
}

// SizeFromKB converts a configured size in kilobytes, applying the floor.
func SizeFromKB(kb int) int {
	return max(kb*1024, MinSize)
}

// New returns a Cache of size bytes. Sizes below MinSize are raised to it.
func New(sink Sink, size int, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		sink:   sink,
		data:   make([]byte, 0, max(size, MinSize)),
		logger: logger,
	}
}

func (c *Cache) Size() int     { return cap(c.data) }
func (c *Cache) Buffered() int { return len(c.data) }

// Write appends p, first draining the oldest bytes if p would not fit.
func (c *Cache) Write(p []byte) (int, error) {
	size := cap(c.data)
	if len(p) > size {
		return 0, fmt.Errorf("%w: %d > %d", ErrTooLarge, len(p), size)
	}

	if free := size - len(c.data); len(p) > free {
		overflow := len(p) - free
		if overflow <= FlushSize {
			overflow = min(FlushSize, len(c.data))
		}

		c.logger.Warn("democache overflow, flushing",
			zap.Int("flush", overflow),
			zap.Int("buffered", len(c.data)),
		)

		if _, err := c.sink.Write(c.data[:overflow]); err != nil {
			return 0, fmt.Errorf("flushing cache: %w", err)
		}
		rest := copy(c.data, c.data[overflow:])
		c.data = c.data[:rest]
	}

	c.data = append(c.data, p...)
	return len(p), nil
}

// Flush flushes the sink. Cached bytes stay cached until an overflow or Close.
func (c *Cache) Flush() error {
	return c.sink.Flush()
}

// Drain writes every cached byte to the sink.
func (c *Cache) Drain() error {
	if len(c.data) == 0 {
		return nil
	}
	if _, err := c.sink.Write(c.data); err != nil {
		return fmt.Errorf("draining cache: %w", err)
	}
	c.data = c.data[:0]
	return nil
}

// Close drains the remainder and closes the sink.
func (c *Cache) Close() error {
	err := c.Drain()
	if err == nil {
		err = c.sink.Flush()
	}
	return errors.Join(err, c.sink.Close())
}

var _ Sink = (*Cache)(nil)
