// Package catalog indexes the demos under a directory and serves them to
// the relay and the HTTP API.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/qwdemo/internal/demofile"
	"github.com/dgnsrekt/qwdemo/internal/frame"
	"github.com/dgnsrekt/qwdemo/internal/inspect"
	"github.com/dgnsrekt/qwdemo/internal/relay"
)

// ErrNotFound is returned for a demo the catalog does not hold.
var ErrNotFound = errors.New("demo not found")

// Entry is one indexed demo. Only files directly inside the catalog
// directory are indexed, so Name is a plain file name.
type Entry struct {
	Name        string    `json:"name"`
	Family      string    `json:"family"`
	Compression string    `json:"compression"`
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"modified"`

	path   string
	format demofile.Format
}

// Catalog is a rescannable index of a demo directory.
type Catalog struct {
	dir        string
	maxMessage int

	mu      sync.RWMutex
	entries map[string]Entry
	reports map[string]cachedReport
	logger  *zap.Logger
}

type cachedReport struct {
	modTime time.Time
	size    int64
	report  *inspect.Report
}

// Compile-time interface verification
var _ relay.Opener = (*Catalog)(nil)

// New scans dir and returns its catalog.
func New(dir string, maxMessage int, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Catalog{
		dir:        dir,
		maxMessage: maxMessage,
		reports:    make(map[string]cachedReport),
		logger:     logger,
	}
	if _, err := c.Rescan(); err != nil {
		return nil, err
	}
	return c, nil
}

// Dir returns the scanned directory.
func (c *Catalog) Dir() string { return c.dir }

// Rescan walks the directory again and atomically replaces the index. It
// returns the number of demos found.
func (c *Catalog) Rescan() (int, error) {
	entries := make(map[string]Entry)

	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != c.dir {
				return filepath.SkipDir
			}
			return nil
		}
		format, err := demofile.Detect(path)
		if err != nil {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			c.logger.Warn("failed to stat demo", zap.String("path", path), zap.Error(err))
			return nil
		}
		name := d.Name()
		entries[name] = Entry{
			Name:        name,
			Family:      format.Family.String(),
			Compression: format.Compression.String(),
			Size:        info.Size(),
			ModTime:     info.ModTime().UTC(),
			path:        path,
			format:      format,
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walking demo directory: %w", err)
	}

	c.mu.Lock()
	c.entries = entries
	for name := range c.reports {
		if _, ok := entries[name]; !ok {
			delete(c.reports, name)
		}
	}
	c.mu.Unlock()

	c.logger.Info("indexed demos",
		zap.String("dir", c.dir),
		zap.Int("count", len(entries)),
	)
	return len(entries), nil
}

// List returns all demos sorted by name. A non-empty family keeps only
// demos of that family.
func (c *Catalog) List(family string) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	list := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		if family != "" && !strings.EqualFold(e.Family, family) {
			continue
		}
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Get returns the named demo.
func (c *Catalog) Get(name string) (Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return e, nil
}

// Open opens the named demo for reading.
func (c *Catalog) Open(name string) (*demofile.Reader, error) {
	e, err := c.Get(name)
	if err != nil {
		return nil, err
	}
	return demofile.Open(e.path)
}

// OpenDemo implements relay.Opener.
func (c *Catalog) OpenDemo(name string) (io.ReadCloser, frame.Family, error) {
	r, err := c.Open(name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, 0, fmt.Errorf("%w: %s", relay.ErrNoDemo, name)
		}
		return nil, 0, err
	}
	return r, r.Format.Family, nil
}

// Inspect returns the summary of the named demo. Summaries are cached until
// the file changes.
func (c *Catalog) Inspect(name string) (*inspect.Report, error) {
	e, err := c.Get(name)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	cached, ok := c.reports[name]
	c.mu.RUnlock()
	if ok && cached.modTime.Equal(e.ModTime) && cached.size == e.Size {
		return cached.report, nil
	}

	r, err := demofile.Open(e.path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	// A framing error is part of the report, not a failure to inspect.
	rep, _ := inspect.Run(r, e.format.Family, inspect.Options{MaxMessage: c.maxMessage})

	c.mu.Lock()
	c.reports[name] = cachedReport{modTime: e.ModTime, size: e.Size, report: rep}
	c.mu.Unlock()

	c.logger.Debug("inspected demo",
		zap.String("demo", name),
		zap.Int("records", rep.Records),
		zap.Float64("duration", rep.Duration),
	)
	return rep, nil
}
