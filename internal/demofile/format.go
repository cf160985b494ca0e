// Package demofile opens demo files for playback and creates them for
// recording, handling plain, gzip and zstd compressed files alike.
package demofile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgnsrekt/qwdemo/internal/frame"
)

// ErrNotFound is returned when no candidate file exists.
var ErrNotFound = errors.New("demofile: demo not found")

// ErrUnknownFormat is returned for an unrecognized file extension.
var ErrUnknownFormat = errors.New("demofile: unknown demo format")

// Compression is the container wrapped around a demo stream.
type Compression int

const (
	Plain Compression = iota
	Gzip
	Zstd
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	}
	return "plain"
}

func (c Compression) suffix() string {
	switch c {
	case Gzip:
		return ".gz"
	case Zstd:
		return ".zst"
	}
	return ""
}

// Format describes a demo file.
type Format struct {
	Family      frame.Family
	Compression Compression
}

// Ext returns the file extension for f, such as ".mvd.gz".
func (f Format) Ext() string {
	return "." + f.Family.String() + f.Compression.suffix()
}

func (f Format) String() string { return strings.TrimPrefix(f.Ext(), ".") }

// Extensions lists every demo extension in lookup order.
var Extensions = []string{".qwd", ".mvd", ".qwd.gz", ".mvd.gz", ".qwd.zst", ".mvd.zst"}

// Detect derives the format from a file name.
func Detect(name string) (Format, error) {
	lower := strings.ToLower(name)
	var f Format
	switch {
	case strings.HasSuffix(lower, ".gz"):
		f.Compression = Gzip
		lower = strings.TrimSuffix(lower, ".gz")
	case strings.HasSuffix(lower, ".zst"):
		f.Compression = Zstd
		lower = strings.TrimSuffix(lower, ".zst")
	}
	switch filepath.Ext(lower) {
	case ".qwd":
		f.Family = frame.QWD
	case ".mvd":
		f.Family = frame.MVD
	default:
		return f, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
	return f, nil
}

// ParseFormat parses a format name such as "qwd" or "mvd.gz".
func ParseFormat(s string) (Format, error) {
	return Detect("demo." + strings.TrimPrefix(s, "."))
}

// StripExt removes any demo extension from name.
func StripExt(name string) string {
	lower := strings.ToLower(name)
	for i := len(Extensions) - 1; i >= 0; i-- {
		if strings.HasSuffix(lower, Extensions[i]) {
			return name[:len(name)-len(Extensions[i])]
		}
	}
	return name
}

// Resolve finds the demo named name. Each known extension is tried in turn,
// first as given and then inside each of dirs.
func Resolve(name string, dirs ...string) (string, Format, error) {
	base := StripExt(name)
	for _, ext := range Extensions {
		candidates := []string{base + ext}
		for _, dir := range dirs {
			if dir != "" && !filepath.IsAbs(base) {
				candidates = append(candidates, filepath.Join(dir, base+ext))
			}
		}
		for _, path := range candidates {
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}
			f, err := Detect(path)
			if err != nil {
				return "", f, err
			}
			return path, f, nil
		}
	}
	return "", Format{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}
