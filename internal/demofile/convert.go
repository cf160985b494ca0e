package demofile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrFamilyMismatch is returned when converting between demo families.
var ErrFamilyMismatch = errors.New("demofile: cannot convert between demo families")

// ErrNoFreeName is returned when every numbered name is taken.
var ErrNoFreeName = errors.New("demofile: no free demo name")

// MaxNumbered bounds the numbered names tried by Unique.
const MaxNumbered = 1000

// Convert re-encodes the demo at src into dst, changing only the
// compression. It returns the number of uncompressed bytes copied.
func Convert(dst, src string) (int64, error) {
	in, err := Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	format, err := Detect(dst)
	if err != nil {
		return 0, err
	}
	if format.Family != in.Format.Family {
		return 0, fmt.Errorf("%w: %s to %s", ErrFamilyMismatch, in.Format, format)
	}

	out, err := Create(dst, format)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return n, fmt.Errorf("converting %s: %w", src, err)
	}
	return n, nil
}

// Unique returns the first "base_NNN" path in dir, numbered from 000, for
// which no file exists under any demo extension. The returned path carries
// ext.
func Unique(dir, base, ext string) (string, error) {
	for i := 0; i < MaxNumbered; i++ {
		stem := filepath.Join(dir, fmt.Sprintf("%s_%03d", base, i))
		if !existsAny(stem) {
			return stem + ext, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoFreeName, filepath.Join(dir, base))
}

func existsAny(stem string) bool {
	for _, ext := range Extensions {
		if _, err := os.Stat(stem + ext); err == nil {
			return true
		}
	}
	return false
}
