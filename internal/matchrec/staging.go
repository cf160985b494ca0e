package matchrec

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgnsrekt/qwdemo/internal/demofile"
	"github.com/dgnsrekt/qwdemo/internal/frame"
)

// TempName is the stem of the in-progress match demo.
const TempName = "_!_temp_!_"

// stager owns the temporary recording and moves it into the demo
// directory once the match is kept.
type stager struct {
	finalDir    string
	stagingRoot string
}

func newStager(finalDir, stagingRoot string) *stager {
	if stagingRoot == "" {
		stagingRoot = filepath.Join(finalDir, ".staging")
	}
	return &stager{finalDir: finalDir, stagingRoot: stagingRoot}
}

func (s *stager) tempPath(family frame.Family) string {
	return filepath.Join(s.stagingRoot, TempName+demofile.Format{Family: family}.Ext())
}

func (s *stager) prepare() error {
	return os.MkdirAll(s.stagingRoot, 0750)
}

// commit moves the temporary demo at tmp to a free numbered name for base.
// Plain demos are renamed when possible, anything else is copied through
// demofile.Convert.
func (s *stager) commit(tmp, base string, format demofile.Format) (string, error) {
	if err := os.MkdirAll(s.finalDir, 0750); err != nil {
		return "", fmt.Errorf("creating demo directory: %w", err)
	}
	dest, err := demofile.Unique(s.finalDir, base, format.Ext())
	if err != nil {
		return "", err
	}

	if format.Compression == demofile.Plain {
		if err := os.Rename(tmp, dest); err == nil {
			return dest, nil
		}
	}

	if _, err := demofile.Convert(dest, tmp); err != nil {
		return "", err
	}
	_ = os.Remove(tmp)
	return dest, nil
}

func (s *stager) discard(tmp string) error {
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
