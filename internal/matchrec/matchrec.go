// Package matchrec records matches automatically. A match is recorded to a
// temporary demo when it starts and, depending on the mode, is kept or
// dropped when it ends. Manual recordings with numbered names are handled
// here too so the two never overlap.
package matchrec

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/qwdemo/internal/demofile"
	"github.com/dgnsrekt/qwdemo/internal/notify"
	"github.com/dgnsrekt/qwdemo/internal/record"
)

var (
	// ErrDisabled is returned by StartMatch when match recording is off.
	ErrDisabled = errors.New("matchrec: match recording disabled")

	// ErrBusy is returned when another recording is already running.
	ErrBusy = errors.New("matchrec: recording in progress")

	// ErrNotRecording is returned when there is nothing to stop.
	ErrNotRecording = errors.New("matchrec: not recording")

	// ErrNothingToSave is returned by Save without a finished match demo.
	ErrNothingToSave = errors.New("matchrec: no match demo to save")
)

// Mode selects what happens to a finished match demo.
type Mode int

const (
	ModeOff    Mode = iota // matches are not recorded
	ModeManual             // recorded, kept only on Save
	ModeAuto               // recorded and saved when the match ends
)

func (m Mode) String() string {
	switch m {
	case ModeManual:
		return "manual"
	case ModeAuto:
		return "auto"
	}
	return "off"
}

// ParseMode accepts a mode name or its number.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "0", "":
		return ModeOff, nil
	case "manual", "1":
		return ModeManual, nil
	case "auto", "2":
		return ModeAuto, nil
	}
	return ModeOff, fmt.Errorf("invalid match record mode: %q", s)
}

// Status reports the state of the match recorder.
type Status int

const (
	StatusIdle      Status = iota
	StatusRecording        // a match is being recorded
	StatusReady            // a finished match demo awaits Save
)

// Options configures a Manager.
type Options struct {
	Mode Mode

	// Dir receives saved demos. TempDir holds the match in progress and
	// defaults to Dir/.staging.
	Dir     string
	TempDir string

	// MinLength is the shortest cancelled match still saved in ModeAuto.
	MinLength time.Duration

	// Compression is applied to saved demos.
	Compression demofile.Compression

	// Record configures every recorder started by the manager.
	Record record.Options

	Notifier notify.Notifier
	Logger   *zap.Logger
	Now      func() time.Time
}

// Manager owns at most one running recording, either a match or a manual
// one. Lifecycle methods are safe for concurrent use; the recorder
// returned by Recorder is not.
type Manager struct {
	opts    Options
	staging *stager
	logger  *zap.Logger

	mu      sync.Mutex
	rec     *record.Recorder
	auto    bool
	path    string // manual recording
	temp    string // match recording
	match   string
	started time.Time
	length  time.Duration
	ready   bool
}

// New creates a Manager.
func New(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Notifier == nil {
		opts.Notifier = &notify.NoopNotifier{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Record.Logger == nil {
		opts.Record.Logger = opts.Logger
	}
	return &Manager{
		opts:    opts,
		staging: newStager(opts.Dir, opts.TempDir),
		logger:  opts.Logger,
	}
}

func (m *Manager) Mode() Mode { return m.opts.Mode }

func (m *Manager) format() demofile.Format {
	return demofile.Format{Family: m.opts.Record.Family, Compression: m.opts.Compression}
}

// Recorder returns the running recorder, or nil.
func (m *Manager) Recorder() *record.Recorder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec
}

// Status reports whether a match is recording or waiting to be saved.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.ready:
		return StatusReady
	case m.rec != nil && m.auto:
		return StatusRecording
	}
	return StatusIdle
}

// StartMatch begins recording match at demo time t. A match already being
// recorded is stopped and discarded first; a manual recording is left
// alone and ErrBusy returned.
func (m *Manager) StartMatch(t float64, match string, snap *record.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.opts.Mode == ModeOff {
		return ErrDisabled
	}
	if m.rec != nil && !m.auto {
		m.logger.Info("not recording match, manual recording in progress", zap.String("path", m.path))
		return ErrBusy
	}
	if m.rec != nil {
		if err := m.rec.Stop(t); err != nil {
			m.logger.Warn("stopping previous match demo", zap.Error(err))
		}
		m.rec = nil
	}

	if err := m.staging.prepare(); err != nil {
		return fmt.Errorf("creating temp directory: %w", err)
	}
	tmp := m.staging.tempPath(m.opts.Record.Family)
	// Temp demos stay uncompressed until saved.
	tmpFormat := demofile.Format{Family: m.opts.Record.Family}
	if err := m.begin(t, tmp, tmpFormat, snap); err != nil {
		return err
	}

	m.temp = tmp
	m.auto = true
	m.match = sanitize(match)
	m.started = m.opts.Now()
	m.ready = false
	m.logger.Info("match recording started", zap.String("match", m.match), zap.String("mode", m.opts.Mode.String()))
	return nil
}

// StopMatch ends the match recording at t. In ModeAuto the demo is saved
// and its path returned.
func (m *Manager) StopMatch(ctx context.Context, t float64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.finishMatch(ctx, t); err != nil {
		return "", err
	}
	if m.opts.Mode != ModeAuto {
		return "", nil
	}
	return m.save(ctx)
}

// CancelMatch ends the match recording at t because the match broke off.
// In ModeAuto the demo is still saved when it reached MinLength; shorter
// ones are dropped.
func (m *Manager) CancelMatch(ctx context.Context, t float64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.finishMatch(ctx, t); err != nil {
		return "", err
	}
	if m.opts.Mode != ModeAuto {
		return "", nil
	}
	if m.length > m.opts.MinLength {
		return m.save(ctx)
	}

	m.ready = false
	m.logger.Info("match demo cancelled", zap.String("match", m.match), zap.Duration("length", m.length))
	if err := m.staging.discard(m.temp); err != nil {
		m.logger.Warn("removing temp demo", zap.Error(err))
	}
	if err := m.opts.Notifier.SendDiscarded(ctx, m.recording(""), m.opts.MinLength); err != nil {
		m.logger.Warn("discard notification failed", zap.Error(err))
	}
	return "", nil
}

// Save keeps the last finished match demo under a free numbered name in
// the demo directory.
func (m *Manager) Save(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save(ctx)
}

// Record starts a manual recording named after name with the next free
// number. It fails with ErrBusy while any recording is running.
func (m *Manager) Record(t float64, name string, snap *record.Snapshot) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rec != nil {
		if m.auto {
			return "", fmt.Errorf("%w: match recording", ErrBusy)
		}
		return "", ErrBusy
	}
	if err := os.MkdirAll(m.opts.Dir, 0750); err != nil {
		return "", fmt.Errorf("creating demo directory: %w", err)
	}
	path, err := demofile.Unique(m.opts.Dir, sanitize(name), m.format().Ext())
	if err != nil {
		return "", err
	}
	if err := m.begin(t, path, m.format(), snap); err != nil {
		return "", err
	}
	m.path = path
	m.auto = false
	m.logger.Info("recording started", zap.String("path", path))
	return path, nil
}

// StopRecord ends a manual recording and returns its path.
func (m *Manager) StopRecord(t float64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rec == nil || m.auto {
		return "", ErrNotRecording
	}
	rec, path := m.rec, m.path
	m.rec = nil
	if err := rec.Stop(t); err != nil {
		return path, err
	}
	m.logger.Info("recording stopped", zap.String("path", path))
	return path, nil
}

// Close stops whatever is recording without saving it.
func (m *Manager) Close(t float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return nil
	}
	rec := m.rec
	m.rec = nil
	return rec.Stop(t)
}

func (m *Manager) begin(t float64, path string, format demofile.Format, snap *record.Snapshot) error {
	w, err := demofile.Create(path, format)
	if err != nil {
		return err
	}
	rec := record.New(w, m.opts.Record)
	if err := rec.Start(t, snap); err != nil {
		return err
	}
	m.rec = rec
	return nil
}

func (m *Manager) finishMatch(ctx context.Context, t float64) error {
	if m.rec == nil || !m.auto {
		return ErrNotRecording
	}
	rec := m.rec
	m.rec = nil
	m.length = m.opts.Now().Sub(m.started)
	if err := rec.Stop(t); err != nil {
		m.notifyFailed(ctx, err)
		return err
	}
	m.ready = true
	m.logger.Info("match recording stopped", zap.String("match", m.match), zap.Duration("length", m.length))
	return nil
}

func (m *Manager) save(ctx context.Context) (string, error) {
	if !m.ready {
		return "", ErrNothingToSave
	}
	m.ready = false

	dest, err := m.staging.commit(m.temp, m.match, m.format())
	if err != nil {
		m.notifyFailed(ctx, err)
		return "", fmt.Errorf("saving match demo: %w", err)
	}
	m.logger.Info("match demo saved", zap.String("path", dest))

	if err := m.opts.Notifier.SendSaved(ctx, m.recording(dest)); err != nil {
		m.logger.Warn("saved notification failed", zap.Error(err))
	}
	return dest, nil
}

func (m *Manager) recording(path string) *notify.Recording {
	rec := &notify.Recording{Match: m.match, Path: path, Length: m.length}
	if path != "" {
		if info, err := os.Stat(path); err == nil {
			rec.Size = info.Size()
		}
	}
	return rec
}

func (m *Manager) notifyFailed(ctx context.Context, err error) {
	if nerr := m.opts.Notifier.SendFailed(ctx, m.recording(""), err); nerr != nil {
		m.logger.Warn("failure notification failed", zap.Error(nerr))
	}
}

// sanitize turns a match name into a file name stem.
func sanitize(name string) string {
	name = demofile.StripExt(strings.TrimSpace(name))
	if name == "" {
		return "match"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '.', r == '[', r == ']':
			return r
		}
		return '_'
	}, name)
}
