package record

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/qwdemo/internal/frame"
	"github.com/dgnsrekt/qwdemo/internal/msg"
	"github.com/dgnsrekt/qwdemo/internal/writecache"
)

// EndOfDemo is the reason carried by the closing disconnect.
const EndOfDemo = "EndOfDemo"

// Options configures a Recorder.
type Options struct {
	Family frame.Family

	// CacheSize enables the write cache when positive.
	CacheSize int

	// Signature is printed into the demo just before it ends.
	Signature string

	// PingEvery rate limits OnPing calls made after recorded messages.
	PingEvery time.Duration
	OnPing    func()

	Logger *zap.Logger
}

// Recorder writes one demo. Every record is framed in full before it reaches
// the cache or sink.
type Recorder struct {
	out    writecache.Sink
	enc    *frame.Encoder
	family frame.Family
	logger *zap.Logger

	signature string
	pings     *rate.Limiter
	onPing    func()

	outgoing int32
	incoming int32
	ack      int32

	err     error
	stopped bool
}

// New starts recording into sink. The sink is closed by Stop or when a
// write fails.
func New(sink writecache.Sink, opts Options) *Recorder {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	out := sink
	if opts.CacheSize > 0 {
		out = writecache.New(sink, opts.CacheSize, opts.Logger)
	}
	r := &Recorder{
		out:       out,
		family:    opts.Family,
		logger:    opts.Logger,
		signature: opts.Signature,
		onPing:    opts.OnPing,
	}
	r.enc = frame.NewEncoder(abortingWriter{r}, opts.Family)
	if opts.OnPing != nil && opts.PingEvery > 0 {
		r.pings = rate.NewLimiter(rate.Every(opts.PingEvery), 1)
	}
	return r
}

// abortingWriter routes encoder output through the recorder's error state.
type abortingWriter struct{ r *Recorder }

func (w abortingWriter) Write(p []byte) (int, error) {
	n, err := w.r.out.Write(p)
	if err != nil {
		return n, err
	}
	return n, w.r.out.Flush()
}

func (r *Recorder) Family() frame.Family { return r.family }

// SetSequences updates the transport counters used by closing records.
func (r *Recorder) SetSequences(outgoing, incoming, ack int32) {
	r.outgoing, r.incoming, r.ack = outgoing, incoming, ack
}

// Start writes the startup burst for snap.
func (r *Recorder) Start(t float64, snap *Snapshot) error {
	if err := r.check(); err != nil {
		return err
	}
	if r.family == frame.MVD {
		r.enc.SetBase(t)
	}
	r.SetSequences(snap.Outgoing, snap.Incoming, snap.Incoming)
	if err := WriteStartup(r.enc, snap, t); err != nil {
		return r.abort(err)
	}
	r.logger.Debug("startup written",
		zap.Stringer("family", r.family),
		zap.String("level", snap.LevelName),
	)
	return nil
}

// RecordCommand writes a movement command.
func (r *Recorder) RecordCommand(t float64, cmd frame.Command) error {
	if err := r.check(); err != nil {
		return err
	}
	if err := r.enc.WriteCommand(t, cmd); err != nil {
		if errors.Is(err, frame.ErrWrongFamily) {
			return err
		}
		return r.abort(err)
	}
	return nil
}

// RecordMessage writes a network message. routing is required for MVD and
// ignored for QWD.
func (r *Recorder) RecordMessage(t float64, payload []byte, routing *frame.Routing) error {
	if err := r.check(); err != nil {
		return err
	}
	var err error
	if r.family == frame.MVD {
		rt := frame.ToAll()
		if routing != nil {
			rt = *routing
		}
		err = r.enc.WriteRouted(t, rt, payload)
	} else {
		err = r.enc.WriteMessage(t, payload)
	}
	if err != nil {
		return r.abort(err)
	}
	if r.pings != nil && r.pings.Allow() {
		r.onPing()
	}
	return nil
}

// RecordSet writes a sequence record.
func (r *Recorder) RecordSet(t float64, out, in int32) error {
	if err := r.check(); err != nil {
		return err
	}
	if err := r.enc.WriteSet(t, out, in); err != nil {
		return r.abort(err)
	}
	return nil
}

// Stop writes the signature and the closing disconnect, then flushes and
// closes the demo.
func (r *Recorder) Stop(t float64) error {
	if err := r.check(); err != nil {
		return err
	}
	r.stopped = true

	if r.signature != "" {
		b := msg.NewBuffer(64 + len(r.signature))
		if r.family == frame.QWD {
			b.PutLong(r.incoming + 1)
			b.PutLong(r.ack)
		}
		b.PutByte(msg.SvcPrint)
		b.PutByte(msg.PrintHigh)
		b.PutString(r.signature)
		if err := r.write(t, b.Bytes()); err != nil {
			return r.abort(err)
		}
	}

	b := msg.NewBuffer(16)
	if r.family == frame.QWD {
		b.PutLong(-1)
	}
	b.PutByte(msg.SvcDisconnect)
	b.PutString(EndOfDemo)
	if err := r.write(t, b.Bytes()); err != nil {
		return r.abort(err)
	}

	if err := r.out.Close(); err != nil {
		r.err = fmt.Errorf("%w: %w", ErrAborted, err)
		return r.err
	}
	r.logger.Debug("recording stopped", zap.Float64("time", t))
	return nil
}

func (r *Recorder) write(t float64, payload []byte) error {
	if r.family == frame.MVD {
		return r.enc.WriteRouted(t, frame.ToAll(), payload)
	}
	return r.enc.WriteMessage(t, payload)
}

func (r *Recorder) check() error {
	if r.err != nil {
		return r.err
	}
	if r.stopped {
		return ErrNotRecording
	}
	return nil
}

func (r *Recorder) abort(err error) error {
	r.err = fmt.Errorf("%w: %w", ErrAborted, err)
	r.logger.Error("recording aborted", zap.Error(err))
	if cerr := r.out.Close(); cerr != nil {
		r.logger.Warn("closing aborted demo", zap.Error(cerr))
	}
	return r.err
}

var _ io.Writer = abortingWriter{}
