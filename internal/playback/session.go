// Package playback drives demo playback: it reads framed records from a ring
// reader and decides, tick by tick, which network messages are due.
package playback

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/qwdemo/internal/frame"
	"github.com/dgnsrekt/qwdemo/internal/msg"
	"github.com/dgnsrekt/qwdemo/internal/ring"
)

// State is the playback lifecycle state.
type State int

const (
	Idle State = iota
	Armed
	Running
	Paused
	Buffering
	Ended
	Failed
)

var stateNames = [...]string{"idle", "armed", "running", "paused", "buffering", "ended", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// EndReason tells the host why playback ended.
type EndReason int

const (
	EndOfStream EndReason = iota
	Disconnected
)

func (r EndReason) String() string {
	if r == Disconnected {
		return "disconnect"
	}
	return "end of stream"
}

// NoTrack is the track value of a free flying viewer.
const NoTrack = -1

// UpdateBackup is the number of command slots kept.
const UpdateBackup = 64

// Options configures a Session.
type Options struct {
	Family    frame.Family
	Benchmark bool

	// Live marks a relay source. It is only valid for MVD.
	Live      bool
	Prebuffer time.Duration

	// Track is the player whose view is followed, or NoTrack.
	Track int

	// MaxMessage bounds a network message payload.
	MaxMessage int

	// BaseTime is the absolute time MVD deltas start from.
	BaseTime float64

	// Seed holds stream bytes read during negotiation.
	Seed     []byte
	Capacity int

	Now    func() time.Time
	Logger *zap.Logger

	// OnEnd is called once when playback ends cleanly.
	OnEnd func(EndReason)

	// OnCommand is called for every recorded command with its slot.
	OnCommand func(slot int, cmd frame.Command)
}

// Message is a network message due for the application.
type Message struct {
	Time    float64
	Payload []byte
	Routing frame.Routing
}

// Sequences mirrors the transport counters a demo drives.
type Sequences struct {
	Outgoing     int32
	Incoming     int32
	IncomingAck  int32
	FrameLatency float64
	LastReceived float64
}

// Session is one playback of one demo stream.
type Session struct {
	opts   Options
	reader *ring.Reader
	policy Policy
	logger *zap.Logger
	now    func() time.Time

	state     State
	err       error
	paused    bool
	skipFrame bool

	serverPaused bool
	active       bool
	track        int
	speed        float64

	clock      float64
	prevTime   float64
	nextDue    float64
	oldDue     float64
	recordTime float64
	startTime  float64

	routing  frame.Routing
	seq      Sequences
	commands [UpdateBackup]frame.Command
	frames   int
}

// New opens a session over src. The source stays owned by the caller.
func New(src ring.Source, opts Options) (*Session, error) {
	if opts.Live && opts.Family != frame.MVD {
		return nil, errors.New("playback: live playback requires an mvd stream")
	}
	if opts.MaxMessage <= 0 {
		opts.MaxMessage = msg.MaxNetMessage
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	ropts := ring.Options{
		Capacity:  opts.Capacity,
		Live:      opts.Live,
		Prebuffer: opts.Prebuffer,
		Seed:      opts.Seed,
		Now:       opts.Now,
	}
	family := opts.Family
	ropts.HasRecord = func(b []byte) bool { return frame.Complete(family, b) }
	if family == frame.MVD {
		ropts.Heuristic = ring.MVDHeuristic
	}
	reader, err := ring.NewReader(src, ropts)
	if err != nil {
		return nil, fmt.Errorf("playback: %w", err)
	}

	s := &Session{
		opts:      opts,
		reader:    reader,
		logger:    opts.Logger,
		now:       opts.Now,
		state:     Armed,
		track:     opts.Track,
		speed:     1,
		clock:     opts.BaseTime,
		prevTime:  opts.BaseTime,
		nextDue:   opts.BaseTime,
		startTime: -1,
	}
	switch {
	case opts.Benchmark:
		s.policy = NewBenchmarkPolicy()
	case opts.Live:
		s.policy = &LivePolicy{}
	case opts.Family == frame.MVD:
		s.policy = DeltaPolicy{}
	default:
		s.policy = RealtimePolicy{}
	}

	s.logger.Debug("playback armed",
		zap.Stringer("family", opts.Family),
		zap.Bool("benchmark", opts.Benchmark),
		zap.Bool("live", opts.Live),
		zap.Int("seed", len(opts.Seed)),
	)
	return s, nil
}

func (s *Session) State() State           { return s.state }
func (s *Session) Err() error             { return s.err }
func (s *Session) Clock() float64         { return s.clock }
func (s *Session) RecordTime() float64    { return s.recordTime }
func (s *Session) NextDue() float64       { return s.nextDue }
func (s *Session) Sequences() Sequences   { return s.seq }
func (s *Session) Routing() frame.Routing { return s.routing }
func (s *Session) Track() int             { return s.track }
func (s *Session) Speed() float64         { return s.speed }
func (s *Session) Family() frame.Family   { return s.opts.Family }
func (s *Session) Paused() bool           { return s.paused }
func (s *Session) Active() bool           { return s.active }

// Command returns the command stored in slot.
func (s *Session) Command(slot int) frame.Command {
	return s.commands[slot&(UpdateBackup-1)]
}

// Poll returns the next due network message. It returns false when nothing
// is due this tick, and an error once the stream has proven corrupt.
func (s *Session) Poll() (Message, bool, error) {
	switch s.state {
	case Idle:
		return Message{}, false, ErrClosed
	case Failed:
		return Message{}, false, s.err
	case Ended:
		return Message{}, false, nil
	case Paused:
		if _, err := s.reader.Ensure(); err != nil {
			return Message{}, false, s.fail(err)
		}
		return Message{}, false, nil
	}

	if !s.policy.Prepare(s) {
		return Message{}, false, s.err
	}

	for {
		ready, err := s.reader.Ensure()
		if err != nil {
			return Message{}, false, s.fail(err)
		}
		if !ready {
			if s.opts.Live && !s.reader.BufferingUntil().IsZero() {
				s.state = Buffering
				s.logger.Debug("buffering", zap.Time("until", s.reader.BufferingUntil()))
			}
			return Message{}, false, nil
		}
		if s.reader.Drained() {
			s.end(EndOfStream)
			return Message{}, false, nil
		}

		t, err := s.peekTime()
		if err != nil {
			return Message{}, false, s.fail(err)
		}
		if s.opts.Family == frame.MVD {
			s.observe(t)
		}
		s.recordTime = t

		if !s.policy.Due(s, t) {
			return Message{}, false, nil
		}

		rec, err := s.TakeNextRecord()
		if err != nil {
			return Message{}, false, err
		}
		if rec.Kind != frame.KindRead && !rec.Kind.IsRouting() {
			continue
		}

		if s.opts.Family == frame.MVD && !s.routing.Addresses(s.track) {
			continue
		}

		m := Message{Time: t, Payload: rec.Payload, Routing: s.routing}
		if frame.IsDisconnect(s.opts.Family, rec.Payload) {
			s.end(Disconnected)
		}
		return m, true, nil
	}
}

// InspectNextRecordTime returns the absolute time of the next record without
// consuming it. ok is false when no record is ready yet.
func (s *Session) InspectNextRecordTime() (float64, bool, error) {
	if s.state == Idle {
		return 0, false, ErrClosed
	}
	if s.state == Failed {
		return 0, false, s.err
	}
	ready, err := s.reader.Ensure()
	if err != nil {
		return 0, false, s.fail(err)
	}
	if !ready || s.reader.Drained() {
		return 0, false, nil
	}
	t, err := s.peekTime()
	if err != nil {
		return 0, false, s.fail(err)
	}
	return t, true, nil
}

func (s *Session) peekTime() (float64, error) {
	var b [4]byte
	p := b[:s.opts.Family.TimeSize()]
	if err := s.reader.PeekInto(p); err != nil {
		return 0, err
	}
	if s.opts.Family == frame.MVD {
		return s.prevTime + float64(p[0])*0.001, nil
	}
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(p))), nil
}

// observe advances the transport counters the first time a new record time
// is seen after the clock has moved past the last due time.
func (s *Session) observe(t float64) {
	if s.clock-s.nextDue > 0.0001 && s.nextDue != t {
		s.oldDue = s.nextDue
		s.seq.Incoming++
		s.seq.IncomingAck++
		s.seq.FrameLatency = 0
		s.seq.LastReceived = s.clock
		s.nextDue = t
	}
}

// TakeNextRecord consumes one record and applies it to the session: commands
// fill the next command slot, sequence records reset the counters and routing
// prefixes replace the routing state. No timing or routing filter applies.
func (s *Session) TakeNextRecord() (frame.Record, error) {
	if s.state == Idle {
		return frame.Record{}, ErrClosed
	}
	if s.state == Failed {
		return frame.Record{}, s.err
	}

	h, err := frame.DecodeHeader(s.reader, s.opts.Family)
	if err != nil {
		return frame.Record{}, s.fail(err)
	}
	if s.opts.Family == frame.MVD {
		s.prevTime += float64(h.Delta) * 0.001
	} else {
		s.recordTime = h.Time
	}

	rec, err := frame.DecodeBody(s.reader, h, s.opts.MaxMessage)
	if err != nil {
		return rec, s.fail(err)
	}

	if s.state == Armed {
		s.state = Running
	}

	switch {
	case rec.Kind == frame.KindCommand:
		slot := int(s.seq.Outgoing) & (UpdateBackup - 1)
		s.commands[slot] = rec.Command
		s.seq.Outgoing++
		if s.opts.OnCommand != nil {
			s.opts.OnCommand(slot, rec.Command)
		}
	case rec.Kind == frame.KindSet:
		s.seq.Outgoing = rec.Out
		s.seq.Incoming = rec.In
		if s.opts.Family == frame.MVD {
			s.seq.IncomingAck = rec.In
		}
	case rec.Kind.IsRouting():
		s.routing = rec.Routing
	}
	return rec, nil
}

// Pause stops record consumption; the reader keeps being serviced.
func (s *Session) Pause() {
	if s.state == Running || s.state == Armed || s.state == Buffering {
		s.paused = true
		s.state = Paused
	}
}

// Resume undoes Pause.
func (s *Session) Resume() {
	if s.state == Paused {
		s.paused = false
		s.state = Running
	}
}

// SetServerPaused reflects a pause of the recorded game itself.
func (s *Session) SetServerPaused(paused bool) { s.serverPaused = paused }

// SetActive marks the session fully connected. Until then every record is
// drained regardless of time.
func (s *Session) SetActive(active bool) {
	if active && !s.active {
		s.startTime = s.clock
		s.skipFrame = true
	}
	s.active = active
}

// SetTrack selects the followed player for MVD routing, or NoTrack.
func (s *Session) SetTrack(track int) { s.track = track }

// SetSpeed sets the playback speed multiplier, clamped to [0,20].
func (s *Session) SetSpeed(v float64) {
	s.speed = min(max(v, 0), 20)
}

// Advance moves the clock by one host frame.
func (s *Session) Advance(frametime float64) {
	if s.state == Idle || s.state == Ended || s.state == Failed {
		return
	}
	s.frames++
	if s.paused {
		frametime = 0
	} else if !s.opts.Benchmark {
		frametime *= s.speed
	}
	if s.skipFrame {
		s.skipFrame = false
		return
	}
	s.clock += frametime
}

// BenchmarkResult reports timedemo throughput. ok is false outside
// benchmark mode.
func (s *Session) BenchmarkResult() (BenchmarkResult, bool) {
	p, ok := s.policy.(*BenchmarkPolicy)
	if !ok {
		return BenchmarkResult{}, false
	}
	return p.Result(s.now(), s.frames), true
}

// Close stops playback and discards buffered stream bytes.
func (s *Session) Close() {
	if s.state == Idle {
		return
	}
	s.logger.Debug("playback closed", zap.Stringer("state", s.state), zap.Float64("clock", s.clock))
	s.state = Idle
	s.paused = false
	s.reader.Reset(nil)
}

func (s *Session) end(reason EndReason) {
	if s.state == Ended {
		return
	}
	s.state = Ended
	s.logger.Info("playback ended", zap.Stringer("reason", reason), zap.Float64("clock", s.clock))
	if s.opts.OnEnd != nil {
		s.opts.OnEnd(reason)
	}
}

func (s *Session) fail(err error) error {
	if s.err != nil {
		return s.err
	}
	if errors.Is(err, ring.ErrUnexpectedEnd) {
		err = fmt.Errorf("%w: %w", frame.ErrTruncated, err)
	}
	s.err = fmt.Errorf("playback: %w", err)
	s.state = Failed
	s.logger.Error("playback failed", zap.Error(err), zap.Float64("clock", s.clock))
	return s.err
}
