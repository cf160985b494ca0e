package playback

import "time"

// MaxLag is the furthest the clock may trail the next due record.
const MaxLag = 1.0

// Policy decides, per record, whether playback consumes it this tick.
type Policy interface {
	// Prepare runs once per Poll before any record is inspected. Returning
	// false ends the tick without reading.
	Prepare(s *Session) bool

	// Due reports whether the record stamped t is consumed now. It may move
	// the session clock.
	Due(s *Session, t float64) bool
}

// draining reports whether records should be taken regardless of time,
// which happens until the session is active or while the server is paused.
func draining(s *Session, t float64) bool {
	if s.serverPaused || !s.active {
		s.clock = t
		return true
	}
	return false
}

// BenchmarkPolicy consumes records as fast as frames are rendered, one
// record timestamp per frame.
type BenchmarkPolicy struct {
	lastFrame  float64
	start      time.Time
	startFrame int
}

func NewBenchmarkPolicy() *BenchmarkPolicy {
	return &BenchmarkPolicy{lastFrame: -1}
}

func (p *BenchmarkPolicy) Prepare(*Session) bool { return true }

func (p *BenchmarkPolicy) Due(s *Session, t float64) bool {
	if p.lastFrame < 0 {
		p.lastFrame = t
	} else if t > p.lastFrame {
		p.lastFrame = t
		return false
	}

	if p.start.IsZero() && s.active {
		p.start = s.now()
		p.startFrame = s.frames
	}

	s.clock = t
	return true
}

// Result summarizes a benchmark run ending at now after frames rendered frames.
func (p *BenchmarkPolicy) Result(now time.Time, frames int) BenchmarkResult {
	r := BenchmarkResult{Frames: frames - p.startFrame - 1}
	r.Elapsed = now.Sub(p.start)
	if p.start.IsZero() || r.Elapsed <= 0 {
		r.Elapsed = time.Second
	}
	r.FPS = float64(r.Frames) / r.Elapsed.Seconds()
	return r
}

// BenchmarkResult is the outcome of a timedemo.
type BenchmarkResult struct {
	Frames  int
	Elapsed time.Duration
	FPS     float64
}

// RealtimePolicy paces single observer file playback against the clock.
// When the clock trails a record by more than MaxLag it is stepped forward
// by MaxLag without consuming.
type RealtimePolicy struct{}

func (RealtimePolicy) Prepare(*Session) bool { return true }

func (RealtimePolicy) Due(s *Session, t float64) bool {
	if draining(s, t) {
		return true
	}
	if s.clock < t {
		if s.clock+MaxLag < t {
			s.clock += MaxLag
		}
		return false
	}
	return true
}

// DeltaPolicy paces multi-observer file playback. Records are due once the
// next due time has caught up with them.
type DeltaPolicy struct{}

func (DeltaPolicy) Prepare(s *Session) bool {
	if s.prevTime < s.nextDue {
		s.prevTime = s.nextDue
	}
	if s.clock+MaxLag < s.nextDue {
		s.clock = s.nextDue - MaxLag
	}
	return true
}

func (DeltaPolicy) Due(s *Session, t float64) bool {
	if draining(s, t) {
		return true
	}
	return s.nextDue >= t
}

// LivePolicy paces a live relay. It waits out the buffering deadline the
// reader arms after a stall before handing over to DeltaPolicy.
type LivePolicy struct {
	DeltaPolicy
}

func (p *LivePolicy) Prepare(s *Session) bool {
	if until := s.reader.BufferingUntil(); !until.IsZero() && s.now().Before(until) {
		s.state = Buffering
		s.skipFrame = true
		if _, err := s.reader.Ensure(); err != nil {
			s.fail(err)
		}
		return false
	}
	s.reader.ClearBuffering()
	if s.state == Buffering {
		s.state = Running
	}
	return p.DeltaPolicy.Prepare(s)
}

var (
	_ Policy = (*BenchmarkPolicy)(nil)
	_ Policy = RealtimePolicy{}
	_ Policy = DeltaPolicy{}
	_ Policy = (*LivePolicy)(nil)
)
