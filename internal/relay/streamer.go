package relay

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/qwdemo/internal/frame"
)

// MaxChunk bounds the raw bytes batched into one chunk.
const MaxChunk = 16 * 1024

// Streamer replays one demo to one client at demo pace.
type Streamer struct {
	encoder *Encoder
	pace    float64
	limiter *rate.Limiter
	logger  *zap.Logger
}

// Outcome summarizes a finished stream.
type Outcome struct {
	Records uint64
	Chunks  uint64
	Err     error
}

// NewStreamer creates a Streamer. A pace of zero sends as fast as the client
// reads; 1 is real time. limiter may be nil.
func NewStreamer(encoder *Encoder, pace float64, limiter *rate.Limiter, logger *zap.Logger) *Streamer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Streamer{encoder: encoder, pace: pace, limiter: limiter, logger: logger}
}

// Run scans src and queues chunks on c until the demo ends, the client goes
// away or ctx is cancelled. It finishes with an End message.
func (s *Streamer) Run(ctx context.Context, c *Client, src io.Reader, family frame.Family) Outcome {
	sc := frame.NewScanner(src, family)

	var (
		out       Outcome
		batch     []byte
		batchTime float64
		first     = true
		t0        float64
		start     = time.Now()
	)

	send := func() bool {
		if len(batch) == 0 {
			return true
		}
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return false
			}
		}
		data := batch
		if c.compressed {
			data = s.encoder.Encode(batch)
		}
		out.Chunks++
		env := &Envelope{Chunk: &Chunk{
			Seq:    out.Chunks,
			TimeMS: uint64((batchTime - t0) * 1000),
			Data:   data,
		}}
		batch = nil
		return c.enqueue(ctx, env.Marshal())
	}

	for sc.Scan() {
		rec := sc.Record()
		if first {
			t0, first = rec.Time, false
		}
		if rec.Time != batchTime || len(batch) >= MaxChunk {
			if !send() {
				return out
			}
			if !s.wait(ctx, c, start, rec.Time-t0) {
				return out
			}
		}
		batch = append(batch, rec.Raw...)
		batchTime = rec.Time
		out.Records++
	}
	if !send() {
		return out
	}

	reason := "end of demo"
	if err := sc.Err(); err != nil {
		out.Err = err
		reason = err.Error()
		s.logger.Warn("relay source failed",
			zap.String("connID", c.connID),
			zap.String("demo", c.demo),
			zap.Error(err),
		)
	}
	end := &Envelope{End: &End{Reason: reason, Records: out.Records}}
	c.enqueue(ctx, end.Marshal())
	return out
}

// wait sleeps until offset seconds of demo time have passed at s.pace.
func (s *Streamer) wait(ctx context.Context, c *Client, start time.Time, offset float64) bool {
	if s.pace <= 0 {
		return true
	}
	due := start.Add(time.Duration(offset / s.pace * float64(time.Second)))
	d := time.Until(due)
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-c.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func (o Outcome) String() string {
	if o.Err != nil {
		return fmt.Sprintf("%d records in %d chunks, %v", o.Records, o.Chunks, o.Err)
	}
	return fmt.Sprintf("%d records in %d chunks", o.Records, o.Chunks)
}
