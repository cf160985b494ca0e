package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/qwdemo/internal/msg"
	"github.com/dgnsrekt/qwdemo/internal/playback"
)

// DefaultFPS is the host frame rate playback is driven at.
const DefaultFPS = 72

// skinsCommand is the last stufftext of a startup burst. Once a client has
// run it the connection is complete.
var skinsCommand = []byte{msg.SvcStuffText, 's', 'k', 'i', 'n', 's', '\n', 0}

// playStats summarizes one playback run.
type playStats struct {
	Messages int
	Bytes    int
	Ended    playback.EndReason
	Frames   int
}

// driver plays a session to its end, standing in for a game client's
// frame loop.
type driver struct {
	sess   *playback.Session
	out    io.Writer
	logger *zap.Logger

	fps       float64
	benchmark bool
	jump      string
	verbose   bool

	stats playStats
}

func (d *driver) run(ctx context.Context) (playStats, error) {
	if d.fps <= 0 {
		d.fps = DefaultFPS
	}
	frametime := 1 / d.fps

	var tick <-chan time.Time
	if !d.benchmark {
		ticker := time.NewTicker(time.Duration(frametime * float64(time.Second)))
		defer ticker.Stop()
		tick = ticker.C
	}
	last := time.Now()

	for {
		for {
			m, ok, err := d.sess.Poll()
			if err != nil {
				return d.stats, err
			}
			if !ok {
				break
			}
			d.handle(m)
		}
		if d.sess.State() == playback.Ended {
			return d.stats, nil
		}

		if tick == nil {
			if err := ctx.Err(); err != nil {
				return d.stats, err
			}
			d.sess.Advance(frametime)
			d.stats.Frames++
			continue
		}
		select {
		case <-ctx.Done():
			return d.stats, ctx.Err()
		case now := <-tick:
			d.sess.Advance(now.Sub(last).Seconds())
			d.stats.Frames++
			last = now
		}
	}
}

func (d *driver) handle(m playback.Message) {
	d.stats.Messages++
	d.stats.Bytes += len(m.Payload)
	if d.verbose && d.out != nil {
		fmt.Fprintf(d.out, "%10.3f %6d bytes  %s\n", m.Time, len(m.Payload), m.Routing)
	}

	if d.sess.Active() || !bytes.Contains(m.Payload, skinsCommand) {
		return
	}
	d.sess.SetActive(true)
	d.logger.Debug("demo active", zap.Float64("clock", d.sess.Clock()))
	if d.jump != "" {
		if err := d.sess.Jump(d.jump); err != nil {
			d.logger.Warn("jump failed", zap.String("jump", d.jump), zap.Error(err))
		}
	}
}
