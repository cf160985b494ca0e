// Package inspect walks a demo stream and summarizes it, reporting the
// first framing error it meets.
package inspect

import (
	"fmt"
	"io"

	"github.com/dgnsrekt/qwdemo/internal/frame"
	"github.com/dgnsrekt/qwdemo/internal/msg"
)

// Report summarizes one demo stream.
type Report struct {
	Family   string         `json:"family"`
	Records  int            `json:"records"`
	Kinds    map[string]int `json:"kinds"`
	Routes   map[string]int `json:"routes,omitempty"`
	Bytes    int64          `json:"bytes"`
	Start    float64        `json:"start"`
	End      float64        `json:"end"`
	Duration float64        `json:"duration"`

	GameDir string `json:"gamedir,omitempty"`
	Level   string `json:"level,omitempty"`

	// Disconnected is set when the stream ends with a disconnect message.
	Disconnected bool   `json:"disconnected"`
	Error        string `json:"error,omitempty"`
}

// OK reports whether the stream decoded cleanly.
func (r *Report) OK() bool { return r.Error == "" }

// Options tunes Run.
type Options struct {
	MaxMessage int
	BaseTime   float64
}

// Run reads r to its end. A framing error is recorded in the report and
// also returned.
func Run(r io.Reader, family frame.Family, opts Options) (*Report, error) {
	rep := &Report{
		Family: family.String(),
		Kinds:  make(map[string]int),
	}
	if family == frame.MVD {
		rep.Routes = make(map[string]int)
	}

	sc := frame.NewScanner(r, family)
	if opts.MaxMessage > 0 {
		sc.SetMaxMessage(opts.MaxMessage)
	}
	sc.SetBase(opts.BaseTime)

	first := true
	for sc.Scan() {
		rec := sc.Record()
		if first {
			rep.Start, first = rec.Time, false
		}
		rep.End = rec.Time
		rep.Records++
		rep.Bytes += int64(len(rec.Raw))
		rep.Kinds[rec.Kind.String()]++
		if rec.Kind.IsRouting() {
			rep.Routes[rec.Routing.Kind.String()]++
		}

		if rec.Kind == frame.KindRead || rec.Kind.IsRouting() {
			if rep.Level == "" {
				rep.parseServerData(family, rec.Payload)
			}
			if frame.IsDisconnect(family, rec.Payload) {
				rep.Disconnected = true
				break
			}
		}
	}
	rep.Duration = rep.End - rep.Start

	if err := sc.Err(); err != nil {
		rep.Error = err.Error()
		return rep, fmt.Errorf("after %d records: %w", rep.Records, err)
	}
	return rep, nil
}

// parseServerData picks the game directory and level name out of a
// serverdata message.
func (r *Report) parseServerData(family frame.Family, payload []byte) {
	if family == frame.QWD {
		if len(payload) < 8 {
			return
		}
		payload = payload[8:]
	}
	if len(payload) == 0 || payload[0] != msg.SvcServerData {
		return
	}
	rd := msg.NewReader(payload[1:])
	if v, err := rd.Long(); err != nil || v != msg.ProtocolVersion {
		return
	}
	if _, err := rd.Long(); err != nil {
		return
	}
	gamedir, err := rd.CString()
	if err != nil {
		return
	}
	if _, err := rd.Byte(); err != nil {
		return
	}
	level, err := rd.CString()
	if err != nil {
		return
	}
	r.GameDir, r.Level = gamedir, level
}
