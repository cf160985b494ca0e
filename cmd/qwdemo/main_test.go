package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/qwdemo/internal/config"
	"github.com/dgnsrekt/qwdemo/internal/inspect"
	"github.com/dgnsrekt/qwdemo/internal/matchrec"
	"github.com/dgnsrekt/qwdemo/internal/notify"
	"github.com/dgnsrekt/qwdemo/internal/playback"
	"github.com/dgnsrekt/qwdemo/internal/qtv"
)

func setupTest(t *testing.T, format string) string {
	t.Helper()
	dir := t.TempDir()
	logger = zap.NewNop()
	cfg = &config.Config{
		Demo:     config.DemoConfig{Dir: dir, Format: format, PingRate: time.Second},
		Playback: config.PlaybackConfig{Speed: 1, Prebuffer: 2 * time.Second, Track: playback.NoTrack},
		QTV:      config.QTVConfig{DialTimeout: time.Second, Buffer: 16},
		Relay:    config.RelayConfig{Pace: 1, SendBuffer: 16, Burst: 1},
		Record:   config.RecordConfig{Mode: "auto", MinLength: time.Minute},
		Logging:  config.LoggingConfig{Level: "info"},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return dir
}

func testCommand(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	cmd.SetContext(ctx)
	return cmd, &out
}

func recordFixture(t *testing.T, name string, d time.Duration) string {
	t.Helper()
	cmd, _ := testCommand(t)
	mgr := newMatchManager(&notify.NoopNotifier{})
	path, err := recordSynthetic(cmd, mgr, name, &synthFlags{level: "dm4", duration: d, hz: 10})
	if err != nil {
		t.Fatalf("recordSynthetic: %v", err)
	}
	return path
}

func TestRecordSyntheticIsValid(t *testing.T) {
	for _, format := range []string{"qwd", "mvd", "qwd.gz", "mvd.zst"} {
		t.Run(format, func(t *testing.T) {
			dir := setupTest(t, format)
			path := recordFixture(t, "fixture", 2*time.Second)

			if want := filepath.Join(dir, "fixture_000."+format); path != want {
				t.Fatalf("path = %q, want %q", path, want)
			}
			rep, err := validateOne(path)
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if !rep.Disconnected || rep.Level != "dm4" {
				t.Errorf("report = %+v", rep)
			}
			if rep.Duration < 1.9 || rep.Duration > 2.1 {
				t.Errorf("duration = %v, want about 2s", rep.Duration)
			}
		})
	}
}

func TestRecordSyntheticMatch(t *testing.T) {
	dir := setupTest(t, "mvd")
	cmd, _ := testCommand(t)
	mgr := newMatchManager(&notify.NoopNotifier{})

	path, err := recordSynthetic(cmd, mgr, "duel", &synthFlags{level: "dm6", duration: time.Second, hz: 10, match: true})
	if err != nil {
		t.Fatalf("recordSynthetic: %v", err)
	}
	if want := filepath.Join(dir, "duel_000.mvd"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	// A cancelled match shorter than record.min_length is dropped.
	path, err = recordSynthetic(cmd, mgr, "duel", &synthFlags{level: "dm6", duration: time.Second, hz: 10, match: true, cancel: true})
	if err != nil || path != "" {
		t.Errorf("cancelled match = %q, %v", path, err)
	}
	if mgr.Status() != matchrec.StatusIdle {
		t.Errorf("status = %v", mgr.Status())
	}
}

func TestTimedemo(t *testing.T) {
	for _, format := range []string{"qwd", "mvd.gz"} {
		t.Run(format, func(t *testing.T) {
			setupTest(t, format)
			recordFixture(t, "bench", 3*time.Second)
			cmd, out := testCommand(t)

			stats, res, err := playFileResult(cmd, "bench_000", true, &playFlags{fps: DefaultFPS, track: playback.NoTrack, speed: 1})
			if err != nil {
				t.Fatalf("timedemo: %v", err)
			}
			if stats.Ended != playback.Disconnected {
				t.Errorf("ended by %s, want disconnect", stats.Ended)
			}
			if stats.Messages < 30 {
				t.Errorf("messages = %d, want at least one per frame", stats.Messages)
			}
			if res.Frames <= 0 || res.FPS <= 0 {
				t.Errorf("benchmark result = %+v", res)
			}
			if out.Len() != 0 {
				t.Errorf("unexpected output %q", out.String())
			}
		})
	}
}

func TestPlayRealtimeWithJump(t *testing.T) {
	setupTest(t, "qwd")
	recordFixture(t, "jumpy", 4*time.Second)
	cmd, out := testCommand(t)

	start := time.Now()
	stats, err := playFile(cmd, "jumpy_000", false, &playFlags{fps: 100, jump: "+3", track: -2, messages: true})
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("playback took %v, jump should skip 3 of 4 seconds", elapsed)
	}
	if stats.Ended != playback.Disconnected {
		t.Errorf("ended by %s", stats.Ended)
	}
	if !strings.Contains(out.String(), "bytes") {
		t.Errorf("expected message lines, got %q", out.String())
	}
}

func TestResolveQTVTarget(t *testing.T) {
	dir := t.TempDir()
	streamFile := filepath.Join(dir, "final.qtv")
	if err := os.WriteFile(streamFile, []byte("[QTV]\nStream=3@qtv.example.com:28000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	joinFile := filepath.Join(dir, "join.QTV")
	if err := os.WriteFile(joinFile, []byte("Join=server.example.com:27500\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		target  string
		want    qtv.Address
		wantErr bool
	}{
		{"1@qtv.example.com", qtv.Address{Stream: "1", Host: "qtv.example.com:27599"}, false},
		{streamFile, qtv.Address{Stream: "3", Host: "qtv.example.com:28000"}, false},
		{joinFile, qtv.Address{}, true},
		{"", qtv.Address{}, true},
	}
	for _, tt := range tests {
		got, err := resolveQTVTarget(tt.target)
		if (err != nil) != tt.wantErr {
			t.Errorf("resolveQTVTarget(%q) error = %v, wantErr %v", tt.target, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("resolveQTVTarget(%q) = %+v, want %+v", tt.target, got, tt.want)
		}
	}
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	writeReport(&buf, "x.mvd", &inspect.Report{
		Family: "mvd",
		Kinds:  map[string]int{"read": 2, "all": 5},
		Routes: map[string]int{"all": 7},
		Error:  "corrupted demo",
	})
	out := buf.String()
	for _, want := range []string{"x.mvd: FAILED: corrupted demo", "kinds all=5 read=2", "no closing disconnect"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}
