package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/qwdemo/internal/demofile"
	"github.com/dgnsrekt/qwdemo/internal/frame"
	"github.com/dgnsrekt/qwdemo/internal/matchrec"
	"github.com/dgnsrekt/qwdemo/internal/msg"
	"github.com/dgnsrekt/qwdemo/internal/notify"
	"github.com/dgnsrekt/qwdemo/internal/record"
)

type synthFlags struct {
	level    string
	duration time.Duration
	hz       float64
	match    bool
	cancel   bool
}

func recordTestCmd() *cobra.Command {
	var flags synthFlags

	cmd := &cobra.Command{
		Use:   "record-test NAME",
		Short: "Record a synthetic demo",
		Long: heredoc.Doc(`
			Record a demo of a synthetic session: the full startup burst, then
			a stream of commands and messages, then the closing disconnect.
			The format follows demo.format; the demo is saved as NAME_000 and
			numbered upwards in record.dir (or demo.dir).

			With --match the demo goes through match recording, so record.mode
			and record.min_length decide whether it is kept.

			Examples:
			  qwdemo record-test fixture --duration 30s
			  QWDEMO_DEMO_FORMAT=mvd.zst qwdemo record-test relaytest
			  QWDEMO_RECORD_MODE=auto qwdemo record-test duel --match --cancel
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			notifyCfg := notify.LoadConfig()
			if err := notifyCfg.Validate(); err != nil {
				return err
			}
			mgr := newMatchManager(notify.New(notifyCfg, logger))
			if flags.match && mgr.Mode() == matchrec.ModeOff {
				return fmt.Errorf("match recording is off, set record.mode")
			}

			path, err := recordSynthetic(cmd, mgr, args[0], &flags)
			if err != nil {
				return err
			}
			if path == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "match demo not saved")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.level, "level", "dm6", "level name in the startup burst")
	cmd.Flags().DurationVar(&flags.duration, "duration", 10*time.Second, "recorded game time")
	cmd.Flags().Float64Var(&flags.hz, "hz", 20, "messages per second")
	cmd.Flags().BoolVar(&flags.match, "match", false, "record through match recording")
	cmd.Flags().BoolVar(&flags.cancel, "cancel", false, "with --match, end the match as cancelled")
	return cmd
}

func newMatchManager(n notify.Notifier) *matchrec.Manager {
	format := cfg.DemoFormat()
	opts := record.Options{
		Family:    format.Family,
		CacheSize: cfg.CacheSize(),
		Signature: cfg.Record.Signature,
		Logger:    logger,
	}
	if cfg.Demo.Pings {
		opts.PingEvery = cfg.Demo.PingRate
		opts.OnPing = func() { logger.Debug("ping request") }
	}
	return matchrec.New(matchrec.Options{
		Mode:        cfg.MatchMode(),
		Dir:         cfg.RecordDir(),
		TempDir:     cfg.Record.TempDir,
		MinLength:   cfg.Record.MinLength,
		Compression: format.Compression,
		Record:      opts,
		Notifier:    n,
		Logger:      logger,
	})
}

func recordSynthetic(cmd *cobra.Command, mgr *matchrec.Manager, name string, flags *synthFlags) (string, error) {
	snap := syntheticSnapshot(flags.level)
	const start = 1.0

	var path string
	if flags.match {
		if err := mgr.StartMatch(start, name, snap); err != nil {
			return "", err
		}
	} else {
		var err error
		if path, err = mgr.Record(start, name, snap); err != nil {
			return "", err
		}
	}

	end, err := synthesize(mgr.Recorder(), start, flags.duration, flags.hz)
	if err != nil {
		_ = mgr.Close(end)
		return "", err
	}

	if !flags.match {
		path, err = mgr.StopRecord(end)
		if err != nil {
			return "", err
		}
	} else if flags.cancel {
		path, err = mgr.CancelMatch(cmd.Context(), end)
	} else {
		path, err = mgr.StopMatch(cmd.Context(), end)
	}
	if err != nil {
		return "", err
	}
	if path == "" && mgr.Status() == matchrec.StatusReady {
		if path, err = mgr.Save(cmd.Context()); err != nil {
			return "", err
		}
	}

	if path != "" {
		logger.Info("synthetic demo recorded",
			zap.String("path", path),
			zap.String("name", filepath.Base(demofile.StripExt(path))),
			zap.Float64("duration", end-start),
		)
	}
	return path, nil
}

func syntheticSnapshot(level string) *record.Snapshot {
	snap := &record.Snapshot{
		ServerCount: 1,
		GameDir:     "qw",
		PlayerNum:   0,
		LevelName:   level,
		ServerInfo:  `\maxclients\2\map\` + level + `\hostname\qwdemo`,
		Sounds:      []string{"weapons/rocket1i.wav", "player/plyrjmp8.wav"},
		Models:      []string{"maps/" + level + ".bsp", "progs/player.mdl", "progs/missile.mdl"},
		Baselines:   make([]record.Entity, 2),
		Outgoing:    1,
		Incoming:    1,
	}
	snap.MoveVars = [10]float32{800, 4, 320, 320, 10, 100, 1, 10, 0, 1}
	snap.Players[0] = record.Player{UserID: 1, UserInfo: `\name\recorder\team\red`}
	snap.Players[1] = record.Player{UserID: 2, UserInfo: `\name\opponent\team\blue`}
	snap.Baselines[1] = record.Entity{ModelIndex: 2, Origin: [3]float32{0, 0, 24}}
	snap.Stats[0] = 100
	return snap
}

// synthesize records a steady stream of frames for d of game time after
// start and returns the time of the last frame.
func synthesize(rec *record.Recorder, start float64, d time.Duration, hz float64) (float64, error) {
	if hz <= 0 {
		hz = 20
	}
	step := 1 / hz
	frames := int(d.Seconds() * hz)
	t := start
	seq := int32(1)

	for i := 1; i <= frames; i++ {
		t = start + float64(i)*step
		seq++

		if rec.Family() == frame.QWD {
			cmd := frame.Command{UserCmd: frame.UserCmd{Msec: uint8(min(step*1000, 250)), Forward: 320}}
			cmd.ViewAngles[1] = float32(i % 360)
			if err := rec.RecordCommand(t, cmd); err != nil {
				return t, err
			}
			rec.SetSequences(seq, seq, seq)
		}

		b := msg.NewBuffer(64)
		if rec.Family() == frame.QWD {
			b.PutLong(seq)
			b.PutLong(seq)
		}
		if i%int(max(hz, 1)) == 0 {
			b.PutByte(msg.SvcPrint)
			b.PutByte(msg.PrintMedium)
			b.PutString(fmt.Sprintf("tick %d\n", i))
		} else {
			b.PutByte(msg.SvcNop)
		}
		if err := rec.RecordMessage(t, b.Bytes(), nil); err != nil {
			return t, err
		}
	}
	return t, nil
}
