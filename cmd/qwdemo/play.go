package main

import (
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/qwdemo/internal/demofile"
	"github.com/dgnsrekt/qwdemo/internal/playback"
	"github.com/dgnsrekt/qwdemo/internal/ring"
)

type playFlags struct {
	speed    float64
	jump     string
	track    int
	fps      float64
	messages bool
}

func (f *playFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.speed, "speed", 0, "playback speed multiplier, 0-20 (default from config)")
	cmd.Flags().StringVar(&f.jump, "jump", "", "jump once active: [+|-][m:]s")
	cmd.Flags().IntVar(&f.track, "track", -2, "player slot to follow in multi-view demos, -1 for free flying (default from config)")
	cmd.Flags().Float64Var(&f.fps, "fps", DefaultFPS, "host frame rate")
	cmd.Flags().BoolVar(&f.messages, "messages", false, "print every network message")
}

func (f *playFlags) effectiveTrack() int {
	if f.track < playback.NoTrack {
		return cfg.Playback.Track
	}
	return f.track
}

func (f *playFlags) effectiveSpeed() float64 {
	if f.speed > 0 {
		return f.speed
	}
	return cfg.Playback.Speed
}

func playCmd() *cobra.Command {
	var flags playFlags

	cmd := &cobra.Command{
		Use:   "play DEMO",
		Short: "Play a demo file against the clock",
		Long: heredoc.Doc(`
			Play a demo file in real time and summarize the network messages a
			client would have received.

			The name is looked up as given and in the demo directory, trying
			.qwd, .mvd and their compressed variants in turn.

			Examples:
			  # Play a demo from the demo directory at double speed
			  qwdemo play duel_dm6_000 --speed 2

			  # Skip the first two minutes and follow player 3
			  qwdemo play 4on4_e1m2.mvd --jump 2:00 --track 3
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Playback.Timedemo {
				return runTimedemo(cmd, args[0], flags.fps)
			}
			stats, err := playFile(cmd, args[0], false, &flags)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d messages, %d bytes, ended by %s\n",
				stats.Messages, stats.Bytes, stats.Ended)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func timedemoCmd() *cobra.Command {
	var fps float64

	cmd := &cobra.Command{
		Use:   "timedemo DEMO",
		Short: "Play a demo as fast as possible and report the frame rate",
		Long: heredoc.Doc(`
			Play a demo without waiting on the clock, one record timestamp per
			frame, and report frames, elapsed time and frames per second.
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimedemo(cmd, args[0], fps)
		},
	}
	cmd.Flags().Float64Var(&fps, "fps", DefaultFPS, "nominal host frame rate")
	return cmd
}

func runTimedemo(cmd *cobra.Command, name string, fps float64) error {
	flags := &playFlags{fps: fps, track: playback.NoTrack, speed: 1}
	stats, res, err := playFileResult(cmd, name, true, flags)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d frames %.1f seconds %.1f fps (%d messages)\n",
		res.Frames, res.Elapsed.Seconds(), res.FPS, stats.Messages)
	return nil
}

func playFile(cmd *cobra.Command, name string, benchmark bool, flags *playFlags) (playStats, error) {
	stats, _, err := playFileResult(cmd, name, benchmark, flags)
	return stats, err
}

func playFileResult(cmd *cobra.Command, name string, benchmark bool, flags *playFlags) (playStats, playback.BenchmarkResult, error) {
	var res playback.BenchmarkResult

	path, _, err := demofile.Resolve(name, cfg.Demo.Dir)
	if err != nil {
		return playStats{}, res, err
	}
	f, err := demofile.Open(path)
	if err != nil {
		return playStats{}, res, err
	}
	defer f.Close()

	logger.Info("playing demo",
		zap.String("path", path),
		zap.Stringer("format", f.Format),
		zap.Bool("timedemo", benchmark),
	)

	d := &driver{
		out:       cmd.OutOrStdout(),
		logger:    logger,
		fps:       flags.fps,
		benchmark: benchmark,
		jump:      flags.jump,
		verbose:   flags.messages,
	}
	sess, err := playback.New(f, playback.Options{
		Family:     f.Format.Family,
		Benchmark:  benchmark,
		Track:      flags.effectiveTrack(),
		MaxMessage: cfg.Playback.MaxMessage,
		Logger:     logger,
		OnEnd:      func(r playback.EndReason) { d.stats.Ended = r },
	})
	if err != nil {
		return playStats{}, res, err
	}
	defer sess.Close()
	sess.SetSpeed(flags.effectiveSpeed())
	d.sess = sess

	stats, err := d.run(cmd.Context())
	if err != nil {
		return stats, res, err
	}
	if r, ok := sess.BenchmarkResult(); ok {
		res = r
	}
	return stats, res, nil
}

// playLive drives a live session over src until the stream ends.
func playLive(cmd *cobra.Command, src ring.Source, opts playback.Options, flags *playFlags) (playStats, error) {
	d := &driver{
		out:     cmd.OutOrStdout(),
		logger:  logger,
		fps:     flags.fps,
		jump:    flags.jump,
		verbose: flags.messages,
	}
	opts.Track = flags.effectiveTrack()
	opts.MaxMessage = cfg.Playback.MaxMessage
	opts.Prebuffer = cfg.Playback.Prebuffer
	opts.Logger = logger
	opts.OnEnd = func(r playback.EndReason) { d.stats.Ended = r }

	sess, err := playback.New(src, opts)
	if err != nil {
		return playStats{}, err
	}
	defer sess.Close()
	sess.SetSpeed(flags.effectiveSpeed())
	d.sess = sess

	return d.run(cmd.Context())
}
