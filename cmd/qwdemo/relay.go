package main

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/qwdemo/internal/frame"
	"github.com/dgnsrekt/qwdemo/internal/playback"
	"github.com/dgnsrekt/qwdemo/internal/relay"
)

func relayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Watch demos streamed by a qwdemo server",
	}
	cmd.AddCommand(relayPlayCmd())
	return cmd
}

func relayPlayCmd() *cobra.Command {
	var (
		flags    playFlags
		compress bool
	)

	cmd := &cobra.Command{
		Use:   "play BASE_URL DEMO",
		Short: "Play a demo streamed over a relay websocket",
		Long: heredoc.Doc(`
			Connect to the relay of a "qwdemo serve" instance and play a demo
			as it is streamed. Multi-view demos are played live with a
			pre-buffer; client demos are played against the clock.

			Examples:
			  qwdemo relay play http://localhost:8080 duel_dm6_000.mvd
			  qwdemo relay play --compress=false http://demos.example.com 4on4.mvd.gz
		`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := relay.URL(args[0], args[1])
			conn, err := relay.Dial(cmd.Context(), url, compress, cfg.QTV.Buffer)
			if err != nil {
				return err
			}
			defer conn.Close()

			logger.Info("relay connected",
				zap.String("url", url),
				zap.String("conn_id", conn.Hello.ConnID),
				zap.Stringer("family", conn.Hello.Family),
				zap.Bool("compressed", conn.Hello.Compressed),
			)

			stats, err := playLive(cmd, conn, playback.Options{
				Family: conn.Hello.Family,
				Live:   conn.Hello.Family == frame.MVD,
			}, &flags)
			if err != nil {
				return err
			}

			fields := []zap.Field{
				zap.Int("messages", stats.Messages),
				zap.Stringer("reason", stats.Ended),
			}
			if end := conn.End(); end != nil {
				fields = append(fields, zap.String("relay_reason", end.Reason), zap.Uint64("records", end.Records))
			}
			logger.Info("relay stream finished", fields...)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&compress, "compress", true, "ask the relay for zstd compressed chunks")
	return cmd
}
