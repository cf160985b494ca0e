package main

import (
	"os"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/qwdemo/internal/catalog"
	"github.com/dgnsrekt/qwdemo/internal/relay"
	"github.com/dgnsrekt/qwdemo/internal/server"
)

func serveCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo catalog API and the websocket relay",
		Long: heredoc.Doc(`
			Index the demo directory and serve it over HTTP:

			  GET  /demos                 list demos
			  GET  /demos/{name}/report   decode a demo and summarize it
			  POST /demos/rescan          re-index the directory
			  GET  /relay                 relay viewers per demo
			  GET  /relay/demos/{name}    stream a demo over websocket
			  GET  /relay/events          relay status as server-sent events

			The OpenAPI document is served at /openapi.yaml and browsable at
			/docs. The directory is re-indexed every relay.rescan_interval.
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if listen == "" {
				listen = cfg.Relay.Listen
			}

			if err := os.MkdirAll(cfg.Demo.Dir, 0750); err != nil {
				return err
			}
			cat, err := catalog.New(cfg.Demo.Dir, cfg.Playback.MaxMessage, logger)
			if err != nil {
				return err
			}

			hub := relay.NewHub("relay", logger)
			rl, err := relay.New(hub, cat, relay.Options{
				Pace:       cfg.Relay.Pace,
				Compress:   cfg.Relay.Compress,
				SendBuffer: cfg.Relay.SendBuffer,
				Rate:       cfg.Relay.Rate,
				Burst:      cfg.Relay.Burst,
			}, logger)
			if err != nil {
				return err
			}
			defer rl.Close()
			go rl.Run(ctx)

			srv := server.NewServer(cat, rl, logger)
			go srv.Rescanner().Run(ctx, cfg.Relay.RescanInterval)
			if cfg.Relay.EventsInterval > 0 {
				id, err := os.Hostname()
				if err != nil {
					id = "qwdemo"
				}
				events := srv.EnableEvents(id, cfg.Relay.EventsInterval)
				go events.Run(ctx)
			}

			router, err := server.NewRouter(srv, logger)
			if err != nil {
				return err
			}

			logger.Info("configuration loaded",
				zap.String("demoDir", cfg.Demo.Dir),
				zap.Int("demos", len(cat.List(""))),
				zap.Float64("pace", cfg.Relay.Pace),
				zap.Bool("compress", cfg.Relay.Compress),
				zap.Duration("rescanInterval", cfg.Relay.RescanInterval),
			)

			return server.ListenAndServe(ctx, listen, router, logger)
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (default relay.listen)")
	return cmd
}
