package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/qwdemo/internal/frame"
	"github.com/dgnsrekt/qwdemo/internal/playback"
	"github.com/dgnsrekt/qwdemo/internal/qtv"
)

func qtvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qtv",
		Short: "Watch streams from a QTV proxy",
	}
	cmd.AddCommand(qtvListCmd())
	cmd.AddCommand(qtvPlayCmd())
	return cmd
}

func newQTVClient() *qtv.Client {
	return qtv.NewClient(qtv.Options{
		DialTimeout: cfg.QTV.DialTimeout,
		Depth:       cfg.QTV.Buffer,
		Logger:      logger,
	})
}

func qtvListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [HOST[:PORT]]",
		Short: "List the sources and demos a proxy offers",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host := cfg.QTV.Address
			if len(args) > 0 {
				host = args[0]
			}
			if host == "" {
				return errors.New("no proxy given and qtv.address is not set")
			}

			resp, err := newQTVClient().List(cmd.Context(), host)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, s := range resp.Sources {
				fmt.Fprintf(out, "source  %s\n", s)
			}
			for _, d := range resp.Demos {
				fmt.Fprintf(out, "demo    %s\n", d)
			}
			if len(resp.Sources)+len(resp.Demos) == 0 {
				fmt.Fprintln(out, "no streams available")
			}
			return nil
		},
	}
}

func qtvPlayCmd() *cobra.Command {
	var flags playFlags

	cmd := &cobra.Command{
		Use:   "play [STREAM@HOST[:PORT] | FILE.qtv]",
		Short: "Watch a live stream from a QTV proxy",
		Long: heredoc.Doc(`
			Connect to a QTV proxy and play its multi-view stream live, holding
			a pre-buffer so network stalls do not stop playback.

			The argument is an address of the form [stream@]host[:port], port
			27599 by default, or a .qtv file containing a Stream= line. With no
			argument qtv.address from the config is used.

			Examples:
			  qwdemo qtv play 1@qtv.quakeworld.nu
			  qwdemo qtv play final.qtv --track 2
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := cfg.QTV.Address
			if len(args) > 0 {
				target = args[0]
			}
			addr, err := resolveQTVTarget(target)
			if err != nil {
				return err
			}

			stream, err := newQTVClient().Dial(cmd.Context(), addr)
			if err != nil {
				return err
			}
			defer stream.Close()

			stats, err := playLive(cmd, stream, playback.Options{
				Family: frame.MVD,
				Live:   true,
				Seed:   stream.Seed,
			}, &flags)
			if err != nil {
				return err
			}
			logger.Info("qtv stream finished",
				zap.String("address", addr.String()),
				zap.Int("messages", stats.Messages),
				zap.Stringer("reason", stats.Ended),
			)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// resolveQTVTarget turns an address or a .qtv file into a proxy address.
func resolveQTVTarget(target string) (qtv.Address, error) {
	if target == "" {
		return qtv.Address{}, errors.New("no stream given and qtv.address is not set")
	}
	if !strings.HasSuffix(strings.ToLower(target), ".qtv") {
		return qtv.ParseAddress(target)
	}

	dir, err := qtv.ReadDirectiveFile(target)
	if err != nil {
		return qtv.Address{}, err
	}
	if dir.Kind != qtv.DirectiveStream {
		return qtv.Address{}, fmt.Errorf("%s asks to %s %s, which needs a game connection", target, dir.Kind, dir.Target)
	}
	return qtv.ParseAddress(dir.Target)
}
