package main

import (
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/qwdemo/internal/demofile"
)

func convertCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "convert IN OUT",
		Short: "Re-encode a demo with different compression",
		Long: heredoc.Doc(`
			Copy a demo, changing only its compression. The format of each side
			follows its extension: .qwd/.mvd for plain demos, plus .gz or .zst.
			Client and multi-view demos cannot be converted into each other.

			Examples:
			  # Compress a recording for archiving
			  qwdemo convert duel_dm6_000.mvd duel_dm6_000.mvd.zst

			  # Unpack a downloaded demo
			  qwdemo convert 4on4.mvd.gz 4on4.mvd
		`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out := args[0], args[1]
			if !force {
				if _, err := os.Stat(out); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", out)
				}
			}

			n, err := demofile.Convert(out, in)
			if err != nil {
				return err
			}

			logger.Info("converted demo",
				zap.String("in", in),
				zap.String("out", out),
				zap.Int64("bytes", n),
			)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite OUT if it exists")
	return cmd
}
