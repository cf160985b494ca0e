package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/qwdemo/internal/config"
	"github.com/dgnsrekt/qwdemo/internal/frame"
)

var (
	cfgFile string
	verbose bool
	logger  *zap.Logger
	cfg     *config.Config
)

func setupLogger(verbose bool, logCfg *config.LoggingConfig) (*zap.Logger, error) {
	var zapConfig zap.Config
	if verbose {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.DisableStacktrace = true
	}

	// Set log level from config; --verbose always wins
	if logCfg != nil && logCfg.Level != "" && !verbose {
		lvl := zap.NewAtomicLevel()
		if err := lvl.UnmarshalText([]byte(logCfg.Level)); err == nil {
			zapConfig.Level = lvl
		}
	}

	// Add file output if configured
	if logCfg != nil && logCfg.File != "" {
		zapConfig.OutputPaths = append(zapConfig.OutputPaths, logCfg.File)
	}

	return zapConfig.Build()
}

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := &cobra.Command{
		Use:   "qwdemo",
		Short: "Record, play back and relay QuakeWorld demos",
		Long: heredoc.Doc(`
			Record, play back and relay QuakeWorld demos.

			Client demos (.qwd) and multi-view demos (.mvd) are supported, plain
			or compressed with gzip (.gz) or zstd (.zst). Live multi-view
			streams can be watched from QTV proxies and from a qwdemo relay.

			Configuration is read from configs/default.yaml or --config, and
			every key can be overridden with a QWDEMO_ environment variable,
			for example QWDEMO_DEMO_DIR=/srv/demos.
		`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip config loading for help commands
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				var err error
				logger, err = setupLogger(verbose, nil)
				return err
			}

			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return err
			}

			logger, err = setupLogger(verbose, &cfg.Logging)
			if err != nil {
				return err
			}

			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", os.Getenv("QWDEMO_CONFIG"), "config file path (or set QWDEMO_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(playCmd())
	rootCmd.AddCommand(timedemoCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(convertCmd())
	rootCmd.AddCommand(qtvCmd())
	rootCmd.AddCommand(relayCmd())
	rootCmd.AddCommand(recordTestCmd())
	rootCmd.AddCommand(serveCmd())

	// Setup signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return 130
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, frame.ErrCorrupt) || errors.Is(err, frame.ErrTruncated) || errors.Is(err, frame.ErrOversized) {
			return 2
		}
		return 1
	}
	return 0
}
