package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/qwdemo/internal/demofile"
	"github.com/dgnsrekt/qwdemo/internal/inspect"
)

func validateCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate DEMO...",
		Short: "Check that demos decode cleanly and summarize them",
		Long: heredoc.Doc(`
			Decode every record of each demo without playing it and report
			record counts, duration, level and whether the demo ends with a
			disconnect. Exits non-zero if any demo is corrupt or truncated.

			Examples:
			  qwdemo validate demos/*.mvd.gz
			  qwdemo validate --json duel_dm6_000
		`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			var failed int
			var firstErr error

			for _, name := range args {
				rep, err := validateOne(name)
				if rep == nil {
					logger.Error("cannot validate", zap.String("demo", name), zap.Error(err))
					failed++
					if firstErr == nil {
						firstErr = err
					}
					continue
				}
				if err != nil {
					failed++
					if firstErr == nil {
						firstErr = fmt.Errorf("%s: %w", name, err)
					}
				}
				if asJSON {
					if err := writeReportJSON(out, name, rep); err != nil {
						return err
					}
					continue
				}
				writeReport(out, name, rep)
			}

			if failed > 0 {
				logger.Warn("validation failed", zap.Int("failed", failed), zap.Int("total", len(args)))
				return firstErr
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print reports as JSON lines")
	return cmd
}

func validateOne(name string) (*inspect.Report, error) {
	path, _, err := demofile.Resolve(name, cfg.Demo.Dir)
	if err != nil {
		return nil, err
	}
	f, err := demofile.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return inspect.Run(f, f.Format.Family, inspect.Options{MaxMessage: cfg.Playback.MaxMessage})
}

func writeReportJSON(w io.Writer, name string, rep *inspect.Report) error {
	line := struct {
		Demo string `json:"demo"`
		*inspect.Report
	}{name, rep}
	b, err := json.Marshal(line)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}

func writeReport(w io.Writer, name string, rep *inspect.Report) {
	status := "ok"
	if !rep.OK() {
		status = "FAILED: " + rep.Error
	}
	fmt.Fprintf(w, "%s: %s\n", name, status)
	fmt.Fprintf(w, "  family %s, %d records, %d bytes\n", rep.Family, rep.Records, rep.Bytes)
	fmt.Fprintf(w, "  time %.3f to %.3f (%.1fs)\n", rep.Start, rep.End, rep.Duration)
	if rep.Level != "" {
		fmt.Fprintf(w, "  level %q gamedir %s\n", rep.Level, rep.GameDir)
	}
	fmt.Fprintf(w, "  kinds %s\n", formatCounts(rep.Kinds))
	if len(rep.Routes) > 0 {
		fmt.Fprintf(w, "  routes %s\n", formatCounts(rep.Routes))
	}
	if !rep.Disconnected {
		fmt.Fprintln(w, "  no closing disconnect")
	}
}

func formatCounts(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, m[k]))
	}
	return strings.Join(parts, " ")
}
