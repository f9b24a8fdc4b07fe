package main

import (
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tubescribe/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var runID string
	var raw bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the JSON log file written by previous runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := strings.TrimSpace(cfg.Logging.File)
			if path == "" {
				return errors.New("no log file configured (set logging.file in the config)")
			}

			out := cmd.OutOrStdout()
			opts := logs.TailOptions{Offset: -1, Limit: lines, RunID: runID}
			result, err := logs.Tail(cmd.Context(), path, opts)
			if err != nil {
				return err
			}
			printLogLines(out, result.Lines, raw)
			if !follow {
				return nil
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			offset := result.Offset
			for {
				result, err := logs.Tail(signalCtx, path, logs.TailOptions{Offset: offset, Follow: true, Wait: 2 * time.Second, RunID: runID})
				if err != nil {
					if signalCtx.Err() != nil {
						return nil
					}
					return err
				}
				printLogLines(out, result.Lines, raw)
				offset = result.Offset
			}
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines as they are written")
	cmd.Flags().StringVar(&runID, "run", "", "Only show lines for this run ID or prefix")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print JSON records unchanged")
	return cmd
}

func printLogLines(out io.Writer, lines []string, raw bool) {
	for _, line := range lines {
		if !raw {
			if entry, ok := logs.ParseEntry(line); ok {
				line = entry.Format()
			}
		}
		fmt.Fprintln(out, line)
	}
}
