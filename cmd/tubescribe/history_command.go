package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tubescribe/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded batch runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return fmt.Errorf("run history is disabled in configuration")
			}
			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if runID != "" {
				items, err := store.RunItems(cmd.Context(), runID)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderHistoryItems(items))
				return nil
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistoryRuns(runs))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of recent runs to show (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "Show items for a run ID or unique prefix")
	return cmd
}

func renderHistoryRuns(runs []history.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortRunID(run.ID),
			humanize.Time(run.StartedAt),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String(),
			run.Input,
			strconv.Itoa(run.Counts.Succeeded),
			strconv.Itoa(run.Counts.Degraded),
			strconv.Itoa(run.Counts.Skipped),
			strconv.Itoa(run.Counts.Failed),
		})
	}
	return renderTable(
		[]string{"Run", "Started", "Duration", "Input", "OK", "Degraded", "Skipped", "Failed"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight},
	)
}

func renderHistoryItems(items []history.Item) string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		detail := item.Detail
		if item.Category != "" {
			detail = item.Category + ": " + detail
		}
		rows = append(rows, []string{
			strconv.Itoa(item.Index),
			item.Reference,
			item.Title,
			string(item.Status),
			detail,
			formatElapsed(item.Elapsed),
		})
	}
	return renderTable(
		[]string{"#", "Reference", "Title", "Status", "Detail", "Time"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	)
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
