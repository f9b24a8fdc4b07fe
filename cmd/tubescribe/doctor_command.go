package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tubescribe/internal/deps"
	"tubescribe/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools and directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			results := preflight.RunAll(cmd.Context(), cfg, deps.ExecVersionRunner)
			lines := renderSectionHeader("Dependencies", colorize)
			for _, r := range results {
				lines = append(lines, renderCheckLine(r, colorize))
			}
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Configuration", colorize)...)
			lines = append(lines,
				renderStatusLine("Config file", statusInfo, ctx.configPath, colorize),
				renderStatusLine("Model", statusInfo, cfg.Transcription.Model, colorize),
				renderStatusLine("Download", statusInfo, yesNo(cfg.Download.Enabled), colorize),
				renderStatusLine("Transcription", statusInfo, yesNo(cfg.Transcription.Enabled), colorize),
				renderStatusLine("History", statusInfo, historyDetail(cfg.History.Enabled, cfg.History.Path), colorize),
			)
			fmt.Fprintln(out, strings.Join(lines, "\n"))

			if err := preflight.Failures(results); err != nil {
				return err
			}
			return nil
		},
	}
}

func renderCheckLine(r preflight.Result, colorize bool) string {
	kind := statusOK
	if !r.Passed {
		kind = statusError
	} else if strings.Contains(r.Detail, "(optional:") {
		kind = statusWarn
	}
	return renderStatusLine(r.Name, kind, r.Detail, colorize)
}

func historyDetail(enabled bool, path string) string {
	if !enabled {
		return "disabled"
	}
	return path
}
