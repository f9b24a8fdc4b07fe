package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	ctx := newCommandContext(flags)

	rootCmd := &cobra.Command{
		Use:   "tubescribe [input]",
		Short: "Download media and transcribe it to text and SRT subtitles",
		Long: `tubescribe turns a YouTube URL, a local media file, or a list file with one
reference per line into <title>.txt and <title>.srt transcripts in the output
directory. Work already on disk is skipped, so reruns only do what is missing.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			flags.languageSet = cmd.Flags().Changed("language")
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runBatch(cmd, ctx, args[0])
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Configuration file path")
	pf.StringVarP(&flags.outputDir, "output", "o", "", "Output directory for audio and transcripts (default: current directory)")
	pf.StringVarP(&flags.cacheDir, "cache", "c", "", "Model cache directory (default: <output>/model-cache)")
	pf.StringVarP(&flags.model, "model", "m", "", "Whisper model size (tiny, base, small, medium, large, large-v2, large-v3)")
	pf.StringVarP(&flags.language, "language", "l", "", "Language hint such as en or de; empty auto-detects")

	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
