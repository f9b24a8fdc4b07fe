package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tubescribe/internal/acquire"
	"tubescribe/internal/batch"
	"tubescribe/internal/chunk"
	"tubescribe/internal/config"
	"tubescribe/internal/history"
	"tubescribe/internal/input"
	"tubescribe/internal/logging"
	"tubescribe/internal/media/ffprobe"
	"tubescribe/internal/preflight"
	"tubescribe/internal/runlock"
	"tubescribe/internal/services/whisperx"
	"tubescribe/internal/services/ytdlp"
	"tubescribe/internal/transcribe"
)

// errItemsFailed signals a completed run in which at least one item failed.
// The summary has already been printed, so main exits without repeating it.
var errItemsFailed = errors.New("one or more items failed")

func runBatch(cmd *cobra.Command, ctx *commandContext, arg string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	res, err := input.Resolve(arg, cfg.Paths.OutputDir)
	if err != nil {
		return err
	}

	lock, err := runlock.Acquire(cfg.Paths.OutputDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("failed to release run lock", logging.String("lock", lock.Path()), logging.Error(err))
		}
	}()

	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := preflight.Failures(preflight.ForRun(signalCtx, cfg, hasRemote(res))); err != nil {
		return err
	}

	logConfigBanner(logger, cfg, ctx.configPath)

	opts := []batch.Option{batch.WithLogger(logger)}
	if store := openHistory(logger, cfg); store != nil {
		defer store.Close()
		opts = append(opts, batch.WithRecorder(store))
	}

	acq, tr := buildPipeline(cfg, logger)
	runner := batch.NewRunner(cfg, acq, tr, opts...)
	result := runner.Run(signalCtx, arg, res)

	out := cmd.OutOrStdout()
	fmt.Fprint(out, renderSummary(result, shouldColorize(out)))

	if err := signalCtx.Err(); err != nil {
		return err
	}
	if result.ExitCode() != 0 {
		return errItemsFailed
	}
	return nil
}

// buildPipeline wires the external tool wrappers. The transcriber is nil when
// transcription is disabled so no engine is ever constructed.
func buildPipeline(cfg *config.Config, logger *slog.Logger) (*acquire.Acquirer, batch.Transcriber) {
	fetcher := ytdlp.NewClient(cfg.YTDLPBinary(), cfg.Download.AudioFormat)
	prober := ffprobe.NewProber(cfg.FFprobeBinary())
	acq := acquire.New(fetcher, prober, acquire.Options{
		OutputDir:       cfg.Paths.OutputDir,
		DownloadEnabled: cfg.Download.Enabled,
		Logger:          logger,
	})
	if !cfg.Transcription.Enabled {
		return acq, nil
	}

	svc := whisperx.NewService(whisperx.Config{
		Model:              cfg.Transcription.Model,
		ModelDir:           cfg.Paths.ModelCacheDir,
		ForceModelDownload: cfg.Transcription.ForceModelDownload,
		CUDAEnabled:        cfg.Transcription.CUDAEnabled,
		Launcher:           cfg.EngineBinary(),
	})
	orch := transcribe.New(
		transcribe.NewWhisperXEngine(svc),
		chunk.NewFFmpegSlicer(cfg.FFmpegBinary()),
		transcribe.Options{Language: cfg.Transcription.Language, Logger: logger},
	)
	return acq, orch
}

func openHistory(logger *slog.Logger, cfg *config.Config) *history.Store {
	if !cfg.History.Enabled {
		return nil
	}
	store, err := history.Open(cfg)
	if err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
			logging.String("path", cfg.History.Path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not be recorded"),
			logging.String(logging.FieldErrorHint, "check permissions or delete the history database"),
		)
		return nil
	}
	return store
}

func logConfigBanner(logger *slog.Logger, cfg *config.Config, configPath string) {
	language := cfg.Transcription.Language
	if language == "" {
		language = "auto"
	}
	logger = logging.NewComponentLogger(logger, "cli")
	logger.Info("configuration",
		logging.String("config_file", configPath),
		logging.String("output_dir", cfg.Paths.OutputDir),
		logging.String("model_cache_dir", cfg.Paths.ModelCacheDir),
		logging.String("model", cfg.Transcription.Model),
		logging.String("language", language),
		logging.String("download_enabled", yesNo(cfg.Download.Enabled)),
		logging.String("transcription_enabled", yesNo(cfg.Transcription.Enabled)),
		logging.String("force_model_download", yesNo(cfg.Transcription.ForceModelDownload)),
		logging.Int("chunk_duration_seconds", cfg.Transcription.ChunkDurationSeconds),
		logging.Int("chunk_threshold_seconds", cfg.Transcription.ChunkThresholdSeconds),
		logging.String("cpu_limit", cfg.Resources.CPULimit),
		logging.String("memory_limit", cfg.Resources.MemoryLimit),
	)
	if !cfg.Download.Enabled && !cfg.Transcription.Enabled {
		logging.WarnWithContext(logger, "download and transcription are both disabled", "pipeline_disabled",
			logging.String(logging.FieldImpact, "items will only be identified and reported"),
			logging.String(logging.FieldErrorHint, "set ENABLE_DOWNLOAD or ENABLE_TRANSCRIPTION to true"),
		)
	}
}

func hasRemote(res input.Resolution) bool {
	for _, item := range res.Items {
		if item.Kind == input.RemoteURL {
			return true
		}
	}
	return false
}
