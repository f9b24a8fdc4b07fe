package batch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"sort"
	"time"

	"github.com/google/uuid"

	"tubescribe/internal/acquire"
	"tubescribe/internal/artifacts"
	"tubescribe/internal/chunk"
	"tubescribe/internal/config"
	"tubescribe/internal/input"
	"tubescribe/internal/logging"
	"tubescribe/internal/services"
	"tubescribe/internal/transcribe"
)

// Stage names stamped on the context for log correlation.
const (
	StageIdentify   = "identify"
	StageAcquire    = "acquire"
	StageChunk      = "chunk"
	StageTranscribe = "transcribe"
	StageWrite      = "write"
)

// Acquirer resolves items into local audio.
type Acquirer interface {
	Identify(ctx context.Context, item input.WorkItem) (acquire.Source, error)
	Acquire(ctx context.Context, item input.WorkItem, src acquire.Source, paths artifacts.Paths) (acquire.Media, error)
	Duration(ctx context.Context, path string) float64
}

// Transcriber turns chunked audio into persisted transcripts.
type Transcriber interface {
	Transcribe(ctx context.Context, source string, descs []chunk.Descriptor, workDir string) (transcribe.Result, error)
	Write(ctx context.Context, paths artifacts.Paths, t transcribe.Transcript) error
}

// Recorder persists completed runs.
type Recorder interface {
	RecordRun(ctx context.Context, result Result) error
}

// Runner processes work items sequentially.
type Runner struct {
	cfg         *config.Config
	acquirer    Acquirer
	transcriber Transcriber
	recorder    Recorder
	logger      *slog.Logger
	now         func() time.Time
}

// Option customizes a Runner.
type Option func(*Runner)

// WithRecorder records every finished run.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithClock overrides time.Now (for testing).
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRunner constructs a Runner. transcriber may be nil when transcription is
// disabled in cfg.
func NewRunner(cfg *config.Config, acquirer Acquirer, transcriber Transcriber, opts ...Option) *Runner {
	r := &Runner{cfg: cfg, acquirer: acquirer, transcriber: transcriber, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.logger = logging.NewComponentLogger(r.logger, "batch")
	return r
}

// Run processes every resolved item in input order. Rejected input lines are
// reported as failed outcomes in their original position. The run ID is also
// the correlation ID on every log line of the run.
func (r *Runner) Run(ctx context.Context, inputLabel string, res input.Resolution) Result {
	result := Result{
		RunID:     uuid.NewString(),
		Input:     inputLabel,
		StartedAt: r.now(),
	}
	ctx = services.WithRequestID(ctx, result.RunID)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("batch started",
		logging.String("input", inputLabel),
		logging.Int("items", len(res.Items)),
		logging.Int("rejected", len(res.Rejected)),
	)

	for _, entry := range orderedEntries(res) {
		itemCtx := services.WithItemIndex(ctx, entry.index)
		var outcome Outcome
		if entry.rejection != nil {
			outcome = rejectedOutcome(*entry.rejection)
			logging.WarnWithContext(logging.WithContext(itemCtx, r.logger), "input line rejected", "input_rejected",
				logging.String("reference", entry.rejection.Reference),
				logging.Int("line", entry.rejection.Line),
				logging.String(logging.FieldImpact, "line skipped; remaining items continue"),
				logging.String(logging.FieldErrorHint, "use an http(s) URL or a supported media file path"),
			)
		} else {
			if ctx.Err() != nil {
				outcome = Outcome{Item: *entry.item, Status: StatusFailed, Err: ctx.Err(), Detail: "run cancelled", Category: "unknown"}
			} else {
				outcome = r.processItem(itemCtx, *entry.item)
			}
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	result.FinishedAt = r.now()
	logger.Info("batch finished",
		logging.String("summary", result.Summary()),
		logging.Duration("elapsed", result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond)),
	)

	if r.recorder != nil {
		if err := r.recorder.RecordRun(ctx, result); err != nil {
			logging.WarnWithContext(logger, "failed to record run history", "history_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "run is missing from history; outcomes are unaffected"),
			)
		}
	}
	return result
}

func (r *Runner) processItem(ctx context.Context, item input.WorkItem) (outcome Outcome) {
	started := r.now()
	outcome = Outcome{Item: item}
	logger := logging.WithContext(ctx, r.logger)

	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("panic: %v", rec)
			logger.Error("item processing panicked", logging.Error(err), logging.String("stack", string(debug.Stack())))
			outcome = r.fail(ctx, outcome, err)
		}
		outcome.Elapsed = r.now().Sub(started)
	}()

	logger.Info("item started", logging.String("reference", item.Reference), logging.String("kind", item.Kind.String()))

	stageCtx := services.WithStage(ctx, StageIdentify)
	src, err := r.acquirer.Identify(stageCtx, item)
	if err != nil {
		return r.fail(stageCtx, outcome, err)
	}
	paths := artifacts.Plan(r.cfg.Paths.OutputDir, src.Title, r.cfg.Download.AudioFormat)
	if src.LocalPath != "" {
		paths = paths.WithAudio(src.LocalPath)
	}
	outcome.Title = paths.Title
	outcome.Paths = paths

	state := artifacts.Inspect(paths)
	transcribeEnabled := r.cfg.Transcription.Enabled && r.transcriber != nil
	if transcribeEnabled && state.TranscriptPresent {
		return r.skip(stageCtx, outcome, "transcript already present")
	}
	if !transcribeEnabled && (state.AudioPresent || item.Kind == input.LocalFile) {
		return r.skip(stageCtx, outcome, "transcription disabled")
	}

	stageCtx = services.WithStage(ctx, StageAcquire)
	media, err := r.acquirer.Acquire(stageCtx, item, src, paths)
	if err != nil {
		return r.fail(stageCtx, outcome, err)
	}
	if !transcribeEnabled {
		return r.skip(stageCtx, outcome, "audio acquired; transcription disabled")
	}

	stageCtx = services.WithStage(ctx, StageChunk)
	media.DurationSeconds = r.acquirer.Duration(stageCtx, media.AudioPath)
	workDir := filepath.Join(r.cfg.Paths.OutputDir, ".chunks_"+paths.Title)
	descs := chunk.Assign(chunk.Plan(
		media.DurationSeconds,
		float64(r.cfg.Transcription.ChunkDurationSeconds),
		float64(r.cfg.Transcription.ChunkThresholdSeconds),
	), media.AudioPath, workDir)
	logging.WithContext(stageCtx, r.logger).Info("chunks planned",
		logging.Int("chunks", len(descs)),
		logging.Float64("duration_seconds", media.DurationSeconds),
	)
	outcome.Chunks = len(descs)

	stageCtx = services.WithStage(ctx, StageTranscribe)
	tr, err := r.transcriber.Transcribe(stageCtx, media.AudioPath, descs, workDir)
	outcome.FailedChunks = len(tr.Failures)
	if err != nil {
		return r.fail(stageCtx, outcome, err)
	}

	stageCtx = services.WithStage(ctx, StageWrite)
	if err := r.transcriber.Write(stageCtx, paths, tr.Transcript); err != nil {
		return r.fail(stageCtx, outcome, err)
	}

	if tr.Degraded() {
		outcome.Status = StatusDegraded
		outcome.Detail = fmt.Sprintf("%d of %d chunks failed", len(tr.Failures), tr.Chunks)
		logging.WarnWithContext(logging.WithContext(stageCtx, r.logger), "item completed with gaps", "item_degraded",
			logging.String("title", paths.Title),
			logging.Int("failed_chunks", len(tr.Failures)),
			logging.Int("chunks", tr.Chunks),
			logging.String(logging.FieldImpact, "transcript contains gap markers"),
		)
		return outcome
	}
	outcome.Status = StatusSucceeded
	outcome.Detail = fmt.Sprintf("%d segment(s)", len(tr.Transcript.Segments))
	logging.WithContext(stageCtx, r.logger).Info("item completed", logging.String("title", paths.Title))
	return outcome
}

func (r *Runner) skip(ctx context.Context, outcome Outcome, reason string) Outcome {
	outcome.Status = StatusSkipped
	outcome.Detail = reason
	logging.WithContext(ctx, r.logger).Info("item skipped",
		logging.String("title", outcome.Title),
		logging.String("reason", reason),
	)
	return outcome
}

func (r *Runner) fail(ctx context.Context, outcome Outcome, err error) Outcome {
	outcome.Status = StatusFailed
	outcome.Err = err
	outcome.Category = services.Category(err)
	outcome.Detail = err.Error()
	logging.ErrorWithContext(logging.WithContext(ctx, r.logger), "item failed", "item_failed",
		logging.String("reference", outcome.Item.Reference),
		logging.String(logging.FieldErrorCategory, outcome.Category),
		logging.Error(err),
	)
	return outcome
}

func rejectedOutcome(rej input.Rejection) Outcome {
	return Outcome{
		Item:     input.WorkItem{Reference: rej.Reference, Index: rej.Index},
		Status:   StatusFailed,
		Err:      rej.Err,
		Category: services.Category(rej.Err),
		Detail:   rej.Err.Error(),
	}
}

type entry struct {
	index     int
	item      *input.WorkItem
	rejection *input.Rejection
}

func orderedEntries(res input.Resolution) []entry {
	entries := make([]entry, 0, res.Total())
	for i := range res.Items {
		entries = append(entries, entry{index: res.Items[i].Index, item: &res.Items[i]})
	}
	for i := range res.Rejected {
		entries = append(entries, entry{index: res.Rejected[i].Index, rejection: &res.Rejected[i]})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].index < entries[j].index })
	return entries
}
