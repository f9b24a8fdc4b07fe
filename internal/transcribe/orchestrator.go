package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"tubescribe/internal/artifacts"
	"tubescribe/internal/chunk"
	"tubescribe/internal/fileutil"
	"tubescribe/internal/logging"
	"tubescribe/internal/services"
)

// ChunkFailure records why one chunk is missing from the transcript.
type ChunkFailure struct {
	Chunk chunk.Descriptor
	Err   error
}

// Result is the outcome of transcribing every chunk of one item.
type Result struct {
	Transcript Transcript
	Chunks     int
	Failures   []ChunkFailure
}

// Degraded reports whether some, but not all, chunks failed.
func (r Result) Degraded() bool {
	return len(r.Failures) > 0 && len(r.Failures) < r.Chunks
}

// Options configures an Orchestrator.
type Options struct {
	// Language is the engine hint; empty means auto-detect.
	Language string
	Logger   *slog.Logger
}

// Orchestrator runs chunks through an Engine sequentially.
type Orchestrator struct {
	engine Engine
	slicer chunk.Slicer
	opts   Options
	logger *slog.Logger
}

// New constructs an Orchestrator.
func New(engine Engine, slicer chunk.Slicer, opts Options) *Orchestrator {
	return &Orchestrator{
		engine: engine,
		slicer: slicer,
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "transcribe"),
	}
}

// Transcribe processes descs in order and merges their segments onto the
// source timeline. workDir holds slices and engine scratch files and is
// removed before returning. An error is returned only when no chunk succeeded
// or the context was cancelled.
func (o *Orchestrator) Transcribe(ctx context.Context, source string, descs []chunk.Descriptor, workDir string) (Result, error) {
	result := Result{Chunks: len(descs)}
	if len(descs) == 0 {
		return result, services.Wrap(services.ErrTranscription, "transcribe", "plan", "no chunks to transcribe", nil)
	}
	logger := logging.WithContext(ctx, o.logger)

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return result, services.Wrap(services.ErrTranscription, "transcribe", "create work dir", workDir, err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logger.Debug("work dir cleanup failed", logging.String("work_dir", workDir), logging.Error(err))
		}
	}()

	merged := make([]Segment, 0, 64)
	for _, desc := range descs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		started := time.Now()
		segments, err := o.transcribeChunk(ctx, source, desc, workDir)
		if err != nil {
			result.Failures = append(result.Failures, ChunkFailure{Chunk: desc, Err: err})
			logging.WarnWithContext(logger, "chunk failed", "chunk_failed",
				logging.Int("chunk", desc.Index+1),
				logging.Int("chunks", len(descs)),
				logging.String("range", desc.String()),
				logging.String(logging.FieldErrorCategory, services.Category(err)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "gap marker written in place of this chunk"),
			)
			merged = append(merged, gapMarker(desc))
			continue
		}
		for _, seg := range segments {
			merged = append(merged, seg.Shift(desc.StartSeconds))
		}
		logger.Info("chunk transcribed",
			logging.Int("chunk", desc.Index+1),
			logging.Int("chunks", len(descs)),
			logging.Int("segments", len(segments)),
			logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
		)
	}

	if len(result.Failures) == len(descs) {
		return result, services.Wrap(services.ErrTranscription, "transcribe", "merge",
			fmt.Sprintf("all %d chunks failed; first failure: %v", len(descs), result.Failures[0].Err), nil)
	}

	result.Transcript = NewTranscript(merged)
	return result, nil
}

func (o *Orchestrator) transcribeChunk(ctx context.Context, source string, desc chunk.Descriptor, workDir string) ([]Segment, error) {
	if err := o.slicer.Slice(ctx, source, desc); err != nil {
		return nil, err
	}
	if !desc.Whole {
		defer os.Remove(desc.Path)
	}

	segments, err := o.engine.Transcribe(ctx, desc.Path, workDir, o.opts.Language)
	if err != nil && errors.Is(err, services.ErrTransient) && ctx.Err() == nil {
		logging.WithContext(ctx, o.logger).Info("retrying chunk after recoverable engine error",
			logging.Int("chunk", desc.Index+1),
			logging.Error(err),
		)
		segments, err = o.engine.Transcribe(ctx, desc.Path, workDir, o.opts.Language)
	}
	if err != nil {
		if errors.Is(err, services.ErrTranscription) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrTranscription, "transcribe", "engine", desc.String(), err)
	}

	cleaned := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		seg.Text = strings.TrimSpace(seg.Text)
		if seg.Text == "" {
			continue
		}
		if seg.Start < 0 {
			seg.Start = 0
		}
		if seg.End < seg.Start {
			seg.End = seg.Start
		}
		cleaned = append(cleaned, seg)
	}
	// Order within the chunk only; chunks are appended in plan order even when
	// a segment overruns its chunk end.
	sort.SliceStable(cleaned, func(i, j int) bool { return cleaned[i].Start < cleaned[j].Start })
	return cleaned, nil
}

// Write persists the transcript as plain text and SRT. Both files are staged
// before either is moved into place.
func (o *Orchestrator) Write(ctx context.Context, paths artifacts.Paths, t Transcript) error {
	files := []fileutil.File{
		{Path: paths.TranscriptTXT, Data: []byte(RenderText(t))},
		{Path: paths.TranscriptSRT, Data: []byte(RenderSRT(t.Segments))},
	}
	if err := fileutil.WriteFilesAtomic(files, 0o644); err != nil {
		return services.Wrap(services.ErrArtifactWrite, "transcribe", "write transcript", paths.Title, err)
	}
	logging.WithContext(ctx, o.logger).Info("transcript written",
		logging.String("txt", paths.TranscriptTXT),
		logging.String("srt", paths.TranscriptSRT),
		logging.Int("segments", len(t.Segments)),
	)
	return nil
}

func gapMarker(desc chunk.Descriptor) Segment {
	return Segment{
		Start: desc.StartSeconds,
		End:   desc.EndSeconds(),
		Text:  fmt.Sprintf("[gap: %s-%s not transcribed]", chunk.FormatClock(desc.StartSeconds), chunk.FormatClock(desc.EndSeconds())),
		Gap:   true,
	}
}
