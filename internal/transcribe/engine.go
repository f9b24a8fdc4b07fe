package transcribe

import (
	"context"

	"tubescribe/internal/services/whisperx"
)

// Engine converts one audio file into segments timed relative to its start.
// workDir is scratch space the engine may use for intermediate files.
type Engine interface {
	Transcribe(ctx context.Context, audioPath, workDir, language string) ([]Segment, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, audioPath, workDir, language string) ([]Segment, error)

// Transcribe calls f.
func (f EngineFunc) Transcribe(ctx context.Context, audioPath, workDir, language string) ([]Segment, error) {
	return f(ctx, audioPath, workDir, language)
}

// WhisperXEngine exposes a WhisperX service as an Engine.
type WhisperXEngine struct {
	svc *whisperx.Service
}

// NewWhisperXEngine wraps svc.
func NewWhisperXEngine(svc *whisperx.Service) *WhisperXEngine {
	return &WhisperXEngine{svc: svc}
}

// Transcribe runs WhisperX and converts its segments.
func (e *WhisperXEngine) Transcribe(ctx context.Context, audioPath, workDir, language string) ([]Segment, error) {
	raw, err := e.svc.Transcribe(ctx, audioPath, workDir, language)
	if err != nil {
		return nil, err
	}
	segments := make([]Segment, 0, len(raw))
	for _, seg := range raw {
		segments = append(segments, Segment{Start: seg.Start, End: seg.End, Text: seg.Text})
	}
	return segments, nil
}
