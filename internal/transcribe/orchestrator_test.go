package transcribe_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tubescribe/internal/artifacts"
	"tubescribe/internal/chunk"
	"tubescribe/internal/services"
	"tubescribe/internal/transcribe"
)

type fakeSlicer struct {
	failIndex map[int]bool
	sliced    []int
}

func (s *fakeSlicer) Slice(_ context.Context, _ string, d chunk.Descriptor) error {
	s.sliced = append(s.sliced, d.Index)
	if s.failIndex[d.Index] {
		return services.Wrap(services.ErrChunkExtraction, "chunk", "slice", d.String(), errors.New("corrupt region"))
	}
	if d.Whole {
		return nil
	}
	return os.WriteFile(d.Path, []byte("RIFF"), 0o644)
}

type scriptedEngine struct {
	calls     map[string]int
	responses func(path string, call int) ([]transcribe.Segment, error)
	languages []string
}

func (e *scriptedEngine) Transcribe(_ context.Context, audioPath, _ string, language string) ([]transcribe.Segment, error) {
	if e.calls == nil {
		e.calls = map[string]int{}
	}
	e.calls[audioPath]++
	e.languages = append(e.languages, language)
	return e.responses(audioPath, e.calls[audioPath])
}

func helloEngine() *scriptedEngine {
	return &scriptedEngine{responses: func(path string, _ int) ([]transcribe.Segment, error) {
		return []transcribe.Segment{
			{Start: 0, End: 2.5, Text: "hello from " + filepath.Base(path)},
			{Start: 3, End: 4, Text: "again"},
		}, nil
	}}
}

func TestTranscribeShiftsAndMergesChunks(t *testing.T) {
	out := t.TempDir()
	work := filepath.Join(out, ".chunks_talk")
	descs := chunk.Assign(chunk.Plan(120, 60, 60), filepath.Join(out, "talk.mp3"), work)
	engine := helloEngine()
	orch := transcribe.New(engine, &fakeSlicer{}, transcribe.Options{Language: "en"})

	result, err := orch.Transcribe(context.Background(), filepath.Join(out, "talk.mp3"), descs, work)
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	segs := result.Transcript.Segments
	if len(segs) != 4 {
		t.Fatalf("expected 4 segments, got %+v", segs)
	}
	if segs[0].Start != 0 || segs[0].End != 2.5 {
		t.Fatalf("first chunk must not shift: %+v", segs[0])
	}
	if segs[2].Start != 60 || segs[2].End != 62.5 || !strings.Contains(segs[2].Text, "chunk_001.wav") {
		t.Fatalf("second chunk must shift by 60s: %+v", segs[2])
	}
	for i := 1; i < len(segs); i++ {
		if segs[i].Start < segs[i-1].Start {
			t.Fatalf("segments out of order at %d: %+v", i, segs)
		}
	}
	if segs[2].Start <= segs[1].Start {
		t.Fatal("second chunk segments must follow first chunk segments")
	}
	if result.Degraded() || len(result.Failures) != 0 {
		t.Fatalf("expected clean result, got %+v", result.Failures)
	}
	if result.Transcript.Text != "hello from chunk_000.wav again hello from chunk_001.wav again" {
		t.Fatalf("unexpected text %q", result.Transcript.Text)
	}
	for _, lang := range engine.languages {
		if lang != "en" {
			t.Fatalf("expected language hint to be passed, got %q", lang)
		}
	}
	if _, err := os.Stat(work); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("expected work dir to be removed")
	}
}

func TestTranscribeKeepsChunkOrderWhenSegmentOverrunsChunkEnd(t *testing.T) {
	out := t.TempDir()
	work := filepath.Join(out, ".chunks_talk")
	descs := chunk.Assign(chunk.Plan(120, 60, 60), filepath.Join(out, "talk.mp3"), work)
	engine := &scriptedEngine{responses: func(path string, _ int) ([]transcribe.Segment, error) {
		if strings.HasSuffix(path, "chunk_000.wav") {
			return []transcribe.Segment{
				{Start: 60.3, End: 60.8, Text: "tail"},
				{Start: 10, End: 12, Text: "head"},
			}, nil
		}
		return []transcribe.Segment{{Start: 0, End: 1, Text: "next"}}, nil
	}}
	orch := transcribe.New(engine, &fakeSlicer{}, transcribe.Options{})

	result, err := orch.Transcribe(context.Background(), filepath.Join(out, "talk.mp3"), descs, work)
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if result.Transcript.Text != "head tail next" {
		t.Fatalf("expected chunk order preserved, got %q", result.Transcript.Text)
	}
}

func TestTranscribeWholeFileKeepsSource(t *testing.T) {
	out := t.TempDir()
	source := filepath.Join(out, "short.mp3")
	if err := os.WriteFile(source, []byte("ID3"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	descs := chunk.Assign(chunk.Plan(30, 60, 60), source, filepath.Join(out, ".chunks_short"))
	orch := transcribe.New(helloEngine(), &fakeSlicer{}, transcribe.Options{})

	result, err := orch.Transcribe(context.Background(), source, descs, filepath.Join(out, ".chunks_short"))
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if len(result.Transcript.Segments) != 2 {
		t.Fatalf("unexpected segments %+v", result.Transcript.Segments)
	}
	if _, err := os.Stat(source); err != nil {
		t.Fatal("whole-file source must not be deleted")
	}
}

func TestTranscribePartialFailureIsDegraded(t *testing.T) {
	out := t.TempDir()
	work := filepath.Join(out, ".chunks_x")
	descs := chunk.Assign(chunk.Plan(180, 60, 60), filepath.Join(out, "x.mp3"), work)
	engine := &scriptedEngine{responses: func(path string, _ int) ([]transcribe.Segment, error) {
		if strings.HasSuffix(path, "chunk_002.wav") {
			return nil, services.Wrap(services.ErrTranscription, "transcribe", "whisperx", "", errors.New("exit status 1"))
		}
		return []transcribe.Segment{{Start: 1, End: 2, Text: "ok"}}, nil
	}}
	orch := transcribe.New(engine, &fakeSlicer{failIndex: map[int]bool{0: true}}, transcribe.Options{})

	result, err := orch.Transcribe(context.Background(), filepath.Join(out, "x.mp3"), descs, work)
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if !result.Degraded() || len(result.Failures) != 2 {
		t.Fatalf("expected degraded result with 2 failures, got %+v", result.Failures)
	}
	if !errors.Is(result.Failures[0].Err, services.ErrChunkExtraction) {
		t.Fatalf("expected chunk extraction failure first, got %v", result.Failures[0].Err)
	}
	if !errors.Is(result.Failures[1].Err, services.ErrTranscription) {
		t.Fatalf("expected transcription failure second, got %v", result.Failures[1].Err)
	}

	segs := result.Transcript.Segments
	if len(segs) != 3 {
		t.Fatalf("expected 2 gap markers and 1 segment, got %+v", segs)
	}
	if !segs[0].Gap || segs[0].Start != 0 || segs[0].End != 60 {
		t.Fatalf("expected leading gap marker, got %+v", segs[0])
	}
	if segs[1].Gap || segs[1].Start != 61 {
		t.Fatalf("expected shifted segment from chunk 1, got %+v", segs[1])
	}
	if !segs[2].Gap || segs[2].Start != 120 {
		t.Fatalf("expected trailing gap marker, got %+v", segs[2])
	}
	if !strings.Contains(result.Transcript.Text, "[gap: 0:00:00-0:01:00 not transcribed]") {
		t.Fatalf("gap marker missing from text: %q", result.Transcript.Text)
	}
}

func TestTranscribeAllChunksFail(t *testing.T) {
	out := t.TempDir()
	descs := chunk.Assign(chunk.Plan(120, 60, 60), filepath.Join(out, "x.mp3"), filepath.Join(out, "w"))
	engine := &scriptedEngine{responses: func(string, int) ([]transcribe.Segment, error) {
		return nil, errors.New("model crashed")
	}}
	orch := transcribe.New(engine, &fakeSlicer{}, transcribe.Options{})

	result, err := orch.Transcribe(context.Background(), filepath.Join(out, "x.mp3"), descs, filepath.Join(out, "w"))
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected transcription error, got %v", err)
	}
	if services.Category(err) != "transcription" {
		t.Fatalf("unexpected category %q", services.Category(err))
	}
	if len(result.Failures) != 2 {
		t.Fatalf("expected both failures recorded, got %d", len(result.Failures))
	}
}

func TestTranscribeRetriesTransientOnce(t *testing.T) {
	out := t.TempDir()
	source := filepath.Join(out, "a.mp3")
	descs := chunk.Assign(chunk.Plan(10, 60, 60), source, filepath.Join(out, "w"))

	engine := &scriptedEngine{responses: func(_ string, call int) ([]transcribe.Segment, error) {
		if call == 1 {
			return nil, services.Wrap(services.ErrTransient, "transcribe", "whisperx", "", errors.New("failed to load audio"))
		}
		return []transcribe.Segment{{Start: 0, End: 1, Text: "recovered"}}, nil
	}}
	orch := transcribe.New(engine, &fakeSlicer{}, transcribe.Options{})
	result, err := orch.Transcribe(context.Background(), source, descs, filepath.Join(out, "w"))
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if engine.calls[source] != 2 || result.Transcript.Text != "recovered" {
		t.Fatalf("expected one retry, calls=%d text=%q", engine.calls[source], result.Transcript.Text)
	}

	always := &scriptedEngine{responses: func(string, int) ([]transcribe.Segment, error) {
		return nil, services.Wrap(services.ErrTransient, "transcribe", "whisperx", "", errors.New("failed to load audio"))
	}}
	orch = transcribe.New(always, &fakeSlicer{}, transcribe.Options{})
	if _, err := orch.Transcribe(context.Background(), source, descs, filepath.Join(out, "w")); !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected transcription error after retry, got %v", err)
	}
	if always.calls[source] != 2 {
		t.Fatalf("expected exactly two attempts, got %d", always.calls[source])
	}
}

func TestWriteProducesBothArtifacts(t *testing.T) {
	out := t.TempDir()
	paths := artifacts.Plan(out, "Talk", "mp3")
	orch := transcribe.New(helloEngine(), &fakeSlicer{}, transcribe.Options{})
	tr := transcribe.NewTranscript([]transcribe.Segment{{Start: 1, End: 3.25, Text: "hi"}})

	if err := orch.Write(context.Background(), paths, tr); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	txt, err := os.ReadFile(paths.TranscriptTXT)
	if err != nil || string(txt) != "hi\n" {
		t.Fatalf("unexpected txt %q (%v)", txt, err)
	}
	srt, err := os.ReadFile(paths.TranscriptSRT)
	if err != nil || string(srt) != "1\n00:00:01,000 --> 00:00:03,250\nhi\n" {
		t.Fatalf("unexpected srt %q (%v)", srt, err)
	}
	if !artifacts.Inspect(paths).TranscriptPresent {
		t.Fatal("expected transcript to be present after write")
	}
}

func TestWriteFailureIsArtifactWriteError(t *testing.T) {
	paths := artifacts.Plan(filepath.Join(t.TempDir(), "missing", "dir"), "Talk", "mp3")
	orch := transcribe.New(helloEngine(), &fakeSlicer{}, transcribe.Options{})
	err := orch.Write(context.Background(), paths, transcribe.NewTranscript(nil))
	if !errors.Is(err, services.ErrArtifactWrite) {
		t.Fatalf("expected artifact write error, got %v", err)
	}
}
