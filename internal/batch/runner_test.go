package batch_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tubescribe/internal/acquire"
	"tubescribe/internal/batch"
	"tubescribe/internal/chunk"
	"tubescribe/internal/config"
	"tubescribe/internal/input"
	"tubescribe/internal/services"
	"tubescribe/internal/testsupport"
	"tubescribe/internal/transcribe"
)

type fakeFetcher struct {
	titles    map[string]string
	downloads int
}

func (f *fakeFetcher) Title(_ context.Context, url string) (string, error) {
	title, ok := f.titles[url]
	if !ok {
		return "", errors.New("video unavailable")
	}
	return title, nil
}

func (f *fakeFetcher) DownloadAudio(_ context.Context, _ string, outputDir, stem string) (string, error) {
	f.downloads++
	path := filepath.Join(outputDir, stem+".mp3")
	return path, os.WriteFile(path, []byte("ID3 audio"), 0o644)
}

type fixedProber float64

func (p fixedProber) Duration(context.Context, string) (float64, error) {
	return float64(p), nil
}

type fileSlicer struct{}

func (fileSlicer) Slice(_ context.Context, _ string, d chunk.Descriptor) error {
	if d.Whole {
		return nil
	}
	return os.WriteFile(d.Path, []byte("RIFF"), 0o644)
}

type countingEngine struct {
	calls  int
	failOn string
	silent bool
}

func (e *countingEngine) Transcribe(_ context.Context, audioPath, _, _ string) ([]transcribe.Segment, error) {
	e.calls++
	if e.failOn != "" && strings.HasSuffix(audioPath, e.failOn) {
		return nil, errors.New("engine crashed")
	}
	if e.silent {
		return nil, nil
	}
	return []transcribe.Segment{
		{Start: 0, End: 2.5, Text: "hello " + filepath.Base(audioPath)},
		{Start: 3, End: 5, Text: "world"},
	}, nil
}

type memoryRecorder struct {
	runs []batch.Result
}

func (m *memoryRecorder) RecordRun(_ context.Context, result batch.Result) error {
	m.runs = append(m.runs, result)
	return nil
}

type harness struct {
	cfg     *config.Config
	fetcher *fakeFetcher
	engine  *countingEngine
	prober  acquire.Prober
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	return &harness{
		cfg: testsupport.NewConfig(t, opts...),
		fetcher: &fakeFetcher{titles: map[string]string{
			"https://youtu.be/a": "First Video",
			"https://youtu.be/b": "Second Video",
			"https://youtu.be/c": "Third: Video?",
		}},
		engine: &countingEngine{},
	}
}

func (h *harness) runner(opts ...batch.Option) *batch.Runner {
	acq := acquire.New(h.fetcher, h.prober, acquire.Options{
		OutputDir:       h.cfg.Paths.OutputDir,
		DownloadEnabled: h.cfg.Download.Enabled,
	})
	var tr batch.Transcriber
	if h.cfg.Transcription.Enabled {
		tr = transcribe.New(h.engine, fileSlicer{}, transcribe.Options{})
	}
	return batch.NewRunner(h.cfg, acq, tr, opts...)
}

func urls(refs ...string) input.Resolution {
	var res input.Resolution
	for i, ref := range refs {
		res.Items = append(res.Items, input.WorkItem{Reference: ref, Kind: input.RemoteURL, Index: i + 1})
	}
	return res
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}

func TestRunContinuesPastFailedItem(t *testing.T) {
	h := newHarness(t)
	res := urls("https://youtu.be/a", "https://youtu.be/missing", "https://youtu.be/c")

	result := h.runner().Run(context.Background(), "videos.txt", res)

	if len(result.Outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(result.Outcomes))
	}
	want := []batch.Status{batch.StatusSucceeded, batch.StatusFailed, batch.StatusSucceeded}
	for i, o := range result.Outcomes {
		if o.Status != want[i] {
			t.Fatalf("outcome %d: expected %s, got %s (%v)", i+1, want[i], o.Status, o.Err)
		}
	}
	if got := result.Outcomes[1].Category; got != "acquisition" {
		t.Fatalf("expected acquisition category, got %q", got)
	}
	if result.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %d", result.ExitCode())
	}
	for _, name := range []string{"First Video.txt", "First Video.srt", "Third Video.txt"} {
		if _, err := os.Stat(filepath.Join(h.cfg.Paths.OutputDir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
	if result.RunID == "" {
		t.Fatal("expected run id")
	}
}

func TestRunIsIdempotent(t *testing.T) {
	h := newHarness(t)
	res := urls("https://youtu.be/a", "https://youtu.be/b")

	first := h.runner().Run(context.Background(), "videos.txt", res)
	if first.ExitCode() != 0 {
		t.Fatalf("first run failed: %s", first.Summary())
	}
	txt := filepath.Join(h.cfg.Paths.OutputDir, "Second Video.txt")
	srt := filepath.Join(h.cfg.Paths.OutputDir, "Second Video.srt")
	txtBefore, srtBefore := readFile(t, txt), readFile(t, srt)
	calls, downloads := h.engine.calls, h.fetcher.downloads

	second := h.runner().Run(context.Background(), "videos.txt", res)
	if c := second.Counts(); c.Skipped != 2 || c.Total() != 2 {
		t.Fatalf("expected both items skipped, got %s", second.Summary())
	}
	if h.engine.calls != calls || h.fetcher.downloads != downloads {
		t.Fatalf("second run did work: engine %d->%d downloads %d->%d", calls, h.engine.calls, downloads, h.fetcher.downloads)
	}
	if !bytes.Equal(txtBefore, readFile(t, txt)) || !bytes.Equal(srtBefore, readFile(t, srt)) {
		t.Fatal("artifacts changed on second run")
	}
}

func TestRunReusesCachedAudio(t *testing.T) {
	h := newHarness(t)
	testsupport.WriteMedia(t, filepath.Join(h.cfg.Paths.OutputDir, "First Video.mp3"), 128)

	result := h.runner().Run(context.Background(), "x", urls("https://youtu.be/a"))
	if result.Outcomes[0].Status != batch.StatusSucceeded {
		t.Fatalf("unexpected outcome: %+v", result.Outcomes[0])
	}
	if h.fetcher.downloads != 0 {
		t.Fatalf("expected cached audio reuse, got %d downloads", h.fetcher.downloads)
	}
}

func TestRunReportsRejectedLinesInOrder(t *testing.T) {
	h := newHarness(t)
	res := input.Resolution{
		Items: []input.WorkItem{
			{Reference: "https://youtu.be/a", Kind: input.RemoteURL, Index: 1},
			{Reference: "https://youtu.be/b", Kind: input.RemoteURL, Index: 3},
		},
		Rejected: []input.Rejection{{
			Reference: "notes.docx",
			Index:     2,
			Line:      2,
			Err:       services.Wrap(services.ErrInputClassification, "input", "classify", "notes.docx", nil),
		}},
	}

	result := h.runner().Run(context.Background(), "videos.txt", res)
	if len(result.Outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(result.Outcomes))
	}
	mid := result.Outcomes[1]
	if mid.Item.Reference != "notes.docx" || mid.Status != batch.StatusFailed || mid.Category != "input_classification" {
		t.Fatalf("unexpected rejected outcome: %+v", mid)
	}
	if result.Outcomes[2].Status != batch.StatusSucceeded {
		t.Fatalf("expected item after rejection to succeed, got %+v", result.Outcomes[2])
	}
}

func TestRunMissingSourceWhenDownloadDisabled(t *testing.T) {
	h := newHarness(t, testsupport.WithToggles(false, true))

	result := h.runner().Run(context.Background(), "x", urls("https://youtu.be/a"))
	o := result.Outcomes[0]
	if o.Status != batch.StatusFailed || o.Category != "missing_source" {
		t.Fatalf("expected missing_source failure, got %+v", o)
	}
	if h.engine.calls != 0 {
		t.Fatalf("engine should not run, got %d calls", h.engine.calls)
	}
}

func TestRunTranscriptionDisabledStillAcquires(t *testing.T) {
	h := newHarness(t, testsupport.WithToggles(true, false))

	result := h.runner().Run(context.Background(), "x", urls("https://youtu.be/a"))
	o := result.Outcomes[0]
	if o.Status != batch.StatusSkipped {
		t.Fatalf("expected skipped, got %+v", o)
	}
	if _, err := os.Stat(filepath.Join(h.cfg.Paths.OutputDir, "First Video.mp3")); err != nil {
		t.Fatalf("expected downloaded audio: %v", err)
	}
	if _, err := os.Stat(filepath.Join(h.cfg.Paths.OutputDir, "First Video.txt")); !os.IsNotExist(err) {
		t.Fatalf("expected no transcript, stat err=%v", err)
	}

	again := h.runner().Run(context.Background(), "x", urls("https://youtu.be/a"))
	if again.Outcomes[0].Status != batch.StatusSkipped || h.fetcher.downloads != 1 {
		t.Fatalf("expected no second download, got %d", h.fetcher.downloads)
	}
}

func TestRunDegradedWhenSomeChunksFail(t *testing.T) {
	h := newHarness(t, testsupport.WithChunking(60, 100))
	h.prober = fixedProber(150)
	h.engine.failOn = "chunk_001.wav"

	result := h.runner().Run(context.Background(), "x", urls("https://youtu.be/a"))
	o := result.Outcomes[0]
	if o.Status != batch.StatusDegraded {
		t.Fatalf("expected degraded, got %+v", o)
	}
	if o.Chunks != 3 || o.FailedChunks != 1 {
		t.Fatalf("expected 1 of 3 chunks failed, got %d of %d", o.FailedChunks, o.Chunks)
	}
	if result.ExitCode() != 0 {
		t.Fatalf("degraded items must not fail the run")
	}
	txt := string(readFile(t, filepath.Join(h.cfg.Paths.OutputDir, "First Video.txt")))
	if !strings.Contains(txt, "[gap: 0:01:00-0:02:00 not transcribed]") {
		t.Fatalf("expected gap marker in transcript, got %q", txt)
	}
	if _, err := os.Stat(filepath.Join(h.cfg.Paths.OutputDir, ".chunks_First Video")); !os.IsNotExist(err) {
		t.Fatalf("expected chunk work dir removed, stat err=%v", err)
	}
}

func TestRunLocalFile(t *testing.T) {
	h := newHarness(t)
	local := filepath.Join(testsupport.BaseDir(h.cfg), "media", "Lecture 01.wav")
	testsupport.WriteMedia(t, local, 256)
	res := input.Resolution{Items: []input.WorkItem{{Reference: local, Kind: input.LocalFile, Index: 1}}}

	result := h.runner().Run(context.Background(), local, res)
	o := result.Outcomes[0]
	if o.Status != batch.StatusSucceeded {
		t.Fatalf("expected success, got %+v", o)
	}
	if o.Paths.Audio != local {
		t.Fatalf("expected audio path %s, got %s", local, o.Paths.Audio)
	}
	if _, err := os.Stat(filepath.Join(h.cfg.Paths.OutputDir, "Lecture 01.srt")); err != nil {
		t.Fatalf("expected srt: %v", err)
	}
	if h.fetcher.downloads != 0 {
		t.Fatal("local files must not be downloaded")
	}
}

func TestRunSilentMediaIsNotTranscribedTwice(t *testing.T) {
	h := newHarness(t)
	h.engine.silent = true
	local := filepath.Join(testsupport.BaseDir(h.cfg), "media", "silence.wav")
	testsupport.WriteMedia(t, local, 128)
	res := input.Resolution{Items: []input.WorkItem{{Reference: local, Kind: input.LocalFile, Index: 1}}}

	first := h.runner().Run(context.Background(), local, res)
	if first.Outcomes[0].Status != batch.StatusSucceeded {
		t.Fatalf("expected success, got %+v", first.Outcomes[0])
	}
	srt := filepath.Join(h.cfg.Paths.OutputDir, "silence.srt")
	if data := readFile(t, srt); len(data) != 0 {
		t.Fatalf("expected empty srt, got %q", data)
	}

	second := h.runner().Run(context.Background(), local, res)
	if second.Outcomes[0].Status != batch.StatusSkipped {
		t.Fatalf("expected skip on rerun, got %+v", second.Outcomes[0])
	}
	if h.engine.calls != 1 {
		t.Fatalf("expected 1 engine call across both runs, got %d", h.engine.calls)
	}
}

func TestRunRecordsHistory(t *testing.T) {
	h := newHarness(t)
	rec := &memoryRecorder{}

	result := h.runner(batch.WithRecorder(rec)).Run(context.Background(), "x", urls("https://youtu.be/a", "https://youtu.be/b"))
	if len(rec.runs) != 1 {
		t.Fatalf("expected 1 recorded run, got %d", len(rec.runs))
	}
	if rec.runs[0].RunID != result.RunID || len(rec.runs[0].Outcomes) != 2 {
		t.Fatalf("recorded run mismatch: %+v", rec.runs[0])
	}
}

func TestResultCountsAndSummary(t *testing.T) {
	result := batch.Result{Outcomes: []batch.Outcome{
		{Status: batch.StatusSucceeded},
		{Status: batch.StatusDegraded},
		{Status: batch.StatusSkipped},
		{Status: batch.StatusFailed},
		{Status: batch.StatusSucceeded},
	}}
	c := result.Counts()
	if c.Succeeded != 2 || c.Degraded != 1 || c.Skipped != 1 || c.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", c)
	}
	want := "5 item(s): 2 succeeded, 1 degraded, 1 skipped, 1 failed"
	if got := result.Summary(); got != want {
		t.Fatalf("summary = %q, want %q", got, want)
	}
	if result.ExitCode() != 1 {
		t.Fatal("expected exit code 1")
	}
	if (batch.Result{}).ExitCode() != 0 {
		t.Fatal("empty run should exit 0")
	}
}

func TestRunCancelledContextFailsRemainingItems(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := h.runner().Run(ctx, "x", urls("https://youtu.be/a"))
	if result.Outcomes[0].Status != batch.StatusFailed {
		t.Fatalf("expected failure, got %+v", result.Outcomes[0])
	}
	if h.engine.calls != 0 {
		t.Fatalf("engine ran %d times after cancellation", h.engine.calls)
	}
}

func TestRunVideosListScenario(t *testing.T) {
	h := newHarness(t)
	base := testsupport.BaseDir(h.cfg)
	local := filepath.Join(base, "clips", "Demo Day.mp4")
	testsupport.WriteMedia(t, local, 512)
	list := filepath.Join(base, "videos.txt")
	testsupport.WriteList(t, list, "https://youtu.be/a", "", local)

	res, err := input.Resolve(list)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	result := h.runner().Run(context.Background(), list, res)

	if result.ExitCode() != 0 {
		t.Fatalf("expected exit code 0, got %s", result.Summary())
	}
	if len(result.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(result.Outcomes))
	}
	if result.Outcomes[0].Title != "First Video" || result.Outcomes[1].Title != "Demo Day" {
		t.Fatalf("items processed out of order: %q, %q", result.Outcomes[0].Title, result.Outcomes[1].Title)
	}
	for _, name := range []string{"First Video.mp3", "First Video.txt", "First Video.srt", "Demo Day.txt", "Demo Day.srt"} {
		if _, err := os.Stat(filepath.Join(h.cfg.Paths.OutputDir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
	if h.engine.calls != 2 {
		t.Fatalf("expected 2 engine calls, got %d", h.engine.calls)
	}
}
