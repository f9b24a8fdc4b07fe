package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tubescribe/internal/config"
	"tubescribe/internal/services"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func testConfig(t *testing.T, bin string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.ModelCacheDir = t.TempDir()
	cfg.Download.YTDLPBinary = filepath.Join(bin, "yt-dlp")
	cfg.Transcription.FFmpegBinary = filepath.Join(bin, "ffmpeg")
	cfg.Transcription.FFprobeBinary = filepath.Join(bin, "ffprobe")
	cfg.Transcription.EngineBinary = filepath.Join(bin, "uvx")
	return &cfg
}

func writeStubs(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			t.Fatalf("write stub %s: %v", name, err)
		}
	}
}

func TestForRunAllPresent(t *testing.T) {
	bin := t.TempDir()
	writeStubs(t, bin, "yt-dlp", "ffmpeg", "ffprobe", "uvx")
	cfg := testConfig(t, bin)

	results := ForRun(context.Background(), cfg, true)
	if len(results) != 6 {
		t.Fatalf("expected 6 checks, got %d", len(results))
	}
	if err := Failures(results); err != nil {
		t.Fatalf("expected all checks to pass: %v", err)
	}
}

func TestForRunRequirementsFollowToggles(t *testing.T) {
	tests := []struct {
		name        string
		download    bool
		transcribe  bool
		needFetcher bool
		stubs       []string
		wantErr     string
	}{
		{name: "local batch skips yt-dlp", download: true, transcribe: true, needFetcher: false, stubs: []string{"ffmpeg", "ffprobe", "uvx"}},
		{name: "remote batch needs yt-dlp", download: true, transcribe: true, needFetcher: true, stubs: []string{"ffmpeg", "ffprobe", "uvx"}, wantErr: "yt-dlp"},
		{name: "download disabled", download: false, transcribe: true, needFetcher: true, stubs: []string{"ffmpeg", "ffprobe", "uvx"}},
		{name: "transcription needs uvx", download: true, transcribe: true, needFetcher: true, stubs: []string{"yt-dlp", "ffmpeg", "ffprobe"}, wantErr: "uvx"},
		{name: "transcription disabled", download: true, transcribe: false, needFetcher: true, stubs: []string{"yt-dlp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bin := t.TempDir()
			writeStubs(t, bin, tt.stubs...)
			cfg := testConfig(t, bin)
			cfg.Download.Enabled = tt.download
			cfg.Transcription.Enabled = tt.transcribe

			err := Failures(ForRun(context.Background(), cfg, tt.needFetcher))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected failure: %v", err)
				}
				return
			}
			if !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %s", err, tt.wantErr)
			}
		})
	}
}

func TestRunAllProbesVersions(t *testing.T) {
	bin := t.TempDir()
	writeStubs(t, bin, "yt-dlp", "ffmpeg", "ffprobe", "uvx")
	cfg := testConfig(t, bin)

	runner := func(_ context.Context, path string, _ ...string) ([]byte, error) {
		return []byte(filepath.Base(path) + " 1.0\n"), nil
	}
	results := RunAll(context.Background(), cfg, runner)
	var found bool
	for _, r := range results {
		if r.Name == "FFmpeg" {
			found = true
			if !strings.Contains(r.Detail, "ffmpeg 1.0") {
				t.Fatalf("expected version in detail, got %q", r.Detail)
			}
		}
	}
	if !found {
		t.Fatal("expected FFmpeg check")
	}
}

func TestFailuresNil(t *testing.T) {
	if err := Failures([]Result{{Name: "ok", Passed: true}}); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
