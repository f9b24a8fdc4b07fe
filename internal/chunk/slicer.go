package chunk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"tubescribe/internal/services"
)

// DefaultFFmpegBinary is the executable name looked up on PATH.
const DefaultFFmpegBinary = "ffmpeg"

var _ Slicer = (*FFmpegSlicer)(nil)

// Slicer materializes the audio for one descriptor.
type Slicer interface {
	Slice(ctx context.Context, source string, d Descriptor) error
}

// CommandRunner executes a command, returning an error that includes its output.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// FFmpegSlicer extracts descriptor ranges as mono 16 kHz WAV.
type FFmpegSlicer struct {
	binary string
	run    CommandRunner
}

// NewFFmpegSlicer constructs a slicer. An empty binary falls back to ffmpeg.
func NewFFmpegSlicer(binary string) *FFmpegSlicer {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = DefaultFFmpegBinary
	}
	return &FFmpegSlicer{binary: binary, run: execRunner}
}

// WithCommandRunner replaces command execution (for testing).
func (s *FFmpegSlicer) WithCommandRunner(runner CommandRunner) *FFmpegSlicer {
	if runner != nil {
		s.run = runner
	}
	return s
}

// Slice writes the descriptor range of source to d.Path. Whole-file
// descriptors need no extraction.
func (s *FFmpegSlicer) Slice(ctx context.Context, source string, d Descriptor) error {
	if d.Whole {
		return nil
	}
	if strings.TrimSpace(d.Path) == "" {
		return services.Wrap(services.ErrChunkExtraction, "chunk", "slice", fmt.Sprintf("chunk %d has no target path", d.Index), nil)
	}
	if d.DurationSeconds <= 0 {
		return services.Wrap(services.ErrChunkExtraction, "chunk", "slice", fmt.Sprintf("chunk %d has invalid duration %v", d.Index, d.DurationSeconds), nil)
	}
	if err := os.MkdirAll(filepath.Dir(d.Path), 0o755); err != nil {
		return services.Wrap(services.ErrChunkExtraction, "chunk", "prepare work dir", filepath.Dir(d.Path), err)
	}
	if err := s.run(ctx, s.binary, SliceArgs(source, d)...); err != nil {
		_ = os.Remove(d.Path)
		return services.Wrap(services.ErrChunkExtraction, "chunk", "ffmpeg slice", d.String(), err)
	}
	info, err := os.Stat(d.Path)
	if err != nil || info.Size() == 0 {
		if err == nil {
			err = errors.New("empty output")
		}
		return services.Wrap(services.ErrChunkExtraction, "chunk", "verify slice", d.String(), err)
	}
	return nil
}

// SliceArgs builds the ffmpeg argument list for a descriptor.
func SliceArgs(source string, d Descriptor) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(d.StartSeconds),
		"-t", formatSeconds(d.DurationSeconds),
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		d.Path,
	}
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}

func execRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
