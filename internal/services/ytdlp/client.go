package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"tubescribe/internal/services"
)

// DefaultBinary is the executable name looked up on PATH.
const DefaultBinary = "yt-dlp"

// CommandRunner executes a command and returns its stdout. Implementations
// should include stderr in the returned error.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Client issues yt-dlp commands for a single remote reference at a time.
type Client struct {
	binary      string
	audioFormat string
	run         CommandRunner
}

// NewClient constructs a yt-dlp client. Empty values fall back to defaults.
func NewClient(binary, audioFormat string) *Client {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = DefaultBinary
	}
	audioFormat = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(audioFormat)), ".")
	if audioFormat == "" {
		audioFormat = "mp3"
	}
	return &Client{binary: binary, audioFormat: audioFormat, run: execRunner}
}

// WithCommandRunner replaces command execution (for testing).
func (c *Client) WithCommandRunner(runner CommandRunner) *Client {
	if runner != nil {
		c.run = runner
	}
	return c
}

// Binary returns the configured executable.
func (c *Client) Binary() string {
	return c.binary
}

// AudioFormat returns the extension of downloaded audio files.
func (c *Client) AudioFormat() string {
	return c.audioFormat
}

// Title returns the raw title yt-dlp reports for a single video.
func (c *Client) Title(ctx context.Context, url string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", errors.New("ytdlp title: url required")
	}
	out, err := c.run(ctx, c.binary, TitleArgs(url)...)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "acquire", "yt-dlp title", url, err)
	}
	title := strings.TrimSpace(firstLine(string(out)))
	if title == "" {
		return "", services.Wrap(services.ErrExternalTool, "acquire", "yt-dlp title", "empty title for "+url, nil)
	}
	return title, nil
}

// DownloadAudio extracts the best audio stream of url into outputDir as
// <stem>.<audio format> and returns the resulting path.
func (c *Client) DownloadAudio(ctx context.Context, url, outputDir, stem string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", errors.New("ytdlp download: url required")
	}
	if strings.TrimSpace(outputDir) == "" || strings.TrimSpace(stem) == "" {
		return "", errors.New("ytdlp download: output directory and stem required")
	}
	args := DownloadArgs(url, outputDir, stem, c.audioFormat)
	if _, err := c.run(ctx, c.binary, args...); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "acquire", "yt-dlp download", url, err)
	}
	return filepath.Join(outputDir, stem+"."+c.audioFormat), nil
}

// TitleArgs builds the argument list for a title lookup.
func TitleArgs(url string) []string {
	return []string{"--print", "title", "--no-playlist", "--no-warnings", url}
}

// DownloadArgs builds the argument list for an audio-only download.
func DownloadArgs(url, outputDir, stem, audioFormat string) []string {
	// yt-dlp interprets % in output templates.
	safeStem := strings.ReplaceAll(stem, "%", "%%")
	return []string{
		"--extract-audio",
		"--audio-format", audioFormat,
		"--audio-quality", "0",
		"--no-playlist",
		"--no-progress",
		"-o", filepath.Join(outputDir, safeStem+".%(ext)s"),
		url,
	}
}

func firstLine(value string) string {
	if idx := strings.IndexByte(value, '\n'); idx >= 0 {
		return value[:idx]
	}
	return value
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
