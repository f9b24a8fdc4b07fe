package preflight

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"tubescribe/internal/config"
	"tubescribe/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// Requirements lists the external binaries for cfg. needFetcher marks yt-dlp
// as required; it is otherwise optional because local-only batches never
// invoke it.
func Requirements(cfg *config.Config, needFetcher bool) []deps.Requirement {
	transcribe := cfg.Transcription.Enabled
	return []deps.Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.YTDLPBinary(),
			Description: "Required to download remote media",
			Optional:    !(cfg.Download.Enabled && needFetcher),
			VersionArgs: []string{"--version"},
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required to slice long audio into chunks",
			Optional:    !transcribe,
			VersionArgs: []string{"-version"},
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required to measure audio duration",
			Optional:    !transcribe,
			VersionArgs: []string{"-version"},
		},
		{
			Name:        "uvx",
			Command:     cfg.EngineBinary(),
			Description: "Required for WhisperX-driven transcription",
			Optional:    !transcribe,
			VersionArgs: []string{"--version"},
		},
	}
}

// CheckSystemDeps evaluates the binary requirements for cfg. Versions are
// probed only when runner is non-nil.
func CheckSystemDeps(ctx context.Context, cfg *config.Config, needFetcher bool, runner deps.VersionRunner) []deps.Status {
	return deps.CheckBinariesWithVersions(ctx, Requirements(cfg, needFetcher), runner)
}

func depResult(status deps.Status) Result {
	detail := status.Path
	switch {
	case !status.Available && status.Optional:
		detail = fmt.Sprintf("%s (optional: %s)", status.Command, status.Detail)
	case !status.Available:
		detail = fmt.Sprintf("%s (error: %s)", status.Command, status.Detail)
	case status.Version != "":
		detail = fmt.Sprintf("%s (%s)", status.Path, status.Version)
	}
	return Result{Name: status.Name, Passed: status.Satisfied(), Detail: detail}
}
