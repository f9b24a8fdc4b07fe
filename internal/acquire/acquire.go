package acquire

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"tubescribe/internal/artifacts"
	"tubescribe/internal/fileutil"
	"tubescribe/internal/input"
	"tubescribe/internal/logging"
	"tubescribe/internal/services"
)

// Fetcher retrieves remote media.
type Fetcher interface {
	Title(ctx context.Context, url string) (string, error)
	DownloadAudio(ctx context.Context, url, outputDir, stem string) (string, error)
}

// Prober reports media durations.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// videoLeftovers are container extensions yt-dlp may leave next to the
// extracted audio.
var videoLeftovers = []string{".mp4", ".mkv", ".webm", ".avi", ".mov", ".flv", ".wmv", ".m4v"}

// Source identifies an item before any media is fetched.
type Source struct {
	Title string
	// LocalPath is the resolved path of a LocalFile item; empty for remote items.
	LocalPath string
}

// Media is resolved audio for one work item.
type Media struct {
	Item            input.WorkItem
	Title           string
	AudioPath       string
	DurationSeconds float64
	// Downloaded is true when this run fetched the audio.
	Downloaded bool
}

// Options configures an Acquirer.
type Options struct {
	OutputDir       string
	DownloadEnabled bool
	Logger          *slog.Logger
}

// Acquirer implements the media acquisition stage.
type Acquirer struct {
	fetcher Fetcher
	prober  Prober
	opts    Options
	logger  *slog.Logger
}

// New constructs an Acquirer. The fetcher may be nil when no remote items are
// processed; the prober may be nil when durations are never needed.
func New(fetcher Fetcher, prober Prober, opts Options) *Acquirer {
	return &Acquirer{
		fetcher: fetcher,
		prober:  prober,
		opts:    opts,
		logger:  logging.NewComponentLogger(opts.Logger, "acquire"),
	}
}

// Identify determines the title of an item and, for local items, the file to read.
func (a *Acquirer) Identify(ctx context.Context, item input.WorkItem) (Source, error) {
	switch item.Kind {
	case input.RemoteURL:
		if a.fetcher == nil {
			return Source{}, services.Wrap(services.ErrConfiguration, "acquire", "identify", "no media fetcher configured", nil)
		}
		title, err := a.fetcher.Title(ctx, item.Reference)
		if err != nil {
			return Source{}, services.Wrap(services.ErrAcquisition, "acquire", "lookup title", item.Reference, err)
		}
		return Source{Title: title}, nil
	case input.LocalFile:
		path, err := a.resolveLocal(item.Reference)
		if err != nil {
			return Source{}, err
		}
		base := filepath.Base(path)
		return Source{Title: strings.TrimSuffix(base, filepath.Ext(base)), LocalPath: path}, nil
	default:
		return Source{}, services.Wrap(services.ErrInputClassification, "acquire", "identify", fmt.Sprintf("unknown item kind %d", item.Kind), nil)
	}
}

// Acquire produces local audio for the item. Existing audio at paths.Audio is
// reused; otherwise remote items are downloaded when downloads are enabled.
func (a *Acquirer) Acquire(ctx context.Context, item input.WorkItem, src Source, paths artifacts.Paths) (Media, error) {
	media := Media{Item: item, Title: paths.Title, AudioPath: paths.Audio}
	logger := logging.WithContext(ctx, a.logger)

	if item.Kind == input.LocalFile {
		if src.LocalPath == "" {
			return Media{}, services.Wrap(services.ErrAcquisition, "acquire", "read local file", "unresolved local path", nil)
		}
		media.AudioPath = src.LocalPath
		logger.Debug("using local media in place", logging.String("path", src.LocalPath))
		return media, nil
	}

	if fileutil.NonEmptyFile(paths.Audio) {
		logger.Info("audio already cached, skipping download", logging.String("audio_path", paths.Audio))
		return media, nil
	}
	if !a.opts.DownloadEnabled {
		return Media{}, services.Wrap(services.ErrMissingSource, "acquire", "download audio",
			fmt.Sprintf("download disabled and no cached audio at %s", paths.Audio), nil)
	}
	if a.fetcher == nil {
		return Media{}, services.Wrap(services.ErrConfiguration, "acquire", "download audio", "no media fetcher configured", nil)
	}

	logger.Info("downloading audio", logging.String("url", item.Reference), logging.String("audio_path", paths.Audio))
	downloaded, err := a.fetcher.DownloadAudio(ctx, item.Reference, filepath.Dir(paths.Audio), paths.Title)
	if err != nil {
		return Media{}, services.Wrap(services.ErrAcquisition, "acquire", "download audio", item.Reference, err)
	}
	if downloaded != "" && downloaded != paths.Audio {
		if err := os.Rename(downloaded, paths.Audio); err != nil {
			return Media{}, services.Wrap(services.ErrAcquisition, "acquire", "move downloaded audio", downloaded, err)
		}
	}
	if !fileutil.NonEmptyFile(paths.Audio) {
		return Media{}, services.Wrap(services.ErrAcquisition, "acquire", "verify download",
			fmt.Sprintf("expected audio not found at %s", paths.Audio), nil)
	}
	a.removeVideoLeftovers(logger, paths)
	media.Downloaded = true
	logger.Info("audio downloaded", logging.String("audio_path", paths.Audio))
	return media, nil
}

// Duration probes the media length. A failed probe yields 0, which plans the
// audio as a single unsplit chunk.
func (a *Acquirer) Duration(ctx context.Context, path string) float64 {
	if a.prober == nil {
		return 0
	}
	seconds, err := a.prober.Duration(ctx, path)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, a.logger), "duration probe failed", "duration_probe_failed",
			logging.String("audio_path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "verify ffprobe is installed and the file is readable"),
			logging.String(logging.FieldImpact, "audio is transcribed without chunking"),
		)
		return 0
	}
	return seconds
}

func (a *Acquirer) resolveLocal(ref string) (string, error) {
	candidates := []string{ref}
	if !filepath.IsAbs(ref) && strings.TrimSpace(a.opts.OutputDir) != "" {
		candidates = append(candidates, filepath.Join(a.opts.OutputDir, ref))
	}
	var lastErr error
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err != nil {
			lastErr = err
			continue
		}
		if info.IsDir() {
			lastErr = fmt.Errorf("%s is a directory", candidate)
			continue
		}
		if info.Size() == 0 {
			lastErr = fmt.Errorf("%s is empty", candidate)
			continue
		}
		file, err := os.Open(candidate)
		if err != nil {
			lastErr = err
			continue
		}
		file.Close()
		abs, err := filepath.Abs(candidate)
		if err != nil {
			return candidate, nil
		}
		return abs, nil
	}
	if errors.Is(lastErr, fs.ErrNotExist) {
		return "", services.Wrap(services.ErrAcquisition, "acquire", "read local file", fmt.Sprintf("%s not found", ref), lastErr)
	}
	return "", services.Wrap(services.ErrAcquisition, "acquire", "read local file", ref, lastErr)
}

func (a *Acquirer) removeVideoLeftovers(logger *slog.Logger, paths artifacts.Paths) {
	dir := filepath.Dir(paths.Audio)
	for _, ext := range videoLeftovers {
		candidate := filepath.Join(dir, paths.Title+ext)
		if candidate == paths.Audio {
			continue
		}
		err := os.Remove(candidate)
		switch {
		case err == nil:
			logger.Debug("removed downloaded video", logging.String("path", candidate))
		case errors.Is(err, fs.ErrNotExist):
		default:
			logging.WarnWithContext(logger, "failed to remove downloaded video", "video_cleanup_failed",
				logging.String("path", candidate),
				logging.Error(err),
				logging.String(logging.FieldImpact, "video file remains in the output directory"),
			)
		}
	}
}
