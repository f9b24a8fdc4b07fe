package whisperx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	langpkg "tubescribe/internal/language"
	"tubescribe/internal/services"
)

// transientMarkers are engine output fragments that indicate the audio could
// not be decoded this time; the caller may retry once.
var transientMarkers = []string{
	"failed to load audio",
	"invalid data found when processing input",
	"error while decoding",
}

// Service provides WhisperX transcription capabilities.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
	prepareOnce   sync.Once
	prepareErr    error
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config) *Service {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if strings.TrimSpace(cfg.Launcher) == "" {
		cfg.Launcher = UVXCommand
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	return s.cfg.Model
}

// CUDAEnabled returns whether CUDA is enabled.
func (s *Service) CUDAEnabled() bool {
	return s.cfg.CUDAEnabled
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// PrepareModelCache ensures the model directory exists and, when forced,
// removes cached weights for the configured model. It runs at most once per
// Service; later calls return the first result.
func (s *Service) PrepareModelCache() error {
	s.prepareOnce.Do(func() {
		s.prepareErr = s.prepareModelCache()
	})
	return s.prepareErr
}

func (s *Service) prepareModelCache() error {
	dir := strings.TrimSpace(s.cfg.ModelDir)
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "transcribe", "prepare model cache", dir, err)
	}
	if !s.cfg.ForceModelDownload {
		return nil
	}
	for _, path := range CachedModelPaths(dir, s.cfg.Model) {
		if err := os.RemoveAll(path); err != nil {
			return services.Wrap(services.ErrConfiguration, "transcribe", "clear cached model", path, err)
		}
	}
	return nil
}

// CachedModelPaths lists cache entries holding weights for model. Entries are
// matched by the faster-whisper repository suffix used in Hugging Face caches.
func CachedModelPaths(dir, model string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	suffix := "faster-whisper-" + strings.ToLower(model)
	var paths []string
	for _, entry := range entries {
		if strings.HasSuffix(strings.ToLower(entry.Name()), suffix) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	return paths
}

// Transcribe runs WhisperX on source and returns its timed segments. Segment
// times are relative to the start of source. Intermediate output is written to
// workDir and removed afterwards.
func (s *Service) Transcribe(ctx context.Context, source, workDir, language string) ([]Segment, error) {
	if strings.TrimSpace(source) == "" {
		return nil, errors.New("transcribe: source path required")
	}
	if err := s.PrepareModelCache(); err != nil {
		return nil, err
	}
	if workDir == "" {
		workDir = filepath.Dir(source)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrTranscription, "transcribe", "ensure work dir", workDir, err)
	}

	args := s.buildArgs(source, workDir, language)
	if err := s.run(ctx, s.cfg.Launcher, args...); err != nil {
		marker := services.ErrTranscription
		if isTransient(err) {
			marker = services.ErrTransient
		}
		return nil, services.Wrap(marker, "transcribe", "whisperx", filepath.Base(source), err)
	}

	baseName := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	jsonPath := filepath.Join(workDir, baseName+".json")
	defer os.Remove(jsonPath)

	segments, err := LoadSegments(jsonPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrTransient, "transcribe", "read whisperx output", jsonPath, err)
		}
		return nil, services.Wrap(services.ErrTranscription, "transcribe", "read whisperx output", jsonPath, err)
	}
	return segments, nil
}

func isTransient(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir, language string) []string {
	args := make([]string, 0, 32)

	if s.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", s.cfg.Model,
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--segment_resolution", SegmentResolution,
		"--chunk_size", ChunkSize,
		"--beam_size", BeamSize,
		"--temperature", Temperature,
		"--vad_method", VADMethodSilero,
		"--no_align",
	)

	if dir := strings.TrimSpace(s.cfg.ModelDir); dir != "" {
		args = append(args, "--model_dir", dir)
	}

	if lang := langpkg.ToISO2(language); lang != "" {
		args = append(args, "--language", lang)
	}

	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}

	return args
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type whisperXPayload struct {
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
}

// LoadSegments loads segments from a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return payload.Segments, nil
}
