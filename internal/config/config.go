package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains output and cache directory configuration.
type Paths struct {
	OutputDir     string `toml:"output_dir"`
	ModelCacheDir string `toml:"model_cache_dir"`
}

// Download contains configuration for remote media acquisition.
type Download struct {
	Enabled     bool   `toml:"enabled"`
	YTDLPBinary string `toml:"ytdlp_binary"`
	AudioFormat string `toml:"audio_format"`
}

// Transcription contains configuration for chunking and the speech-to-text engine.
type Transcription struct {
	Enabled            bool   `toml:"enabled"`
	Model              string `toml:"model"`
	Language           string `toml:"language"`
	ForceModelDownload bool   `toml:"force_model_download"`
	// ChunkDurationSeconds is the target length of each slice once chunking triggers.
	ChunkDurationSeconds int `toml:"chunk_duration_seconds"`
	// ChunkThresholdSeconds is the total duration above which audio is split.
	ChunkThresholdSeconds int    `toml:"chunk_threshold_seconds"`
	CUDAEnabled           bool   `toml:"cuda_enabled"`
	EngineBinary          string `toml:"engine_binary"`
	FFmpegBinary          string `toml:"ffmpeg_binary"`
	FFprobeBinary         string `toml:"ffprobe_binary"`
}

// History contains configuration for the run ledger.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Resources carries limits consumed by the container packaging layer. They are
// reported at startup but never enforced in-process.
type Resources struct {
	CPULimit    string `toml:"cpu_limit"`
	MemoryLimit string `toml:"memory_limit"`
}

// Config encapsulates all configuration values for tubescribe.
//
// Configuration sections by subsystem:
//   - Paths: output directory and model cache
//   - Download: remote acquisition toggle and yt-dlp settings
//   - Transcription: engine toggle, model, language hint, chunking
//   - History: SQLite run ledger
//   - Logging: log format, level, and optional file
//   - Resources: packaging-layer CPU/memory limits (informational)
type Config struct {
	Paths         Paths         `toml:"paths"`
	Download      Download      `toml:"download"`
	Transcription Transcription `toml:"transcription"`
	History       History       `toml:"history"`
	Logging       Logging       `toml:"logging"`
	Resources     Resources     `toml:"resources"`
}

// Option mutates a configuration after file and environment layers were applied
// and before normalization. CLI flags use options so they take precedence.
type Option func(*Config)

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. Layers are applied
// in order: defaults, TOML file, .env file, process environment, options. The
// returned config has all path fields expanded and normalized.
func Load(path string, opts ...Option) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output and model cache directories. Failing
// here is a top-level misconfiguration: nothing has been processed yet.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.OutputDir, c.Paths.ModelCacheDir}
	if c.History.Enabled && strings.TrimSpace(c.History.Path) != "" {
		dirs = append(dirs, filepath.Dir(c.History.Path))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// YTDLPBinary returns the yt-dlp executable used for remote acquisition.
func (c *Config) YTDLPBinary() string {
	return binaryOr(c.Download.YTDLPBinary, defaultYTDLPBinary)
}

// FFmpegBinary returns the ffmpeg executable used for chunk slicing.
func (c *Config) FFmpegBinary() string {
	return binaryOr(c.Transcription.FFmpegBinary, defaultFFmpegBinary)
}

// FFprobeBinary returns the ffprobe executable used for duration probing.
func (c *Config) FFprobeBinary() string {
	return binaryOr(c.Transcription.FFprobeBinary, defaultFFprobeBinary)
}

// EngineBinary returns the launcher used to run the transcription engine.
func (c *Config) EngineBinary() string {
	return binaryOr(c.Transcription.EngineBinary, defaultEngineBinary)
}

func binaryOr(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// WithOutputDir overrides the output directory.
func WithOutputDir(dir string) Option {
	return func(c *Config) {
		if strings.TrimSpace(dir) != "" {
			c.Paths.OutputDir = dir
		}
	}
}

// WithModelCacheDir overrides the model cache directory.
func WithModelCacheDir(dir string) Option {
	return func(c *Config) {
		if strings.TrimSpace(dir) != "" {
			c.Paths.ModelCacheDir = dir
		}
	}
}

// WithModel overrides the transcription model size.
func WithModel(model string) Option {
	return func(c *Config) {
		if strings.TrimSpace(model) != "" {
			c.Transcription.Model = model
		}
	}
}

// WithLanguage overrides the language hint. Unlike the other options an empty
// value is meaningful (auto-detect), so callers only pass it when the flag was set.
func WithLanguage(lang string) Option {
	return func(c *Config) {
		c.Transcription.Language = lang
	}
}
