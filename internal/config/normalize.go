package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"tubescribe/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDownload()
	if err := c.normalizeTranscription(); err != nil {
		return err
	}
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ModelCacheDir) == "" {
		c.Paths.ModelCacheDir = filepath.Join(c.Paths.OutputDir, defaultModelCacheDirName)
	}
	if c.Paths.ModelCacheDir, err = expandPath(c.Paths.ModelCacheDir); err != nil {
		return fmt.Errorf("paths.model_cache_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDownload() {
	c.Download.YTDLPBinary = strings.TrimSpace(c.Download.YTDLPBinary)
	c.Download.AudioFormat = strings.ToLower(strings.TrimSpace(c.Download.AudioFormat))
	c.Download.AudioFormat = strings.TrimPrefix(c.Download.AudioFormat, ".")
	if c.Download.AudioFormat == "" {
		c.Download.AudioFormat = defaultAudioFormat
	}
}

func (c *Config) normalizeTranscription() error {
	c.Transcription.Model = strings.ToLower(strings.TrimSpace(c.Transcription.Model))
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultModel
	}
	raw := strings.TrimSpace(c.Transcription.Language)
	hint, ok := language.NormalizeHint(raw)
	if !ok {
		return fmt.Errorf("transcription.language: unrecognized language %q", raw)
	}
	c.Transcription.Language = hint
	c.Transcription.EngineBinary = strings.TrimSpace(c.Transcription.EngineBinary)
	c.Transcription.FFmpegBinary = strings.TrimSpace(c.Transcription.FFmpegBinary)
	c.Transcription.FFprobeBinary = strings.TrimSpace(c.Transcription.FFprobeBinary)
	return nil
}

func (c *Config) normalizeHistory() error {
	if !c.History.Enabled {
		return nil
	}
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = filepath.Join(c.Paths.OutputDir, defaultHistoryRelPath)
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.File) != "" {
		var err error
		if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}
