package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTranscription() error {
	if !slices.Contains(ValidModels, c.Transcription.Model) {
		return fmt.Errorf("transcription.model %q is invalid (valid models: %s)", c.Transcription.Model, strings.Join(ValidModels, ", "))
	}
	if c.Transcription.ChunkDurationSeconds <= 0 {
		return errors.New("transcription.chunk_duration_seconds must be positive")
	}
	if c.Transcription.ChunkThresholdSeconds < 0 {
		return errors.New("transcription.chunk_threshold_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateDownload() error {
	if strings.ContainsAny(c.Download.AudioFormat, `/\ `) {
		return fmt.Errorf("download.audio_format %q is invalid", c.Download.AudioFormat)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is invalid (expected console or json)", c.Logging.Format)
	}
	return nil
}
