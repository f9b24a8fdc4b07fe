package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names understood by Load.
const (
	EnvModel              = "WHISPER_MODEL"
	EnvLanguage           = "WHISPER_LANGUAGE"
	EnvEnableDownload     = "ENABLE_DOWNLOAD"
	EnvEnableTranscribe   = "ENABLE_TRANSCRIPTION"
	EnvForceModelDownload = "FORCE_DOWNLOAD_MODEL"
	EnvChunkDuration      = "CHUNK_DURATION"
	EnvChunkThreshold     = "CHUNK_THRESHOLD"
	EnvCPULimit           = "CPU_LIMIT"
	EnvMemoryLimit        = "MEMORY_LIMIT"
	EnvLogLevel           = "TUBESCRIBE_LOG_LEVEL"
	EnvLogFormat          = "TUBESCRIBE_LOG_FORMAT"
	EnvDotEnvFile         = "TUBESCRIBE_ENV_FILE"
)

// loadDotEnv merges a .env file into the process environment without
// overwriting variables that are already set. A missing file is ignored.
func loadDotEnv() error {
	path := strings.TrimSpace(os.Getenv(EnvDotEnvFile))
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if value, ok := lookupEnv(EnvModel); ok {
		c.Transcription.Model = value
	}
	if value, ok := os.LookupEnv(EnvLanguage); ok {
		c.Transcription.Language = strings.TrimSpace(value)
	}
	if value, ok := lookupEnv(EnvEnableDownload); ok {
		c.Download.Enabled = ParseBool(value)
	}
	if value, ok := lookupEnv(EnvEnableTranscribe); ok {
		c.Transcription.Enabled = ParseBool(value)
	}
	if value, ok := lookupEnv(EnvForceModelDownload); ok {
		c.Transcription.ForceModelDownload = ParseBool(value)
	}
	if value, ok := lookupEnv(EnvChunkDuration); ok {
		seconds, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", EnvChunkDuration, value)
		}
		c.Transcription.ChunkDurationSeconds = seconds
	}
	if value, ok := lookupEnv(EnvChunkThreshold); ok {
		seconds, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", EnvChunkThreshold, value)
		}
		c.Transcription.ChunkThresholdSeconds = seconds
	}
	if value, ok := lookupEnv(EnvCPULimit); ok {
		c.Resources.CPULimit = value
	}
	if value, ok := lookupEnv(EnvMemoryLimit); ok {
		c.Resources.MemoryLimit = value
	}
	if value, ok := lookupEnv(EnvLogLevel); ok {
		c.Logging.Level = value
	}
	if value, ok := lookupEnv(EnvLogFormat); ok {
		c.Logging.Format = value
	}
	return nil
}

// lookupEnv returns a trimmed, non-empty environment value.
func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// ParseBool interprets toggle values: true, 1, yes and on (any case) are true;
// everything else is false.
func ParseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}
