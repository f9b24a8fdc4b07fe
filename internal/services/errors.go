package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInputClassification = errors.New("input classification error")
	ErrAcquisition         = errors.New("acquisition error")
	ErrMissingSource       = errors.New("missing source")
	ErrChunkExtraction     = errors.New("chunk extraction error")
	ErrTranscription       = errors.New("transcription error")
	ErrArtifactWrite       = errors.New("artifact write error")
	ErrConfiguration       = errors.New("configuration error")
	ErrExternalTool        = errors.New("external tool error")
	ErrTransient           = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Category maps an error to the taxonomy name shown in summaries and history.
// Markers are checked from most to least specific so a missing-source failure
// wrapped inside an acquisition error still reports as missing_source.
func Category(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInputClassification):
		return "input_classification"
	case errors.Is(err, ErrMissingSource):
		return "missing_source"
	case errors.Is(err, ErrAcquisition):
		return "acquisition"
	case errors.Is(err, ErrChunkExtraction):
		return "chunk_extraction"
	case errors.Is(err, ErrTranscription):
		return "transcription"
	case errors.Is(err, ErrArtifactWrite):
		return "artifact_write"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	default:
		return "unknown"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
