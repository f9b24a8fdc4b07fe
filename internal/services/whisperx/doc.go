// Package whisperx runs the WhisperX speech-to-text engine through uvx.
//
// Service builds the command line (model, model cache, device, language hint),
// reads the JSON segments WhisperX writes, and classifies failures: audio the
// engine could not decode is tagged services.ErrTransient so callers may retry,
// everything else is services.ErrTranscription. Cached weights for the selected
// model can be cleared once per Service to force a fresh download.
package whisperx
