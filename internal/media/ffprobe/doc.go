// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Prober executes ffprobe (through an injectable runner) and Result exposes
// the stream and container metadata the pipeline needs, chiefly the media
// duration used for chunk planning.
package ffprobe
