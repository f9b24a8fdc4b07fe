// Package config loads, normalizes, and validates tubescribe configuration.
//
// It supplies repository defaults, reads an optional TOML file, merges a .env
// file, honours the WHISPER_* / ENABLE_* / CHUNK_* environment variables, and
// finally applies CLI overrides. The Config type is threaded explicitly through
// the batch runner so no component reads ambient environment state.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, a normalized language hint, and clear validation errors.
package config
