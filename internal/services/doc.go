// Package services defines shared utilities consumed by the pipeline stages
// and the external tool wrappers.
//
// Key responsibilities:
//   - Context helpers that stamp work item indexes, stage names, and run
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that tag failures with the
//     pipeline error taxonomy (classification, acquisition, chunk extraction,
//     transcription, artifact write).
//
// Use these helpers when wiring new stage logic so failure reporting and log
// shape stay uniform across the batch.
package services
