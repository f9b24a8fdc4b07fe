// Package batch runs resolved work items through the pipeline one at a time.
//
// For each item the Runner identifies the title, plans artifact paths, checks
// which stages are already satisfied, acquires audio, plans chunks and hands
// them to the transcriber. Every failure is captured as that item's Outcome so
// later items still run; the Result's exit code is non-zero only when an item
// failed outright. Completed runs are handed to an optional Recorder.
package batch
