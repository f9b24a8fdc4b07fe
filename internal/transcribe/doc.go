// Package transcribe drives chunked audio through a transcription engine and
// persists the merged transcript.
//
// The Orchestrator materializes one chunk at a time, asks the Engine for
// segments relative to that chunk, shifts them by the chunk offset and appends
// them to a single time-ordered transcript. A chunk that cannot be sliced or
// transcribed leaves a gap marker instead of aborting the item; the item only
// fails when every chunk fails. Plain text and SRT artifacts are written
// together so an item never ends up with only one of them.
package transcribe
