// Package acquire resolves work items into local audio ready for
// transcription.
//
// Remote items are titled and downloaded through a Fetcher (yt-dlp in
// production); local items are passed through in place after their path is
// resolved, falling back to the output directory for bare file names. Cached
// audio is reused, and a disabled download toggle turns a cache miss into a
// missing-source failure instead of a network call.
package acquire
