// Package ytdlp wraps the yt-dlp command line tool for title lookup and
// audio-only downloads.
//
// Command execution is injectable through WithCommandRunner so callers can
// exercise argument construction and error handling without the binary.
package ytdlp
