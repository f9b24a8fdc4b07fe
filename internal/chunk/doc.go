// Package chunk plans how long audio is split into contiguous time slices and
// extracts those slices with ffmpeg.
//
// Plan is pure: audio at or below the threshold becomes a single descriptor
// that reuses the source file, longer audio becomes ceil(duration/length)
// slices where the last one holds the remainder. Slices are materialized on
// demand by a Slicer so only one temporary file exists at a time.
package chunk
