// Package input classifies a raw CLI argument into an ordered list of work
// items.
//
// An argument is a remote http(s) URL, a local media file recognised by its
// extension, or a plain-text list file with one reference per line. List files
// are read in order; blank lines and lines starting with '#' are skipped, and a
// line that is neither a URL nor a supported media path is rejected on its own
// without affecting the remaining lines.
package input
