// Package logs reads back the JSON log file written alongside console output.
//
// Tail streams the file with bounded memory, supports negative offsets for
// "last N lines" reads, and powers `tubescribe logs --follow`. Lines can be
// narrowed to one batch run by its correlation ID. ParseEntry turns a JSON
// record into a compact human-readable line.
package logs
