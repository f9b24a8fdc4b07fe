// Package history persists completed batch runs in a SQLite ledger.
//
// Each run stores its identifier, input label, timestamps and per-status
// counts; each item stores its reference, title, status, failure category and
// detail. The ledger is append-only and is never consulted for skip decisions:
// artifact presence on disk remains the single source of truth.
package history
