// Package preflight provides readiness checks for the external binaries and
// filesystem paths tubescribe depends on.
//
// These checks run in two contexts:
//   - The batch command calls ForRun before processing any item. A failed
//     check aborts the run as a top-level misconfiguration.
//   - The CLI "tubescribe doctor" command calls RunAll to display every check.
//
// Binary requirements are gated by their config toggle; disabled features are
// reported as optional.
package preflight
