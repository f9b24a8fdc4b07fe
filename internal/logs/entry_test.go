package logs

import (
	"strings"
	"testing"
)

func TestParseEntryAndFormat(t *testing.T) {
	line := `{"ts":"2026-03-01T12:00:00Z","level":"warn","msg":"chunk failed","component":"transcribe","stage":"transcribe","item_index":3,"correlation_id":"run-1","chunk":2,"source":"orchestrator.go:90"}`
	entry, ok := ParseEntry(line)
	if !ok {
		t.Fatal("expected entry to parse")
	}
	if entry.Component != "transcribe" || entry.Stage != "transcribe" || entry.ItemIndex != 3 || entry.RunID != "run-1" {
		t.Fatalf("unexpected entry: %#v", entry)
	}
	if !entry.MatchesRun("run") || entry.MatchesRun("other") || entry.MatchesRun("") {
		t.Fatal("unexpected run matching")
	}

	got := entry.Format()
	for _, want := range []string{"WARN [transcribe] Item #3 (transcribe) – chunk failed", "chunk=2"} {
		if !strings.Contains(got, want) {
			t.Fatalf("Format() = %q, missing %q", got, want)
		}
	}
	if strings.Contains(got, "source=") {
		t.Fatalf("source should be omitted: %q", got)
	}
}

func TestParseEntryRejectsPlainText(t *testing.T) {
	for _, line := range []string{"", "plain", "{broken"} {
		if _, ok := ParseEntry(line); ok {
			t.Fatalf("expected %q to be rejected", line)
		}
	}
}
