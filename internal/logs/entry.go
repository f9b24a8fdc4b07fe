package logs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"tubescribe/internal/logging"
)

// Entry is one decoded JSON log record.
type Entry struct {
	Time      time.Time
	Level     string
	Message   string
	Component string
	Stage     string
	ItemIndex int
	RunID     string
	// Fields holds every remaining attribute.
	Fields map[string]any
}

// ParseEntry decodes a JSON log line. Lines that are not JSON objects are rejected.
func ParseEntry(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return Entry{}, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, false
	}
	entry := Entry{Fields: make(map[string]any)}
	for key, value := range raw {
		switch key {
		case "ts":
			if s, ok := value.(string); ok {
				entry.Time, _ = time.Parse(time.RFC3339, s)
			}
		case "level":
			entry.Level = fmt.Sprint(value)
		case "msg":
			entry.Message = fmt.Sprint(value)
		case logging.FieldComponent:
			entry.Component = fmt.Sprint(value)
		case logging.FieldStage:
			entry.Stage = fmt.Sprint(value)
		case logging.FieldCorrelationID:
			entry.RunID = fmt.Sprint(value)
		case logging.FieldItemIndex:
			if f, ok := value.(float64); ok {
				entry.ItemIndex = int(f)
			}
		default:
			entry.Fields[key] = value
		}
	}
	return entry, true
}

// MatchesRun reports whether the entry belongs to the run with the given ID or ID prefix.
func (e Entry) MatchesRun(runID string) bool {
	return runID != "" && strings.HasPrefix(e.RunID, runID)
}

// Format renders the entry on one line in the console handler's header layout.
func (e Entry) Format() string {
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("2006-01-02 15:04:05"))
		b.WriteByte(' ')
	}
	b.WriteString(strings.ToUpper(e.Level))
	if e.Component != "" {
		fmt.Fprintf(&b, " [%s]", e.Component)
	}
	if e.ItemIndex > 0 {
		fmt.Fprintf(&b, " Item #%d", e.ItemIndex)
	}
	if e.Stage != "" {
		fmt.Fprintf(&b, " (%s)", e.Stage)
	}
	b.WriteString(" – ")
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		if key == "source" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, e.Fields[key])
	}
	return b.String()
}
