package transcribe

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Segment is a span of recognised speech. Times are in seconds.
type Segment struct {
	Start float64
	End   float64
	Text  string
	// Gap marks a placeholder for a chunk that produced no transcript.
	Gap bool
}

// Shift returns the segment moved later by offset seconds.
func (s Segment) Shift(offset float64) Segment {
	s.Start += offset
	s.End += offset
	return s
}

// Transcript is the merged result for one item.
type Transcript struct {
	Text     string
	Segments []Segment
}

// NewTranscript builds a transcript whose text is the whitespace-joined
// segment texts.
func NewTranscript(segments []Segment) Transcript {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return Transcript{Text: strings.Join(parts, " "), Segments: segments}
}

// RenderText returns the plain-text artifact content.
func RenderText(t Transcript) string {
	return t.Text + "\n"
}

// RenderSRT renders segments as SubRip cues numbered from 1.
func RenderSRT(segments []Segment) string {
	var b strings.Builder
	cue := 0
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		cue++
		if cue > 1 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(cue))
		b.WriteByte('\n')
		b.WriteString(FormatTimestamp(seg.Start))
		b.WriteString(" --> ")
		b.WriteString(FormatTimestamp(seg.End))
		b.WriteByte('\n')
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatTimestamp renders seconds as HH:MM:SS,mmm.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	totalMillis := int64(math.Round(seconds * 1000))
	hours := totalMillis / 3_600_000
	minutes := (totalMillis % 3_600_000) / 60_000
	secs := (totalMillis % 60_000) / 1000
	millis := totalMillis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
