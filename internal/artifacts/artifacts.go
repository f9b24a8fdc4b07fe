// Package artifacts derives per-item output paths from a title and reports
// which pipeline stages are already satisfied on disk.
package artifacts

import (
	"path/filepath"
	"strings"

	"tubescribe/internal/fileutil"
	"tubescribe/internal/textutil"
)

// Paths are the deterministic output locations for one title. Two items that
// resolve to the same title share the same paths; the last one processed wins.
type Paths struct {
	Title         string
	Audio         string
	TranscriptTXT string
	TranscriptSRT string
}

// State reports which stages are already complete. Audio is present when its
// file is non-empty. The transcript is present when the text file is non-empty
// and the srt exists; silent media legitimately renders an empty srt.
type State struct {
	AudioPresent      bool
	TranscriptPresent bool
}

// Plan computes artifact paths inside outputDir. The title is sanitized; an
// empty audio format falls back to mp3.
func Plan(outputDir, title, audioFormat string) Paths {
	stem := textutil.SanitizeTitle(title)
	ext := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(audioFormat)), ".")
	if ext == "" {
		ext = "mp3"
	}
	return Paths{
		Title:         stem,
		Audio:         filepath.Join(outputDir, stem+"."+ext),
		TranscriptTXT: filepath.Join(outputDir, stem+".txt"),
		TranscriptSRT: filepath.Join(outputDir, stem+".srt"),
	}
}

// WithAudio returns a copy of p whose audio path points at an existing source
// file, as for local items that are transcribed in place.
func (p Paths) WithAudio(path string) Paths {
	p.Audio = path
	return p
}

// Inspect checks the filesystem for already-completed stages.
func Inspect(p Paths) State {
	return State{
		AudioPresent:      fileutil.NonEmptyFile(p.Audio),
		TranscriptPresent: fileutil.NonEmptyFile(p.TranscriptTXT) && fileutil.RegularFile(p.TranscriptSRT),
	}
}

// Complete reports whether nothing remains to be done for the enabled stages.
func (s State) Complete(transcriptionEnabled bool) bool {
	if transcriptionEnabled {
		return s.TranscriptPresent
	}
	return s.AudioPresent
}
