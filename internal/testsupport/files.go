package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteMedia creates a placeholder media file of at least size bytes. Audio
// containers get a recognisable header so probes and logs see plausible
// content; the rest is padding.
func WriteMedia(t testing.TB, path string, size int64) {
	t.Helper()

	var header []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		header = []byte("ID3\x04\x00\x00\x00\x00\x00\x00")
	case ".wav":
		header = []byte("RIFF\x00\x00\x00\x00WAVEfmt ")
	case ".flac":
		header = []byte("fLaC")
	case ".ogg":
		header = []byte("OggS")
	}
	padding := size - int64(len(header))
	if padding < 0 {
		padding = 0
	}
	if len(header) == 0 && padding == 0 {
		padding = 1
	}
	data := append(header, bytes.Repeat([]byte{0x42}, int(padding))...)
	writeFixture(t, path, data)
}

// WriteList creates a list file with one reference per line.
func WriteList(t testing.TB, path string, lines ...string) {
	t.Helper()
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	writeFixture(t, path, []byte(content))
}

func writeFixture(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
