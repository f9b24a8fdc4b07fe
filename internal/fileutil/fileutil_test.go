package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNonEmptyFile(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.txt")
	full := filepath.Join(dir, "full.txt")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if NonEmptyFile(empty) {
		t.Fatal("expected empty file to report false")
	}
	if !NonEmptyFile(full) {
		t.Fatal("expected non-empty file to report true")
	}
	if NonEmptyFile(filepath.Join(dir, "missing")) {
		t.Fatal("expected missing file to report false")
	}
	if NonEmptyFile(dir) {
		t.Fatal("expected directory to report false")
	}
	if NonEmptyFile("") {
		t.Fatal("expected empty path to report false")
	}
}

func TestWriteFileAtomicReplacesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(path, []byte("old partial"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := WriteFileAtomic(path, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Fatalf("content mismatch: got %q", got)
	}
	assertNoTempFiles(t, dir)
}

func TestWriteFilesAtomicWritesAll(t *testing.T) {
	dir := t.TempDir()
	files := []File{
		{Path: filepath.Join(dir, "a.txt"), Data: []byte("alpha")},
		{Path: filepath.Join(dir, "a.srt"), Data: []byte("1\n")},
	}
	if err := WriteFilesAtomic(files, 0o644); err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		got, err := os.ReadFile(f.Path)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != string(f.Data) {
			t.Fatalf("%s: got %q want %q", f.Path, got, f.Data)
		}
	}
	assertNoTempFiles(t, dir)
}

func TestWriteFilesAtomicLeavesDestinationsOnStagingFailure(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.txt")
	files := []File{
		{Path: first, Data: []byte("alpha")},
		{Path: filepath.Join(dir, "missing-dir", "a.srt"), Data: []byte("1\n")},
	}
	if err := WriteFilesAtomic(files, 0o644); err == nil {
		t.Fatal("expected staging error")
	}
	if Exists(first) {
		t.Fatal("expected first destination to stay absent")
	}
	assertNoTempFiles(t, dir)
}

func TestWriteFilesAtomicRestoresPreviousOnRenameFailure(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "a.txt")
	srt := filepath.Join(dir, "a.srt")
	if err := os.WriteFile(txt, []byte("old text"), 0o644); err != nil {
		t.Fatal(err)
	}
	// A non-empty directory at the second destination makes its rename fail.
	if err := os.MkdirAll(filepath.Join(srt, "blocker"), 0o755); err != nil {
		t.Fatal(err)
	}

	files := []File{
		{Path: txt, Data: []byte("new text")},
		{Path: srt, Data: []byte("1\n")},
	}
	if err := WriteFilesAtomic(files, 0o644); err == nil {
		t.Fatal("expected rename error")
	}
	got, err := os.ReadFile(txt)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "old text" {
		t.Fatalf("expected previous txt restored, got %q", got)
	}
	assertNoTempFiles(t, dir)
}

func TestWriteFilesAtomicRemovesNewFileWhenNothingPreexisted(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "b.txt")
	srt := filepath.Join(dir, "b.srt")
	if err := os.MkdirAll(filepath.Join(srt, "blocker"), 0o755); err != nil {
		t.Fatal(err)
	}

	files := []File{
		{Path: txt, Data: []byte("new text")},
		{Path: srt, Data: []byte("1\n")},
	}
	if err := WriteFilesAtomic(files, 0o644); err == nil {
		t.Fatal("expected rename error")
	}
	if Exists(txt) {
		t.Fatal("expected txt to stay absent")
	}
	assertNoTempFiles(t, dir)
}

func TestRegularFile(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.srt")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if !RegularFile(empty) {
		t.Fatal("expected empty regular file to report true")
	}
	if RegularFile(dir) || RegularFile(filepath.Join(dir, "missing")) || RegularFile("") {
		t.Fatal("expected directory, missing and empty paths to report false")
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) != ".txt" && filepath.Ext(entry.Name()) != ".srt" {
			t.Fatalf("unexpected leftover file %q", entry.Name())
		}
	}
}
