package runlock_test

import (
	"errors"
	"path/filepath"
	"testing"

	"tubescribe/internal/runlock"
	"tubescribe/internal/services"
)

func TestAcquireIsExclusive(t *testing.T) {
	dir := t.TempDir()

	first, err := runlock.Acquire(dir)
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	if first.Path() != filepath.Join(dir, runlock.FileName) {
		t.Fatalf("unexpected lock path %q", first.Path())
	}

	if _, err := runlock.Acquire(dir); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for held lock, got %v", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	second, err := runlock.Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	_ = second.Release()
}

func TestAcquireMissingDirectory(t *testing.T) {
	_, err := runlock.Acquire(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestReleaseNilLock(t *testing.T) {
	var l *runlock.Lock
	if err := l.Release(); err != nil {
		t.Fatalf("nil Release: %v", err)
	}
}
