package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// NonEmptyFile reports whether path is a regular file with at least one byte.
func NonEmptyFile(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}

// RegularFile reports whether path is a regular file, empty or not.
func RegularFile(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Exists reports whether path exists, regardless of type.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}

// WriteFileAtomic writes data to a temp file beside path and renames it into
// place so readers never observe a partially written file.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	tmp, err := writeTemp(path, data, mode)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

// File pairs a destination path with its contents for WriteFilesAtomic.
type File struct {
	Path string
	Data []byte
}

// WriteFilesAtomic stages every file as a temp sibling first and only starts
// renaming once all of them were written. Existing destinations are moved
// aside while the new files go into place; if any rename fails, the files
// already placed are removed and the previous versions restored, so the
// destinations end up either all new or as they were.
func WriteFilesAtomic(files []File, mode os.FileMode) error {
	staged := make([]string, 0, len(files))
	cleanup := func() {
		for _, tmp := range staged {
			if tmp != "" {
				_ = os.Remove(tmp)
			}
		}
	}
	for _, f := range files {
		tmp, err := writeTemp(f.Path, f.Data, mode)
		if err != nil {
			cleanup()
			return err
		}
		staged = append(staged, tmp)
	}

	backups := make([]string, len(files))
	placed := make([]bool, len(files))
	rollback := func() {
		for i := len(files) - 1; i >= 0; i-- {
			if placed[i] {
				_ = os.Remove(files[i].Path)
			}
			if backups[i] != "" {
				_ = os.Rename(backups[i], files[i].Path)
			}
		}
		cleanup()
	}
	for i, f := range files {
		if RegularFile(f.Path) {
			backup, err := moveAside(f.Path)
			if err != nil {
				rollback()
				return err
			}
			backups[i] = backup
		}
		if err := os.Rename(staged[i], f.Path); err != nil {
			rollback()
			return fmt.Errorf("rename %s: %w", filepath.Base(f.Path), err)
		}
		staged[i] = ""
		placed[i] = true
	}
	for _, backup := range backups {
		if backup != "" {
			_ = os.Remove(backup)
		}
	}
	return nil
}

func moveAside(path string) (string, error) {
	out, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".bak-*")
	if err != nil {
		return "", fmt.Errorf("create backup for %s: %w", filepath.Base(path), err)
	}
	backup := out.Name()
	_ = out.Close()
	if err := os.Rename(path, backup); err != nil {
		_ = os.Remove(backup)
		return "", fmt.Errorf("back up %s: %w", filepath.Base(path), err)
	}
	return backup, nil
}

func writeTemp(path string, data []byte, mode os.FileMode) (string, error) {
	dir := filepath.Dir(path)
	out, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp for %s: %w", filepath.Base(path), err)
	}
	tmp := out.Name()
	if _, err := out.Write(data); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Chmod(tmp, mode); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("chmod %s: %w", filepath.Base(path), err)
	}
	return tmp, nil
}
