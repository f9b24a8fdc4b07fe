// Package runlock prevents two batch runs from writing into the same output
// directory at once.
package runlock

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	"tubescribe/internal/services"
)

// FileName is the lock file created inside the output directory.
const FileName = ".tubescribe.lock"

// Lock is a held advisory lock on an output directory.
type Lock struct {
	path string
	lock *flock.Flock
}

// Acquire takes the lock for outputDir without blocking. A lock held by
// another process is reported as a configuration error.
func Acquire(outputDir string) (*Lock, error) {
	path := filepath.Join(outputDir, FileName)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "runlock", "acquire", path, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "runlock", "acquire",
			fmt.Sprintf("another tubescribe run is already writing to %s", outputDir), nil)
	}
	return &Lock{path: path, lock: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release unlocks the output directory. The lock file is left in place.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
