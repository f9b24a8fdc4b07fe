// Package deps reports whether the external binaries tubescribe shells out to
// can be found.
package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Requirement defines an external dependency tubescribe relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	// VersionArgs, when set, are run against the resolved binary to report its version.
	VersionArgs []string
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Path        string
	Description string
	Optional    bool
	Available   bool
	Version     string
	Detail      string
}

// Satisfied reports whether the dependency is available or not required.
func (s Status) Satisfied() bool {
	return s.Available || s.Optional
}

// VersionRunner executes a binary and returns its combined output.
type VersionRunner func(ctx context.Context, path string, args ...string) ([]byte, error)

const versionTimeout = 10 * time.Second

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	return CheckBinariesWithVersions(context.Background(), requirements, nil)
}

// CheckBinariesWithVersions behaves like CheckBinaries and additionally asks
// each available binary for its version when runner is non-nil.
func CheckBinariesWithVersions(ctx context.Context, requirements []Requirement, runner VersionRunner) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		if runner != nil && len(req.VersionArgs) > 0 {
			status.Version = probeVersion(ctx, runner, path, req.VersionArgs)
		}
		results = append(results, status)
	}
	return results
}

// ExecVersionRunner runs the binary with os/exec.
func ExecVersionRunner(ctx context.Context, path string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, path, args...).CombinedOutput()
}

func probeVersion(ctx context.Context, runner VersionRunner, path string, args []string) string {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := runner(ctx, path, args...)
	if err != nil {
		return ""
	}
	return FirstLine(string(out))
}

// FirstLine returns the first non-empty trimmed line of output.
func FirstLine(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
