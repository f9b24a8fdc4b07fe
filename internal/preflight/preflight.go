package preflight

import (
	"context"
	"fmt"
	"strings"

	"tubescribe/internal/config"
	"tubescribe/internal/deps"
	"tubescribe/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check for the given config. Binary versions are
// probed when runner is non-nil.
func RunAll(ctx context.Context, cfg *config.Config, runner deps.VersionRunner) []Result {
	if cfg == nil {
		return nil
	}
	return run(ctx, cfg, true, runner)
}

// ForRun checks what a batch over the resolved items needs. needFetcher should
// be true when any item is a remote URL.
func ForRun(ctx context.Context, cfg *config.Config, needFetcher bool) []Result {
	if cfg == nil {
		return nil
	}
	return run(ctx, cfg, needFetcher, nil)
}

func run(ctx context.Context, cfg *config.Config, needFetcher bool, runner deps.VersionRunner) []Result {
	var results []Result

	// Output directory (always checked)
	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))

	// Model cache (only used by the engine)
	if cfg.Transcription.Enabled {
		results = append(results, CheckDirectoryAccess("Model cache", cfg.Paths.ModelCacheDir))
	}

	for _, status := range CheckSystemDeps(ctx, cfg, needFetcher, runner) {
		results = append(results, depResult(status))
	}
	return results
}

// Failures converts failed checks into a configuration error, or nil when all passed.
func Failures(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "check", strings.Join(failed, "; "), nil)
}
