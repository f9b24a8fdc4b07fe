package chunk

import (
	"fmt"
	"math"
	"path/filepath"
)

// boundaryEpsilon absorbs float noise so a duration that is an exact multiple
// of the chunk length does not produce an empty trailing slice.
const boundaryEpsilon = 1e-6

// Descriptor is one time slice of a source audio file.
type Descriptor struct {
	Index           int
	StartSeconds    float64
	DurationSeconds float64
	// Path is where the slice audio lives. For a whole-file descriptor it is
	// the source itself and must not be deleted.
	Path  string
	Whole bool
}

// EndSeconds returns the exclusive end of the slice.
func (d Descriptor) EndSeconds() float64 {
	return d.StartSeconds + d.DurationSeconds
}

// String returns a human-readable representation for logging.
func (d Descriptor) String() string {
	return fmt.Sprintf("chunk %d: %s-%s", d.Index, FormatClock(d.StartSeconds), FormatClock(d.EndSeconds()))
}

// Plan splits durationSeconds into descriptors. When the duration does not
// exceed thresholdSeconds, or chunkSeconds is not positive, a single whole-file
// descriptor is returned. Paths are left empty; see Assign.
func Plan(durationSeconds, chunkSeconds, thresholdSeconds float64) []Descriptor {
	if durationSeconds < 0 || math.IsNaN(durationSeconds) || math.IsInf(durationSeconds, 0) {
		durationSeconds = 0
	}
	if durationSeconds <= thresholdSeconds || chunkSeconds <= 0 {
		return []Descriptor{{Index: 0, StartSeconds: 0, DurationSeconds: durationSeconds, Whole: true}}
	}

	count := int(math.Ceil(durationSeconds/chunkSeconds - boundaryEpsilon))
	if count < 1 {
		count = 1
	}
	descs := make([]Descriptor, 0, count)
	for i := 0; i < count; i++ {
		start := float64(i) * chunkSeconds
		length := chunkSeconds
		if i == count-1 {
			length = durationSeconds - start
		}
		descs = append(descs, Descriptor{Index: i, StartSeconds: start, DurationSeconds: length})
	}
	return descs
}

// Assign fills descriptor paths: whole-file descriptors point at source, split
// slices at workDir/chunk_NNN.wav.
func Assign(descs []Descriptor, source, workDir string) []Descriptor {
	out := make([]Descriptor, len(descs))
	for i, d := range descs {
		if d.Whole {
			d.Path = source
		} else {
			d.Path = filepath.Join(workDir, fmt.Sprintf("chunk_%03d.wav", d.Index))
		}
		out[i] = d
	}
	return out
}

// TotalSeconds sums descriptor durations.
func TotalSeconds(descs []Descriptor) float64 {
	total := 0.0
	for _, d := range descs {
		total += d.DurationSeconds
	}
	return total
}

// FormatClock renders seconds as H:MM:SS for log lines.
func FormatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(math.Round(seconds))
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
