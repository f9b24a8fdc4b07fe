package input

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"tubescribe/internal/services"
)

// Kind tags a work item with how its media is acquired.
type Kind int

const (
	// RemoteURL items are downloaded by the media fetcher.
	RemoteURL Kind = iota + 1
	// LocalFile items are read in place from disk.
	LocalFile
)

func (k Kind) String() string {
	switch k {
	case RemoteURL:
		return "remote_url"
	case LocalFile:
		return "local_file"
	default:
		return "unknown"
	}
}

// VideoExtensions and AudioExtensions list the recognised local media suffixes.
var (
	VideoExtensions = []string{".mp4", ".mkv", ".webm", ".avi"}
	AudioExtensions = []string{".mp3", ".m4a", ".wav", ".flac", ".ogg"}
)

// WorkItem is one unit of input queued for processing. Index is the 1-based
// position among all non-blank, non-comment input lines.
type WorkItem struct {
	Reference string
	Kind      Kind
	Index     int
}

// Rejection records an input line that could not be classified.
type Rejection struct {
	Reference string
	Index     int
	Line      int
	Err       error
}

// Resolution is the ordered result of resolving one CLI argument.
type Resolution struct {
	Items    []WorkItem
	Rejected []Rejection
}

// Total returns the number of classified plus rejected entries.
func (r Resolution) Total() int {
	return len(r.Items) + len(r.Rejected)
}

// Resolve turns a CLI argument into work items. A URL or media path yields a
// single item. Anything else is read as a list file, looked up as given and
// then relative to each of searchDirs. Failing to find or read it, an argument
// that is neither, or a list with no entries is returned as an input
// classification error.
func Resolve(arg string, searchDirs ...string) (Resolution, error) {
	ref := strings.TrimSpace(arg)
	if ref == "" {
		return Resolution{}, services.Wrap(services.ErrInputClassification, "resolve", "classify argument", "empty input", nil)
	}
	if kind, ok := Classify(ref); ok {
		return Resolution{Items: []WorkItem{{Reference: ref, Kind: kind, Index: 1}}}, nil
	}

	path, err := findList(ref, searchDirs)
	if err != nil {
		return Resolution{}, err
	}
	res, err := ReadList(path)
	if err != nil {
		return Resolution{}, err
	}
	if res.Total() == 0 {
		return Resolution{}, services.Wrap(services.ErrInputClassification, "resolve", "read list file",
			fmt.Sprintf("no valid items found in %s", path), nil)
	}
	return res, nil
}

func findList(ref string, searchDirs []string) (string, error) {
	candidates := []string{ref}
	if !filepath.IsAbs(ref) {
		for _, dir := range searchDirs {
			if strings.TrimSpace(dir) != "" {
				candidates = append(candidates, filepath.Join(dir, ref))
			}
		}
	}
	var firstErr error
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if info.IsDir() {
			return "", services.Wrap(services.ErrInputClassification, "resolve", "classify argument",
				fmt.Sprintf("%q is a directory", candidate), nil)
		}
		return candidate, nil
	}
	return "", services.Wrap(services.ErrInputClassification, "resolve", "classify argument",
		fmt.Sprintf("%q is not a URL, a supported media file, or a readable list file", ref), firstErr)
}

// ReadList resolves every reference in a list file.
func ReadList(path string) (Resolution, error) {
	file, err := os.Open(path)
	if err != nil {
		return Resolution{}, services.Wrap(services.ErrInputClassification, "resolve", "open list file", path, err)
	}
	defer file.Close()

	var res Resolution
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	index := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if lineNo == 1 {
			line = strings.TrimSpace(strings.TrimPrefix(line, "\uFEFF"))
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		index++
		kind, ok := Classify(line)
		if !ok {
			res.Rejected = append(res.Rejected, Rejection{
				Reference: line,
				Index:     index,
				Line:      lineNo,
				Err: services.Wrap(services.ErrInputClassification, "resolve", "classify line",
					fmt.Sprintf("line %d: %q is neither an http(s) URL nor a supported media file", lineNo, line), nil),
			})
			continue
		}
		res.Items = append(res.Items, WorkItem{Reference: line, Kind: kind, Index: index})
	}
	if err := scanner.Err(); err != nil {
		return Resolution{}, services.Wrap(services.ErrInputClassification, "resolve", "read list file", path, err)
	}
	return res, nil
}

// Classify reports the kind of a single reference. URLs are checked first so a
// link ending in a media extension is still treated as remote.
func Classify(ref string) (Kind, bool) {
	ref = strings.TrimSpace(ref)
	if IsRemoteURL(ref) {
		return RemoteURL, true
	}
	if IsMediaPath(ref) {
		return LocalFile, true
	}
	return 0, false
}

// IsRemoteURL reports whether ref parses as an absolute http or https URL with a host.
func IsRemoteURL(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// IsMediaPath reports whether ref ends in a supported video or audio extension.
func IsMediaPath(ref string) bool {
	ext := strings.ToLower(filepath.Ext(ref))
	if ext == "" {
		return false
	}
	return slices.Contains(VideoExtensions, ext) || slices.Contains(AudioExtensions, ext)
}

// IsVideoPath reports whether ref ends in a supported video extension.
func IsVideoPath(ref string) bool {
	return slices.Contains(VideoExtensions, strings.ToLower(filepath.Ext(ref)))
}
