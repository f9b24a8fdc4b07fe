package textutil

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// DefaultTitle is the file stem used when a title sanitises to nothing.
const DefaultTitle = "transcript"

// MaxTitleBytes caps artifact stems well below common 255-byte name limits so
// extensions and temp suffixes still fit.
const MaxTitleBytes = 200

// titleReplacer removes characters that are unsafe in file names on common
// filesystems, including both path separators.
var titleReplacer = strings.NewReplacer(
	"<", "",
	">", "",
	":", "",
	"\"", "",
	"/", "",
	"\\", "",
	"|", "",
	"?", "",
	"*", "",
)

// SanitizeTitle converts a media title into a file stem. Unsafe characters are
// removed, leading/trailing dots and spaces are stripped, and the result is
// capped at MaxTitleBytes without splitting a multi-byte rune. Empty results
// fall back to DefaultTitle.
func SanitizeTitle(title string) string {
	name := norm.NFC.String(title)
	name = titleReplacer.Replace(name)
	name = strings.Map(func(r rune) rune {
		if r < ' ' || r == 0x7f {
			return -1
		}
		return r
	}, name)
	name = strings.Trim(name, ". ")
	name = truncateBytes(name, MaxTitleBytes)
	name = strings.Trim(name, ". ")
	if name == "" {
		return DefaultTitle
	}
	return name
}

// SanitizeToken converts a string to a lowercase filesystem-safe token.
// Letters are lowercased, digits and hyphens/underscores are kept, everything
// else becomes an underscore. Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}

// Abbreviate shortens value to at most max runes, marking the cut with "...".
func Abbreviate(value string, max int) string {
	value = strings.TrimSpace(value)
	if max <= 0 || utf8.RuneCountInString(value) <= max {
		return value
	}
	if max <= 3 {
		return string([]rune(value)[:max])
	}
	return string([]rune(value)[:max-3]) + "..."
}

func truncateBytes(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut]
}
