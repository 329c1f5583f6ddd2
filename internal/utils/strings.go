package utils

import (
	"path/filepath"
	"strings"
	"unicode"
)

// SanitizeFilename reduces an uploaded file name to a safe base name made of ASCII
// letters, digits, dots, dashes and underscores. Whitespace becomes an underscore.
// Returns "" when nothing usable is left.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}

	out := strings.Trim(b.String(), "._")
	if out == "" || out == "." || out == ".." {
		return ""
	}
	return out
}

// LikePattern turns a free-text search term into a SQL LIKE pattern, escaping the
// wildcard characters with a backslash. Use with ESCAPE '\'.
func LikePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(term)) + "%"
}
