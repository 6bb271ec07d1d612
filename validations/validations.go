// Package validations provide validation functions for uploaded files.
package validations

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gabriel-vasile/mimetype"
)

// SniffLen is the number of leading bytes IsTextContent needs to decide.
const SniffLen = 3072

// textRoot is the MIME type every textual format descends from in mimetype's tree.
const textRoot = "text/plain"

// MatchesAnyPattern reports whether the base name of fileName matches one of
// the doublestar patterns. Patterns containing a separator are matched
// against the cleaned, slash-separated name instead.
// fileName: the client-supplied file name.
// patterns: doublestar patterns such as "*.csv".
// returns: false for an empty name or when no pattern matches.
func MatchesAnyPattern(fileName string, patterns []string) bool {
	if fileName == "" {
		return false
	}
	full := filepath.ToSlash(filepath.Clean(fileName))
	base := filepath.Base(full)
	for _, p := range patterns {
		name := base
		if strings.Contains(p, "/") {
			name = full
		}
		if ok, err := doublestar.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// IsTextContent reports whether head, the first bytes of a file, looks like
// text. Only the first SniffLen bytes are considered. An empty head is text.
func IsTextContent(head []byte) bool {
	if len(head) == 0 {
		return true
	}
	if len(head) > SniffLen {
		head = head[:SniffLen]
	}
	for m := mimetype.Detect(head); m != nil; m = m.Parent() {
		if m.Is(textRoot) {
			return true
		}
	}
	return false
}

// DetectContentType returns the MIME type detected from head, for logging.
func DetectContentType(head []byte) string {
	return mimetype.Detect(head).String()
}
