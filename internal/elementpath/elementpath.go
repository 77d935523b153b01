// Package elementpath validates dot-separated element paths and produces the
// ordered lookup candidates used to resolve a path against a flat key map.
//
// An element path names a schema node from the root, e.g. "visit.date".
// Every segment starts with a letter (optionally followed by combining marks)
// and continues with letters, combining marks, decimal digits or underscores.
// No segment may be a reserved name in any letter case, and the whole path is
// at most MaxLength characters.
package elementpath

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxLength is the longest element path, and the longest storage key, accepted.
const MaxLength = 62

// Separator joins the segments of an element path.
const Separator = "."

var namePattern = regexp.MustCompile(`^\p{L}\p{M}*(\p{L}\p{M}*|\p{Nd}|_)*$`)

// IsValid reports whether path is a syntactically valid element path.
func IsValid(path string) bool {
	if path == "" || utf8.RuneCountInString(path) > MaxLength {
		return false
	}
	for _, segment := range strings.Split(path, Separator) {
		if !IsValidName(segment) {
			return false
		}
	}
	return true
}

// IsValidName reports whether name is a valid single path segment.
func IsValidName(name string) bool {
	if !namePattern.MatchString(name) {
		return false
	}
	return !IsReserved(name)
}

// Split returns the segments of path.
func Split(path string) []string {
	return strings.Split(path, Separator)
}

// Join builds an element path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, Separator)
}

// Candidate is one lookup attempt for a path: the leading Depth segments
// joined in either dot or underscore form.
type Candidate struct {
	Name  string
	Depth int
}

// Candidates returns the lookup names for path from most to least specific.
// For each depth, from all segments down to the first one, the dot form is
// listed before the underscore form. A single-segment depth yields one
// candidate since both forms coincide.
func Candidates(path string) []Candidate {
	segments := Split(path)
	out := make([]Candidate, 0, 2*len(segments))
	for j := len(segments); j >= 1; j-- {
		dotted := strings.Join(segments[:j], ".")
		out = append(out, Candidate{Name: dotted, Depth: j})
		if j > 1 {
			out = append(out, Candidate{Name: strings.Join(segments[:j], "_"), Depth: j})
		}
	}
	return out
}
