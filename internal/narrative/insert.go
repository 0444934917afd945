package narrative

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ApplyInsertion splices text into narrative at the planned point, formatting
// it for the position: prepended text gets a leading capital and terminal
// period, appended text bridges the narrative's final punctuation, interior
// text gets a single leading space. Pure function; callers recompute offsets
// between sequential insertions since each one grows the string.
func ApplyInsertion(narrative string, point InsertionPoint, text string) string {
	offset := point.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > len(narrative) {
		offset = len(narrative)
	}

	switch {
	case offset == 0:
		frag := capitalizeFirst(text)
		if !hasTerminalPunctuation(frag) {
			frag += "."
		}
		if narrative == "" {
			return frag
		}
		return frag + " " + narrative

	case offset == len(narrative):
		if hasTerminalPunctuation(narrative) {
			return narrative + " " + text
		}
		return narrative + ". " + text

	default:
		return narrative[:offset] + " " + text + narrative[offset:]
	}
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

func hasTerminalPunctuation(s string) bool {
	if s == "" {
		return false
	}
	return strings.ContainsRune(".!?", rune(s[len(s)-1]))
}
