package interp

import "strings"

// ListStyle selects how CommaList joins its members.
type ListStyle int

const (
	AllAnd ListStyle = iota
	AllComma
	CommaWithAnd
	OxfordComma
)

// CommaList renders words as prose: "a", "a and b", "a, b, and c".
func CommaList(words []string, style ListStyle) string {
	switch len(words) {
	case 0:
		return ""
	case 1:
		return words[0]
	}

	switch style {
	case AllAnd:
		return strings.Join(words, " and ")
	case AllComma:
		return strings.Join(words, ", ")
	case CommaWithAnd:
		return strings.Join(words[:len(words)-1], ", ") + " and " + words[len(words)-1]
	default:
		return strings.Join(words[:len(words)-1], ", ") + ", and " + words[len(words)-1]
	}
}
