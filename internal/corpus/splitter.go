package corpus

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxSnippetLen bounds a packed snippet, in characters.
	DefaultMaxSnippetLen = 300
	minSnippetLen        = 20
)

var pieceSep = regexp.MustCompile(`\n\n|\n|- `)

// SplitSnippets breaks text on blank lines, line breaks and "- " bullets,
// then greedily joins consecutive pieces with a space while the result
// stays within maxLen characters. Snippets of minSnippetLen characters or
// fewer are dropped. A piece longer than maxLen becomes its own snippet.
func SplitSnippets(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultMaxSnippetLen
	}

	var (
		snippets []string
		cur      string
	)
	for _, piece := range pieceSep.Split(text, -1) {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		if utf8.RuneCountInString(cur)+utf8.RuneCountInString(piece)+1 <= maxLen {
			cur = strings.TrimSpace(cur + " " + piece)
			continue
		}
		if cur != "" {
			snippets = append(snippets, cur)
		}
		cur = piece
	}
	if cur != "" {
		snippets = append(snippets, cur)
	}

	kept := snippets[:0]
	for _, s := range snippets {
		if utf8.RuneCountInString(s) > minSnippetLen {
			kept = append(kept, s)
		}
	}
	return kept
}
