// Package extractor picks the single most relevant sentence of a snippet.
package extractor

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/textproc"
)

// SplitSentences trims text and splits it after '.', '!' or '?' wherever
// whitespace follows. The whitespace run is dropped; the punctuation stays
// with its sentence.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sents []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) || i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		sents = append(sents, string(runes[start:i+1]))
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	return append(sents, string(runes[start:]))
}

// BestSentence returns the sentence of text containing the most of terms,
// preferring the longer sentence on equal overlap and the earlier one when
// both are equal. Text without sentences is returned unchanged.
func BestSentence(text string, terms []string) string {
	sents := SplitSentences(text)
	if len(sents) == 0 {
		return text
	}

	best := sents[0]
	bestOverlap := textproc.CountMatches(best, terms)
	bestLen := utf8.RuneCountInString(best)
	for _, s := range sents[1:] {
		overlap := textproc.CountMatches(s, terms)
		n := utf8.RuneCountInString(s)
		if overlap > bestOverlap || (overlap == bestOverlap && n > bestLen) {
			best, bestOverlap, bestLen = s, overlap, n
		}
	}
	return best
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
