// Package textproc provides the tokenizer shared by indexing, scoring,
// boosting and sentence extraction. Tokens are maximal runs of ASCII
// letters and digits, lowercased; everything else separates tokens.
package textproc

import (
	"strings"
)

var stopWords = map[string]struct{}{
	"what": {}, "is": {}, "the": {}, "a": {}, "an": {}, "of": {},
	"and": {}, "to": {}, "for": {}, "in": {}, "on": {}, "at": {},
	"how": {}, "do": {}, "i": {}, "are": {}, "be": {}, "it": {},
	"does": {}, "with": {}, "after": {}, "before": {}, "max": {},
	"maximum": {},
}

// Tokenize lowercases text and splits it into alphanumeric tokens.
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	return strings.FieldsFunc(text, func(r rune) bool {
		return !isAlnum(r)
	})
}

// ContentTerms returns the question's tokens in order with stop-words
// removed. Repeated terms are kept.
func ContentTerms(question string) []string {
	tokens := Tokenize(question)
	terms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if IsStopWord(tok) {
			continue
		}
		terms = append(terms, tok)
	}
	return terms
}

func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}

// ContainsToken reports whether token occurs in text as a whole word.
func ContainsToken(text, token string) bool {
	token = strings.ToLower(token)
	for _, t := range Tokenize(text) {
		if t == token {
			return true
		}
	}
	return false
}

// CountMatches returns how many of terms occur in text as whole words.
// Each entry of terms counts once, so duplicates count twice.
func CountMatches(text string, terms []string) int {
	if len(terms) == 0 {
		return 0
	}
	set := TokenSet(text)
	n := 0
	for _, term := range terms {
		if _, ok := set[term]; ok {
			n++
		}
	}
	return n
}

// TokenSet returns the distinct tokens of text.
func TokenSet(text string) map[string]struct{} {
	tokens := Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
