// Package index holds the immutable snippet index and its BM25 scorer.
// An Index is built once at startup and is safe for concurrent readers
// without locking.
package index

import (
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/textproc"
	apperrors "github.com/Adithya-Monish-Kumar-K/ragqa/pkg/errors"
)

// Snippet is an indexed chunk of source text with a stable identifier.
type Snippet struct {
	ID   string `json:"doc_id"`
	Text string `json:"text"`
}

type Index struct {
	snippets  []Snippet
	postings  map[string]PostingList
	docLens   []int
	avgDocLen float64
}

// Build tokenizes every snippet and constructs the postings. The snippets
// slice is copied; later changes to it do not affect the index.
func Build(snippets []Snippet) (*Index, error) {
	if err := Validate(snippets); err != nil {
		return nil, err
	}

	idx := &Index{
		snippets: make([]Snippet, len(snippets)),
		postings: make(map[string]PostingList),
		docLens:  make([]int, len(snippets)),
	}
	copy(idx.snippets, snippets)

	var totalLen int
	for doc, s := range idx.snippets {
		tokens := textproc.Tokenize(s.Text)
		idx.docLens[doc] = len(tokens)
		totalLen += len(tokens)

		freqs := make(map[string]int)
		order := make([]string, 0, len(tokens))
		for _, tok := range tokens {
			if freqs[tok] == 0 {
				order = append(order, tok)
			}
			freqs[tok]++
		}
		for _, term := range order {
			idx.postings[term] = append(idx.postings[term], Posting{
				Doc:       doc,
				Frequency: freqs[term],
			})
		}
	}
	idx.avgDocLen = float64(totalLen) / float64(len(idx.snippets))
	return idx, nil
}

// Validate rejects an empty snippet list, empty or duplicate ids, and
// snippets whose text is blank.
func Validate(snippets []Snippet) error {
	if len(snippets) == 0 {
		return apperrors.ErrEmptyIndex
	}
	seen := make(map[string]int, len(snippets))
	for i, s := range snippets {
		if s.ID == "" {
			return fmt.Errorf("snippet %d: empty id: %w", i, apperrors.ErrMalformedSnippet)
		}
		if prev, dup := seen[s.ID]; dup {
			return fmt.Errorf("snippet %d: id %q already used by snippet %d: %w", i, s.ID, prev, apperrors.ErrMalformedSnippet)
		}
		if strings.TrimSpace(s.Text) == "" {
			return fmt.Errorf("snippet %q: empty text: %w", s.ID, apperrors.ErrMalformedSnippet)
		}
		seen[s.ID] = i
	}
	return nil
}

func (x *Index) Len() int {
	return len(x.snippets)
}

func (x *Index) Snippet(doc int) Snippet {
	return x.snippets[doc]
}

func (x *Index) AvgDocLength() float64 {
	return x.avgDocLen
}

func (x *Index) DocStats(doc int) DocStats {
	return DocStats{DocID: x.snippets[doc].ID, DocLen: x.docLens[doc]}
}

// Postings returns the postings for a term, ordered by snippet ordinal.
// The returned slice must not be modified.
func (x *Index) Postings(term string) PostingList {
	return x.postings[term]
}

// Vocabulary returns the number of distinct terms.
func (x *Index) Vocabulary() int {
	return len(x.postings)
}
