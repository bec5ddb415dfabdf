package index

import (
	"math"
)

const (
	k1 = 1.5
	b  = 0.75
)

// Score returns a BM25 relevance score for every snippet, indexed by
// snippet ordinal. Each occurrence of a token in queryTokens contributes,
// so a repeated query word weighs more. Snippets without any query token
// score 0.
func (x *Index) Score(queryTokens []string) []float64 {
	scores := make([]float64, len(x.snippets))
	total := int64(len(x.snippets))
	for _, term := range queryTokens {
		postings := x.postings[term]
		if len(postings) == 0 {
			continue
		}
		idf := computeIDF(total, int64(len(postings)))
		for _, p := range postings {
			scores[p.Doc] += idf * computeTFNorm(
				float64(p.Frequency),
				float64(x.docLens[p.Doc]),
				x.avgDocLen,
			)
		}
	}
	return scores
}

func computeIDF(totalDocs int64, docFreq int64) float64 {
	numerator := float64(totalDocs) - float64(docFreq)
	denominator := float64(docFreq) + 0.5
	return math.Log(numerator/denominator + 1)
}

func computeTFNorm(termFreq float64, docLength float64, avgDocLength float64) float64 {
	if avgDocLength == 0 {
		return 0
	}
	lengthRatio := docLength / avgDocLength
	denominator := termFreq + k1*(1-b+b*lengthRatio)
	return (termFreq * (k1 + 1)) / denominator
}
