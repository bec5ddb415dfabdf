// Package eval scores the QA service against a gold set of questions and
// answers.
package eval

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/textproc"
)

// TokenF1 is the F1 over alphanumeric tokens of pred and gold, matching
// each gold token at most once. Two empty strings score 1.
func TokenF1(pred, gold string) float64 {
	a, b := textproc.Tokenize(pred), textproc.Tokenize(gold)
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	used := make([]bool, len(b))
	common := 0
	for _, x := range a {
		for j, y := range b {
			if !used[j] && x == y {
				used[j] = true
				common++
				break
			}
		}
	}
	return f1(common, len(a), len(b))
}

// Normalize lowercases, trims and collapses whitespace.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// ExactMatch is 1 when the normalized strings are equal.
func ExactMatch(pred, gold string) float64 {
	if Normalize(pred) == Normalize(gold) {
		return 1
	}
	return 0
}

// NormF1 is the bag-of-words F1 over whitespace tokens of the normalized
// strings. Empty input scores 0.
func NormF1(pred, gold string) float64 {
	p, g := strings.Fields(Normalize(pred)), strings.Fields(Normalize(gold))
	if len(p) == 0 || len(g) == 0 {
		return 0
	}
	counts := make(map[string]int, len(g))
	for _, t := range g {
		counts[t]++
	}
	overlap := 0
	for _, t := range p {
		if counts[t] > 0 {
			counts[t]--
			overlap++
		}
	}
	return f1(overlap, len(p), len(g))
}

// ContainsNormalized reports whether text contains sub, ignoring case and
// surrounding whitespace of sub.
func ContainsNormalized(sub, text string) bool {
	return strings.Contains(strings.ToLower(text), strings.TrimSpace(strings.ToLower(sub)))
}

// RecallAtK is 1 when any of the first k ranked ids is a gold id.
func RecallAtK(ranked, gold []string, k int) float64 {
	want := toSet(gold)
	for _, id := range head(ranked, k) {
		if _, ok := want[id]; ok {
			return 1
		}
	}
	return 0
}

// MRRAtK is the reciprocal rank of the first gold id within the first k.
func MRRAtK(ranked, gold []string, k int) float64 {
	want := toSet(gold)
	for i, id := range head(ranked, k) {
		if _, ok := want[id]; ok {
			return 1 / float64(i+1)
		}
	}
	return 0
}

func f1(common, predLen, goldLen int) float64 {
	if common == 0 {
		return 0
	}
	precision := float64(common) / float64(predLen)
	recall := float64(common) / float64(goldLen)
	return 2 * precision * recall / (precision + recall)
}

func head(ids []string, k int) []string {
	if k < len(ids) && k >= 0 {
		return ids[:k]
	}
	return ids
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
