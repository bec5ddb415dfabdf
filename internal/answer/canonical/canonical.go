// Package canonical replaces extracted answers with fixed phrasings for
// recognised topics.
package canonical

import "strings"

// Entry maps a lowercase topic substring to its canonical answer.
type Entry struct {
	Topic  string `yaml:"topic" json:"topic"`
	Answer string `yaml:"answer" json:"answer"`
}

// Canonicalizer checks entries in order; the first topic found wins.
type Canonicalizer struct {
	entries []Entry
}

func New(entries []Entry) *Canonicalizer {
	cp := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Topic == "" {
			continue
		}
		cp = append(cp, Entry{Topic: strings.ToLower(e.Topic), Answer: e.Answer})
	}
	return &Canonicalizer{entries: cp}
}

// Default returns the built-in entries.
func Default() *Canonicalizer {
	return New(DefaultEntries())
}

func DefaultEntries() []Entry {
	return []Entry{
		{Topic: "deductible", Answer: "The deductible is the amount you pay before coverage starts."},
		{Topic: "coinsurance", Answer: "Coinsurance is the percentage you pay after meeting the deductible."},
		{Topic: "add a dependent", Answer: "Submit the dependent enrollment form within 30 days of a qualifying event."},
		{Topic: "out-of-pocket", Answer: "The most you pay in a plan year for covered services."},
	}
}

// Apply returns the canonical answer for the first topic that occurs in
// the lowercased question, or extracted unchanged. The bool reports
// whether an override happened.
func (c *Canonicalizer) Apply(question, extracted string) (string, bool) {
	q := strings.ToLower(question)
	for _, e := range c.entries {
		if strings.Contains(q, e.Topic) {
			return e.Answer, true
		}
	}
	return extracted, false
}

// Entries returns a copy of the configured entries in match order.
func (c *Canonicalizer) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}
