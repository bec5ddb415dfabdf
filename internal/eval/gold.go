package eval

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
)

// GoldRecord is one line of a gold JSONL file. DocIDs is optional and
// enables id-based recall and MRR.
type GoldRecord struct {
	ID       int      `json:"id"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	DocIDs   []string `json:"doc_ids,omitempty"`
}

// Answered reports whether the record has a gold answer to score against.
func (g GoldRecord) Answered() bool {
	return strings.TrimSpace(g.Answer) != ""
}

// LoadGold reads a JSONL gold file, skipping blank lines.
func LoadGold(path string) ([]GoldRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening gold file: %w", err)
	}
	defer f.Close()
	return ReadGold(f)
}

func ReadGold(r io.Reader) ([]GoldRecord, error) {
	var out []GoldRecord
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var rec GoldRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("gold line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading gold file: %w", err)
	}
	return out, nil
}

// TemplatePrompts are the questions used for gold templates.
var TemplatePrompts = []string{
	"What is the deductible?",
	"Explain coinsurance in one sentence.",
	"How do I add a dependent?",
	"Define the out-of-pocket maximum.",
}

// WriteTemplate writes n JSONL records with ids 1..n, a random prompt each
// and an empty answer to be filled in by hand.
func WriteTemplate(w io.Writer, n int, rng *rand.Rand) error {
	enc := json.NewEncoder(w)
	for i := 0; i < n; i++ {
		rec := GoldRecord{
			ID:       i + 1,
			Question: TemplatePrompts[rng.Intn(len(TemplatePrompts))],
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("writing template record: %w", err)
		}
	}
	return nil
}
