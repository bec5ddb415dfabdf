package analytics

import "time"

// AskEvent describes one answered question. It is published to Kafka
// after the response has been computed.
type AskEvent struct {
	Question     string    `json:"question"`
	ContentTerms []string  `json:"content_terms"`
	Returned     int       `json:"returned"`
	TopDocID     string    `json:"top_doc_id,omitempty"`
	Canonical    bool      `json:"canonical"`
	LatencyMs    float64   `json:"latency_ms"`
	CacheHit     bool      `json:"cache_hit"`
	Timestamp    time.Time `json:"timestamp"`
	RequestID    string    `json:"request_id,omitempty"`
}

// NoAnswer reports whether retrieval returned nothing for the question.
func (e AskEvent) NoAnswer() bool {
	return e.Returned == 0
}
