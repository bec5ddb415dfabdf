package index

// Posting records how often a term occurs in one snippet. Doc is the
// snippet's ordinal in the index.
type Posting struct {
	Doc       int
	Frequency int
}

type PostingList []Posting

type DocStats struct {
	DocID  string
	DocLen int
}
