package domain

import "time"

// Recording keeps the result of one finished decode session.
// Text is plain joined sentences, Transcript - the tagged segments text, Timed - word pieces JSON.
type Recording struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	Text       string    `json:"text"`
	Transcript string    `json:"transcript"`
	Timed      string    `json:"timed"`
	Samples    int       `json:"samples"`
	SampleRate int       `json:"sampleRate"`
}

// SearchResult is a recording match with a short text preview
type SearchResult struct {
	ID      string `json:"id"`
	Preview string `json:"preview"`
}
