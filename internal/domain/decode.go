//go:generate stringer -type=DecodeState
package domain

// DecodeState is the outcome of one recognition engine decode step
type DecodeState int

const (
	// Active - mid utterance, more features pending
	Active DecodeState = iota
	// Endpoint - utterance boundary reached, the stream continues
	Endpoint
	// EndOfFeatures - input is exhausted, terminal for the current run
	EndOfFeatures
)

// WordPiece is a recognized token with its position in the sample timeline
type WordPiece struct {
	Word  string
	Start int
	End   int
}

// Hypothesis is the best engine result for the current segment
type Hypothesis struct {
	Sentence   string
	WordPieces []WordPiece
}

// Segment is a finalized slice of transcript bounded by [Start, End) samples.
// Text is the rendered form: sentence, time tag and, for non final segments, a trailing new line.
type Segment struct {
	Start      int
	End        int
	Sentence   string
	Text       string
	WordPieces []WordPiece
	Final      bool
}

// Snapshot is an immutable copy of a decode session state
type Snapshot struct {
	ID           string
	Segments     []Segment
	WordPieces   []WordPiece
	Partial      string
	State        DecodeState
	TotalSamples int
	SegmentStart int
	Running      bool
	Finished     bool
	Err          error
}
