package result

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/airenas/stream-decoder/internal/domain"
)

// WordBoundary is the word piece marking a space between words
const WordBoundary = "▁"

type timedWord struct {
	W string `json:"w"`
	S int    `json:"s"`
	E int    `json:"e"`
}

// FormatTime converts a sample count to MM:SS.S
func FormatTime(samples, sampleRate int) string {
	if sampleRate <= 0 || samples < 0 {
		return "00:00.0"
	}
	tenths := (int64(samples)*10 + int64(sampleRate)/2) / int64(sampleRate)
	return fmt.Sprintf("%02d:%02d.%d", tenths/600, (tenths%600)/10, tenths%10)
}

// Tag renders the time range tag appended to a finalized segment
func Tag(start, end, sampleRate int) string {
	return " [" + FormatTime(start, sampleRate) + "-" + FormatTime(end, sampleRate) + "]"
}

// SegmentText renders finalized segment text. Only the final segment goes without the line break.
func SegmentText(sentence string, start, end, sampleRate int, final bool) string {
	res := sentence + Tag(start, end, sampleRate)
	if !final {
		res += "\n"
	}
	return res
}

// RenderText joins finalized segments and appends the in-flight partial hypothesis
// while a decode run is active
func RenderText(s domain.Snapshot) string {
	var sb strings.Builder
	for _, seg := range s.Segments {
		sb.WriteString(seg.Text)
	}
	if s.Running && s.Partial != "" {
		sb.WriteString(s.Partial)
	}
	return sb.String()
}

// RenderTimedJSON renders word pieces as a JSON array of {"w","s","e"} objects
func RenderTimedJSON(pieces []domain.WordPiece) string {
	words := make([]timedWord, 0, len(pieces))
	for _, wp := range pieces {
		words = append(words, timedWord{W: wp.Word, S: wp.Start, E: wp.End})
	}
	b := new(bytes.Buffer)
	enc := json.NewEncoder(b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(words); err != nil {
		// plain strings and ints can't fail
		return "[]"
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// TimedSince renders only the pieces appended after offset, returns the next offset
func TimedSince(pieces []domain.WordPiece, offset int) (string, int) {
	offset = max(offset, 0)
	offset = min(offset, len(pieces))
	return RenderTimedJSON(pieces[offset:]), len(pieces)
}

// TimestampedText builds sentence per line text prefixed with the start time of the sentence:
// "[MM:SS.S] sentence". Sentences end at '.', '?' or '!' pieces, WordBoundary is rendered as a space.
func TimestampedText(pieces []domain.WordPiece, sampleRate int) string {
	var res, sentence strings.Builder
	start := -1
	flush := func() {
		if txt := strings.TrimSpace(sentence.String()); txt != "" {
			res.WriteString("[" + FormatTime(start, sampleRate) + "] " + txt + "\n")
		}
		sentence.Reset()
		start = -1
	}
	for _, wp := range pieces {
		if start == -1 {
			start = wp.Start
		}
		sentence.WriteString(strings.ReplaceAll(wp.Word, WordBoundary, " "))
		if isSentenceEnd(wp.Word) {
			flush()
		}
	}
	flush()
	return strings.TrimSpace(res.String())
}

func isSentenceEnd(w string) bool {
	return w == "." || w == "?" || w == "!"
}
