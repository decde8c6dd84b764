package db

import (
	"sort"
	"strings"
	"unicode"

	"github.com/airenas/stream-decoder/internal/domain"
)

const (
	previewLen    = 60
	previewBefore = 20
	previewAfter  = 40
	noText        = "(no text)"
)

func sortNewestFirst(recs []*domain.Recording) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].ID > recs[j].ID
		}
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
}

// search filters recordings by a case insensitive keyword, empty keyword matches all
func search(recs []*domain.Recording, keyword string) []domain.SearchResult {
	kw := lowerRunes(strings.TrimSpace(keyword))
	res := []domain.SearchResult{}
	for _, r := range recs {
		if p, ok := preview(r.Text, kw); ok {
			res = append(res, domain.SearchResult{ID: r.ID, Preview: p})
		}
	}
	return res
}

func preview(text string, kw []rune) (string, bool) {
	tr := []rune(text)
	if len(kw) == 0 {
		if len(tr) == 0 {
			return noText, true
		}
		if len(tr) > previewLen {
			return string(tr[:previewLen]) + "...", true
		}
		return text, true
	}
	idx := indexRunes(lowerRunes(text), kw)
	if idx < 0 {
		return "", false
	}
	start := max(0, idx-previewBefore)
	end := min(len(tr), idx+len(kw)+previewAfter)
	var sb strings.Builder
	if start > 0 {
		sb.WriteString("...")
	}
	sb.WriteString(string(tr[start:end]))
	if end < len(tr) {
		sb.WriteString("...")
	}
	return sb.String(), true
}

// lowerRunes keeps rune count, so indexes match the original text
func lowerRunes(s string) []rune {
	res := []rune(s)
	for i, r := range res {
		res[i] = unicode.ToLower(r)
	}
	return res
}

func indexRunes(s, sub []rune) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		match := true
		for j := range sub {
			if s[i+j] != sub[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
