package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/stream-decoder/internal/result"
	"github.com/airenas/stream-decoder/internal/utils"
)

// Cleaner turns word piece marks into spaces and trims text
type Cleaner struct {
}

// NewCleaner creates a text cleaner
func NewCleaner() *Cleaner {
	res := Cleaner{}
	goapp.Log.Info().Msg("Cleaner")
	return &res
}

// Process cleans the text
func (sp *Cleaner) Process(ctx context.Context, text string) (string, error) {
	defer utils.MeasureTime("cleaner", time.Now())
	text = strings.ReplaceAll(text, result.WordBoundary, " ")
	text = strings.ReplaceAll(text, "_", " ")
	return strings.Join(strings.Fields(text), " "), nil
}
