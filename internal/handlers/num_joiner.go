package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/stream-decoder/internal/utils"
)

// Joiner communicates with the number joiner service
type Joiner struct {
	client *jsonClient
}

// NewJoiner creates a number joiner middleware
func NewJoiner(getURL string) (*Joiner, error) {
	if getURL == "" {
		return nil, fmt.Errorf("no getURL")
	}
	res := Joiner{client: newJSONClient(getURL, time.Second*3)}
	goapp.Log.Info().Str("url", getURL).Msg("Joiner")
	return &res, nil
}

// Process joins spelled numbers in the text
func (sp *Joiner) Process(ctx context.Context, text string) (string, error) {
	defer utils.MeasureTime("joiner", time.Now())
	if text == "" {
		return text, nil
	}
	res := &response{}
	if err := sp.client.post(ctx, request{Text: text}, res); err != nil {
		return "", err
	}
	return res.Result, nil
}

type request struct {
	Text string `json:"text"`
}

type response struct {
	Result string `json:"result"`
}
