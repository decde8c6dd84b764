package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/stream-decoder/internal/utils"
)

// Punctuator restores punctuation and casing with an external service
type Punctuator struct {
	client *jsonClient
}

// NewPunctuator creates a punctuation middleware
func NewPunctuator(getURL string) (*Punctuator, error) {
	if getURL == "" {
		return nil, fmt.Errorf("no getURL")
	}
	res := Punctuator{client: newJSONClient(getURL, time.Second*10)}
	goapp.Log.Info().Str("url", getURL).Msg("Punctuator")
	return &res, nil
}

// Process punctuates the text
func (sp *Punctuator) Process(ctx context.Context, text string) (string, error) {
	defer utils.MeasureTime("punctuator", time.Now())
	if text == "" {
		return text, nil
	}
	goapp.Log.Debug().Str("text", text).Msg("punctuating")
	res := &punctResponse{}
	if err := sp.client.post(ctx, punctRequest{Text: text}, res); err != nil {
		return "", err
	}
	goapp.Log.Debug().Str("text", res.PunctuatedText).Msg("punctuation result")
	return res.PunctuatedText, nil
}

type punctRequest struct {
	Text string `json:"text"`
}

type punctResponse struct {
	PunctuatedText string   `json:"punctuatedText"`
	Original       []string `json:"original"`
	Punctuated     []string `json:"punctuated"`
}
