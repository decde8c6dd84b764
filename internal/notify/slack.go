package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
)

// Slack posts messages to a Slack compatible incoming webhook
type Slack struct {
	httpclient *http.Client
	url        string
	timeout    time.Duration
}

// NewSlack creates a notifier, returns nil if url is empty
func NewSlack(url string) *Slack {
	if url == "" {
		goapp.Log.Info().Msg("Slack notifications disabled")
		return nil
	}
	goapp.Log.Info().Str("url", hideURL(url)).Msg("Slack")
	return &Slack{httpclient: &http.Client{}, url: url, timeout: time.Second * 10}
}

// RecordingSaved sends the recording text, does nothing on nil receiver
func (s *Slack) RecordingSaved(ctx context.Context, id, text string) error {
	if s == nil {
		return nil
	}
	return s.post(ctx, Message(id, text))
}

// Message formats the notification text
func Message(id, text string) string {
	return fmt.Sprintf("📝 [%s]\n%s", id, text)
}

type message struct {
	Text string `json:"text"`
}

func (s *Slack) post(ctx context.Context, text string) error {
	ctx, cancelF := context.WithTimeout(ctx, s.timeout)
	defer cancelF()

	b := new(bytes.Buffer)
	if err := json.NewEncoder(b).Encode(message{Text: text}); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, b)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.httpclient.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1000))
		_ = resp.Body.Close()
	}()
	if err := goapp.ValidateHTTPResp(resp, 100); err != nil {
		return fmt.Errorf("can't invoke webhook: %w", err)
	}
	return nil
}

func hideURL(url string) string {
	if len(url) > 30 {
		return url[:30] + "..."
	}
	return url
}
