package handlers

import (
	"context"

	"github.com/airenas/go-app/pkg/goapp"
)

// Handler transforms text
type Handler interface {
	Process(context.Context, string) (string, error)
}

// ListHandler passes text to a list of handlers.
// A failing handler is skipped, the text from the previous one goes further.
type ListHandler struct {
	handlers []Handler
}

// NewListHandler creates an empty list
func NewListHandler() *ListHandler {
	return &ListHandler{}
}

// Process runs all handlers in order
func (sp *ListHandler) Process(ctx context.Context, data string) (string, error) {
	res := data
	for i, h := range sp.handlers {
		goapp.Log.Debug().Int("handler", i).Msg("Processing")
		if dataNew, err := h.Process(ctx, res); err != nil {
			goapp.Log.Error().Err(err).Int("handler", i).Msg("Can't process")
		} else {
			res = dataNew
		}
	}
	return res, nil
}

// Add appends a handler
func (sp *ListHandler) Add(h Handler) {
	sp.handlers = append(sp.handlers, h)
}

// Len returns the number of handlers
func (sp *ListHandler) Len() int {
	return len(sp.handlers)
}
